package row

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Type is the declared type of a row field
type Type string

const (
	TypeNone            Type = "none"
	TypeNumber          Type = "number"
	TypeString          Type = "string"
	TypeDate            Type = "date"
	TypeBoolean         Type = "boolean"
	TypeInteger         Type = "integer"
	TypeBigNumber       Type = "bignumber"
	TypeSerializable    Type = "serializable"
	TypeBinary          Type = "binary"
	TypeTimestamp       Type = "timestamp"
	TypeInternetAddress Type = "internet_address"
)

var knownTypes = map[Type]struct{}{
	TypeNone: {}, TypeNumber: {}, TypeString: {}, TypeDate: {}, TypeBoolean: {},
	TypeInteger: {}, TypeBigNumber: {}, TypeSerializable: {}, TypeBinary: {},
	TypeTimestamp: {}, TypeInternetAddress: {},
}

// ParseType returns the Type named by s (case-insensitive).
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownTypes[t]; !ok {
		return TypeNone, fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

// UnmarshalText lets Type be decoded from JSON, YAML and mapstructure input.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Field describes one named, typed column of a row.
type Field struct {
	Name string `json:"name" mapstructure:"name"`
	Type Type   `json:"type" mapstructure:"type"`
	// Format is an optional layout used when rendering dates and timestamps
	Format string `json:"format,omitempty" mapstructure:"format"`
}

// Schema is the ordered list of fields every row of a stream conforms to.
type Schema []Field

// IndexOf returns the position of the named field, or -1.
func (s Schema) IndexOf(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Row is a fixed-arity tuple aligned to a Schema.
type Row []any

// FromMap builds a Row aligned to schema from a decoded JSON object.
// Binary fields accept a base64 string, matching encoding/json's []byte form.
// Numbers must have been decoded with json.Decoder.UseNumber.
func FromMap(schema Schema, m map[string]any) (Row, error) {
	r := make(Row, len(schema))
	for i, f := range schema {
		v, ok := m[f.Name]
		if !ok || v == nil {
			continue
		}
		if f.Type == TypeBinary {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("field %q: binary value must be base64 text", f.Name)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			r[i] = b
			continue
		}
		if s, ok := v.(string); ok {
			switch f.Type {
			case TypeDate, TypeTimestamp:
				t, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", f.Name, err)
				}
				r[i] = t
				continue
			case TypeInternetAddress:
				addr, err := netip.ParseAddr(s)
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", f.Name, err)
				}
				r[i] = addr
				continue
			}
		}
		if n, ok := v.(json.Number); ok {
			switch f.Type {
			case TypeInteger:
				iv, err := n.Int64()
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", f.Name, err)
				}
				r[i] = iv
			case TypeNumber:
				fv, err := n.Float64()
				if err != nil {
					return nil, fmt.Errorf("field %q: %w", f.Name, err)
				}
				r[i] = fv
			default:
				r[i] = n.String()
			}
			continue
		}
		r[i] = v
	}
	return r, nil
}
