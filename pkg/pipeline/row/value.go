package row

import (
	"encoding"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// ErrTypeMismatch is returned when a value's Go type does not fit the
// field's declared type.
var ErrTypeMismatch = errors.New("value does not match declared field type")

const (
	DefaultDateFormat      = "2006/01/02 15:04:05.000"
	DefaultTimestampFormat = time.RFC3339Nano
)

// Infinity is a date or timestamp value after (or, when negative, before)
// every finite time, as stored by PostgreSQL.
type Infinity int8

const (
	NegativeInfinity Infinity = -1
	PositiveInfinity Infinity = 1
)

func (i Infinity) String() string {
	if i < 0 {
		return "-infinity"
	}
	return "infinity"
}

// String renders v in the field's printable form. ok is false for a nil value.
func (f Field) String(v any) (s string, ok bool, err error) {
	if v == nil {
		return "", false, nil
	}

	switch f.Type {
	case TypeString:
		switch t := v.(type) {
		case string:
			return t, true, nil
		case []byte:
			return string(t), true, nil
		}
	case TypeBinary:
		// binary has no printable form; callers must use Binary
	case TypeInteger:
		if s, ok := formatInteger(v); ok {
			return s, true, nil
		}
	case TypeNumber:
		switch t := v.(type) {
		case float64:
			return strconv.FormatFloat(t, 'g', -1, 64), true, nil
		case float32:
			return strconv.FormatFloat(float64(t), 'g', -1, 32), true, nil
		}
		if s, ok := formatInteger(v); ok {
			return s, true, nil
		}
	case TypeBigNumber:
		switch t := v.(type) {
		case *big.Float:
			return t.Text('f', -1), true, nil
		case *big.Int:
			return t.String(), true, nil
		case string:
			if _, ok := new(big.Float).SetString(t); ok {
				return t, true, nil
			}
		}
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return "Y", true, nil
			}
			return "N", true, nil
		}
	case TypeDate, TypeTimestamp:
		switch t := v.(type) {
		case time.Time:
			return t.Format(f.layout()), true, nil
		case Infinity:
			return t.String(), true, nil
		}
	case TypeInternetAddress:
		switch t := v.(type) {
		case net.IP:
			return t.String(), true, nil
		case netip.Addr:
			return t.String(), true, nil
		}
	case TypeSerializable:
		switch t := v.(type) {
		case encoding.TextMarshaler:
			b, err := t.MarshalText()
			if err != nil {
				return "", false, fmt.Errorf("field %q: %w", f.Name, err)
			}
			return string(b), true, nil
		case fmt.Stringer:
			return t.String(), true, nil
		}
	}

	return "", false, fmt.Errorf("field %q (%s) got %T: %w", f.Name, f.Type, v, ErrTypeMismatch)
}

// Binary renders v as raw bytes. Binary fields are returned unmodified,
// every other type is encoded from its printable form.
func (f Field) Binary(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	if f.Type == TypeBinary {
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("field %q (%s) got %T: %w", f.Name, f.Type, v, ErrTypeMismatch)
		}
		return b, nil
	}

	s, _, err := f.String(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (f Field) layout() string {
	if f.Format != "" {
		return f.Format
	}
	if f.Type == TypeDate {
		return DefaultDateFormat
	}
	return DefaultTimestampFormat
}

func formatInteger(v any) (string, bool) {
	switch t := v.(type) {
	case int:
		return strconv.FormatInt(int64(t), 10), true
	case int8:
		return strconv.FormatInt(int64(t), 10), true
	case int16:
		return strconv.FormatInt(int64(t), 10), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint:
		return strconv.FormatUint(uint64(t), 10), true
	case uint8:
		return strconv.FormatUint(uint64(t), 10), true
	case uint16:
		return strconv.FormatUint(uint64(t), 10), true
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	}
	return "", false
}
