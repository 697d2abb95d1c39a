package kafka

import (
	"maps"
	"slices"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// ProducerConfig is the configuration of a Kafka producer step. Topic, key
// field and message field are optional: unset is distinct from empty.
type ProducerConfig struct {
	topic        *string
	keyField     *string
	messageField *string
	properties   Properties

	// Security is supplied by the application config and never persisted
	// with the step.
	Security *Security
}

// NewProducerConfig returns an empty configuration.
func NewProducerConfig() *ProducerConfig {
	return &ProducerConfig{}
}

// Topic returns the Kafka topic name
func (c *ProducerConfig) Topic() (string, bool) { return deref(c.topic) }

// SetTopic sets the Kafka topic name
func (c *ProducerConfig) SetTopic(topic string) { c.topic = &topic }

// KeyField returns the name of the row field used as message key
func (c *ProducerConfig) KeyField() (string, bool) { return deref(c.keyField) }

// SetKeyField sets the name of the row field used as message key
func (c *ProducerConfig) SetKeyField(field string) { c.keyField = &field }

// MessageField returns the name of the row field used as message body
func (c *ProducerConfig) MessageField() (string, bool) { return deref(c.messageField) }

// SetMessageField sets the name of the row field used as message body
func (c *ProducerConfig) SetMessageField(field string) { c.messageField = &field }

// Properties returns the producer property bag. The returned value is
// owned by the config.
func (c *ProducerConfig) Properties() *Properties { return &c.properties }

// Equal reports whether both configurations hold the same topic, fields and
// properties. Property order and Security are not compared.
func (c *ProducerConfig) Equal(o *ProducerConfig) bool {
	return ptrEqual(c.topic, o.topic) &&
		ptrEqual(c.keyField, o.keyField) &&
		ptrEqual(c.messageField, o.messageField) &&
		maps.Equal(c.properties.Map(), o.properties.Map())
}

// Properties is an insertion-ordered name→value bag. The zero value is empty
// and ready to use.
type Properties struct {
	names  []string
	values map[string]string
}

// Get returns the value of name and whether it is set.
func (p *Properties) Get(name string) (string, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Set adds or replaces a property. A new name goes to the end.
func (p *Properties) Set(name, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
	}
	p.values[name] = value
}

// Delete removes a property.
func (p *Properties) Delete(name string) {
	if _, ok := p.values[name]; !ok {
		return
	}
	delete(p.values, name)
	p.names = slices.DeleteFunc(p.names, func(n string) bool { return n == name })
}

// Len returns the number of set properties.
func (p *Properties) Len() int { return len(p.names) }

// Names returns the set property names in insertion order.
func (p *Properties) Names() []string { return slices.Clone(p.names) }

// Map returns a copy of the bag as a plain map.
func (p *Properties) Map() map[string]string {
	out := make(map[string]string, len(p.values))
	maps.Copy(out, p.values)
	return out
}

// SetAll adds every entry of m. Catalog properties are added in catalog
// order, any others after them sorted by name.
func (p *Properties) SetAll(m map[string]string) {
	for _, name := range PropertyNames() {
		if v, ok := m[name]; ok {
			p.Set(name, v)
		}
	}
	var extra []string
	for name := range m {
		if !IsCatalogProperty(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		p.Set(name, m[name])
	}
}

// SASL represents SASL authentication configuration
type SASL struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// Algorithm is one of plain, sha256 or sha512
	Algorithm string `mapstructure:"algorithm"`
	Enable    bool   `mapstructure:"enable"`
}

// TLS represents TLS configuration
type TLS struct {
	CertFile   string `mapstructure:"certFile"`
	KeyFile    string `mapstructure:"keyFile"`
	CAFile     string `mapstructure:"caFile"`
	Enable     bool   `mapstructure:"enable"`
	SkipVerify bool   `mapstructure:"skipVerify"`
}

// Security holds broker connection security settings.
type Security struct {
	SASL *SASL `mapstructure:"sasl"`
	TLS  *TLS  `mapstructure:"tls"`
}

// configInput is the shape of a step's `config` map in the application config.
type configInput struct {
	Topic        *string           `mapstructure:"topic"`
	KeyField     *string           `mapstructure:"keyField"`
	MessageField *string           `mapstructure:"messageField"`
	Properties   map[string]string `mapstructure:"properties"`
	Security     *Security         `mapstructure:"security"`
}

// DecodeProducerConfig builds a ProducerConfig from a generic map, as found
// in the `config` section of a step. Non-string property values (numbers
// parsed from YAML) are converted to their text form.
func DecodeProducerConfig(m map[string]any) (*ProducerConfig, error) {
	var in configInput
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &in,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, err
	}

	cfg := &ProducerConfig{
		topic:        in.Topic,
		keyField:     in.KeyField,
		messageField: in.MessageField,
		Security:     in.Security,
	}
	cfg.properties.SetAll(in.Properties)
	return cfg, nil
}

// EncodeProducerConfig is the inverse of DecodeProducerConfig. Unset fields
// are left out and Security is not included.
func EncodeProducerConfig(cfg *ProducerConfig) map[string]any {
	m := make(map[string]any)
	if v, ok := cfg.Topic(); ok {
		m["topic"] = v
	}
	if v, ok := cfg.KeyField(); ok {
		m["keyField"] = v
	}
	if v, ok := cfg.MessageField(); ok {
		m["messageField"] = v
	}
	if cfg.properties.Len() > 0 {
		props := make(map[string]any, cfg.properties.Len())
		for name, v := range cfg.properties.Map() {
			props[name] = v
		}
		m["properties"] = props
	}
	return m
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
