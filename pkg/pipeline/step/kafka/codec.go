package kafka

// Persisted names of the step fields and of the property container.
const (
	TagTopic      = "TOPIC"
	TagField      = "FIELD"
	TagKeyField   = "KEYFIELD"
	TagProperties = "KAFKA"
)

// fieldWriter is the set primitive of a persistence backend.
type fieldWriter interface {
	SetField(name, value string) error
	// Group returns the writer for the nested property container and a
	// function that ends it. Flat backends return themselves.
	Group(name string) (fieldWriter, func() error, error)
}

// fieldReader is the get primitive of a persistence backend.
type fieldReader interface {
	// Field returns the value stored under name, ok is false when absent.
	Field(name string) (value string, ok bool, err error)
	// Group returns the reader for the nested property container.
	Group(name string) (fieldReader, error)
}

// writeConfig persists cfg through w: set fields first, then every catalog
// property present in the bag, in catalog order.
func writeConfig(w fieldWriter, cfg *ProducerConfig) error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{TagTopic, cfg.topic},
		{TagField, cfg.messageField},
		{TagKeyField, cfg.keyField},
	} {
		if f.value == nil {
			continue
		}
		if err := w.SetField(f.name, *f.value); err != nil {
			return err
		}
	}

	group, end, err := w.Group(TagProperties)
	if err != nil {
		return err
	}
	for _, name := range PropertyNames() {
		if value, ok := cfg.properties.Get(name); ok {
			if err := group.SetField(name, value); err != nil {
				return err
			}
		}
	}
	return end()
}

// readConfig restores a configuration from r. Persisted properties that are
// not in the catalog are ignored.
func readConfig(r fieldReader) (*ProducerConfig, error) {
	cfg := NewProducerConfig()
	for _, f := range []struct {
		name   string
		target **string
	}{
		{TagTopic, &cfg.topic},
		{TagField, &cfg.messageField},
		{TagKeyField, &cfg.keyField},
	} {
		value, ok, err := r.Field(f.name)
		if err != nil {
			return nil, err
		}
		if ok {
			*f.target = &value
		}
	}

	group, err := r.Group(TagProperties)
	if err != nil {
		return nil, err
	}
	for _, name := range PropertyNames() {
		value, ok, err := group.Field(name)
		if err != nil {
			return nil, err
		}
		if ok {
			cfg.properties.Set(name, value)
		}
	}
	return cfg, nil
}
