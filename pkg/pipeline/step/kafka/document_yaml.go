package kafka

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders cfg as a YAML mapping with the same layout as the XML
// document: TOPIC, FIELD and KEYFIELD scalars followed by a KAFKA mapping.
func MarshalYAML(step string, cfg *ProducerConfig) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	if err := writeConfig(yamlWriter{root}, cfg); err != nil {
		return nil, saveError(step, err)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, saveError(step, err)
	}
	if err := enc.Close(); err != nil {
		return nil, saveError(step, err)
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML reads a configuration produced by MarshalYAML.
func UnmarshalYAML(step string, data []byte) (*ProducerConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, loadError(step, fmt.Errorf("malformed step document: %w", err))
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, loadError(step, errors.New("step document must be a mapping"))
	}

	cfg, err := readConfig(yamlReader{doc.Content[0]})
	if err != nil {
		return nil, loadError(step, err)
	}
	return cfg, nil
}

// yamlWriter appends key/value pairs to a mapping node.
type yamlWriter struct {
	node *yaml.Node
}

func (m yamlWriter) SetField(name, value string) error {
	m.node.Content = append(m.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
	return nil
}

func (m yamlWriter) Group(name string) (fieldWriter, func() error, error) {
	group := &yaml.Node{Kind: yaml.MappingNode}
	m.node.Content = append(m.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
		group,
	)
	return yamlWriter{group}, func() error { return nil }, nil
}

// yamlReader looks up keys of a mapping node.
type yamlReader struct {
	node *yaml.Node
}

func (m yamlReader) lookup(name string) *yaml.Node {
	for i := 0; i+1 < len(m.node.Content); i += 2 {
		if m.node.Content[i].Value == name {
			return m.node.Content[i+1]
		}
	}
	return nil
}

func (m yamlReader) Field(name string) (string, bool, error) {
	v := m.lookup(name)
	if v == nil {
		return "", false, nil
	}
	if v.Kind != yaml.ScalarNode {
		return "", false, fmt.Errorf("line %d: %s must be a scalar", v.Line, name)
	}
	if v.Tag == "!!null" {
		return "", false, nil
	}
	return v.Value, true, nil
}

func (m yamlReader) Group(name string) (fieldReader, error) {
	v := m.lookup(name)
	if v == nil {
		return nil, errors.New("missing mapping " + name)
	}
	if v.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s must be a mapping", v.Line, name)
	}
	return yamlReader{v}, nil
}
