package kafka

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

const (
	xmlIndent      = "    "
	xmlGroupIndent = "      "
)

// MarshalXML renders cfg as the body of a step element:
//
//	<TOPIC>events</TOPIC>
//	<FIELD>payload</FIELD>
//	<KAFKA>
//	  <metadata.broker.list>localhost:9092</metadata.broker.list>
//	</KAFKA>
func MarshalXML(step string, cfg *ProducerConfig) ([]byte, error) {
	w := &xmlWriter{indent: xmlIndent}
	if err := writeConfig(w, cfg); err != nil {
		return nil, saveError(step, err)
	}
	return w.buf.Bytes(), nil
}

// UnmarshalXML reads a configuration from the body of a step element, as
// produced by MarshalXML. The input may also be a complete element wrapping
// that body (e.g. <step>...</step>).
func UnmarshalXML(step string, data []byte) (*ProducerConfig, error) {
	root, err := parseXMLNode(data)
	if err != nil {
		return nil, loadError(step, err)
	}
	cfg, err := readConfig(root)
	if err != nil {
		return nil, loadError(step, err)
	}
	return cfg, nil
}

type xmlWriter struct {
	buf    bytes.Buffer
	indent string
}

func (w *xmlWriter) SetField(name, value string) error {
	w.buf.WriteString(w.indent)
	w.buf.WriteString("<" + name + ">")
	if err := xml.EscapeText(&w.buf, []byte(value)); err != nil {
		return fmt.Errorf("escape %s: %w", name, err)
	}
	w.buf.WriteString("</" + name + ">\n")
	return nil
}

func (w *xmlWriter) Group(name string) (fieldWriter, func() error, error) {
	w.buf.WriteString(w.indent + "<" + name + ">\n")
	group := &xmlGroupWriter{parent: w}
	end := func() error {
		w.buf.WriteString(w.indent + "</" + name + ">\n")
		return nil
	}
	return group, end, nil
}

// xmlGroupWriter writes children of the property container into the parent buffer.
type xmlGroupWriter struct {
	parent *xmlWriter
}

func (g *xmlGroupWriter) SetField(name, value string) error {
	child := xmlWriter{indent: xmlGroupIndent}
	if err := child.SetField(name, value); err != nil {
		return err
	}
	g.parent.buf.Write(child.buf.Bytes())
	return nil
}

func (g *xmlGroupWriter) Group(name string) (fieldWriter, func() error, error) {
	return nil, nil, fmt.Errorf("nested group %s not supported", name)
}

// xmlNode is a generic element tree.
type xmlNode struct {
	XMLName xml.Name
	Content string    `xml:",chardata"`
	Nodes   []xmlNode `xml:",any"`
}

const xmlWrapper = "rowpub-step"

func parseXMLNode(data []byte) (*xmlNode, error) {
	trimmed := bytes.TrimSpace(data)
	var doc bytes.Buffer
	doc.WriteString("<" + xmlWrapper + ">")
	doc.Write(trimmed)
	doc.WriteString("</" + xmlWrapper + ">")

	var root xmlNode
	if err := xml.Unmarshal(doc.Bytes(), &root); err != nil {
		return nil, fmt.Errorf("malformed step document: %w", err)
	}

	// a single wrapping element that does not itself hold step fields
	if len(root.Nodes) == 1 && root.child(TagProperties) == nil && root.Nodes[0].child(TagProperties) != nil {
		return &root.Nodes[0], nil
	}
	return &root, nil
}

func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

func (n *xmlNode) Field(name string) (string, bool, error) {
	c := n.child(name)
	if c == nil {
		return "", false, nil
	}
	if len(c.Nodes) > 0 {
		return "", false, fmt.Errorf("element %s: expected text, found nested elements", name)
	}
	return c.Content, true, nil
}

func (n *xmlNode) Group(name string) (fieldReader, error) {
	c := n.child(name)
	if c == nil {
		return nil, errors.New("missing element " + name)
	}
	if strings.TrimSpace(c.Content) != "" {
		return nil, fmt.Errorf("element %s: unexpected text content", name)
	}
	return c, nil
}
