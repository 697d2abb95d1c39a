// Package jsonl reads rows from a stream of JSON objects, one per line.
package jsonl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edgeflare/rowpub/pkg/pipeline/row"
)

// Source decodes one JSON object per row. Object keys are matched to schema
// field names; missing keys and JSON null become nil values.
type Source struct {
	schema row.Schema
	dec    *json.Decoder
	closer io.Closer
	n      int64
}

// New reads rows from r. The caller keeps ownership of r.
func New(r io.Reader, schema row.Schema) (*Source, error) {
	if len(schema) == 0 {
		return nil, errors.New("jsonl: schema must declare at least one field")
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Source{schema: schema, dec: dec}, nil
}

// Open reads rows from the file at path, or from stdin when path is "" or "-".
func Open(path string, schema row.Schema) (*Source, error) {
	if path == "" || path == "-" {
		return New(os.Stdin, schema)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jsonl: %w", err)
	}
	s, err := New(f, schema)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

func (s *Source) Schema() row.Schema { return s.schema }

func (s *Source) Next(ctx context.Context) (row.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var m map[string]any
	if err := s.dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("jsonl: record %d: %w", s.n+1, err)
	}
	s.n++

	r, err := row.FromMap(s.schema, m)
	if err != nil {
		return nil, fmt.Errorf("jsonl: record %d: %w", s.n, err)
	}
	return r, nil
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
