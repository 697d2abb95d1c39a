package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/edgeflare/rowpub/pkg/pipeline/row"
)

// RowErrorPolicy decides what happens to a run when publishing one row fails.
type RowErrorPolicy string

const (
	// OnRowErrorAbort stops the whole run at the first failed row
	OnRowErrorAbort RowErrorPolicy = "abort"
	// OnRowErrorSkip logs and counts the failed row, then continues
	OnRowErrorSkip RowErrorPolicy = "skip"
)

// StepConfig configures one output step of a pipeline.
type StepConfig struct {
	Name string `mapstructure:"name"`
	// Type must match one of registered step types
	Type string `mapstructure:"type"`
	// Copies is the number of parallel instances, each with its own resources. Defaults to 1
	Copies     int            `mapstructure:"copies"`
	OnRowError RowErrorPolicy `mapstructure:"onRowError"`
	// Config is decoded by the step itself in Configure
	Config map[string]any `mapstructure:"config"`
}

func (s StepConfig) copies() int {
	return max(s.Copies, 1)
}

func (s StepConfig) policy() (RowErrorPolicy, error) {
	switch p := RowErrorPolicy(strings.ToLower(string(s.OnRowError))); p {
	case "":
		return OnRowErrorAbort, nil
	case OnRowErrorAbort, OnRowErrorSkip:
		return p, nil
	default:
		return "", fmt.Errorf("step %s: invalid onRowError policy %q", s.Name, s.OnRowError)
	}
}

// SourceConfig selects where rows are read from.
type SourceConfig struct {
	// Type is one of "jsonl" or "postgres"
	Type string `mapstructure:"type"`
	// Path of a JSON-lines file; "-" or empty reads stdin
	Path string `mapstructure:"path"`
	// Schema of JSON-lines rows
	Schema     row.Schema `mapstructure:"schema"`
	ConnString string     `mapstructure:"connString"`
	Query      string     `mapstructure:"query"`
}

// Config configures a complete pipeline: one row source fanned out to every step.
type Config struct {
	Name   string       `mapstructure:"name"`
	Source SourceConfig `mapstructure:"source"`
	Steps  []StepConfig `mapstructure:"steps"`
}

func (c *Config) GetStep(stepName string) *StepConfig {
	for i := range c.Steps {
		if c.Steps[i].Name == stepName {
			return &c.Steps[i]
		}
	}
	return nil
}

// A Source yields the rows of a pipeline run.
type Source interface {
	// Schema describes every row returned by Next
	Schema() row.Schema
	// Next returns the next row, or io.EOF after the last one.
	Next(ctx context.Context) (row.Row, error)
	Close() error
}
