package debug

import (
	"context"
	"fmt"

	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"go.uber.org/zap"
)

// StepDebug logs every row it receives
type StepDebug struct {
	name   string
	logger *zap.Logger
	schema row.Schema
	level  zap.AtomicLevel
}

func New(name string, logger *zap.Logger) *StepDebug {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StepDebug{name: name, logger: logger, level: zap.NewAtomicLevelAt(zap.InfoLevel)}
}

// Configure accepts an optional `level` (debug, info, warn).
func (s *StepDebug) Configure(config map[string]any) error {
	v, ok := config["level"]
	if !ok {
		return nil
	}
	level, ok := v.(string)
	if !ok {
		return fmt.Errorf("level must be a string, got %T", v)
	}
	return s.level.UnmarshalText([]byte(level))
}

func (s *StepDebug) Check(row.Schema) []pipeline.Diagnostic {
	return []pipeline.Diagnostic{{Severity: pipeline.SeverityOK, Step: s.name, Message: "configuration is valid"}}
}

func (s *StepDebug) Initialize(_ context.Context, schema row.Schema) error {
	s.schema = schema
	return nil
}

func (s *StepDebug) Publish(_ context.Context, r row.Row) error {
	if s.schema == nil {
		return pipeline.ErrNotReady
	}
	ce := s.logger.Check(s.level.Level(), pipeline.StepDebug)
	if ce == nil {
		return nil
	}
	fields := make([]zap.Field, 0, len(r))
	for i, v := range r {
		if i < len(s.schema) {
			fields = append(fields, zap.Any(s.schema[i].Name, v))
		}
	}
	ce.Write(fields...)
	return nil
}

func (s *StepDebug) Close() error {
	return nil
}

func init() {
	pipeline.RegisterStep(pipeline.StepDebug, func(name string, logger *zap.Logger) pipeline.Step {
		return New(name, logger)
	})
}
