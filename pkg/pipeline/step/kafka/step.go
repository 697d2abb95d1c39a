package kafka

import (
	"context"
	"fmt"

	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"go.uber.org/zap"
)

// StepKafka is the pipeline step publishing rows to a Kafka topic
type StepKafka struct {
	name      string
	logger    *zap.Logger
	cfg       *ProducerConfig
	publisher *Publisher
	opts      []PublisherOption
}

// NewStep returns an unconfigured step. opts are passed to the publisher
// created by Initialize.
func NewStep(name string, logger *zap.Logger, opts ...PublisherOption) *StepKafka {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StepKafka{name: name, logger: logger, opts: opts}
}

// Config returns the decoded configuration, nil before Configure.
func (s *StepKafka) Config() *ProducerConfig { return s.cfg }

func (s *StepKafka) Configure(config map[string]any) error {
	cfg, err := DecodeProducerConfig(config)
	if err != nil {
		return fmt.Errorf("failed to decode Kafka step config: %w", err)
	}
	s.cfg = cfg
	return nil
}

func (s *StepKafka) Check(prev row.Schema) []pipeline.Diagnostic {
	if s.cfg == nil {
		return []pipeline.Diagnostic{pipeline.Errorf(s.name, "step is not configured")}
	}
	return Check(s.name, s.cfg, prev)
}

func (s *StepKafka) Initialize(ctx context.Context, schema row.Schema) error {
	if s.cfg == nil {
		return pipeline.ErrNotReady
	}
	// a retried Initialize starts over with a fresh publisher
	opts := append([]PublisherOption{WithLogger(s.logger)}, s.opts...)
	s.publisher = NewPublisher(s.name, s.cfg, opts...)
	return s.publisher.Initialize(ctx, schema)
}

func (s *StepKafka) Publish(ctx context.Context, r row.Row) error {
	if s.publisher == nil {
		return pipeline.ErrNotReady
	}
	return s.publisher.Publish(ctx, r)
}

func (s *StepKafka) Close() error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.Close()
}

func init() {
	pipeline.RegisterStep(pipeline.StepKafka, func(name string, logger *zap.Logger) pipeline.Step {
		return NewStep(name, logger)
	})
}
