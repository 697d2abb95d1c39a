package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/edgeflare/rowpub/pkg/metrics"
	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"go.uber.org/zap"
)

// State of a Publisher
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SyncProducerFactory creates the broker client for producer.type=sync.
type SyncProducerFactory func(addrs []string, conf *sarama.Config) (sarama.SyncProducer, error)

// AsyncProducerFactory creates the broker client for producer.type=async.
type AsyncProducerFactory func(addrs []string, conf *sarama.Config) (sarama.AsyncProducer, error)

// PublisherOption configures a Publisher
type PublisherOption func(*Publisher)

// WithLogger sets the publisher's logger.
func WithLogger(logger *zap.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithSyncProducerFactory replaces sarama.NewSyncProducer.
func WithSyncProducerFactory(f SyncProducerFactory) PublisherOption {
	return func(p *Publisher) {
		p.newSync = f
	}
}

// WithAsyncProducerFactory replaces sarama.NewAsyncProducer.
func WithAsyncProducerFactory(f AsyncProducerFactory) PublisherOption {
	return func(p *Publisher) {
		p.newAsync = f
	}
}

// fieldRef is a row field resolved at initialization.
type fieldRef struct {
	index    int
	field    row.Field
	isString bool
}

// Publisher maps rows onto Kafka messages for one copy of a step. It is not
// safe for concurrent Publish calls; every copy owns its own Publisher.
type Publisher struct {
	step   string
	cfg    *ProducerConfig
	logger *zap.Logger

	newSync  SyncProducerFactory
	newAsync AsyncProducerFactory

	mu    sync.Mutex
	state State

	topic   string
	schema  row.Schema
	message fieldRef
	key     *fieldRef
	client  *ClientConfig
	rows    int64

	sync  sarama.SyncProducer
	async sarama.AsyncProducer

	// async delivery failures, collected until Close
	asyncDone chan struct{}
	asyncMu   sync.Mutex
	asyncErrs []error
}

// NewPublisher returns an uninitialized publisher for the named step. cfg
// is only read.
func NewPublisher(step string, cfg *ProducerConfig, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		step:     step,
		cfg:      cfg,
		logger:   zap.NewNop(),
		newSync:  sarama.NewSyncProducer,
		newAsync: sarama.NewAsyncProducer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current lifecycle state.
func (p *Publisher) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Initialize resolves the message and key fields against schema and builds
// the broker client. Any failure closes the publisher.
func (p *Publisher) Initialize(_ context.Context, schema row.Schema) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateUninitialized {
		return &InitializationError{Step: p.step, Err: fmt.Errorf("publisher is %s", p.state)}
	}

	if err := p.resolve(schema); err != nil {
		p.state = StateClosed
		return &InitializationError{Step: p.step, Err: err}
	}

	client, err := BuildClientConfig(p.cfg.Properties(), p.cfg.Security)
	if err != nil {
		p.state = StateClosed
		return &InitializationError{Step: p.step, Err: err}
	}
	p.client = client
	conf := client.ForTopic(p.topic)

	if client.Async {
		p.async, err = p.newAsync(client.Brokers, conf)
	} else {
		p.sync, err = p.newSync(client.Brokers, conf)
	}
	if err != nil {
		p.state = StateClosed
		return &InitializationError{
			Step:      p.step,
			Err:       fmt.Errorf("failed to create Kafka producer: %w", err),
			retryable: true,
		}
	}

	if p.async != nil {
		p.asyncDone = make(chan struct{})
		go p.collectAsyncErrors()
	}

	p.state = StateReady
	p.logger.Info("Kafka producer ready",
		zap.String("topic", p.topic),
		zap.Strings("brokers", client.Brokers),
		zap.Bool("async", client.Async),
		zap.String("messageField", p.message.field.Name),
		zap.Bool("keyed", p.key != nil))
	return nil
}

func (p *Publisher) resolve(schema row.Schema) error {
	topic, _ := p.cfg.Topic()
	if topic == "" {
		return errors.New(MsgInvalidTopic)
	}
	p.topic = topic
	p.schema = schema

	name, _ := p.cfg.MessageField()
	if name == "" {
		return errors.New(MsgInvalidMessageField)
	}
	msg, err := resolveField(schema, name)
	if err != nil {
		return fmt.Errorf("message field: %w", err)
	}
	p.message = msg

	if name, ok := p.cfg.KeyField(); ok && name != "" {
		key, err := resolveField(schema, name)
		if err != nil {
			return fmt.Errorf("key field: %w", err)
		}
		p.key = &key
	}
	return nil
}

func resolveField(schema row.Schema, name string) (fieldRef, error) {
	i := schema.IndexOf(name)
	if i < 0 {
		return fieldRef{}, fmt.Errorf("field %q not found in input stream", name)
	}
	f := schema[i]
	return fieldRef{index: i, field: f, isString: f.Type == row.TypeString}, nil
}

// Publish converts the configured fields of r and hands one message to the
// broker client. A nil field value yields a nil payload.
func (p *Publisher) Publish(ctx context.Context, r row.Row) error {
	p.mu.Lock()
	switch p.state {
	case StateUninitialized:
		p.mu.Unlock()
		return pipeline.ErrNotReady
	case StateClosed:
		p.mu.Unlock()
		return ErrPublisherClosed
	case StateReady:
		p.state = StateRunning
	}
	p.mu.Unlock()

	p.rows++
	if len(r) != len(p.schema) {
		return &ConversionError{
			Step:  p.step,
			Row:   p.rows,
			Field: p.message.field.Name,
			Err:   fmt.Errorf("row has %d values, schema has %d fields", len(r), len(p.schema)),
		}
	}

	value, err := p.convert(p.message, r)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: p.client.Value(value),
	}
	if p.key != nil {
		key, err := p.convert(*p.key, r)
		if err != nil {
			return err
		}
		msg.Key = p.client.Key(key)
	}

	if p.async != nil {
		return p.enqueue(ctx, msg)
	}

	partition, offset, err := p.sync.SendMessage(msg)
	if err != nil {
		return &PublishError{Step: p.step, Row: p.rows, Topic: p.topic, Err: err}
	}
	if ce := p.logger.Check(zap.DebugLevel, "Message produced"); ce != nil {
		ce.Write(
			zap.Int64("row", p.rows),
			zap.Int32("partition", partition),
			zap.Int64("offset", offset))
	}
	return nil
}

// convert renders one field of r on the string or binary path.
func (p *Publisher) convert(ref fieldRef, r row.Row) (sarama.Encoder, error) {
	v := r[ref.index]
	if v == nil {
		return nil, nil
	}

	if ref.isString {
		s, _, err := ref.field.String(v)
		if err != nil {
			metrics.ConversionErrors.WithLabelValues(p.step, ref.field.Name).Inc()
			return nil, &ConversionError{Step: p.step, Row: p.rows, Field: ref.field.Name, Err: err}
		}
		return sarama.StringEncoder(s), nil
	}

	b, err := ref.field.Binary(v)
	if err != nil {
		metrics.ConversionErrors.WithLabelValues(p.step, ref.field.Name).Inc()
		return nil, &ConversionError{Step: p.step, Row: p.rows, Field: ref.field.Name, Err: err}
	}
	return sarama.ByteEncoder(b), nil
}

// enqueue hands msg to the async producer, honoring queue.enqueue.timeout.ms.
func (p *Publisher) enqueue(ctx context.Context, msg *sarama.ProducerMessage) error {
	input := p.async.Input()
	fail := func(err error) error {
		return &PublishError{Step: p.step, Row: p.rows, Topic: p.topic, Err: err}
	}

	switch timeout := p.client.EnqueueTimeout; {
	case timeout < 0:
		select {
		case input <- msg:
			return nil
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	case timeout == 0:
		select {
		case input <- msg:
			return nil
		default:
			return fail(errors.New("producer queue is full"))
		}
	default:
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case input <- msg:
			return nil
		case <-timer.C:
			return fail(fmt.Errorf("producer queue is full after %s", timeout))
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}
}

func (p *Publisher) collectAsyncErrors() {
	defer close(p.asyncDone)
	for perr := range p.async.Errors() {
		p.logger.Error("Failed to deliver message",
			zap.String("topic", perr.Msg.Topic),
			zap.Error(perr.Err))
		p.asyncMu.Lock()
		p.asyncErrs = append(p.asyncErrs, &PublishError{Step: p.step, Topic: perr.Msg.Topic, Err: perr.Err})
		p.asyncMu.Unlock()
	}
}

// Close flushes buffered messages and releases the broker client. Delivery
// failures reported while flushing are returned. Close is idempotent.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateClosed {
		return nil
	}
	p.state = StateClosed

	var err error
	switch {
	case p.sync != nil:
		err = p.sync.Close()
		p.sync = nil
	case p.async != nil:
		// AsyncClose flushes, then closes Errors() which ends collectAsyncErrors
		p.async.AsyncClose()
		<-p.asyncDone
		p.async = nil
		p.asyncMu.Lock()
		err = errors.Join(p.asyncErrs...)
		p.asyncMu.Unlock()
	}

	p.logger.Info("Kafka producer closed", zap.Int64("rows", p.rows))
	return err
}
