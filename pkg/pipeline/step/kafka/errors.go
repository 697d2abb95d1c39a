package kafka

import (
	"errors"
	"fmt"
)

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("kafka publisher closed")

// ConfigError reports a step configuration that could not be loaded or
// saved. The cause is kept as text only, so callers never depend on the
// error types of a particular document parser or store.
type ConfigError struct {
	Step  string
	Op    string // "load" or "save"
	Cause string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("kafka producer step %q: unable to %s configuration: %s", e.Step, e.Op, e.Cause)
}

func loadError(step string, err error) error {
	return &ConfigError{Step: step, Op: "load", Cause: err.Error()}
}

func saveError(step string, err error) error {
	return &ConfigError{Step: step, Op: "save", Cause: err.Error()}
}

// InitializationError is fatal to a run: a field could not be resolved or
// the broker client could not be built.
type InitializationError struct {
	Step string
	Err  error
	// retryable is set when building the broker client failed, which may be
	// caused by brokers that are not reachable yet
	retryable bool
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("kafka producer step %q: initialization failed: %v", e.Step, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// Temporary reports whether retrying Initialize may succeed.
func (e *InitializationError) Temporary() bool { return e.retryable }

// ConversionError reports a row value that cannot be rendered as a message
// key or body. Row is the 1-based number of the row within this publisher.
type ConversionError struct {
	Step  string
	Row   int64
	Field string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("kafka producer step %q: row %d: cannot convert field %q: %v", e.Step, e.Row, e.Field, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// PublishError reports a message the broker client rejected or failed to deliver.
type PublishError struct {
	Step  string
	Row   int64
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("kafka producer step %q: row %d: failed to publish to %s: %v", e.Step, e.Row, e.Topic, e.Err)
	}
	return fmt.Sprintf("kafka producer step %q: failed to publish to %s: %v", e.Step, e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
