package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"go.uber.org/zap"
)

var (
	ErrStepNotFound = errors.New("step type not found")
	ErrNotReady     = errors.New("step not initialized")
)

// A Step is one output stage of a pipeline. The host calls Configure once,
// Check any number of times at design time, then Initialize, Publish per row
// and finally Close.
type Step interface {
	// Configure decodes the step-specific configuration (the `config` map of a StepConfig).
	Configure(config map[string]any) error

	// Check validates the configuration without side effects. prev is the
	// schema of the incoming stream, or nil when it is not known yet.
	Check(prev row.Schema) []Diagnostic

	// Initialize resolves the incoming schema and acquires external resources.
	Initialize(ctx context.Context, schema row.Schema) error

	// Publish hands one row to the step. Publish is never called concurrently
	// on the same Step.
	Publish(ctx context.Context, r row.Row) error

	// Close flushes and releases resources. It is safe to call more than once.
	Close() error
}

// Factory creates a new, unconfigured Step for one copy of a pipeline step.
type Factory func(name string, logger *zap.Logger) Step

// Predefined step types
const (
	StepDebug = "debug"
	StepKafka = "kafka"
)

var (
	factories   = make(map[string]Factory)
	factoriesMu sync.RWMutex
)

// RegisterStep adds a step factory to the registry.
// The name is the `type` referenced from step configuration.
func RegisterStep(name string, f Factory) {
	factoriesMu.Lock()
	factories[name] = f
	factoriesMu.Unlock()
}

// LookupStep returns the factory registered under name.
func LookupStep(name string) (Factory, error) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, name)
	}
	return f, nil
}

// StepTypes returns the names of all registered step types.
func StepTypes() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	return names
}

// temporary is implemented by errors that may succeed on retry.
type temporary interface {
	Temporary() bool
}

// IsTemporary reports whether err (or any error it wraps) is marked temporary.
func IsTemporary(err error) bool {
	var t temporary
	return errors.As(err, &t) && t.Temporary()
}
