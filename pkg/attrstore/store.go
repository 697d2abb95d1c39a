// Package attrstore persists step configuration as flat name/value
// attributes scoped by pipeline and step.
package attrstore

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// Scope identifies the step that owns a set of attributes.
type Scope struct {
	PipelineID string
	StepID     string
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%s", s.PipelineID, s.StepID)
}

// Store reads and writes step attributes.
type Store interface {
	// StepAttribute returns the value saved under code, ok is false when absent.
	StepAttribute(ctx context.Context, scope Scope, code string) (value string, ok bool, err error)
	// SaveStepAttribute creates or replaces an attribute.
	SaveStepAttribute(ctx context.Context, scope Scope, code, value string) error
	// DeleteStepAttributes removes every attribute of scope.
	DeleteStepAttributes(ctx context.Context, scope Scope) error
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.RWMutex
	attrs map[Scope]map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{attrs: make(map[Scope]map[string]string)}
}

func (m *Memory) StepAttribute(_ context.Context, scope Scope, code string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.attrs[scope][code]
	return v, ok, nil
}

func (m *Memory) SaveStepAttribute(_ context.Context, scope Scope, code, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attrs[scope] == nil {
		m.attrs[scope] = make(map[string]string)
	}
	m.attrs[scope][code] = value
	return nil
}

func (m *Memory) DeleteStepAttributes(_ context.Context, scope Scope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.attrs, scope)
	return nil
}

// Attributes returns a copy of every attribute saved for scope.
func (m *Memory) Attributes(scope Scope) map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.attrs[scope]))
	maps.Copy(out, m.attrs[scope])
	return out
}
