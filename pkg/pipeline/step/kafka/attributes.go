package kafka

import (
	"context"

	"github.com/edgeflare/rowpub/pkg/attrstore"
)

// SaveAttributes persists cfg as flat step attributes under scope, using
// the same names and order as the step document. Attributes saved earlier
// under scope are removed first.
func SaveAttributes(ctx context.Context, store attrstore.Store, scope attrstore.Scope, cfg *ProducerConfig) error {
	if err := store.DeleteStepAttributes(ctx, scope); err != nil {
		return saveError(scope.StepID, err)
	}
	if err := writeConfig(attrWriter{ctx: ctx, store: store, scope: scope}, cfg); err != nil {
		return saveError(scope.StepID, err)
	}
	return nil
}

// LoadAttributes restores a configuration saved by SaveAttributes.
func LoadAttributes(ctx context.Context, store attrstore.Store, scope attrstore.Scope) (*ProducerConfig, error) {
	cfg, err := readConfig(attrReader{ctx: ctx, store: store, scope: scope})
	if err != nil {
		return nil, loadError(scope.StepID, err)
	}
	return cfg, nil
}

// attrWriter and attrReader adapt a Store to the codec primitives. The
// store is flat, so the property group is the store itself.
type attrWriter struct {
	ctx   context.Context
	store attrstore.Store
	scope attrstore.Scope
}

func (w attrWriter) SetField(name, value string) error {
	return w.store.SaveStepAttribute(w.ctx, w.scope, name, value)
}

func (w attrWriter) Group(string) (fieldWriter, func() error, error) {
	return w, func() error { return nil }, nil
}

type attrReader struct {
	ctx   context.Context
	store attrstore.Store
	scope attrstore.Scope
}

func (r attrReader) Field(name string) (string, bool, error) {
	return r.store.StepAttribute(r.ctx, r.scope, name)
}

func (r attrReader) Group(string) (fieldReader, error) {
	return r, nil
}
