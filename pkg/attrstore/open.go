package attrstore

import (
	"context"
	"fmt"

	"github.com/edgeflare/rowpub/pkg/pgx"
	"github.com/nats-io/nats.go"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendNATS     = "nats"
)

// Config selects and configures a Store backend.
type Config struct {
	// Type is one of memory, postgres or nats. Defaults to memory
	Type       string `mapstructure:"type"`
	ConnString string `mapstructure:"connString"`
	// Table overrides DefaultTable for postgres
	Table   string `mapstructure:"table"`
	NATSURL string `mapstructure:"natsURL"`
	// Bucket overrides DefaultBucket for nats
	Bucket string `mapstructure:"bucket"`
}

// Open returns the configured store and a function releasing its
// connection. Postgres stores take their pool from pools and create their
// table if needed.
func Open(ctx context.Context, cfg Config, pools *pgx.Pools) (Store, func(), error) {
	switch cfg.Type {
	case BackendMemory, "":
		return NewMemory(), func() {}, nil

	case BackendPostgres:
		if pools == nil {
			return nil, nil, fmt.Errorf("attrstore: %s backend needs database pools", cfg.Type)
		}
		pool, err := pools.Get(ctx, cfg.ConnString)
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgres(pool, cfg.Table)
		if err := store.Migrate(ctx); err != nil {
			return nil, nil, err
		}
		// the pool is owned by pools
		return store, func() {}, nil

	case BackendNATS:
		url := cfg.NATSURL
		if url == "" {
			url = nats.DefaultURL
		}
		nc, err := nats.Connect(url, nats.Name("rowpub"))
		if err != nil {
			return nil, nil, fmt.Errorf("attrstore: connect to NATS: %w", err)
		}
		js, err := nc.JetStream()
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("attrstore: JetStream: %w", err)
		}
		store, err := NewNATS(js, cfg.Bucket)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		return store, nc.Close, nil

	default:
		return nil, nil, fmt.Errorf("attrstore: unknown backend %q", cfg.Type)
	}
}
