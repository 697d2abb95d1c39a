// Package source opens the row source configured for a pipeline.
package source

import (
	"context"
	"fmt"

	"github.com/edgeflare/rowpub/pkg/pgx"
	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/source/jsonl"
	"github.com/edgeflare/rowpub/pkg/pipeline/source/pg"
)

// Source types
const (
	TypeJSONL    = "jsonl"
	TypePostgres = "postgres"
)

// Open returns the source described by cfg. pools supplies database
// connections for postgres sources and may be nil otherwise.
func Open(ctx context.Context, cfg pipeline.SourceConfig, pools *pgx.Pools) (pipeline.Source, error) {
	switch cfg.Type {
	case TypeJSONL, "":
		src, err := jsonl.Open(cfg.Path, cfg.Schema)
		if err != nil {
			return nil, err
		}
		return src, nil
	case TypePostgres:
		if pools == nil {
			return nil, fmt.Errorf("source %s: no database pools", cfg.Type)
		}
		pool, err := pools.Get(ctx, cfg.ConnString)
		if err != nil {
			return nil, err
		}
		src, err := pg.Query(ctx, pool, cfg.Query)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}
