package pgx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrPoolsClosed = errors.New("pgx: pools closed")

// Pools opens one *pgxpool.Pool per connection string on first use, so the
// row source and the attribute store share a pool when they point at the
// same database.
type Pools struct {
	mu     sync.Mutex
	pools  map[string]*pgxpool.Pool
	closed bool
}

// NewPools returns an empty set of pools.
func NewPools() *Pools {
	return &Pools{pools: make(map[string]*pgxpool.Pool)}
}

// Get returns the pool for connString, creating and pinging it if needed.
func (p *Pools) Get(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolsClosed
	}
	if pool, ok := p.pools[connString]; ok {
		return pool, nil
	}

	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("pgx: parse connection string: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgx: creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx: ping connection: %w", err)
	}

	p.pools[connString] = pool
	return pool, nil
}

// Len returns the number of open pools.
func (p *Pools) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools)
}

// Close closes every pool. Get fails afterwards.
func (p *Pools) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pool := range p.pools {
		pool.Close()
	}
	p.pools = nil
	p.closed = true
}
