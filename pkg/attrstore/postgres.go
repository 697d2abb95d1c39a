package attrstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/edgeflare/rowpub/pkg/pgx"
	pgxv5 "github.com/jackc/pgx/v5"
)

// DefaultTable is the table Postgres stores attributes in.
const DefaultTable = "rowpub_step_attribute"

// Postgres stores attributes in a table keyed by (pipeline_id, step_id, code).
type Postgres struct {
	conn  pgx.Conn
	table string
}

// NewPostgres returns a Store backed by conn. An empty table selects DefaultTable.
func NewPostgres(conn pgx.Conn, table string) *Postgres {
	if table == "" {
		table = DefaultTable
	}
	return &Postgres{conn: conn, table: table}
}

// Migrate creates the attribute table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		pipeline_id TEXT NOT NULL,
		step_id     TEXT NOT NULL,
		code        TEXT NOT NULL,
		value       TEXT NOT NULL,
		PRIMARY KEY (pipeline_id, step_id, code)
	)`, pgxv5.Identifier{p.table}.Sanitize())

	if _, err := p.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", p.table, err)
	}
	return nil
}

func (p *Postgres) StepAttribute(ctx context.Context, scope Scope, code string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE pipeline_id = $1 AND step_id = $2 AND code = $3`,
		pgxv5.Identifier{p.table}.Sanitize())

	var value string
	err := p.conn.QueryRow(ctx, query, scope.PipelineID, scope.StepID, code).Scan(&value)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read attribute %s of %s: %w", code, scope, err)
	}
	return value, true, nil
}

func (p *Postgres) SaveStepAttribute(ctx context.Context, scope Scope, code, value string) error {
	query := fmt.Sprintf(`INSERT INTO %s (pipeline_id, step_id, code, value) VALUES ($1, $2, $3, $4)
		ON CONFLICT (pipeline_id, step_id, code) DO UPDATE SET value = EXCLUDED.value`,
		pgxv5.Identifier{p.table}.Sanitize())

	if _, err := p.conn.Exec(ctx, query, scope.PipelineID, scope.StepID, code, value); err != nil {
		return fmt.Errorf("save attribute %s of %s: %w", code, scope, err)
	}
	return nil
}

func (p *Postgres) DeleteStepAttributes(ctx context.Context, scope Scope) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE pipeline_id = $1 AND step_id = $2`,
		pgxv5.Identifier{p.table}.Sanitize())

	if _, err := p.conn.Exec(ctx, query, scope.PipelineID, scope.StepID); err != nil {
		return fmt.Errorf("delete attributes of %s: %w", scope, err)
	}
	return nil
}
