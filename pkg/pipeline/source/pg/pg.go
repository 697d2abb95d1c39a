// Package pg reads rows from the result of a PostgreSQL query.
package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/edgeflare/rowpub/pkg/pgx"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"github.com/google/uuid"
	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Source streams the rows of one query. The schema is taken from the
// result's field descriptions.
type Source struct {
	rows     pgxv5.Rows
	schema   row.Schema
	convert  []func(any) (any, error)
	finished bool
}

// Query runs sql on conn. The query stays open until the last row is read
// or Close is called.
func Query(ctx context.Context, conn pgx.Conn, sql string, args ...any) (*Source, error) {
	if sql == "" {
		return nil, errors.New("pg: empty query")
	}
	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: query: %w", err)
	}

	fds := rows.FieldDescriptions()
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("pg: query: %w", err)
	}

	s := &Source{
		rows:    rows,
		schema:  make(row.Schema, len(fds)),
		convert: make([]func(any) (any, error), len(fds)),
	}
	for i, fd := range fds {
		typ, conv := typeOf(fd.DataTypeOID)
		s.schema[i] = row.Field{Name: fd.Name, Type: typ}
		s.convert[i] = conv
	}
	return s, nil
}

func (s *Source) Schema() row.Schema { return s.schema }

func (s *Source) Next(ctx context.Context) (row.Row, error) {
	if s.finished {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.rows.Next() {
		s.finished = true
		if err := s.rows.Err(); err != nil {
			return nil, fmt.Errorf("pg: %w", err)
		}
		return nil, io.EOF
	}

	values, err := s.rows.Values()
	if err != nil {
		return nil, fmt.Errorf("pg: %w", err)
	}
	r := make(row.Row, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		if r[i], err = s.convert[i](v); err != nil {
			return nil, fmt.Errorf("pg: column %s: %w", s.schema[i].Name, err)
		}
	}
	return r, nil
}

func (s *Source) Close() error {
	s.rows.Close()
	return s.rows.Err()
}

func identity(v any) (any, error) { return v, nil }

// typeOf maps a column type to a row field type and the conversion of the
// values pgx decodes for it.
func typeOf(oid uint32) (row.Type, func(any) (any, error)) {
	switch oid {
	case pgtype.TextOID, pgtype.VarcharOID, pgtype.BPCharOID, pgtype.NameOID:
		return row.TypeString, identity
	case pgtype.ByteaOID:
		return row.TypeBinary, identity
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		return row.TypeInteger, identity
	case pgtype.Float4OID, pgtype.Float8OID:
		return row.TypeNumber, identity
	case pgtype.NumericOID:
		return row.TypeBigNumber, numericText
	case pgtype.BoolOID:
		return row.TypeBoolean, identity
	case pgtype.DateOID:
		return row.TypeDate, timeValue
	case pgtype.TimestampOID, pgtype.TimestamptzOID:
		return row.TypeTimestamp, timeValue
	case pgtype.InetOID:
		return row.TypeInternetAddress, inetAddr
	case pgtype.JSONOID, pgtype.JSONBOID:
		return row.TypeString, jsonText
	case pgtype.UUIDOID:
		return row.TypeString, uuidText
	default:
		return row.TypeString, anyText
	}
}

func numericText(v any) (any, error) {
	n, ok := v.(pgtype.Numeric)
	if !ok {
		return anyText(v)
	}
	dv, err := n.Value()
	if err != nil || dv == nil {
		return nil, err
	}
	return dv, nil
}

// timeValue maps 'infinity' and '-infinity', which pgx decodes as an
// InfinityModifier instead of a time.Time.
func timeValue(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case pgtype.InfinityModifier:
		switch t {
		case pgtype.Infinity:
			return row.PositiveInfinity, nil
		case pgtype.NegativeInfinity:
			return row.NegativeInfinity, nil
		}
	}
	return nil, fmt.Errorf("unexpected time value %T (%v)", v, v)
}

func inetAddr(v any) (any, error) {
	switch t := v.(type) {
	case netip.Prefix:
		return t.Addr(), nil
	case netip.Addr:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected inet value %T", v)
	}
}

func jsonText(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func uuidText(v any) (any, error) {
	switch t := v.(type) {
	case [16]byte:
		return uuid.UUID(t).String(), nil
	case string:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected uuid value %T", v)
	}
}

func anyText(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}
