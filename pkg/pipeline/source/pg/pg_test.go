package pg

import (
	"context"
	"io"
	"net/netip"
	"testing"
	"time"

	"github.com/edgeflare/rowpub/internal/testutil/pgtest"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeOf(t *testing.T) {
	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name  string
		oid   uint32
		typ   row.Type
		value any
		want  any
	}{
		{"text", pgtype.TextOID, row.TypeString, "a", "a"},
		{"bytea", pgtype.ByteaOID, row.TypeBinary, []byte{1}, []byte{1}},
		{"int4", pgtype.Int4OID, row.TypeInteger, int32(4), int32(4)},
		{"float8", pgtype.Float8OID, row.TypeNumber, 1.5, 1.5},
		{"bool", pgtype.BoolOID, row.TypeBoolean, true, true},
		{"inet", pgtype.InetOID, row.TypeInternetAddress, netip.MustParsePrefix("10.0.0.1/32"), netip.MustParseAddr("10.0.0.1")},
		{"jsonb", pgtype.JSONBOID, row.TypeString, map[string]any{"a": 1.0}, `{"a":1}`},
		{"uuid", pgtype.UUIDOID, row.TypeString, [16]byte{0x12, 0x34}, "12340000-0000-0000-0000-000000000000"},
		{"date", pgtype.DateOID, row.TypeDate, ts, ts},
		{"date infinity", pgtype.DateOID, row.TypeDate, pgtype.Infinity, row.PositiveInfinity},
		{"timestamptz -infinity", pgtype.TimestamptzOID, row.TypeTimestamp, pgtype.NegativeInfinity, row.NegativeInfinity},
		{"other", pgtype.IntervalOID, row.TypeString, 42, "42"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typ, conv := typeOf(tc.oid)
			assert.Equal(t, tc.typ, typ)
			got, err := conv(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, conv := typeOf(pgtype.InetOID)
	_, err := conv("10.0.0.1")
	assert.Error(t, err)

	_, conv = typeOf(pgtype.TimestampOID)
	_, err = conv(pgtype.Finite)
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	conn := pgtest.Connect(ctx, t)

	_, err := Query(ctx, conn, "")
	assert.Error(t, err)

	src, err := Query(ctx, conn, `SELECT id, 'row ' || id AS body, NULL::bytea AS raw, 1.25::numeric AS amount
		FROM generate_series(1, $1) AS id`, 3)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, row.Schema{
		{Name: "id", Type: row.TypeInteger},
		{Name: "body", Type: row.TypeString},
		{Name: "raw", Type: row.TypeBinary},
		{Name: "amount", Type: row.TypeBigNumber},
	}, src.Schema())

	var rows []row.Row
	for {
		r, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, r)
	}
	require.Len(t, rows, 3)
	assert.Equal(t, row.Row{int32(1), "row 1", nil, "1.25"}, rows[0])

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestQueryInfinity(t *testing.T) {
	ctx := context.Background()
	conn := pgtest.Connect(ctx, t)

	src, err := Query(ctx, conn, `SELECT 'infinity'::date AS d, '-infinity'::timestamptz AS ts`)
	require.NoError(t, err)
	defer src.Close()

	r, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, row.Row{row.PositiveInfinity, row.NegativeInfinity}, r)

	s, _, err := src.Schema()[0].String(r[0])
	require.NoError(t, err)
	assert.Equal(t, "infinity", s)
}
