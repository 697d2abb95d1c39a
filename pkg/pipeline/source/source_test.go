package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"body": "hello"}`), 0o600))

	src, err := Open(ctx, pipeline.SourceConfig{
		Type:   TypeJSONL,
		Path:   path,
		Schema: row.Schema{{Name: "body", Type: row.TypeString}},
	}, nil)
	require.NoError(t, err)
	defer src.Close()

	r, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, row.Row{"hello"}, r)
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)

	_, err = Open(ctx, pipeline.SourceConfig{Type: TypePostgres, Query: "SELECT 1"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, pipeline.SourceConfig{Type: "csv"}, nil)
	assert.ErrorContains(t, err, `"csv"`)
}
