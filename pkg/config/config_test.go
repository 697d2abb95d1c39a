package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
pipeline:
  name: orders
  source:
    type: jsonl
    path: orders.jsonl
    schema:
      - name: id
        type: integer
      - name: body
        type: string
  steps:
    - name: producer
      type: kafka
      copies: 2
      onRowError: skip
      config:
        topic: orders
        keyField: id
        messageField: body
        properties:
          metadata.broker.list: kafka:9092
          request.timeout.ms: 5000
store:
  type: postgres
  connString: postgres://localhost/rowpub
metrics:
  enabled: true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rowpub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)

	assert.Equal(t, "orders", cfg.Pipeline.Name)
	assert.Equal(t, row.Schema{{Name: "id", Type: row.TypeInteger}, {Name: "body", Type: row.TypeString}}, cfg.Pipeline.Source.Schema)

	step := cfg.Pipeline.GetStep("producer")
	require.NotNil(t, step)
	assert.Equal(t, 2, step.Copies)
	assert.Equal(t, pipeline.OnRowErrorSkip, step.OnRowError)

	// dotted property names stay intact
	props, ok := step.Config["properties"].(map[string]any)
	require.True(t, ok, "%#v", step.Config)
	assert.Equal(t, "kafka:9092", props["metadata.broker.list"])
	assert.EqualValues(t, 5000, props["request.timeout.ms"])

	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.File)
	assert.Equal(t, "rowpub", cfg.Pipeline.Name)
	assert.Equal(t, "jsonl", cfg.Pipeline.Source.Type)
	assert.Equal(t, "memory", cfg.Store.Type)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "pipeline: [\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `
pipeline:
  source:
    schema:
      - name: id
        type: blob
`))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
