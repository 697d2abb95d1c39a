package attrstore

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/edgeflare/rowpub/internal/testutil/pgtest"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore exercises a Store backend in a scope no other test uses.
func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	scope := Scope{PipelineID: "pipeline-" + uuid.NewString(), StepID: "producer"}
	other := Scope{PipelineID: scope.PipelineID, StepID: "other"}

	_, ok, err := store.StepAttribute(ctx, scope, "TOPIC")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveStepAttribute(ctx, scope, "TOPIC", "events"))
	require.NoError(t, store.SaveStepAttribute(ctx, scope, "metadata.broker.list", "b1:9092"))
	require.NoError(t, store.SaveStepAttribute(ctx, scope, "KEYFIELD", ""))
	require.NoError(t, store.SaveStepAttribute(ctx, scope, "TOPIC", "audit"))

	v, ok, err := store.StepAttribute(ctx, scope, "TOPIC")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "audit", v)

	v, ok, err = store.StepAttribute(ctx, scope, "metadata.broker.list")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b1:9092", v)

	// empty is distinct from absent
	v, ok, err = store.StepAttribute(ctx, scope, "KEYFIELD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok, err = store.StepAttribute(ctx, other, "TOPIC")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SaveStepAttribute(ctx, other, "TOPIC", "kept"))
	require.NoError(t, store.DeleteStepAttributes(ctx, scope))
	for _, code := range []string{"TOPIC", "metadata.broker.list", "KEYFIELD"} {
		_, ok, err = store.StepAttribute(ctx, scope, code)
		require.NoError(t, err)
		assert.False(t, ok, code)
	}
	v, ok, err = store.StepAttribute(ctx, other, "TOPIC")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "kept", v)

	// nothing left to delete
	require.NoError(t, store.DeleteStepAttributes(ctx, scope))
}

func TestMemory(t *testing.T) {
	store := NewMemory()
	testStore(t, store)

	scope := Scope{PipelineID: "p", StepID: "s"}
	require.NoError(t, store.SaveStepAttribute(context.Background(), scope, "FIELD", "payload"))
	assert.Equal(t, map[string]string{"FIELD": "payload"}, store.Attributes(scope))
	assert.Equal(t, "p/s", scope.String())
}

func TestNATSKey(t *testing.T) {
	a := natsKey(Scope{PipelineID: "a.b", StepID: "c"}, "d")
	b := natsKey(Scope{PipelineID: "a", StepID: "b.c"}, "d")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, strings.Count(a, "."))
	assert.Equal(t, 2, strings.Count(natsKey(Scope{PipelineID: "p", StepID: "s"}, "metadata.broker.list"), "."))
}

func TestPostgres(t *testing.T) {
	ctx := context.Background()
	conn := pgtest.Connect(ctx, t)

	store := NewPostgres(conn, "rowpub_step_attribute_test")
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), "DROP TABLE IF EXISTS rowpub_step_attribute_test")
	})

	testStore(t, store)
}

func TestNATS(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	js, err := nc.JetStream()
	require.NoError(t, err)

	bucket := "rowpub_test_" + uuid.NewString()[:8]
	store, err := NewNATS(js, bucket)
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.DeleteKeyValue(bucket) })

	testStore(t, store)
}

func TestOpen(t *testing.T) {
	store, release, err := Open(context.Background(), Config{}, nil)
	require.NoError(t, err)
	defer release()
	assert.IsType(t, &Memory{}, store)

	_, _, err = Open(context.Background(), Config{Type: BackendPostgres}, nil)
	assert.Error(t, err)

	_, _, err = Open(context.Background(), Config{Type: "etcd"}, nil)
	assert.ErrorContains(t, err, `"etcd"`)
}
