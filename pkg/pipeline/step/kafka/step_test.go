package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/edgeflare/rowpub/internal/testutil"
	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStepRegistered(t *testing.T) {
	factory, err := pipeline.LookupStep(pipeline.StepKafka)
	require.NoError(t, err)
	assert.IsType(t, &StepKafka{}, factory("producer", zap.NewNop()))
}

func TestStepConfigure(t *testing.T) {
	step := NewStep("producer", nil)
	assert.ErrorIs(t, step.Initialize(context.Background(), nil), pipeline.ErrNotReady)
	assert.True(t, pipeline.HasErrors(step.Check(nil)))

	err := step.Configure(map[string]any{
		"topic":        "events",
		"messageField": "payload",
		"properties": map[string]any{
			PropRequestTimeoutMs: 5000,
			PropBrokerList:       "b1:9092",
		},
		"security": map[string]any{
			"sasl": map[string]any{"enable": true, "username": "u", "password": "p", "algorithm": "sha256"},
		},
	})
	require.NoError(t, err)

	cfg := step.Config()
	topic, _ := cfg.Topic()
	assert.Equal(t, "events", topic)
	_, ok := cfg.KeyField()
	assert.False(t, ok)
	v, _ := cfg.Properties().Get(PropRequestTimeoutMs)
	assert.Equal(t, "5000", v)
	assert.Equal(t, []string{PropBrokerList, PropRequestTimeoutMs}, cfg.Properties().Names())
	assert.Equal(t, "sha256", cfg.Security.SASL.Algorithm)

	assert.False(t, pipeline.HasErrors(step.Check(nil)))

	assert.Error(t, step.Configure(map[string]any{"topc": "typo"}))
}

func TestStepConfigureFromJSON(t *testing.T) {
	var config map[string]any
	require.NoError(t, testutil.LoadJSON("producer.json", &config))

	step := NewStep("producer", zap.NewNop())
	require.NoError(t, step.Configure(config))

	cfg := step.Config()
	key, _ := cfg.KeyField()
	assert.Equal(t, "id", key)
	acks, _ := cfg.Properties().Get(PropRequiredAcks)
	assert.Equal(t, "-1", acks)

	cc, err := BuildClientConfig(cfg.Properties(), cfg.Security)
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cc.Brokers)
	assert.True(t, cc.Async)
	assert.Equal(t, sarama.WaitForAll, cc.Sarama.Producer.RequiredAcks)
	assert.Equal(t, sarama.CompressionSnappy, cc.Sarama.Producer.Compression)
	assert.Equal(t, sarama.SASLMechanism(sarama.SASLTypeSCRAMSHA512), cc.Sarama.Net.SASL.Mechanism)
}

func TestStepLifecycle(t *testing.T) {
	ctx := context.Background()
	step := NewStep("producer", zap.NewNop(), WithSyncProducerFactory(
		func(addrs []string, conf *sarama.Config) (sarama.SyncProducer, error) {
			assert.Equal(t, []string{"b1:9092"}, addrs)
			mp := mocks.NewSyncProducer(t, conf)
			mp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectMessage("events", []byte("k"), []byte("v")))
			return mp, nil
		}))
	require.NoError(t, step.Configure(map[string]any{
		"topic":        "events",
		"keyField":     "key",
		"messageField": "value",
		"properties":   map[string]any{PropBrokerList: "b1:9092"},
	}))

	assert.ErrorIs(t, step.Publish(ctx, row.Row{"k", "v"}), pipeline.ErrNotReady)

	schema := row.Schema{{Name: "key", Type: row.TypeString}, {Name: "value", Type: row.TypeString}}
	require.NoError(t, step.Initialize(ctx, schema))
	require.NoError(t, step.Publish(ctx, row.Row{"k", "v"}))
	require.NoError(t, step.Close())
	require.NoError(t, step.Close())
}
