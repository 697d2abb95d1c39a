package kafka

import (
	"testing"

	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorMessages(diags []pipeline.Diagnostic) []string {
	var msgs []string
	for _, d := range diags {
		if d.Severity == pipeline.SeverityError {
			msgs = append(msgs, d.Message)
		}
	}
	return msgs
}

func validConfig() *ProducerConfig {
	cfg := NewProducerConfig()
	cfg.SetTopic("events")
	cfg.SetMessageField("payload")
	return cfg
}

func TestCheckRequiredFields(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		diags := Check("producer", NewProducerConfig(), nil)
		assert.Equal(t, []string{MsgInvalidTopic, MsgInvalidMessageField}, errorMessages(diags))
	})

	t.Run("empty", func(t *testing.T) {
		cfg := NewProducerConfig()
		cfg.SetTopic("")
		cfg.SetMessageField("")
		cfg.Properties().Set(PropProducerType, ProducerAsync)
		diags := Check("producer", cfg, nil)
		assert.Equal(t, []string{MsgInvalidTopic, MsgInvalidMessageField}, errorMessages(diags))
		for _, d := range diags {
			assert.Equal(t, "producer", d.Step)
		}
	})

	t.Run("invalid bag does not hide them", func(t *testing.T) {
		cfg := NewProducerConfig()
		cfg.Properties().Set(PropRequiredAcks, "2")
		msgs := errorMessages(Check("producer", cfg, nil))
		require.Len(t, msgs, 3)
		assert.Equal(t, MsgInvalidTopic, msgs[0])
		assert.Equal(t, MsgInvalidMessageField, msgs[1])
		assert.Contains(t, msgs[2], PropRequiredAcks)
	})
}

func TestCheckBrokerConfig(t *testing.T) {
	testCases := []struct {
		name  string
		prop  string
		value string
		want  string
	}{
		{"non numeric timeout", PropRequestTimeoutMs, "abc", `invalid value "abc" for request.timeout.ms`},
		{"zero timeout", PropRequestTimeoutMs, "0", "Producer.Timeout"},
		{"unknown producer type", PropProducerType, "batch", `invalid value "batch" for producer.type`},
		{"unknown codec", PropCompressionCodec, "brotli", `invalid value "brotli" for compression.codec`},
		{"negative channel buffer", PropQueueBufferingMaxMsgs, "-1", "ChannelBufferSize"},
		{"empty broker", PropBrokerList, "a:9092,,b:9092", "empty broker address"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Properties().Set(tc.prop, tc.value)

			msgs := errorMessages(Check("producer", cfg, nil))
			require.Len(t, msgs, 1)
			assert.Contains(t, msgs[0], tc.want)
		})
	}
}

func TestCheckValid(t *testing.T) {
	cfg := validConfig()
	cfg.SetKeyField("id")
	cfg.Properties().Set(PropRequestTimeoutMs, "5000")
	cfg.Properties().Set("not.in.catalog", "whatever")

	diags := Check("producer", cfg, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, pipeline.SeverityOK, diags[0].Severity)
}

func TestCheckInputFields(t *testing.T) {
	cfg := validConfig()
	cfg.SetKeyField("id")

	schema := row.Schema{{Name: "id", Type: row.TypeInteger}, {Name: "payload", Type: row.TypeString}}
	assert.False(t, pipeline.HasErrors(Check("producer", cfg, schema)))

	msgs := errorMessages(Check("producer", cfg, row.Schema{{Name: "body", Type: row.TypeString}}))
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], `message field "payload"`)
	assert.Contains(t, msgs[1], `key field "id"`)
}
