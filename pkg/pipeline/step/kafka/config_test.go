package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	names := PropertyNames()
	require.Len(t, names, 18)
	assert.Equal(t, PropBrokerList, names[0])
	assert.Equal(t, PropClientID, names[len(names)-1])

	seen := make(map[string]bool)
	for _, p := range Catalog() {
		assert.False(t, seen[p.Name], "duplicate %s", p.Name)
		seen[p.Name] = true
		assert.True(t, IsCatalogProperty(p.Name))
	}
	assert.False(t, IsCatalogProperty("zookeeper.connect"))

	defaults := map[string]string{
		PropBrokerList:      "localhost:9092",
		PropRequiredAcks:    "1",
		PropProducerType:    "sync",
		PropSerializerClass: DefaultEncoder,
	}
	for _, name := range names {
		v, ok := DefaultValue(name)
		want, hasDefault := defaults[name]
		assert.Equal(t, hasDefault, ok, name)
		assert.Equal(t, want, v, name)
	}

	// callers cannot modify the catalog
	c := Catalog()
	c[0].Name = "changed"
	assert.Equal(t, PropBrokerList, Catalog()[0].Name)
}

func TestProducerConfigFields(t *testing.T) {
	cfg := NewProducerConfig()
	_, ok := cfg.Topic()
	assert.False(t, ok)

	cfg.SetTopic("")
	topic, ok := cfg.Topic()
	assert.True(t, ok)
	assert.Empty(t, topic)

	other := NewProducerConfig()
	assert.False(t, cfg.Equal(other))
	other.SetTopic("")
	assert.True(t, cfg.Equal(other))
}

func TestProperties(t *testing.T) {
	var p Properties
	_, ok := p.Get(PropClientID)
	assert.False(t, ok)

	p.Set(PropClientID, "a")
	p.Set(PropBrokerList, "b:9092")
	p.Set(PropClientID, "c")
	assert.Equal(t, []string{PropClientID, PropBrokerList}, p.Names())
	v, _ := p.Get(PropClientID)
	assert.Equal(t, "c", v)

	p.Delete(PropClientID)
	p.Delete("missing")
	assert.Equal(t, 1, p.Len())

	var q Properties
	q.SetAll(map[string]string{"z.extra": "1", PropClientID: "x", "a.extra": "2", PropBrokerList: "y"})
	assert.Equal(t, []string{PropBrokerList, PropClientID, "a.extra", "z.extra"}, q.Names())
}

func TestDecodeProducerConfig(t *testing.T) {
	cfg, err := DecodeProducerConfig(map[string]any{
		"topic":    "events",
		"keyField": "",
		"properties": map[string]any{
			PropRequiredAcks: -1,
			PropProducerType: "async",
		},
	})
	require.NoError(t, err)

	key, ok := cfg.KeyField()
	assert.True(t, ok)
	assert.Empty(t, key)
	_, ok = cfg.MessageField()
	assert.False(t, ok)
	assert.Equal(t, map[string]string{PropRequiredAcks: "-1", PropProducerType: "async"}, cfg.Properties().Map())
	assert.Nil(t, cfg.Security)

	_, err = DecodeProducerConfig(map[string]any{"topic": []string{"a", "b"}})
	assert.Error(t, err)
}

func TestEncodeProducerConfig(t *testing.T) {
	cfg := sampleConfig()
	cfg.Security = &Security{TLS: &TLS{Enable: true}}

	m := EncodeProducerConfig(cfg)
	assert.Equal(t, "events", m["topic"])
	assert.NotContains(t, m, "security")

	got, err := DecodeProducerConfig(m)
	require.NoError(t, err)
	assert.True(t, cfg.Equal(got))

	assert.Empty(t, EncodeProducerConfig(NewProducerConfig()))
}
