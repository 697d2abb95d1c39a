package kafka

// Property is one recognized producer tuning parameter.
type Property struct {
	Name        string
	Default     string
	HasDefault  bool
	Description string
}

// Property names
const (
	PropBrokerList            = "metadata.broker.list"
	PropRequiredAcks          = "request.required.acks"
	PropProducerType          = "producer.type"
	PropSerializerClass       = "serializer.class"
	PropRequestTimeoutMs      = "request.timeout.ms"
	PropKeySerializerClass    = "key.serializer.class"
	PropPartitionerClass      = "partitioner.class"
	PropCompressionCodec      = "compression.codec"
	PropCompressedTopics      = "compressed.topics"
	PropMessageSendMaxRetries = "message.send.max.retries"
	PropRetryBackoffMs        = "retry.backoff.ms"
	PropMetadataRefreshMs     = "topic.metadata.refresh.interval.ms"
	PropQueueBufferingMaxMs   = "queue.buffering.max.ms"
	PropQueueBufferingMaxMsgs = "queue.buffering.max.messages"
	PropQueueEnqueueTimeoutMs = "queue.enqueue.timeout.ms"
	PropBatchNumMessages      = "batch.num.messages"
	PropSendBufferBytes       = "send.buffer.bytes"
	PropClientID              = "client.id"
)

// catalog order is the order properties are persisted in.
var catalog = [...]Property{
	{Name: PropBrokerList, Default: "localhost:9092", HasDefault: true, Description: "comma separated host:port list of bootstrap brokers"},
	{Name: PropRequiredAcks, Default: "1", HasDefault: true, Description: "acknowledgements required: 0 none, 1 leader, -1 all in-sync replicas"},
	{Name: PropProducerType, Default: "sync", HasDefault: true, Description: "sync or async"},
	{Name: PropSerializerClass, Default: "kafka.serializer.DefaultEncoder", HasDefault: true, Description: "message payload encoder"},
	{Name: PropRequestTimeoutMs, Description: "how long the broker waits for required acks"},
	{Name: PropKeySerializerClass, Description: "message key encoder, defaults to serializer.class"},
	{Name: PropPartitionerClass, Description: "hash, random, roundrobin, manual or murmur2"},
	{Name: PropCompressionCodec, Description: "none, gzip, snappy, lz4 or zstd"},
	{Name: PropCompressedTopics, Description: "comma separated topics compression applies to; all when empty"},
	{Name: PropMessageSendMaxRetries, Description: "retries before a send fails"},
	{Name: PropRetryBackoffMs, Description: "wait between retries"},
	{Name: PropMetadataRefreshMs, Description: "periodic metadata refresh interval"},
	{Name: PropQueueBufferingMaxMs, Description: "async: max time to buffer messages before a flush"},
	{Name: PropQueueBufferingMaxMsgs, Description: "async: max messages buffered in the producer queue"},
	{Name: PropQueueEnqueueTimeoutMs, Description: "async: wait when the queue is full; -1 blocks, 0 fails at once"},
	{Name: PropBatchNumMessages, Description: "async: messages per batch that trigger a flush"},
	{Name: PropSendBufferBytes, Description: "socket send buffer size"},
	{Name: PropClientID, Description: "client id sent with every request"},
}

var catalogIndex = func() map[string]int {
	idx := make(map[string]int, len(catalog))
	for i, p := range catalog {
		idx[p.Name] = i
	}
	return idx
}()

// Catalog returns the recognized properties in persistence order.
func Catalog() []Property {
	out := make([]Property, len(catalog))
	copy(out, catalog[:])
	return out
}

// PropertyNames returns the recognized property names in persistence order.
func PropertyNames() []string {
	names := make([]string, len(catalog))
	for i, p := range catalog {
		names[i] = p.Name
	}
	return names
}

// IsCatalogProperty reports whether name is a recognized property.
func IsCatalogProperty(name string) bool {
	_, ok := catalogIndex[name]
	return ok
}

// DefaultValue returns the documented default of a property, if it has one.
func DefaultValue(name string) (string, bool) {
	i, ok := catalogIndex[name]
	if !ok || !catalog[i].HasDefault {
		return "", false
	}
	return catalog[i].Default, true
}
