// Package kafka implements a pipeline step that republishes every incoming
// row as a message on a Kafka topic.
//
// One row field is selected as the message body and, optionally, another as
// the message key. Field positions and types are resolved once when a run
// starts; every row then yields exactly one publish attempt.
//
// Configuration:
//   - TOPIC:    destination topic
//   - FIELD:    name of the message field
//   - KEYFIELD: name of the key field (optional, unkeyed publish when unset)
//   - KAFKA:    producer tuning properties, see Catalog
//
// The configuration persists either as a step document (XML compatible with
// the classic step layout, or YAML) or as flat step attributes in an
// attribute store. Both forms write fields in a fixed order and omit unset
// values, so a save/load/save cycle is byte identical.
//
// Producer properties keep their classic names (metadata.broker.list,
// request.required.acks, producer.type, ...) and are mapped onto a
// github.com/IBM/sarama configuration by BuildClientConfig:
//
//	metadata.broker.list               → broker addresses (comma separated)
//	request.required.acks              → Producer.RequiredAcks (0, 1, -1)
//	producer.type                      → sync | async producer
//	request.timeout.ms                 → Producer.Timeout
//	partitioner.class                  → Producer.Partitioner
//	compression.codec                  → Producer.Compression
//	message.send.max.retries           → Producer.Retry.Max
//	retry.backoff.ms                   → Producer.Retry.Backoff
//	topic.metadata.refresh.interval.ms → Metadata.RefreshFrequency
//	queue.buffering.max.ms             → Producer.Flush.Frequency
//	queue.buffering.max.messages       → ChannelBufferSize
//	batch.num.messages                 → Producer.Flush.Messages
//	client.id                          → ClientID
package kafka
