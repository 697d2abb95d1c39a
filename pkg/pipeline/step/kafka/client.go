package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// Encoder class names accepted by serializer.class and key.serializer.class.
const (
	DefaultEncoder = "kafka.serializer.DefaultEncoder"
	StringEncoder  = "kafka.serializer.StringEncoder"
	NullEncoder    = "kafka.serializer.NullEncoder"
)

// ProducerType values
const (
	ProducerSync  = "sync"
	ProducerAsync = "async"
)

// EncodeFunc turns a converted field value into the payload handed to
// sarama. A nil input stays nil.
type EncodeFunc func(sarama.Encoder) sarama.Encoder

// ClientConfig is a validated broker client configuration built from a
// property bag.
type ClientConfig struct {
	Brokers []string
	Sarama  *sarama.Config
	Async   bool
	Value   EncodeFunc
	Key     EncodeFunc
	// CompressedTopics limits compression to the listed topics when non-empty
	CompressedTopics []string
	// EnqueueTimeout is how long an async publish waits for queue space.
	// Negative blocks until space is available.
	EnqueueTimeout time.Duration
}

// ForTopic returns a copy of the sarama configuration with compression
// disabled when topic is not one of CompressedTopics.
func (c *ClientConfig) ForTopic(topic string) *sarama.Config {
	conf := *c.Sarama
	if len(c.CompressedTopics) > 0 && !slices.Contains(c.CompressedTopics, topic) {
		conf.Producer.Compression = sarama.CompressionNone
		conf.Producer.CompressionLevel = sarama.CompressionLevelDefault
	}
	return &conf
}

// BuildClientConfig converts producer properties into a broker client
// configuration. Unset catalog properties with a documented default take that
// default, all others keep sarama's own defaults. Property names outside the
// catalog are ignored. The returned error text is meant to be shown as is.
func BuildClientConfig(props *Properties, sec *Security) (*ClientConfig, error) {
	get := func(name string) (string, bool) {
		if v, ok := props.Get(name); ok {
			return strings.TrimSpace(v), true
		}
		return DefaultValue(name)
	}

	conf := sarama.NewConfig()
	cc := &ClientConfig{Sarama: conf, EnqueueTimeout: -1}

	brokers, _ := get(PropBrokerList)
	for _, b := range strings.Split(brokers, ",") {
		b = strings.TrimSpace(b)
		if b == "" {
			return nil, fmt.Errorf("invalid value %q for %s: empty broker address", brokers, PropBrokerList)
		}
		cc.Brokers = append(cc.Brokers, b)
	}

	if v, ok := get(PropRequiredAcks); ok {
		switch v {
		case "0":
			conf.Producer.RequiredAcks = sarama.NoResponse
		case "1":
			conf.Producer.RequiredAcks = sarama.WaitForLocal
		case "-1", "all":
			conf.Producer.RequiredAcks = sarama.WaitForAll
		default:
			return nil, fmt.Errorf("invalid value %q for %s: must be 0, 1 or -1", v, PropRequiredAcks)
		}
	}

	if v, ok := get(PropProducerType); ok {
		switch strings.ToLower(v) {
		case ProducerSync:
			cc.Async = false
		case ProducerAsync:
			cc.Async = true
		default:
			return nil, fmt.Errorf("invalid value %q for %s: must be sync or async", v, PropProducerType)
		}
	}
	conf.Producer.Return.Successes = !cc.Async
	conf.Producer.Return.Errors = true

	var err error
	valueClass, _ := get(PropSerializerClass)
	if cc.Value, err = encoderFor(PropSerializerClass, valueClass); err != nil {
		return nil, err
	}
	keyClass, ok := get(PropKeySerializerClass)
	if !ok {
		keyClass = valueClass
	}
	if cc.Key, err = encoderFor(PropKeySerializerClass, keyClass); err != nil {
		return nil, err
	}

	durations := []struct {
		name   string
		target *time.Duration
	}{
		{PropRequestTimeoutMs, &conf.Producer.Timeout},
		{PropRetryBackoffMs, &conf.Producer.Retry.Backoff},
		{PropMetadataRefreshMs, &conf.Metadata.RefreshFrequency},
		{PropQueueBufferingMaxMs, &conf.Producer.Flush.Frequency},
	}
	for _, d := range durations {
		if v, ok := get(d.name); ok {
			ms, err := parseInt(d.name, v)
			if err != nil {
				return nil, err
			}
			*d.target = time.Duration(ms) * time.Millisecond
		}
	}

	ints := []struct {
		name   string
		target *int
	}{
		{PropMessageSendMaxRetries, &conf.Producer.Retry.Max},
		{PropQueueBufferingMaxMsgs, &conf.ChannelBufferSize},
		{PropBatchNumMessages, &conf.Producer.Flush.Messages},
	}
	for _, i := range ints {
		if v, ok := get(i.name); ok {
			n, err := parseInt(i.name, v)
			if err != nil {
				return nil, err
			}
			*i.target = int(n)
		}
	}

	if v, ok := get(PropPartitionerClass); ok {
		if conf.Producer.Partitioner, err = partitionerFor(v); err != nil {
			return nil, err
		}
	}

	if v, ok := get(PropCompressionCodec); ok {
		if conf.Producer.Compression, err = compressionFor(v); err != nil {
			return nil, err
		}
	}
	if v, ok := get(PropCompressedTopics); ok {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				cc.CompressedTopics = append(cc.CompressedTopics, t)
			}
		}
	}

	if v, ok := get(PropQueueEnqueueTimeoutMs); ok {
		ms, err := parseInt(PropQueueEnqueueTimeoutMs, v)
		if err != nil {
			return nil, err
		}
		if ms < 0 {
			cc.EnqueueTimeout = -1
		} else {
			cc.EnqueueTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	if v, ok := get(PropSendBufferBytes); ok {
		n, err := parseInt(PropSendBufferBytes, v)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("invalid value %q for %s: must be > 0", v, PropSendBufferBytes)
		}
		conf.Net.Proxy.Enable = true
		conf.Net.Proxy.Dialer = newSendBufferDialer(conf, int(n))
	}

	if v, ok := get(PropClientID); ok {
		conf.ClientID = v
	}

	if err := configureSecurity(conf, sec); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return cc, nil
}

func parseInt(name, v string) (int64, error) {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %s: not an integer", v, name)
	}
	return n, nil
}

func encoderFor(prop, class string) (EncodeFunc, error) {
	switch class {
	case DefaultEncoder, "bytes":
		return func(e sarama.Encoder) sarama.Encoder { return e }, nil
	case StringEncoder, "string":
		return func(e sarama.Encoder) sarama.Encoder {
			if b, ok := e.(sarama.ByteEncoder); ok {
				return sarama.StringEncoder(b)
			}
			return e
		}, nil
	case NullEncoder, "null":
		return func(sarama.Encoder) sarama.Encoder { return nil }, nil
	default:
		return nil, fmt.Errorf("invalid value %q for %s: unknown encoder class", class, prop)
	}
}

func partitionerFor(class string) (sarama.PartitionerConstructor, error) {
	switch strings.ToLower(class) {
	case "kafka.producer.defaultpartitioner", "hash":
		return sarama.NewHashPartitioner, nil
	case "random":
		return sarama.NewRandomPartitioner, nil
	case "roundrobin":
		return sarama.NewRoundRobinPartitioner, nil
	case "manual":
		return sarama.NewManualPartitioner, nil
	case "murmur2", "reference":
		return sarama.NewReferenceHashPartitioner, nil
	case "crc32", "consistent":
		return sarama.NewConsistentCRCHashPartitioner, nil
	default:
		return nil, fmt.Errorf("invalid value %q for %s: unknown partitioner", class, PropPartitionerClass)
	}
}

func compressionFor(codec string) (sarama.CompressionCodec, error) {
	switch strings.ToLower(codec) {
	case "none", "0":
		return sarama.CompressionNone, nil
	case "gzip", "1":
		return sarama.CompressionGZIP, nil
	case "snappy", "2":
		return sarama.CompressionSnappy, nil
	case "lz4", "3":
		return sarama.CompressionLZ4, nil
	case "zstd", "4":
		return sarama.CompressionZSTD, nil
	default:
		return sarama.CompressionNone, fmt.Errorf("invalid value %q for %s: unknown codec", codec, PropCompressionCodec)
	}
}

func configureSecurity(conf *sarama.Config, sec *Security) error {
	if sec == nil {
		return nil
	}

	if sec.SASL != nil && sec.SASL.Enable {
		conf.Net.SASL.Enable = true
		conf.Net.SASL.User = sec.SASL.Username
		conf.Net.SASL.Password = sec.SASL.Password
		conf.Net.SASL.Handshake = true

		switch sec.SASL.Algorithm {
		case "sha512":
			conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA512} }
			conf.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		case "sha256":
			conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA256} }
			conf.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		case "plain", "":
			conf.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		default:
			return fmt.Errorf("invalid SASL algorithm: %s", sec.SASL.Algorithm)
		}
	}

	if sec.TLS != nil && sec.TLS.Enable {
		tlsConfig, err := createTLSConfiguration(*sec.TLS)
		if err != nil {
			return err
		}
		conf.Net.TLS.Enable = true
		conf.Net.TLS.Config = tlsConfig
	}
	return nil
}

func createTLSConfiguration(tlsCfg TLS) (*tls.Config, error) {
	t := &tls.Config{
		InsecureSkipVerify: tlsCfg.SkipVerify,
	}

	if tlsCfg.CertFile != "" && tlsCfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(tlsCfg.CertFile, tlsCfg.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		t.Certificates = []tls.Certificate{cert}
	}

	if tlsCfg.CAFile != "" {
		caCert, err := os.ReadFile(tlsCfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates found in %s", tlsCfg.CAFile)
		}
		t.RootCAs = caCertPool
	}

	return t, nil
}
