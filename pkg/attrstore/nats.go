package attrstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
)

// DefaultBucket is the JetStream key-value bucket NATS stores attributes in.
const DefaultBucket = "rowpub_step_attributes"

// NATS stores attributes in a JetStream key-value bucket. Keys are
// <pipeline>.<step>.<code>, each token base64url encoded so arbitrary ids
// and dotted property names stay unambiguous.
type NATS struct {
	kv nats.KeyValue
}

// NewNATS opens (or creates) bucket on the JetStream context js. An empty
// bucket selects DefaultBucket.
func NewNATS(js nats.JetStreamContext, bucket string) (*NATS, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "rowpub step attributes",
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open key-value bucket %s: %w", bucket, err)
	}
	return &NATS{kv: kv}, nil
}

func natsKey(scope Scope, code string) string {
	return natsScopePrefix(scope) + base64.RawURLEncoding.EncodeToString([]byte(code))
}

// natsScopePrefix is the key prefix shared by every attribute of scope.
func natsScopePrefix(scope Scope) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(scope.PipelineID)) + "." + enc.EncodeToString([]byte(scope.StepID)) + "."
}

func (n *NATS) StepAttribute(ctx context.Context, scope Scope, code string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	entry, err := n.kv.Get(natsKey(scope, code))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read attribute %s of %s: %w", code, scope, err)
	}
	return string(entry.Value()), true, nil
}

func (n *NATS) SaveStepAttribute(ctx context.Context, scope Scope, code, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.kv.PutString(natsKey(scope, code), value); err != nil {
		return fmt.Errorf("save attribute %s of %s: %w", code, scope, err)
	}
	return nil
}

func (n *NATS) DeleteStepAttributes(ctx context.Context, scope Scope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	keys, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list attributes of %s: %w", scope, err)
	}

	prefix := natsScopePrefix(scope)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := n.kv.Purge(key); err != nil {
			return fmt.Errorf("delete attributes of %s: %w", scope, err)
		}
	}
	return nil
}
