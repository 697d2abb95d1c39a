package kafka

import (
	"github.com/edgeflare/rowpub/pkg/pipeline"
	"github.com/edgeflare/rowpub/pkg/pipeline/row"
)

// Check messages
const (
	MsgInvalidTopic        = "invalid topic"
	MsgInvalidMessageField = "invalid message field"
)

// Check validates cfg for the named step. Every check runs regardless of
// earlier findings. When prev (the incoming row schema) is known, the
// configured fields must exist in it.
func Check(step string, cfg *ProducerConfig, prev row.Schema) (diags []pipeline.Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			diags = append(diags, pipeline.Errorf(step, "unexpected failure while checking configuration: %v", r))
		}
	}()

	topic, _ := cfg.Topic()
	if topic == "" {
		diags = append(diags, pipeline.Errorf(step, MsgInvalidTopic))
	}

	messageField, _ := cfg.MessageField()
	if messageField == "" {
		diags = append(diags, pipeline.Errorf(step, MsgInvalidMessageField))
	}

	if _, err := BuildClientConfig(cfg.Properties(), cfg.Security); err != nil {
		diags = append(diags, pipeline.Diagnostic{Severity: pipeline.SeverityError, Step: step, Message: err.Error()})
	}

	if prev != nil {
		if messageField != "" && prev.IndexOf(messageField) < 0 {
			diags = append(diags, pipeline.Errorf(step, "message field %q not found in input stream", messageField))
		}
		if keyField, ok := cfg.KeyField(); ok && keyField != "" && prev.IndexOf(keyField) < 0 {
			diags = append(diags, pipeline.Errorf(step, "key field %q not found in input stream", keyField))
		}
	}

	if !pipeline.HasErrors(diags) {
		diags = append(diags, pipeline.Diagnostic{Severity: pipeline.SeverityOK, Step: step, Message: "configuration is valid"})
	}
	return diags
}
