// Package pipeline moves rows from one Source to a set of output Steps.
//
// A Step is registered under a type name (see RegisterStep) and built by the
// Manager once per configured copy. Every copy is checked against the source
// schema, initialized with retries for temporary failures, then fed rows
// round robin with its sibling copies. Each step type receives every row.
//
// Built-in step types live under pipeline/step and register themselves when
// imported:
//
//	import _ "github.com/edgeflare/rowpub/pkg/pipeline/step/kafka"
package pipeline
