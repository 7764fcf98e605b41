// Package transport defines the submission channel contract shared by the
// screen-scripting and RFC variants.
//
// A Transport models one exclusive stateful session against the target
// system. The orchestrator selects a variant once per batch, and never
// interleaves submissions on a single session.
package transport

import (
	"context"
	"fmt"

	"github.com/mdm-labs/matload/internal/domain"
)

// Transport is the submission channel for material master records.
//
// Submit is only ever called with records that passed validation, and only
// after a successful Connect. A non-nil error from Submit means the session
// itself is unusable (connection drop, deadline exceeded); business-level
// rejections by the target system are reported in the Outcome with
// Succeeded false.
type Transport interface {
	// Connect establishes the external session. A false return means the
	// batch cannot run on this transport; the failure reason is logged by
	// the implementation.
	Connect(ctx context.Context) bool

	// Submit attempts to create one material in the target system.
	Submit(ctx context.Context, rec domain.Record) (domain.Outcome, error)

	// Disconnect releases the session. Idempotent and safe to call even if
	// Connect was never called or returned false.
	Disconnect()
}

// Method selects a transport variant. The variant is chosen once at batch
// start and never switched mid-batch.
type Method string

const (
	MethodGUI Method = "gui"
	MethodRFC Method = "rfc"
)

// ParseMethod converts a CLI flag value into a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodGUI, MethodRFC:
		return Method(s), nil
	default:
		return "", fmt.Errorf("unknown method %q (want gui or rfc)", s)
	}
}
