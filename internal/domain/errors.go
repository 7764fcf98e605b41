package domain

import "errors"

// Domain errors represent error conditions in the matload domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrTransportUnavailable is returned when a transport variant cannot be
	// constructed (missing session dialer, incomplete logon parameters).
	ErrTransportUnavailable = errors.New("matload: transport unavailable")

	// ErrSessionLost is returned by a transport when the session became
	// unusable mid-batch. The orchestrator treats it as fatal for the
	// remainder of the batch.
	ErrSessionLost = errors.New("matload: session lost")

	// ErrSubmitTimeout is returned when a transport call exceeded the
	// configured deadline. Treated as an infrastructure failure.
	ErrSubmitTimeout = errors.New("matload: submit timeout")

	// ErrUnsupportedInput is returned for input files whose extension is not
	// recognized.
	ErrUnsupportedInput = errors.New("matload: unsupported input format")
)
