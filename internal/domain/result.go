package domain

import (
	"time"

	"github.com/google/uuid"
)

// ValidationResult is the outcome of validating a single record.
// Violations are listed in rule order and accumulate; validation never stops
// at the first failing rule.
type ValidationResult struct {
	Valid      bool
	Violations []string
}

// Outcome is the result of one transport submission for one record.
// Succeeded false with a message is a business-level rejection by the target
// system; infrastructure failures are reported as errors, not outcomes.
type Outcome struct {
	Succeeded bool
	Message   string
}

// RecordStatus is the terminal status of a single record in a batch.
type RecordStatus string

const (
	StatusSuccess RecordStatus = "success"
	StatusFailed  RecordStatus = "failed"
)

// BatchStatus describes how a batch run ended.
type BatchStatus string

const (
	// BatchCompleted means every record was attempted.
	BatchCompleted BatchStatus = "completed"

	// BatchConnectFailed means the transport session could not be
	// established and no record was attempted.
	BatchConnectFailed BatchStatus = "connect_failed"

	// BatchAborted means an infrastructure failure stopped the batch before
	// all records were attempted.
	BatchAborted BatchStatus = "aborted"
)

// RecordResult is the outcome for one input record.
// Sequence is the 1-based input position and is stable regardless of earlier
// failures. Created once, never mutated.
type RecordResult struct {
	Sequence int
	Status   RecordStatus
	Message  string
	Record   Record
}

// BatchResult is the aggregate outcome of one batch run.
//
// For completed and aborted batches, Total == Succeeded + Failed ==
// len(Records) and Records preserves input order. A connect_failed batch
// carries Total equal to the input size with zero processed records.
type BatchResult struct {
	ID        uuid.UUID
	Status    BatchStatus
	Total     int
	Succeeded int
	Failed    int
	Timestamp time.Time
	Records   []RecordResult
}

// AllSucceeded reports whether the batch completed with no failed records.
// This drives the process exit code.
func (b BatchResult) AllSucceeded() bool {
	return b.Status == BatchCompleted && b.Failed == 0
}
