// Package batch runs the orchestration loop: validate every record, submit
// the valid ones through the selected transport, and account for each record
// in input order. Business failures never stop the batch; only a dead session
// does.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mdm-labs/matload/internal/domain"
	"github.com/mdm-labs/matload/internal/transport"
	"github.com/mdm-labs/matload/internal/validate"
)

// abortedMessage is recorded for every record left unattempted after a fatal
// mid-batch transport failure.
const abortedMessage = "Not attempted: batch aborted after infrastructure failure"

// Config holds the orchestration settings.
type Config struct {
	// ConnectTimeout bounds the transport connect call. Zero means no bound.
	ConnectTimeout time.Duration

	// SubmitTimeout bounds each transport submit call. A deadline hit is an
	// infrastructure failure and aborts the remainder of the batch. Zero
	// means no bound.
	SubmitTimeout time.Duration
}

// Orchestrator processes batches of material records.
type Orchestrator struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates an orchestrator.
func New(cfg Config, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, logger: logger}
}

// Run processes records in input order through the transport and returns the
// batch result. The transport is disconnected exactly once on every path.
//
// Records are attempted exactly once; there are no retries. A connect failure
// short-circuits the whole batch with zero processed records. An
// infrastructure failure mid-batch marks the current record failed, marks all
// remaining records failed with an aborted message, and stops submitting.
func (o *Orchestrator) Run(ctx context.Context, records []domain.Record, tr transport.Transport) domain.BatchResult {
	defer tr.Disconnect()

	result := domain.BatchResult{
		ID:    uuid.New(),
		Total: len(records),
	}

	o.logger.Info().Str("batch_id", result.ID.String()).Int("records", len(records)).Msg("starting batch")

	if !o.connect(ctx, tr) {
		result.Status = domain.BatchConnectFailed
		result.Timestamp = time.Now()
		o.logger.Error().Str("batch_id", result.ID.String()).Msg("transport connect failed, batch not processed")
		return result
	}

	result.Records = make([]domain.RecordResult, 0, len(records))
	aborted := false

	for i, rec := range records {
		seq := i + 1

		if aborted {
			result.Records = append(result.Records, domain.RecordResult{
				Sequence: seq,
				Status:   domain.StatusFailed,
				Message:  abortedMessage,
				Record:   rec,
			})
			continue
		}

		o.logger.Info().Int("record", seq).Int("total", len(records)).Msg("processing record")

		if vr := validate.Validate(rec); !vr.Valid {
			msg := "Validation failed: " + strings.Join(vr.Violations, "; ")
			o.logger.Warn().Int("record", seq).Strs("violations", vr.Violations).Msg("record failed validation")
			result.Records = append(result.Records, domain.RecordResult{
				Sequence: seq,
				Status:   domain.StatusFailed,
				Message:  msg,
				Record:   rec,
			})
			continue
		}

		outcome, err := o.submit(ctx, tr, rec)
		if err != nil {
			o.logger.Error().Err(err).Int("record", seq).Msg("infrastructure failure, aborting batch")
			result.Records = append(result.Records, domain.RecordResult{
				Sequence: seq,
				Status:   domain.StatusFailed,
				Message:  err.Error(),
				Record:   rec,
			})
			aborted = true
			continue
		}

		rr := domain.RecordResult{Sequence: seq, Message: outcome.Message, Record: rec}
		if outcome.Succeeded {
			rr.Status = domain.StatusSuccess
		} else {
			rr.Status = domain.StatusFailed
			o.logger.Warn().Int("record", seq).Str("message", outcome.Message).Msg("record rejected by target system")
		}
		result.Records = append(result.Records, rr)
	}

	for _, rr := range result.Records {
		if rr.Status == domain.StatusSuccess {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	if aborted {
		result.Status = domain.BatchAborted
	} else {
		result.Status = domain.BatchCompleted
	}
	result.Timestamp = time.Now()

	o.logger.Info().
		Str("batch_id", result.ID.String()).
		Str("status", string(result.Status)).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("batch finished")

	return result
}

// connect establishes the session under the configured deadline.
func (o *Orchestrator) connect(ctx context.Context, tr transport.Transport) bool {
	if o.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.ConnectTimeout)
		defer cancel()
	}
	return tr.Connect(ctx)
}

// submit runs one transport call under the configured deadline. A deadline
// hit is surfaced as ErrSubmitTimeout so it reads as an infrastructure
// failure in the record message.
func (o *Orchestrator) submit(ctx context.Context, tr transport.Transport, rec domain.Record) (domain.Outcome, error) {
	sctx := ctx
	if o.cfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, o.cfg.SubmitTimeout)
		defer cancel()
	}

	outcome, err := tr.Submit(sctx, rec)
	if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return domain.Outcome{}, fmt.Errorf("%w after %s", domain.ErrSubmitTimeout, o.cfg.SubmitTimeout)
	}
	return outcome, err
}
