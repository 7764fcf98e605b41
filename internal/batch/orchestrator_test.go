package batch

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdm-labs/matload/internal/domain"
)

// fakeTransport scripts per-record outcomes and counts lifecycle calls.
type fakeTransport struct {
	connectOK   bool
	outcomes    map[string]domain.Outcome // keyed by description
	errs        map[string]error
	submitDelay time.Duration

	connects    int
	disconnects int
	submitted   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		connectOK: true,
		outcomes:  map[string]domain.Outcome{},
		errs:      map[string]error{},
	}
}

func (f *fakeTransport) Connect(ctx context.Context) bool {
	f.connects++
	return f.connectOK
}

func (f *fakeTransport) Submit(ctx context.Context, rec domain.Record) (domain.Outcome, error) {
	f.submitted = append(f.submitted, rec.Description)
	if f.submitDelay > 0 {
		select {
		case <-ctx.Done():
			return domain.Outcome{}, ctx.Err()
		case <-time.After(f.submitDelay):
		}
	}
	if err, ok := f.errs[rec.Description]; ok {
		return domain.Outcome{}, err
	}
	if out, ok := f.outcomes[rec.Description]; ok {
		return out, nil
	}
	return domain.Outcome{Succeeded: true, Message: "created"}, nil
}

func (f *fakeTransport) Disconnect() {
	f.disconnects++
}

func record(desc string) domain.Record {
	return domain.Record{
		MaterialType:   "FERT",
		IndustrySector: "M",
		Description:    desc,
		BaseUnit:       "EA",
	}
}

func run(t *testing.T, records []domain.Record, tr *fakeTransport) domain.BatchResult {
	t.Helper()
	o := New(Config{}, zerolog.Nop())
	return o.Run(context.Background(), records, tr)
}

func TestRun_AllSucceed(t *testing.T) {
	tr := newFakeTransport()
	res := run(t, []domain.Record{record("a"), record("b")}, tr)

	if res.Status != domain.BatchCompleted {
		t.Errorf("Status = %s", res.Status)
	}
	if res.Total != 2 || res.Succeeded != 2 || res.Failed != 0 {
		t.Errorf("counts = %d/%d/%d", res.Total, res.Succeeded, res.Failed)
	}
	if !res.AllSucceeded() {
		t.Error("AllSucceeded = false")
	}
	if res.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	if tr.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", tr.disconnects)
	}
}

func TestRun_MixedFailures(t *testing.T) {
	// R2 fails validation, R4 is rejected by the target system.
	records := []domain.Record{
		record("r1"),
		{MaterialType: "XX", IndustrySector: "M", Description: "r2", BaseUnit: "EA"},
		record("r3"),
		record("r4"),
		record("r5"),
	}
	tr := newFakeTransport()
	tr.outcomes["r4"] = domain.Outcome{Succeeded: false, Message: "material group missing"}

	res := run(t, records, tr)

	if res.Total != 5 || res.Succeeded != 3 || res.Failed != 2 {
		t.Fatalf("counts = %d/%d/%d, want 5/3/2", res.Total, res.Succeeded, res.Failed)
	}
	for i, rr := range res.Records {
		if rr.Sequence != i+1 {
			t.Errorf("Records[%d].Sequence = %d, want %d", i, rr.Sequence, i+1)
		}
	}
	if res.Records[1].Status != domain.StatusFailed {
		t.Error("r2 should have failed validation")
	}
	if !strings.Contains(res.Records[1].Message, "Invalid Material Type: XX") {
		t.Errorf("r2 message = %q", res.Records[1].Message)
	}
	if !strings.HasPrefix(res.Records[1].Message, "Validation failed: ") {
		t.Errorf("r2 message = %q", res.Records[1].Message)
	}
	if res.Records[3].Status != domain.StatusFailed || res.Records[3].Message != "material group missing" {
		t.Errorf("r4 result = %+v", res.Records[3])
	}

	// The invalid record must never reach the transport.
	for _, d := range tr.submitted {
		if d == "r2" {
			t.Error("invalid record was submitted")
		}
	}
}

func TestRun_ConnectFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.connectOK = false

	res := run(t, []domain.Record{record("a"), record("b"), record("c")}, tr)

	if res.Status != domain.BatchConnectFailed {
		t.Errorf("Status = %s, want connect_failed", res.Status)
	}
	if res.Total != 3 || res.Succeeded != 0 || res.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 3/0/0", res.Total, res.Succeeded, res.Failed)
	}
	if len(res.Records) != 0 {
		t.Errorf("Records = %v, want none", res.Records)
	}
	if tr.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", tr.disconnects)
	}
	if len(tr.submitted) != 0 {
		t.Errorf("submitted = %v, want none", tr.submitted)
	}
	if res.AllSucceeded() {
		t.Error("AllSucceeded = true for connect failure")
	}
}

func TestRun_AbortMidBatch(t *testing.T) {
	records := []domain.Record{record("a"), record("b"), record("c"), record("d")}
	tr := newFakeTransport()
	tr.errs["b"] = fmt.Errorf("gateway gone: %w", domain.ErrSessionLost)

	res := run(t, records, tr)

	if res.Status != domain.BatchAborted {
		t.Errorf("Status = %s, want aborted", res.Status)
	}
	if res.Total != 4 || res.Succeeded != 1 || res.Failed != 3 {
		t.Errorf("counts = %d/%d/%d, want 4/1/3", res.Total, res.Succeeded, res.Failed)
	}
	if len(res.Records) != 4 {
		t.Fatalf("len(Records) = %d, want 4", len(res.Records))
	}
	if res.Records[0].Status != domain.StatusSuccess {
		t.Error("record a should have succeeded")
	}
	if !strings.Contains(res.Records[1].Message, "session lost") {
		t.Errorf("record b message = %q", res.Records[1].Message)
	}
	for _, rr := range res.Records[2:] {
		if rr.Status != domain.StatusFailed || rr.Message != abortedMessage {
			t.Errorf("trailing record %d = %+v, want aborted failure", rr.Sequence, rr)
		}
	}

	// No further submissions after the fatal failure.
	if len(tr.submitted) != 2 {
		t.Errorf("submitted = %v, want a and b only", tr.submitted)
	}
	if tr.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", tr.disconnects)
	}
}

func TestRun_SubmitTimeoutAborts(t *testing.T) {
	tr := newFakeTransport()
	tr.submitDelay = 50 * time.Millisecond

	o := New(Config{SubmitTimeout: 5 * time.Millisecond}, zerolog.Nop())
	res := o.Run(context.Background(), []domain.Record{record("slow"), record("next")}, tr)

	if res.Status != domain.BatchAborted {
		t.Fatalf("Status = %s, want aborted", res.Status)
	}
	if !strings.Contains(res.Records[0].Message, "submit timeout") {
		t.Errorf("message = %q, want submit timeout", res.Records[0].Message)
	}
	if res.Records[1].Message != abortedMessage {
		t.Errorf("trailing message = %q", res.Records[1].Message)
	}
	if tr.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", tr.disconnects)
	}
}

func TestRun_EmptyBatch(t *testing.T) {
	tr := newFakeTransport()
	res := run(t, nil, tr)

	if res.Status != domain.BatchCompleted {
		t.Errorf("Status = %s", res.Status)
	}
	if res.Total != 0 || res.Succeeded != 0 || res.Failed != 0 {
		t.Errorf("counts = %d/%d/%d", res.Total, res.Succeeded, res.Failed)
	}
	if tr.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", tr.disconnects)
	}
}

func TestRun_EndToEndExample(t *testing.T) {
	records := []domain.Record{
		{MaterialType: "FERT", IndustrySector: "M", Description: "Widget", BaseUnit: "EA"},
		{MaterialType: "XX", IndustrySector: "M", Description: "Bad", BaseUnit: "EA"},
	}
	tr := newFakeTransport()

	res := run(t, records, tr)

	if res.Total != 2 || res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", res.Total, res.Succeeded, res.Failed)
	}
	if res.Records[0].Status != domain.StatusSuccess {
		t.Errorf("records[0].Status = %s", res.Records[0].Status)
	}
	if res.Records[1].Status != domain.StatusFailed {
		t.Errorf("records[1].Status = %s", res.Records[1].Status)
	}
	if !strings.Contains(res.Records[1].Message, "XX") {
		t.Errorf("records[1].Message = %q, want mention of XX", res.Records[1].Message)
	}
}
