// Package guiscript implements the screen-scripting transport variant. It
// drives the material creation transaction field by field through a Session
// and reads the outcome from the status bar.
package guiscript

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdm-labs/matload/internal/domain"
)

// Screen element ids for the create-material transaction. The overview ids
// are stable across the supported target releases.
const (
	fieldIndustrySector = "wnd[0]/usr/ctxtRMMG1-MBRSH"
	fieldMaterialType   = "wnd[0]/usr/ctxtRMMG1-MTART"
	fieldDescription    = "wnd[0]/usr/tabsTAXI_TABSTRIP_OVERVIEW/tabpOVERVIEW/ssubSUBSCREEN_BODY:SAPLMGMM:2100/subSUB_VIEWSET:SAPLMGMM:2200/ctxtMAKT-MAKTX"
	fieldBaseUnit       = "wnd[0]/usr/tabsTAXI_TABSTRIP_OVERVIEW/tabpOVERVIEW/ssubSUBSCREEN_BODY:SAPLMGMM:2100/subSUB_VIEWSET:SAPLMGMM:2200/ctxtMARA-MEINS"
	fieldMaterialGroup  = "wnd[0]/usr/tabsTAXI_TABSTRIP_OVERVIEW/tabpOVERVIEW/ssubSUBSCREEN_BODY:SAPLMGMM:2100/subSUB_VIEWSET:SAPLMGMM:2200/ctxtMARA-MATKL"
)

const (
	vkeyEnter = 0
	vkeySave  = 11
)

// statusError matches status bar lines the target system emits for failed
// saves. Success is decided by classifying the status line, not by the mere
// absence of a script error.
var statusError = regexp.MustCompile(`(?i)^e:|(^|\s)error(\s|:|$)|could not be (created|saved)`)

// Config holds the scripting transport settings.
type Config struct {
	// TransactionCode is the create-material transaction (default MM01).
	TransactionCode string

	// Delay is the settle time between remote interactions. The remote UI
	// has no ready signal, so each interaction is followed by a fixed wait.
	Delay time.Duration
}

// Transport submits records through a scripting session.
type Transport struct {
	cfg    Config
	dialer Dialer
	logger zerolog.Logger

	session Session
}

// New constructs the scripting transport. It fails fast when no dialer is
// available instead of failing deep inside the first submission.
func New(cfg Config, dialer Dialer, logger zerolog.Logger) (*Transport, error) {
	if dialer == nil {
		return nil, fmt.Errorf("%w: no scripting session dialer", domain.ErrTransportUnavailable)
	}
	if cfg.TransactionCode == "" {
		cfg.TransactionCode = "MM01"
	}
	return &Transport{cfg: cfg, dialer: dialer, logger: logger}, nil
}

// Connect attaches to the scripting session.
func (t *Transport) Connect(ctx context.Context) bool {
	t.logger.Info().Msg("attaching to scripting session")
	s, err := t.dialer.Attach(ctx)
	if err != nil {
		t.logger.Error().Err(err).Msg("failed to attach scripting session")
		return false
	}
	t.session = s
	t.logger.Info().Msg("scripting session attached")
	return true
}

// Submit drives the create-material script for one record.
func (t *Transport) Submit(ctx context.Context, rec domain.Record) (domain.Outcome, error) {
	if t.session == nil {
		return domain.Outcome{}, fmt.Errorf("%w: not connected", domain.ErrSessionLost)
	}

	steps := []func() error{
		func() error { return t.session.StartTransaction(t.cfg.TransactionCode) },
		func() error { return t.session.SetText(fieldIndustrySector, rec.IndustrySector) },
		func() error { return t.session.SetText(fieldMaterialType, rec.MaterialType) },
		func() error { return t.session.SendVKey(vkeyEnter) },
		func() error { return t.session.SetText(fieldDescription, rec.Description) },
		func() error { return t.session.SetText(fieldBaseUnit, rec.BaseUnit) },
	}
	if rec.MaterialGroup != "" {
		steps = append(steps, func() error { return t.session.SetText(fieldMaterialGroup, rec.MaterialGroup) })
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return t.scriptFailure(err)
		}
		if err := t.settle(ctx, t.cfg.Delay); err != nil {
			return domain.Outcome{}, err
		}
	}

	if err := t.session.SendVKey(vkeySave); err != nil {
		return t.scriptFailure(err)
	}
	// The save round trip is the slowest interaction; wait twice as long.
	if err := t.settle(ctx, 2*t.cfg.Delay); err != nil {
		return domain.Outcome{}, err
	}

	status, err := t.session.StatusBarText()
	if err != nil {
		return t.scriptFailure(err)
	}
	return classifyStatus(status), nil
}

// Disconnect releases the scripting session. Safe to call repeatedly.
func (t *Transport) Disconnect() {
	if t.session == nil {
		return
	}
	t.logger.Info().Msg("detaching scripting session")
	if err := t.session.Close(); err != nil {
		t.logger.Warn().Err(err).Msg("failed to close scripting session")
	}
	t.session = nil
}

// scriptFailure maps a session error to either an infrastructure failure (the
// session is gone) or a business failure for the current record.
func (t *Transport) scriptFailure(err error) (domain.Outcome, error) {
	if errors.Is(err, domain.ErrSessionLost) {
		return domain.Outcome{}, err
	}
	t.logger.Warn().Err(err).Msg("script step failed")
	return domain.Outcome{Succeeded: false, Message: err.Error()}, nil
}

// settle waits for the remote UI to catch up, honoring cancellation.
func (t *Transport) settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// classifyStatus turns the final status bar line into an outcome. An empty
// line after a save is taken as success with no message.
func classifyStatus(status string) domain.Outcome {
	status = strings.TrimSpace(status)
	if statusError.MatchString(status) {
		return domain.Outcome{Succeeded: false, Message: status}
	}
	return domain.Outcome{Succeeded: true, Message: status}
}
