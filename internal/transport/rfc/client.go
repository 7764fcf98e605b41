// Package rfc implements the RFC transport variant. Records are submitted as
// structured create-material calls through an HTTP gateway that fronts the
// target system's function module interface.
package rfc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdm-labs/matload/internal/domain"
)

const (
	pingEndpoint     = "/v1/rfc/ping"
	saveDataEndpoint = "/v1/rfc/material/savedata"
)

// successTypes are the return types the target system uses for calls that
// should be treated as successful: empty, success, and warning.
var successTypes = map[string]bool{"": true, "S": true, "W": true}

// Logon holds the connection parameters for the gateway.
type Logon struct {
	Host     string
	SysNr    string
	Client   string
	User     string
	Password string
	Language string
}

// complete reports whether the minimum set of parameters is present.
func (l Logon) complete() bool {
	return l.Host != "" && l.User != "" && l.Password != ""
}

// Config holds the RFC transport settings.
type Config struct {
	// GatewayURL is the base URL of the RFC gateway, without trailing slash.
	GatewayURL string

	// Logon carries the target-system connection parameters.
	Logon Logon

	// Timeout bounds each gateway call.
	Timeout time.Duration
}

// saveRequest is the create-material call payload. The group layout mirrors
// the target function module: header, client data, and description.
type saveRequest struct {
	HeadData struct {
		Material     string `json:"material"`
		IndSector    string `json:"ind_sector"`
		MaterialType string `json:"matl_type"`
		BasicView    string `json:"basic_view"`
	} `json:"headdata"`
	ClientData struct {
		BaseUOM       string `json:"base_uom"`
		MaterialGroup string `json:"matl_group,omitempty"`
	} `json:"clientdata"`
	Description struct {
		Language    string `json:"langu"`
		Description string `json:"matl_desc"`
	} `json:"materialdescription"`
}

// saveResponse is the gateway reply for a create-material call.
type saveResponse struct {
	Return struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"return"`
	Number string `json:"number"`
}

// Client submits records through the RFC gateway. One call is issued per
// record; the session is the single underlying HTTP connection pool.
type Client struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger

	connected bool
}

// New constructs the RFC transport. Construction fails when the logon
// parameters are incomplete so a misconfigured variant is rejected before the
// batch starts.
func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("%w: gateway URL not configured", domain.ErrTransportUnavailable)
	}
	if !cfg.Logon.complete() {
		return nil, fmt.Errorf("%w: incomplete logon parameters", domain.ErrTransportUnavailable)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Connect verifies the gateway is reachable with the configured logon.
func (c *Client) Connect(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.GatewayURL+pingEndpoint, nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("build ping request")
		return false
	}
	c.setLogonHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to reach rfc gateway")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("rfc gateway rejected logon")
		return false
	}

	c.connected = true
	c.logger.Info().Str("gateway", c.cfg.GatewayURL).Msg("rfc gateway connected")
	return true
}

// Submit issues one create-material call for the record.
func (c *Client) Submit(ctx context.Context, rec domain.Record) (domain.Outcome, error) {
	if !c.connected {
		return domain.Outcome{}, fmt.Errorf("%w: not connected", domain.ErrSessionLost)
	}

	var payload saveRequest
	payload.HeadData.Material = rec.MaterialNumber
	payload.HeadData.IndSector = rec.IndustrySector
	payload.HeadData.MaterialType = rec.MaterialType
	payload.HeadData.BasicView = "X"
	payload.ClientData.BaseUOM = rec.BaseUnit
	payload.ClientData.MaterialGroup = rec.MaterialGroup
	payload.Description.Language = c.cfg.Logon.Language
	payload.Description.Description = rec.Description

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("marshal save request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GatewayURL+saveDataEndpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setLogonHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		// The gateway is unreachable; the session is unusable for the
		// remainder of the batch.
		return domain.Outcome{}, fmt.Errorf("%w: %v", domain.ErrSessionLost, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.Outcome{}, fmt.Errorf("%w: gateway returned %d: %s", domain.ErrSessionLost, resp.StatusCode, string(respBody))
	}

	var sr saveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return domain.Outcome{}, fmt.Errorf("%w: decode response: %v", domain.ErrSessionLost, err)
	}

	if successTypes[sr.Return.Type] {
		msg := fmt.Sprintf("Material %s created successfully", sr.Number)
		c.logger.Info().Str("material", sr.Number).Msg("material created via rfc")
		return domain.Outcome{Succeeded: true, Message: msg}, nil
	}

	msg := sr.Return.Message
	if msg == "" {
		msg = "Unknown error"
	}
	c.logger.Warn().Str("type", sr.Return.Type).Str("message", msg).Msg("rfc call rejected")
	return domain.Outcome{Succeeded: false, Message: msg}, nil
}

// Disconnect drops idle gateway connections. Safe to call repeatedly.
func (c *Client) Disconnect() {
	if c.connected {
		c.logger.Info().Msg("closing rfc gateway connections")
		c.connected = false
	}
	c.http.CloseIdleConnections()
}

// setLogonHeaders attaches the target-system connection parameters.
func (c *Client) setLogonHeaders(req *http.Request) {
	req.Header.Set("X-Sap-Ashost", c.cfg.Logon.Host)
	req.Header.Set("X-Sap-Sysnr", c.cfg.Logon.SysNr)
	req.Header.Set("X-Sap-Client", c.cfg.Logon.Client)
	req.Header.Set("X-Sap-Lang", c.cfg.Logon.Language)
	req.SetBasicAuth(c.cfg.Logon.User, c.cfg.Logon.Password)
}
