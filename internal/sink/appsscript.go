package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rebuildja/lead-intake/internal/config"
	"github.com/rebuildja/lead-intake/internal/leads"
	"github.com/rebuildja/lead-intake/pkg/logging"
)

// AppsScriptSink forwards each lead as JSON to an external Apps Script
// web app, which owns the actual spreadsheet write.
type AppsScriptSink struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

func NewAppsScriptSink(cfg *config.Config, logger *logging.Logger) (*AppsScriptSink, error) {
	return &AppsScriptSink{
		url:        cfg.AppsScriptURL,
		httpClient: &http.Client{Timeout: cfg.SinkTimeout},
		logger:     logger,
	}, nil
}

func (s *AppsScriptSink) Name() string { return config.SinkAppsScript }

// forwardPayload is the lead plus the request metadata the script logs.
type forwardPayload struct {
	*leads.Lead
	Source    string `json:"source"`
	UserAgent string `json:"userAgent"`
	ClientIP  string `json:"clientIp"`
}

// Append POSTs the lead to the web app. Any non-2xx response fails the
// request and surfaces the upstream status with a truncated body.
func (s *AppsScriptSink) Append(ctx context.Context, lead *leads.Lead, meta leads.RequestMeta) error {
	payload := forwardPayload{
		Lead:      lead,
		Source:    meta.Source,
		UserAgent: meta.UserAgent,
		ClientIP:  meta.ClientIP,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("sink: marshal forward payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sink: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &UpstreamError{Sink: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Sink: s.Name(), Status: resp.StatusCode, Body: truncate(respBody)}
	}

	s.logger.Debug("forwarded lead to apps script", "lead_id", lead.LeadID, "status", resp.StatusCode)
	return nil
}
