package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rebuildja/lead-intake/internal/config"
	"github.com/rebuildja/lead-intake/pkg/logging"
)

type recordingSink struct {
	calls []*Lead
	meta  []RequestMeta
	err   error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Append(ctx context.Context, lead *Lead, meta RequestMeta) error {
	s.calls = append(s.calls, lead)
	s.meta = append(s.meta, meta)
	return s.err
}

type upstreamErr struct{ status int }

func (e *upstreamErr) Error() string       { return fmt.Sprintf("upstream returned %d", e.status) }
func (e *upstreamErr) UpstreamStatus() int { return e.status }

func testConfig() *config.Config {
	return &config.Config{
		Env:          "development",
		Sink:         config.SinkSheetRange,
		DefaultStage: "New",
		DefaultNotes: "Auto-captured from rebuild intake form",
		SinkTimeout:  5 * time.Second,
	}
}

func postLead(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/rb/lead", reader)
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	h.CreateLead(w, req)
	return w
}

func TestCreateLead_Success(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandler(testConfig(), sink, nil, nil, logging.Default())

	w := postLead(t, h, map[string]any{
		"fullName":         "Jane Doe",
		"primaryPhone":     "876-555-0000",
		"preferredChannel": "whatsapp",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		LeadID  string `json:"leadId"`
		TraceID string `json:"traceId"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected success true")
	}
	if !regexp.MustCompile(`^RB\d{5}$`).MatchString(resp.LeadID) {
		t.Errorf("expected generated lead id RB#####, got %q", resp.LeadID)
	}
	if resp.TraceID == "" {
		t.Errorf("expected trace id in response")
	}

	if len(sink.calls) != 1 {
		t.Fatalf("expected one sink write, got %d", len(sink.calls))
	}
	lead := sink.calls[0]
	if lead.FullName != "Jane Doe" || lead.PrimaryPhone != "876-555-0000" {
		t.Errorf("persisted lead does not match input: %+v", lead)
	}
	if lead.Stage != "New" {
		t.Errorf("expected default stage New, got %q", lead.Stage)
	}
	if lead.EstimatedBudget != 0 || lead.ComfortableMonthly != 0 {
		t.Errorf("expected unspecified numeric fields to be 0")
	}
	if lead.TraceID != resp.TraceID {
		t.Errorf("persisted trace id %q does not match response %q", lead.TraceID, resp.TraceID)
	}
	if sink.meta[0].UserAgent != "test-agent" {
		t.Errorf("expected user agent metadata, got %q", sink.meta[0].UserAgent)
	}
}

func TestCreateLead_LeadIDPassthrough(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandler(testConfig(), sink, nil, nil, logging.Default())

	w := postLead(t, h, map[string]any{
		"leadId":           "RB99999",
		"fullName":         "Jane Doe",
		"primaryPhone":     "876-555-0000",
		"preferredChannel": "whatsapp",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"leadId":"RB99999"`) {
		t.Errorf("expected verbatim lead id in response: %s", w.Body.String())
	}
	if sink.calls[0].LeadID != "RB99999" {
		t.Errorf("expected verbatim lead id persisted, got %q", sink.calls[0].LeadID)
	}
}

func TestCreateLead_MissingRequiredFields(t *testing.T) {
	for _, missing := range []string{"fullName", "primaryPhone", "preferredChannel"} {
		t.Run(missing, func(t *testing.T) {
			sub := map[string]any{
				"fullName":         "Jane Doe",
				"primaryPhone":     "876-555-0000",
				"preferredChannel": "whatsapp",
			}
			delete(sub, missing)

			sink := &recordingSink{}
			h := NewHandler(testConfig(), sink, nil, nil, logging.Default())
			w := postLead(t, h, sub)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), missing) {
				t.Errorf("expected error to name %q: %s", missing, w.Body.String())
			}
			if len(sink.calls) != 0 {
				t.Errorf("expected no sink write on validation failure")
			}
		})
	}
}

func TestCreateLead_InvalidJSON(t *testing.T) {
	sink := &recordingSink{}
	h := NewHandler(testConfig(), sink, nil, nil, logging.Default())

	w := postLead(t, h, "{")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(sink.calls) != 0 {
		t.Errorf("expected no sink write on decode failure")
	}
}

func TestCreateLead_UpstreamFailure(t *testing.T) {
	sink := &recordingSink{err: &upstreamErr{status: 503}}
	h := NewHandler(testConfig(), sink, nil, nil, logging.Default())

	w := postLead(t, h, map[string]any{
		"fullName":         "Jane Doe",
		"primaryPhone":     "876-555-0000",
		"preferredChannel": "whatsapp",
	})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Debug   string `json:"debug"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Errorf("expected success false")
	}
	if resp.Debug == "" {
		t.Errorf("expected debug detail outside production")
	}
}

func TestCreateLead_UpstreamFailureHidesDebugInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	sink := &recordingSink{err: &upstreamErr{status: 500}}
	h := NewHandler(cfg, sink, nil, nil, logging.Default())

	w := postLead(t, h, map[string]any{
		"fullName":         "Jane Doe",
		"primaryPhone":     "876-555-0000",
		"preferredChannel": "whatsapp",
	})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "debug") {
		t.Errorf("expected no debug detail in production: %s", w.Body.String())
	}
}

func TestCreateLead_TimeoutIsRetryable(t *testing.T) {
	sink := &recordingSink{err: context.DeadlineExceeded}
	h := NewHandler(testConfig(), sink, nil, nil, logging.Default())

	w := postLead(t, h, map[string]any{
		"fullName":         "Jane Doe",
		"primaryPhone":     "876-555-0000",
		"preferredChannel": "whatsapp",
	})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for timeout, got %d", w.Code)
	}
}

func TestCreateLead_UnexpectedSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("boom")}
	h := NewHandler(testConfig(), sink, nil, nil, logging.Default())

	w := postLead(t, h, map[string]any{
		"fullName":         "Jane Doe",
		"primaryPhone":     "876-555-0000",
		"preferredChannel": "whatsapp",
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

type captureTracer struct {
	noop.Tracer
	spans []*captureSpan
}

func (t *captureTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	s := &captureSpan{}
	t.spans = append(t.spans, s)
	return ctx, s
}

type captureSpan struct {
	noop.Span
	recorded []error
	ended    bool
}

func (s *captureSpan) RecordError(err error, _ ...trace.EventOption) {
	s.recorded = append(s.recorded, err)
}

func (s *captureSpan) End(_ ...trace.SpanEndOption) { s.ended = true }

func TestCreateLead_SinkFailureRecordedOnSpan(t *testing.T) {
	orig := sinkTracer
	tracer := &captureTracer{}
	sinkTracer = tracer
	defer func() { sinkTracer = orig }()

	sinkErr := errors.New("append rejected")
	h := NewHandler(testConfig(), &recordingSink{err: sinkErr}, nil, nil, logging.Default())

	w := postLead(t, h, map[string]any{
		"fullName":         "Jane Doe",
		"primaryPhone":     "876-555-0000",
		"preferredChannel": "whatsapp",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	if len(tracer.spans) != 1 {
		t.Fatalf("expected one sink write span, got %d", len(tracer.spans))
	}
	span := tracer.spans[0]
	if !span.ended {
		t.Errorf("expected span to be ended")
	}
	if len(span.recorded) != 1 || !errors.Is(span.recorded[0], sinkErr) {
		t.Errorf("expected sink error recorded on span, got %v", span.recorded)
	}
}

type recordingNotifier struct {
	captured []*Lead
	err      error
}

func (n *recordingNotifier) LeadCaptured(ctx context.Context, lead *Lead) error {
	n.captured = append(n.captured, lead)
	return n.err
}

func TestCreateLead_NotifierBestEffort(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("mail down")}
	h := NewHandler(testConfig(), &recordingSink{}, notifier, nil, logging.Default())

	w := postLead(t, h, map[string]any{
		"fullName":         "Jane Doe",
		"primaryPhone":     "876-555-0000",
		"preferredChannel": "whatsapp",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("notifier failure must not fail the request, got %d", w.Code)
	}
	if len(notifier.captured) != 1 {
		t.Errorf("expected notifier to be called once, got %d", len(notifier.captured))
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testConfig()
	cfg.SpreadsheetID = "sheet-123"
	h := NewHandler(cfg, &recordingSink{}, nil, nil, logging.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Status string      `json:"status"`
		Config HealthFlags `json:"config"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected ok, got %q", resp.Status)
	}
	if !resp.Config.SpreadsheetConfigured {
		t.Errorf("expected spreadsheet flag set")
	}
	if resp.Config.DatabaseConfigured {
		t.Errorf("expected database flag unset")
	}
}
