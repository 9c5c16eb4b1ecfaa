package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rebuildja/lead-intake/internal/config"
	"github.com/rebuildja/lead-intake/internal/observability/metrics"
	"github.com/rebuildja/lead-intake/pkg/logging"
)

var sinkTracer trace.Tracer = otel.Tracer("rebuild.internal.leads.sink_write")

// RequestMeta carries request-scoped metadata the forwarding sink sends
// along with the lead record.
type RequestMeta struct {
	Source    string `json:"source"`
	UserAgent string `json:"userAgent"`
	ClientIP  string `json:"clientIp"`
}

// Sink persists one normalized lead per call. Implementations make a
// single outbound write with no retry.
type Sink interface {
	Name() string
	Append(ctx context.Context, lead *Lead, meta RequestMeta) error
}

// Notifier is told about each captured lead after the sink write
// succeeds. Failures are logged, never surfaced to the submitter.
type Notifier interface {
	LeadCaptured(ctx context.Context, lead *Lead) error
}

// UpstreamStatusError is implemented by sink errors that carry an
// upstream HTTP status worth echoing into the error response.
type UpstreamStatusError interface {
	error
	UpstreamStatus() int
}

// Handler handles HTTP requests for lead intake.
type Handler struct {
	sink     Sink
	profile  Profile
	defaults Defaults
	notifier Notifier
	timeout  time.Duration
	debug    bool
	health   HealthFlags
	logger   *logging.Logger
	metrics  *metrics.IntakeMetrics
}

// HealthFlags reports which sink configuration is present. It never
// exposes the values themselves.
type HealthFlags struct {
	Sink                  string `json:"sink"`
	SpreadsheetConfigured bool   `json:"spreadsheetConfigured"`
	ScriptURLConfigured   bool   `json:"scriptUrlConfigured"`
	DatabaseConfigured    bool   `json:"databaseConfigured"`
}

// NewHandler creates a new intake handler.
func NewHandler(cfg *config.Config, sink Sink, notifier Notifier, m *metrics.IntakeMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sink:     sink,
		profile:  ProfileByName(cfg.ProfileName()),
		defaults: Defaults{Stage: cfg.DefaultStage, Notes: cfg.DefaultNotes},
		notifier: notifier,
		timeout:  cfg.SinkTimeout,
		debug:    cfg.Env != "production",
		health: HealthFlags{
			Sink:                  cfg.Sink,
			SpreadsheetConfigured: cfg.SpreadsheetID != "",
			ScriptURLConfigured:   cfg.AppsScriptURL != "",
			DatabaseConfigured:    cfg.DatabaseURL != "",
		},
		logger:  logger,
		metrics: m,
	}
}

type successResponse struct {
	Success bool   `json:"success"`
	LeadID  string `json:"leadId"`
	TraceID string `json:"traceId"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	TraceID string `json:"traceId,omitempty"`
	Debug   string `json:"debug,omitempty"`
}

// CreateLead handles POST /api/rb/lead requests.
func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		h.logger.Error("failed to decode submission", "error", err, "trace_id", traceID)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", TraceID: traceID})
		return
	}

	if err := h.profile.Validate(sub); err != nil {
		h.metrics.ObserveSubmission(h.sink.Name(), "rejected")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), TraceID: traceID})
		return
	}

	lead := Normalize(sub, h.defaults)
	lead.TraceID = traceID

	meta := RequestMeta{
		Source:    r.Header.Get("Origin"),
		UserAgent: r.UserAgent(),
		ClientIP:  clientIP(r),
	}
	if meta.Source == "" {
		meta.Source = "web"
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ctx, span := sinkTracer.Start(ctx, "leads.sink.append")
	span.SetAttributes(
		attribute.String("rebuild.sink", h.sink.Name()),
		attribute.String("rebuild.lead_id", lead.LeadID),
	)
	start := time.Now()
	err := h.sink.Append(ctx, lead, meta)
	if err != nil {
		span.RecordError(err)
	}
	span.End()
	h.metrics.ObserveSinkWrite(h.sink.Name(), time.Since(start).Seconds())

	if err != nil {
		h.metrics.ObserveSubmission(h.sink.Name(), "failed")
		h.respondSinkError(w, err, traceID)
		return
	}

	h.metrics.ObserveSubmission(h.sink.Name(), "accepted")
	h.logger.Info("lead captured",
		"lead_id", lead.LeadID,
		"sink", h.sink.Name(),
		"parish", lead.Parish,
		"trace_id", traceID,
	)

	if h.notifier != nil {
		if err := h.notifier.LeadCaptured(r.Context(), lead); err != nil {
			h.logger.Error("lead notification failed", "error", err, "lead_id", lead.LeadID)
		}
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, LeadID: lead.LeadID, TraceID: traceID})
}

// respondSinkError maps sink failures onto the error taxonomy: upstream
// rejections and timeouts become 502, everything else 500.
func (h *Handler) respondSinkError(w http.ResponseWriter, err error, traceID string) {
	h.logger.Error("sink write failed", "error", err, "sink", h.sink.Name(), "trace_id", traceID)

	status := http.StatusInternalServerError
	message := "failed to save lead"
	var upstream UpstreamStatusError
	switch {
	case errors.As(err, &upstream), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusBadGateway
		message = "lead store temporarily unavailable, please retry"
	}

	resp := errorResponse{Error: message, TraceID: traceID}
	if h.debug {
		resp.Debug = err.Error()
	}
	writeJSON(w, status, resp)
}

// HealthCheck reports configuration presence flags; it never fails.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"config": h.health,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func clientIP(r *http.Request) string {
	// chi's RealIP middleware rewrites RemoteAddr from forwarding headers.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
