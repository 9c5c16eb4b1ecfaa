// Package sink contains the persistence destinations a normalized lead
// can be written to. Exactly one sink is selected at startup; each
// accepted submission results in a single outbound write with no retry.
package sink

import (
	"context"
	"fmt"

	"github.com/rebuildja/lead-intake/internal/config"
	"github.com/rebuildja/lead-intake/internal/leads"
	"github.com/rebuildja/lead-intake/pkg/logging"
)

// UpstreamError wraps a failed sink write, keeping the upstream status
// and a truncated body for diagnosis.
type UpstreamError struct {
	Sink   string
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s sink: upstream returned %d: %s", e.Sink, e.Status, e.Body)
	}
	return fmt.Sprintf("%s sink: %v", e.Sink, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UpstreamStatus exposes the upstream HTTP status for response mapping.
func (e *UpstreamError) UpstreamStatus() int { return e.Status }

// maxErrBody bounds how much upstream response body is kept on errors.
const maxErrBody = 512

func truncate(b []byte) string {
	if len(b) > maxErrBody {
		b = b[:maxErrBody]
	}
	return string(b)
}

// New builds the sink selected by configuration.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (leads.Sink, error) {
	switch cfg.Sink {
	case config.SinkSheetRange:
		return NewSheetRangeSink(ctx, cfg, logger)
	case config.SinkSheetAuto:
		return NewSheetAutoProvisionSink(ctx, cfg, logger)
	case config.SinkAppsScript:
		return NewAppsScriptSink(cfg, logger)
	case config.SinkPostgres:
		return NewPostgresSink(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("sink: unknown SINK value %q", cfg.Sink)
	}
}
