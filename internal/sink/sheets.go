package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/rebuildja/lead-intake/internal/config"
	"github.com/rebuildja/lead-intake/internal/leads"
	"github.com/rebuildja/lead-intake/pkg/logging"
)

// SheetRangeSink appends each lead as one positional row to a
// preconfigured named range or A1 range.
type SheetRangeSink struct {
	svc           *sheets.Service
	spreadsheetID string
	writeRange    string
	logger        *logging.Logger
}

// NewSheetRangeSink builds a Sheets client from the configured
// credentials (or ambient default credentials when none are set).
func NewSheetRangeSink(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts ...option.ClientOption) (*SheetRangeSink, error) {
	svc, err := newSheetsService(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &SheetRangeSink{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		writeRange:    cfg.SheetRange,
		logger:        logger,
	}, nil
}

func (s *SheetRangeSink) Name() string { return config.SinkSheetRange }

// Append writes one row. A misconfigured or unreachable range fails the
// whole request; there is no retry.
func (s *SheetRangeSink) Append(ctx context.Context, lead *leads.Lead, _ leads.RequestMeta) error {
	if err := appendRow(ctx, s.svc, s.Name(), s.spreadsheetID, s.writeRange, lead); err != nil {
		return err
	}
	s.logger.Debug("appended lead row", "lead_id", lead.LeadID, "range", s.writeRange)
	return nil
}

// SheetAutoProvisionSink appends to a named tab, creating the tab and
// its header row on first use. Provisioning is an idempotent
// precondition: it is retried on the next append after a failure and
// only skipped once it has succeeded.
type SheetAutoProvisionSink struct {
	svc           *sheets.Service
	spreadsheetID string
	tab           string
	logger        *logging.Logger

	mu          sync.Mutex
	provisioned bool
}

func NewSheetAutoProvisionSink(ctx context.Context, cfg *config.Config, logger *logging.Logger, opts ...option.ClientOption) (*SheetAutoProvisionSink, error) {
	svc, err := newSheetsService(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &SheetAutoProvisionSink{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		tab:           cfg.SheetTab,
		logger:        logger,
	}, nil
}

func (s *SheetAutoProvisionSink) Name() string { return config.SinkSheetAuto }

func (s *SheetAutoProvisionSink) Append(ctx context.Context, lead *leads.Lead, _ leads.RequestMeta) error {
	if err := s.ensureProvisioned(ctx); err != nil {
		return err
	}
	if err := appendRow(ctx, s.svc, s.Name(), s.spreadsheetID, s.tab+"!A1", lead); err != nil {
		return err
	}
	s.logger.Debug("appended lead row", "lead_id", lead.LeadID, "tab", s.tab)
	return nil
}

func (s *SheetAutoProvisionSink) ensureProvisioned(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provisioned {
		return nil
	}
	if err := s.provision(ctx); err != nil {
		return err
	}
	s.provisioned = true
	return nil
}

// provision ensures the tab exists and its header row is populated.
func (s *SheetAutoProvisionSink) provision(ctx context.Context) error {
	meta, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return wrapSheetsErr(s.Name(), err)
	}

	exists := false
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.tab {
			exists = true
			break
		}
	}
	if !exists {
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: s.tab},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return wrapSheetsErr(s.Name(), err)
		}
		s.logger.Info("created sheet tab", "tab", s.tab)
	}

	header, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.tab+"!1:1").Context(ctx).Do()
	if err != nil {
		return wrapSheetsErr(s.Name(), err)
	}
	if len(header.Values) > 0 && len(header.Values[0]) > 0 {
		return nil
	}

	row := make([]any, len(leads.ColumnHeaders))
	for i, h := range leads.ColumnHeaders {
		row[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]any{row}}
	if _, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.tab+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return wrapSheetsErr(s.Name(), err)
	}
	s.logger.Info("wrote sheet header row", "tab", s.tab)
	return nil
}

func newSheetsService(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*sheets.Service, error) {
	if len(opts) == 0 && cfg.GoogleCredentials != "" {
		opts = []option.ClientOption{option.WithCredentialsFile(cfg.GoogleCredentials)}
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sink: sheets client: %w", err)
	}
	return svc, nil
}

func appendRow(ctx context.Context, svc *sheets.Service, name, spreadsheetID, writeRange string, lead *leads.Lead) error {
	vr := &sheets.ValueRange{Values: [][]any{lead.Row()}}
	_, err := svc.Spreadsheets.Values.Append(spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return wrapSheetsErr(name, err)
	}
	return nil
}

func wrapSheetsErr(name string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &UpstreamError{Sink: name, Status: gerr.Code, Body: truncate([]byte(gerr.Message)), Err: err}
	}
	return &UpstreamError{Sink: name, Err: err}
}
