package sink

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rebuildja/lead-intake/internal/config"
	"github.com/rebuildja/lead-intake/internal/leads"
	"github.com/rebuildja/lead-intake/pkg/logging"
)

// PgxPool is the subset of pgxpool.Pool the sink needs; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink inserts one row per lead into the rebuild_leads table.
// The primary key is a server-generated surrogate uuid; lead_id is a
// distinct, non-unique business key.
type PostgresSink struct {
	pool   PgxPool
	logger *logging.Logger
}

// NewPostgresSink connects a pgx pool against the configured database.
func NewPostgresSink(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("sink: connect postgres: %w", err)
	}
	return NewPostgresSinkWithPool(pool, logger), nil
}

// NewPostgresSinkWithPool wires an existing pool, used by tests.
func NewPostgresSinkWithPool(pool PgxPool, logger *logging.Logger) *PostgresSink {
	return &PostgresSink{pool: pool, logger: logger}
}

func (s *PostgresSink) Name() string { return config.SinkPostgres }

const insertLeadSQL = `
	INSERT INTO rebuild_leads (
		id, lead_id, submitted_at, full_name, primary_phone, email,
		preferred_channel, parish, community, property_status, rebuild_type,
		hurricane_impact_level, project_priority, estimated_budget,
		comfortable_monthly, desired_timeline_months, nht_contributor,
		nht_product, other_financing, employment_type, income_range,
		has_overseas_sponsor, sponsor_country, willing_visit, visit_window,
		hear_about_us, lead_score, stage, notes, trace_id
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28, $29, $30
	)`

// Append inserts the lead. One attempt; any database error fails the
// request.
func (s *PostgresSink) Append(ctx context.Context, lead *leads.Lead, _ leads.RequestMeta) error {
	_, err := s.pool.Exec(ctx, insertLeadSQL,
		uuid.New(),
		lead.LeadID,
		lead.Timestamp,
		lead.FullName,
		lead.PrimaryPhone,
		lead.Email,
		lead.PreferredChannel,
		lead.Parish,
		lead.Community,
		lead.PropertyStatus,
		lead.RebuildType,
		lead.HurricaneImpactLevel,
		lead.ProjectPriority,
		lead.EstimatedBudget,
		lead.ComfortableMonthly,
		lead.DesiredTimelineMonths,
		lead.NHTContributor,
		lead.NHTProduct,
		lead.OtherFinancing,
		lead.EmploymentType,
		lead.IncomeRange,
		lead.HasOverseasSponsor,
		lead.SponsorCountry,
		lead.WillingVisit,
		lead.VisitWindow,
		lead.HearAboutUs,
		lead.LeadScore,
		lead.Stage,
		lead.Notes,
		lead.TraceID,
	)
	if err != nil {
		return &UpstreamError{Sink: s.Name(), Err: fmt.Errorf("insert failed: %w", err)}
	}
	return nil
}
