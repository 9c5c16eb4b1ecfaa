package leads

// Submission is the raw, untrusted form body as decoded from JSON.
// Values may be strings, numbers, or booleans depending on how the
// front-end serialized each field.
type Submission map[string]any

// Lead is the canonical normalized record produced from a Submission.
// Every field is always populated: absent strings become "", absent
// numbers become 0.
type Lead struct {
	Timestamp             string  `json:"timestamp"`
	LeadID                string  `json:"leadId"`
	FullName              string  `json:"fullName"`
	PrimaryPhone          string  `json:"primaryPhone"`
	Email                 string  `json:"email"`
	PreferredChannel      string  `json:"preferredChannel"`
	Parish                string  `json:"parish"`
	Community             string  `json:"community"`
	PropertyStatus        string  `json:"propertyStatus"`
	RebuildType           string  `json:"rebuildType"`
	HurricaneImpactLevel  string  `json:"hurricaneImpactLevel"`
	ProjectPriority       string  `json:"projectPriority"`
	EstimatedBudget       float64 `json:"estimatedBudget"`
	ComfortableMonthly    float64 `json:"comfortableMonthly"`
	DesiredTimelineMonths float64 `json:"desiredTimelineMonths"`
	NHTContributor        string  `json:"nhtContributor"`
	NHTProduct            string  `json:"nhtProduct"`
	OtherFinancing        string  `json:"otherFinancing"`
	EmploymentType        string  `json:"employmentType"`
	IncomeRange           string  `json:"incomeRange"`
	HasOverseasSponsor    string  `json:"hasOverseasSponsor"`
	SponsorCountry        string  `json:"sponsorCountry"`
	WillingVisit          string  `json:"willingVisit"`
	VisitWindow           string  `json:"visitWindow"`
	HearAboutUs           string  `json:"hearAboutUs"`
	LeadScore             float64 `json:"leadScore"`
	Stage                 string  `json:"stage"`
	Notes                 string  `json:"notes"`
	TraceID               string  `json:"traceId"`
}

// ColumnHeaders lists the persisted column names in row order. The order
// is load-bearing: the sheet sinks append positionally against existing
// spreadsheets, so it must not change.
var ColumnHeaders = []string{
	"timestamp",
	"leadId",
	"fullName",
	"primaryPhone",
	"email",
	"preferredChannel",
	"parish",
	"community",
	"propertyStatus",
	"rebuildType",
	"hurricaneImpactLevel",
	"projectPriority",
	"estimatedBudget",
	"comfortableMonthly",
	"desiredTimelineMonths",
	"nhtContributor",
	"nhtProduct",
	"otherFinancing",
	"employmentType",
	"incomeRange",
	"hasOverseasSponsor",
	"sponsorCountry",
	"willingVisit",
	"visitWindow",
	"hearAboutUs",
	"leadScore",
	"stage",
	"notes",
	"traceId",
}

// Row returns the lead as a positional slice matching ColumnHeaders.
func (l *Lead) Row() []any {
	return []any{
		l.Timestamp,
		l.LeadID,
		l.FullName,
		l.PrimaryPhone,
		l.Email,
		l.PreferredChannel,
		l.Parish,
		l.Community,
		l.PropertyStatus,
		l.RebuildType,
		l.HurricaneImpactLevel,
		l.ProjectPriority,
		l.EstimatedBudget,
		l.ComfortableMonthly,
		l.DesiredTimelineMonths,
		l.NHTContributor,
		l.NHTProduct,
		l.OtherFinancing,
		l.EmploymentType,
		l.IncomeRange,
		l.HasOverseasSponsor,
		l.SponsorCountry,
		l.WillingVisit,
		l.VisitWindow,
		l.HearAboutUs,
		l.LeadScore,
		l.Stage,
		l.Notes,
		l.TraceID,
	}
}
