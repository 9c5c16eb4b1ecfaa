package leads

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Defaults carries the configured fallback values applied while
// normalizing a submission.
type Defaults struct {
	Stage string
	Notes string
}

// Field aliases, first non-blank key wins. Older versions of the intake
// form shipped different names for the same question, and both are still
// live in the wild.
var (
	comfortableMonthlyKeys    = []string{"comfortableMonthly", "monthlyPayment"}
	desiredTimelineMonthsKeys = []string{"desiredTimelineMonths", "startTimelineMonths"}
	hasOverseasSponsorKeys    = []string{"hasOverseasSponsor", "overseasSponsor"}
)

// Normalize maps a raw submission onto the canonical Lead record.
// It assigns the lead id (client-supplied value passes through verbatim),
// stamps the creation time, and applies configured defaults for stage and
// notes. It never fails: unparseable numbers coerce to 0 and absent
// strings to "".
func Normalize(sub Submission, defaults Defaults) *Lead {
	lead := &Lead{
		Timestamp:             time.Now().UTC().Format(time.RFC3339),
		LeadID:                pick(sub, "leadId"),
		FullName:              pick(sub, "fullName"),
		PrimaryPhone:          pick(sub, "primaryPhone"),
		Email:                 pick(sub, "email"),
		PreferredChannel:      pick(sub, "preferredChannel"),
		Parish:                pick(sub, "parish"),
		Community:             pick(sub, "community"),
		PropertyStatus:        pick(sub, "propertyStatus"),
		RebuildType:           pick(sub, "rebuildType"),
		HurricaneImpactLevel:  pick(sub, "hurricaneImpactLevel"),
		ProjectPriority:       pick(sub, "projectPriority"),
		EstimatedBudget:       toNumber(sub["estimatedBudget"]),
		ComfortableMonthly:    toNumber(firstPresent(sub, comfortableMonthlyKeys)),
		DesiredTimelineMonths: toNumber(firstPresent(sub, desiredTimelineMonthsKeys)),
		NHTContributor:        pick(sub, "nhtContributor"),
		NHTProduct:            pick(sub, "nhtProduct"),
		OtherFinancing:        pick(sub, "otherFinancing"),
		EmploymentType:        pick(sub, "employmentType"),
		IncomeRange:           pick(sub, "incomeRange"),
		HasOverseasSponsor:    pick(sub, hasOverseasSponsorKeys...),
		SponsorCountry:        pick(sub, "sponsorCountry"),
		WillingVisit:          pick(sub, "willingVisit"),
		VisitWindow:           pick(sub, "visitWindow"),
		HearAboutUs:           pick(sub, "hearAboutUs"),
		LeadScore:             toNumber(sub["leadScore"]),
		Stage:                 pick(sub, "stage"),
		Notes:                 pick(sub, "notes"),
	}

	if lead.LeadID == "" {
		lead.LeadID = NewLeadID()
	}
	if lead.Stage == "" {
		lead.Stage = defaults.Stage
	}
	if lead.Notes == "" {
		lead.Notes = defaults.Notes
	}
	return lead
}

// NewLeadID generates an advisory lead identifier of the form RB#####.
// The id is not checked for collisions against the backing store; it
// exists to give operators something short to quote back to a caller.
func NewLeadID() string {
	return fmt.Sprintf("RB%05d", 10000+rand.Intn(90000))
}

// pick returns the first non-blank value among the given keys, trimmed
// and stringified. Numbers and booleans submitted by the form are
// rendered the way the form displayed them.
func pick(sub Submission, keys ...string) string {
	for _, key := range keys {
		if s := stringify(sub[key]); s != "" {
			return s
		}
	}
	return ""
}

// firstPresent returns the raw value of the first key whose stringified
// form is non-blank, preserving the original type for numeric coercion.
func firstPresent(sub Submission, keys []string) any {
	for _, key := range keys {
		if stringify(sub[key]) != "" {
			return sub[key]
		}
	}
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// toNumber coerces a submitted value to a float64. Anything that does
// not parse to a finite number becomes 0 so a sloppy form value can
// never fail a submission.
func toNumber(v any) float64 {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return t
	case int:
		return float64(t)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	default:
		return 0
	}
}
