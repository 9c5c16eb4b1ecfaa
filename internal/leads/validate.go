package leads

// Profile names a set of required submission fields. The sheet and
// forwarding deployments only insist on contact details; the database
// deployment also requires the project-scoping answers, so the two are
// kept as distinct profiles rather than one reconciled rule.
type Profile struct {
	Name     string
	Required []string
}

var (
	// BasicProfile covers the sheet-append and forwarding deployments.
	BasicProfile = Profile{
		Name:     "basic",
		Required: []string{"fullName", "primaryPhone", "preferredChannel"},
	}

	// ExtendedProfile covers the database deployment, which also needs
	// the project-scoping fields before a lead is worth storing.
	ExtendedProfile = Profile{
		Name: "extended",
		Required: []string{
			"fullName", "primaryPhone", "preferredChannel",
			"parish", "rebuildType", "estimatedBudget", "monthlyPayment",
		},
	}
)

// ProfileByName resolves a configured profile name, defaulting to basic.
func ProfileByName(name string) Profile {
	if name == ExtendedProfile.Name {
		return ExtendedProfile
	}
	return BasicProfile
}

// Validate checks that every required field is present and non-blank
// after trimming. It inspects the raw submission only; nothing is
// mutated or persisted. Alias keys satisfy the requirement for the
// fields that have them.
func (p Profile) Validate(sub Submission) error {
	var missing []string
	for _, field := range p.Required {
		keys := []string{field}
		switch field {
		case "monthlyPayment":
			keys = comfortableMonthlyKeys
		case "hasOverseasSponsor":
			keys = hasOverseasSponsorKeys
		}
		if pick(sub, keys...) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}
