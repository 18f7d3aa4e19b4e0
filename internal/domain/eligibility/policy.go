package eligibility

// Policy is the caller-supplied rule set the battery evaluates against.
// The engine treats it as read-only configuration.
type Policy struct {
	MinAge int `json:"min_age" koanf:"min_age"`
	MaxAge int `json:"max_age" koanf:"max_age"`

	// Empty allow-list means no restriction; the block-list always applies.
	AllowedNationalities []string `json:"allowed_nationalities" koanf:"allowed_nationalities"`
	BlockedNationalities []string `json:"blocked_nationalities" koanf:"blocked_nationalities"`

	// Empty means any document type is acceptable.
	RequiredDocumentTypes []string `json:"required_document_types" koanf:"required_document_types"`

	MinValidityMonths int `json:"min_validity_months" koanf:"min_validity_months"`

	// Per-visa-type overrides keyed by the applicant's intended visa type.
	VisaTypeRequirements map[string]VisaRequirement `json:"visa_type_requirements" koanf:"visa_type_requirements"`
}

// VisaRequirement overrides parts of the base policy for one visa type.
type VisaRequirement struct {
	MinAge                 *int     `json:"min_age,omitempty" koanf:"min_age"`
	AllowedNationalities   []string `json:"allowed_nationalities,omitempty" koanf:"allowed_nationalities"`
	AdditionalRequirements []string `json:"additional_requirements,omitempty" koanf:"additional_requirements"`
}

// DefaultPolicy mirrors the built-in rule set the orchestrator falls back
// to when a request carries no policy override.
func DefaultPolicy() Policy {
	return Policy{
		MinAge:               18,
		MaxAge:               100,
		BlockedNationalities: []string{"PRK"},
		MinValidityMonths:    6,
		VisaTypeRequirements: map[string]VisaRequirement{},
	}
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
