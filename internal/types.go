package internal

// Verdict is the sample-level conformity outcome.
type Verdict string

const (
	VerdictConforme    Verdict = "Conforme"
	VerdictNonConforme Verdict = "Non-conforme"
)

// AnalyteStatus is the per-analyte evaluation outcome. StatusNoRule is
// neutral: the analyte is unconstrained for this product, which is not a
// failure.
type AnalyteStatus string

const (
	StatusValid   AnalyteStatus = "valid"
	StatusInvalid AnalyteStatus = "invalid"
	StatusNoRule  AnalyteStatus = "no-rule"
)

type AssignmentState string

const (
	AssignmentPending   AssignmentState = "pending"
	AssignmentCompleted AssignmentState = "completed"
)

// Sample is one persisted lab sample. Measurements maps the analyte label to
// the raw value exactly as captured (lab entries use decimal commas); the
// engine parses on evaluation and never rewrites them.
type Sample struct {
	ID            int
	SampleNumber  string
	FormID        int
	Site          string
	ProductFamily string
	ProductType   string
	AjDlc         string
	Measurements  map[string]string
	Verdict       *Verdict
}

// ThresholdRule is a configured acceptance rule. Site "*" matches any site.
type ThresholdRule struct {
	ID            int
	Site          string
	ProductFamily string
	Analyte       string
	Operator      string
	LowerBound    *float64
	UpperBound    *float64
	Active        bool
}

// EnvironmentalZoneRule is the disjoint rule space for air-monitoring
// locations, keyed by location name instead of product family.
type EnvironmentalZoneRule struct {
	ID           int
	Site         string
	LocationName string
	Zone         string
	SampleVolume int
	Operator     string
	Bound        float64
	Active       bool
}

// UfcConversionRow maps a raw colony count to UFC/g per reference sample
// volume. A nil column means the table has no value for that volume.
type UfcConversionRow struct {
	RawCount float64
	Ufc100   *float64
	Ufc250   *float64
	Ufc500   *float64
}

// AnalyteAssignment says that samples originating from FormID track Analyte.
type AnalyteAssignment struct {
	ID      int
	FormID  int
	Analyte string
	Status  AssignmentState
}

// NonConformityRow is one exported line of the non-conformity report: one
// failing analyte of one non-conforming sample.
type NonConformityRow struct {
	SampleNumber  string
	Site          string
	ProductFamily string
	ProductType   string
	Analyte       string
	Measurement   float64
	RuleSource    string
	Operator      string
	LowerBound    *float64
	UpperBound    *float64
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }
