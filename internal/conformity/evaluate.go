package conformity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"labqc/internal"
	"labqc/internal/rules"
)

// AnalyteResult is the evaluation of one assigned analyte for one sample.
// Value is nil when the measurement was missing or unparsable. Organoleptic
// results are flagged for display but never feed into the verdict.
type AnalyteResult struct {
	Analyte      string
	Raw          string
	Value        *float64
	Status       internal.AnalyteStatus
	Source       string
	Operator     string
	Lower        *float64
	Upper        *float64
	Organoleptic bool
	Converted    bool
}

// Evaluation is the full outcome for one sample. Verdict is always freshly
// recomputed from current measurements; Previous carries the persisted
// verdict so callers can detect drift.
type Evaluation struct {
	Verdict  internal.Verdict
	Previous *internal.Verdict
	Analytes []AnalyteResult
	Warnings []string
}

// organoleptic and physico-chemical parameters are scored for display but
// deliberately excluded from the sample verdict (historical lab practice,
// kept as-is).
var organolepticLabels = []string{"pH", "Acidité", "Odeur", "Texture", "Goût", "Aspect", "Couleur", "Saveur"}

func isOrganoleptic(label string) bool {
	n := rules.NormalizeKey(label)
	for _, l := range organolepticLabels {
		if rules.NormalizeKey(l) == n {
			return true
		}
	}
	return false
}

// Evaluate computes the per-analyte statuses and the verdict for one sample
// against an immutable snapshot. A sample with no assigned analytes is
// Conforme by default. Missing measurements are skipped; non-empty but
// unparsable ones are skipped with a warning. The verdict flips to
// Non-conforme as soon as any non-organoleptic analyte resolves invalid.
func Evaluate(snap *rules.Snapshot, sample internal.Sample, assignments []internal.AnalyteAssignment) Evaluation {
	eval := Evaluation{
		Verdict:  internal.VerdictConforme,
		Previous: sample.Verdict,
	}

	for _, assignment := range assignments {
		raw, ok := measurementFor(sample, assignment.Analyte)
		if !ok {
			continue
		}

		value, err := parseMeasurement(raw)
		if err != nil {
			eval.Warnings = append(eval.Warnings,
				fmt.Sprintf("malformed measurement sample=%s analyte=%s raw=%q", sample.SampleNumber, assignment.Analyte, raw))
			continue
		}

		result := AnalyteResult{
			Analyte:      assignment.Analyte,
			Raw:          raw,
			Value:        &value,
			Organoleptic: isOrganoleptic(assignment.Analyte),
		}

		resolved, found := snap.Resolve(sample.Site, sample.ProductFamily, sample.ProductType, assignment.Analyte, rules.ContextFlags{AjDlc: sample.AjDlc})
		if !found {
			result.Status = internal.StatusNoRule
			eval.Analytes = append(eval.Analytes, result)
			continue
		}

		compared := value
		if resolved.Source == rules.SourceZone && rules.IsYeastMold(assignment.Analyte) {
			converted, degraded := rules.ConvertUFC(snap.Conversions, value, resolved.SampleVolume)
			if degraded {
				eval.Warnings = append(eval.Warnings,
					fmt.Sprintf("missing UFC conversion sample=%s analyte=%s rawCount=%v volume=%d", sample.SampleNumber, assignment.Analyte, value, resolved.SampleVolume))
			}
			compared = converted
			result.Value = &converted
			result.Converted = !degraded
		}

		result.Status = rules.Compare(resolved.Operator, resolved.Lower, resolved.Upper, compared)
		result.Source = resolved.Source
		result.Operator = resolved.Operator
		result.Lower = resolved.Lower
		result.Upper = resolved.Upper
		eval.Analytes = append(eval.Analytes, result)

		if result.Status == internal.StatusInvalid && !result.Organoleptic {
			eval.Verdict = internal.VerdictNonConforme
		}
	}

	return eval
}

// NonConformities flattens the invalid non-organoleptic analytes of a
// Non-conforme evaluation into report rows.
func (e Evaluation) NonConformities(sample internal.Sample) []internal.NonConformityRow {
	if e.Verdict != internal.VerdictNonConforme {
		return nil
	}
	var out []internal.NonConformityRow
	for _, result := range e.Analytes {
		if result.Status != internal.StatusInvalid || result.Organoleptic {
			continue
		}
		row := internal.NonConformityRow{
			SampleNumber:  sample.SampleNumber,
			Site:          sample.Site,
			ProductFamily: sample.ProductFamily,
			ProductType:   sample.ProductType,
			Analyte:       result.Analyte,
			RuleSource:    result.Source,
			Operator:      result.Operator,
			LowerBound:    result.Lower,
			UpperBound:    result.Upper,
		}
		if result.Value != nil {
			row.Measurement = *result.Value
		}
		out = append(out, row)
	}
	return out
}

func measurementFor(sample internal.Sample, analyte string) (string, bool) {
	if sample.Measurements == nil {
		return "", false
	}
	raw, ok := sample.Measurements[analyte]
	if !ok {
		// Measurement columns are sometimes captured under a synonym of
		// the assigned label. Candidate synonyms are tried in priority
		// order; within one candidate the lowest matching key wins, so the
		// pick does not depend on map iteration order.
		for _, candidate := range rules.CandidateKeys(analyte) {
			want := rules.NormalizeKey(candidate)
			var matched []string
			for key := range sample.Measurements {
				if rules.NormalizeKey(key) == want {
					matched = append(matched, key)
				}
			}
			if len(matched) > 0 {
				sort.Strings(matched)
				raw, ok = sample.Measurements[matched[0]], true
				break
			}
		}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}

// parseMeasurement reads a lab-entered numeric value. Entries use decimal
// commas or points and occasionally thousand spaces.
func parseMeasurement(raw string) (float64, error) {
	s := strings.ReplaceAll(raw, " ", " ")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}
