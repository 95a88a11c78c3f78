package rules

import "labqc/internal"

const (
	SourceOverride = "override"
	SourceZone     = "zone"
	SourceDynamic  = "dynamic"
	SourceFallback = "fallback"
)

// The pasteurized-cheese DLC override: yeast/mold counts on pasteurized
// cheese sold under a DLC date are accepted up to 50000, whatever the
// configured or fallback rule says.
const dlcYeastMoldBound = 50001

// ContextFlags carries the sample context the resolver consults. AjDlc is
// the "AJ"/"DLC" marker captured with the sample.
type ContextFlags struct {
	AjDlc string
}

// Resolved is one applicable bound/operator pair plus where it came from.
// SampleVolume and Zone are set for zone-sourced resolutions only.
type Resolved struct {
	Operator     string
	Lower        *float64
	Upper        *float64
	Source       string
	Zone         string
	SampleVolume int
}

// Snapshot is an immutable point-in-time bundle of every rule collection
// plus the conversion table, built once per evaluation or batch pass.
// Nothing in it is mutated during resolution.
type Snapshot struct {
	Rules       []internal.ThresholdRule
	ZoneRules   []internal.EnvironmentalZoneRule
	Conversions []internal.UfcConversionRow

	rulesByFamily map[string]map[string][]internal.ThresholdRule
	zonesBySite   map[string]map[string]internal.EnvironmentalZoneRule
}

func NewSnapshot(rules []internal.ThresholdRule, zones []internal.EnvironmentalZoneRule, conversions []internal.UfcConversionRow) *Snapshot {
	s := &Snapshot{
		Rules:         rules,
		ZoneRules:     zones,
		Conversions:   conversions,
		rulesByFamily: map[string]map[string][]internal.ThresholdRule{},
		zonesBySite:   map[string]map[string]internal.EnvironmentalZoneRule{},
	}

	for _, r := range rules {
		if !r.Active {
			continue
		}
		famKey := NormalizeKey(r.ProductFamily)
		byAnalyte := s.rulesByFamily[famKey]
		if byAnalyte == nil {
			byAnalyte = map[string][]internal.ThresholdRule{}
			s.rulesByFamily[famKey] = byAnalyte
		}
		key := NormalizeKey(r.Analyte)
		byAnalyte[key] = append(byAnalyte[key], r)
	}

	for _, z := range zones {
		if !z.Active {
			continue
		}
		byLocation := s.zonesBySite[z.Site]
		if byLocation == nil {
			byLocation = map[string]internal.EnvironmentalZoneRule{}
			s.zonesBySite[z.Site] = byLocation
		}
		key := NormalizeKey(z.LocationName)
		if _, exists := byLocation[key]; !exists {
			byLocation[key] = z
		}
	}

	return s
}

// Resolve returns the one applicable rule for (site, family, productType,
// analyte label, context), or ok=false when the analyte is unconstrained.
// Resolution is total and deterministic; it never errors.
//
// Priority: the pasteurized/DLC contextual override short-circuits
// everything; Air Statique samples live in the zone rule space exclusively
// (an unmapped location is no-rule, never invalid, and the generic threshold
// table is never consulted for them); then dynamic configured rules with the
// normalizer's candidate keys in order, site-specific before wildcard; then
// the static fallback table; then no rule.
func (s *Snapshot) Resolve(site, family, productType, label string, flags ContextFlags) (Resolved, bool) {
	if IsPasteurizedFamily(family) && IsYeastMold(label) && flags.AjDlc == "DLC" {
		return Resolved{
			Operator: OpLess,
			Upper:    internal.FloatPtr(dlcYeastMoldBound),
			Source:   SourceOverride,
		}, true
	}

	if IsEnvironmental(family) {
		return s.resolveZone(site, productType)
	}

	candidates := CandidateKeys(label)

	if byAnalyte, ok := s.rulesByFamily[NormalizeKey(family)]; ok {
		for _, candidate := range candidates {
			matched := byAnalyte[NormalizeKey(candidate)]
			if rule, ok := pickBySite(matched, site); ok {
				return Resolved{
					Operator: rule.Operator,
					Lower:    rule.LowerBound,
					Upper:    rule.UpperBound,
					Source:   SourceDynamic,
				}, true
			}
		}
	}

	if bound, ok := fallbackBound(family, candidates); ok {
		operator := OpLess
		if bound == 0 {
			operator = OpEqual
		}
		return Resolved{
			Operator: operator,
			Upper:    internal.FloatPtr(bound),
			Source:   SourceFallback,
		}, true
	}

	return Resolved{}, false
}

// resolveZone looks up the environmental rule space by location. The
// productType of an Air Statique sample is the monitored location name.
func (s *Snapshot) resolveZone(site, locationName string) (Resolved, bool) {
	key := NormalizeKey(locationName)
	zone, ok := s.zonesBySite[site][key]
	if !ok {
		zone, ok = s.zonesBySite["*"][key]
	}
	if !ok {
		return Resolved{}, false
	}

	resolved := Resolved{
		Operator:     zone.Operator,
		Source:       SourceZone,
		Zone:         zone.Zone,
		SampleVolume: zone.SampleVolume,
	}
	switch zone.Operator {
	case OpGreater, OpGreaterEq:
		resolved.Lower = internal.FloatPtr(zone.Bound)
	default:
		resolved.Upper = internal.FloatPtr(zone.Bound)
	}
	return resolved, true
}

func pickBySite(matched []internal.ThresholdRule, site string) (internal.ThresholdRule, bool) {
	for _, rule := range matched {
		if rule.Site == site {
			return rule, true
		}
	}
	for _, rule := range matched {
		if rule.Site == "*" {
			return rule, true
		}
	}
	return internal.ThresholdRule{}, false
}
