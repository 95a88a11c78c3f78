package rules

import (
	"regexp"
	"strings"
)

var (
	reSpaces      = regexp.MustCompile(`\s+`)
	rePunct       = regexp.MustCompile(`['’".,;:]`)
	reEtWord      = regexp.MustCompile(`(?i)\s+et\s+`)
	reDelaySuffix = regexp.MustCompile(`(?i)\s*\(\s*\d+\s*j(?:ours)?\s*\)\s*$`)
)

// NormalizeKey folds an analyte or family label into its lookup form:
// lowercase, ampersand read as "et", punctuation and repeated whitespace
// collapsed. Slashes, parentheses and accents are significant and kept
// ("Levures/Moisissures (3j)" stays distinct from its 5-day variant).
func NormalizeKey(input string) string {
	s := strings.ReplaceAll(input, " ", " ")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", " et ")
	s = rePunct.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CandidateKeys expands a free-text analyte label into the ordered list of
// lookup keys a resolver should try: the label itself, then documented
// synonym substitutions (ampersand vs "et", incubation-delay variants of
// yeast/mold labels folded together), then the punctuation-normalized forms.
// First match wins downstream, so order is the priority.
func CandidateKeys(label string) []string {
	base := strings.TrimSpace(strings.ReplaceAll(label, " ", " "))
	if base == "" {
		return nil
	}

	out := []string{base}
	seen := map[string]struct{}{NormalizeKey(base): {}}
	add := func(s string) {
		s = strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
		if s == "" {
			return
		}
		key := NormalizeKey(s)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	if strings.Contains(base, "&") {
		add(strings.ReplaceAll(base, "&", " et "))
	}
	if reEtWord.MatchString(base) {
		add(reEtWord.ReplaceAllString(base, " & "))
	}

	if IsYeastMold(base) {
		if reDelaySuffix.MatchString(base) {
			add(reDelaySuffix.ReplaceAllString(base, ""))
		} else {
			add(base + " (3j)")
			add(base + " (5j)")
		}
	}

	return out
}

// IsYeastMold reports whether a label belongs to the yeast/mold analyte
// family, in any of its synonym or delay variants.
func IsYeastMold(label string) bool {
	n := NormalizeKey(label)
	return strings.HasPrefix(n, "levures") || strings.Contains(n, "moisissures")
}

// IsPasteurizedFamily reports whether a product family is the pasteurized
// cheese family targeted by the AJ/DLC contextual override. Other
// pasteurized families (Lait Pasteurisé) are not concerned.
func IsPasteurizedFamily(family string) bool {
	n := NormalizeKey(family)
	return strings.Contains(n, "fromage") && strings.Contains(n, "pasteuris")
}

// FamilyAirStatique routes samples into the environmental zone rule space.
const FamilyAirStatique = "Air Statique"

// IsEnvironmental reports whether a product family designates an
// air-monitoring sample rather than a product.
func IsEnvironmental(family string) bool {
	return NormalizeKey(family) == NormalizeKey(FamilyAirStatique)
}
