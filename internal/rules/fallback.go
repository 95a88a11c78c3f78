package rules

// fallbackBounds is the static last-resort rule set, applied when no dynamic
// rule matches a (family, analyte) pair. Bounds are evaluated as "<", with
// one convention: a bound of 0 means total absence required (value must be
// exactly 0), not "always invalid".
var fallbackBounds = map[string]map[string]float64{
	"GYMA 0%": {
		"Flore totale":               100000,
		"Entérobactéries":            10,
		"Coliformes totaux":          10,
		"Escherichia coli":           0,
		"Staphylocoques coagulase +": 0,
		"Levures/Moisissures (3j)":   100,
		"Levures/Moisissures (5j)":   500,
		"Salmonelles":                0,
		"Listeria monocytogenes":     0,
	},
	"GYMA 3%": {
		"Flore totale":               100000,
		"Entérobactéries":            10,
		"Coliformes totaux":          10,
		"Escherichia coli":           0,
		"Staphylocoques coagulase +": 0,
		"Levures/Moisissures (3j)":   100,
		"Levures/Moisissures (5j)":   500,
		"Salmonelles":                0,
		"Listeria monocytogenes":     0,
	},
	"Crème Fraîche": {
		"Entérobactéries":            100,
		"Coliformes totaux":          100,
		"Escherichia coli":           10,
		"Staphylocoques coagulase +": 0,
		"Levures/Moisissures (3j)":   100,
		"Levures/Moisissures (5j)":   1000,
		"Salmonelles":                0,
		"Listeria monocytogenes":     0,
	},
	"Fromage Pasteurisé": {
		"Entérobactéries":            10,
		"Escherichia coli":           0,
		"Staphylocoques coagulase +": 0,
		"Levures/Moisissures (3j)":   50,
		"Levures/Moisissures (5j)":   100,
		"Salmonelles":                0,
		"Listeria monocytogenes":     0,
	},
	"Beurre Doux": {
		"Entérobactéries":          10,
		"Coliformes totaux":        10,
		"Escherichia coli":         0,
		"Levures/Moisissures (3j)": 100,
		"Levures/Moisissures (5j)": 500,
		"Salmonelles":              0,
	},
	"Lait Pasteurisé": {
		"Flore totale":           300000,
		"Entérobactéries":        10,
		"Escherichia coli":       0,
		"Salmonelles":            0,
		"Listeria monocytogenes": 0,
	},
}

// fallbackIndex mirrors fallbackBounds with normalized keys for lookup.
var fallbackIndex = func() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(fallbackBounds))
	for family, analytes := range fallbackBounds {
		m := make(map[string]float64, len(analytes))
		for analyte, bound := range analytes {
			m[NormalizeKey(analyte)] = bound
		}
		out[NormalizeKey(family)] = m
	}
	return out
}()

func fallbackBound(family string, candidates []string) (float64, bool) {
	analytes, ok := fallbackIndex[NormalizeKey(family)]
	if !ok {
		return 0, false
	}
	for _, candidate := range candidates {
		if bound, ok := analytes[NormalizeKey(candidate)]; ok {
			return bound, true
		}
	}
	return 0, false
}
