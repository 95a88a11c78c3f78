package storage

import (
	"labqc/internal"
	"labqc/internal/rules"
)

// SeedFixtures loads a small demo dataset for local runs: a few configured
// rules, the environmental zone map, the UFC conversion table and a handful
// of samples across two forms.
func SeedFixtures(db *DB) error {
	thresholdRules := []internal.ThresholdRule{
		{Site: "*", ProductFamily: "GYMA 0%", Analyte: "Flore totale", Operator: rules.OpLess, UpperBound: internal.FloatPtr(50000), Active: true},
		{Site: "Laval", ProductFamily: "GYMA 0%", Analyte: "Flore totale", Operator: rules.OpLess, UpperBound: internal.FloatPtr(30000), Active: true},
		{Site: "*", ProductFamily: "Crème Fraîche", Analyte: "Levures/Moisissures (3j)", Operator: rules.OpLessEq, UpperBound: internal.FloatPtr(100), Active: true},
		{Site: "*", ProductFamily: "Fromage Pasteurisé", Analyte: "Levures/Moisissures (5j)", Operator: rules.OpLess, UpperBound: internal.FloatPtr(100), Active: true},
		{Site: "*", ProductFamily: "Lait Pasteurisé", Analyte: "pH", Operator: rules.OpBetween, LowerBound: internal.FloatPtr(6.6), UpperBound: internal.FloatPtr(6.8), Active: true},
	}

	zoneRules := []internal.EnvironmentalZoneRule{
		{Site: "*", LocationName: "Salle blanche conditionnement", Zone: "Zone A", SampleVolume: rules.Volume100, Operator: rules.OpEqual, Bound: 0, Active: true},
		{Site: "*", LocationName: "Quai réception lait", Zone: "Zone C", SampleVolume: rules.Volume250, Operator: rules.OpLess, Bound: 50, Active: true},
		{Site: "Laval", LocationName: "Atelier affinage", Zone: "Zone B", SampleVolume: rules.Volume500, Operator: rules.OpLess, Bound: 20, Active: true},
	}

	conversions := []internal.UfcConversionRow{
		{RawCount: 1, Ufc100: internal.FloatPtr(10), Ufc250: internal.FloatPtr(4), Ufc500: internal.FloatPtr(2)},
		{RawCount: 2, Ufc100: internal.FloatPtr(20), Ufc250: internal.FloatPtr(8), Ufc500: internal.FloatPtr(4)},
		{RawCount: 5, Ufc100: internal.FloatPtr(50), Ufc250: internal.FloatPtr(20), Ufc500: internal.FloatPtr(10)},
		{RawCount: 10, Ufc100: internal.FloatPtr(100), Ufc250: internal.FloatPtr(40), Ufc500: internal.FloatPtr(20)},
		{RawCount: 25, Ufc100: internal.FloatPtr(250), Ufc250: internal.FloatPtr(100), Ufc500: internal.FloatPtr(50)},
	}

	assignments := []internal.AnalyteAssignment{
		{FormID: 1, Analyte: "Flore totale", Status: internal.AssignmentCompleted},
		{FormID: 1, Analyte: "Entérobactéries", Status: internal.AssignmentCompleted},
		{FormID: 1, Analyte: "Escherichia coli", Status: internal.AssignmentCompleted},
		{FormID: 1, Analyte: "pH", Status: internal.AssignmentCompleted},
		{FormID: 2, Analyte: "Levures/Moisissures", Status: internal.AssignmentCompleted},
	}

	samples := []internal.Sample{
		{SampleNumber: "ECH-0001", FormID: 1, Site: "Laval", ProductFamily: "GYMA 0%", ProductType: "Pot 500g",
			Measurements: map[string]string{"Flore totale": "12000", "Entérobactéries": "4", "Escherichia coli": "0", "pH": "4,6"}},
		{SampleNumber: "ECH-0002", FormID: 1, Site: "Laval", ProductFamily: "GYMA 0%", ProductType: "Pot 500g",
			Measurements: map[string]string{"Flore totale": "45000", "Entérobactéries": "12", "Escherichia coli": "0", "pH": "4,5"}},
		{SampleNumber: "ECH-0003", FormID: 2, Site: "Laval", ProductFamily: "Fromage Pasteurisé", ProductType: "Portion 200g", AjDlc: "DLC",
			Measurements: map[string]string{"Levures/Moisissures": "48000"}},
		{SampleNumber: "ECH-0004", FormID: 2, Site: "Laval", ProductFamily: rules.FamilyAirStatique, ProductType: "Salle blanche conditionnement",
			Measurements: map[string]string{"Levures/Moisissures": "0"}},
		{SampleNumber: "ECH-0005", FormID: 2, Site: "Laval", ProductFamily: rules.FamilyAirStatique, ProductType: "Quai réception lait",
			Measurements: map[string]string{"Levures/Moisissures": "10"}},
	}

	if err := db.UpsertThresholdRules(thresholdRules); err != nil {
		return err
	}
	if err := db.UpsertZoneRules(zoneRules); err != nil {
		return err
	}
	if err := db.UpsertConversions(conversions); err != nil {
		return err
	}
	if err := db.UpsertAssignments(assignments); err != nil {
		return err
	}
	return db.UpsertSamples(samples)
}
