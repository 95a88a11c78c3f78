package gmail

import (
	"strings"
	"testing"

	"labqc/internal"
)

func TestAlertBody(t *testing.T) {
	rows := []internal.NonConformityRow{
		{SampleNumber: "ECH-0001", ProductFamily: "GYMA 0%", ProductType: "Pot 500g", Analyte: "Flore totale", Measurement: 80000, Operator: "<", UpperBound: internal.FloatPtr(50000)},
		{SampleNumber: "ECH-0001", ProductFamily: "GYMA 0%", ProductType: "Pot 500g", Analyte: "Entérobactéries", Measurement: 12, Operator: "<", UpperBound: internal.FloatPtr(10)},
		{SampleNumber: "ECH-0002", ProductFamily: "Crème Fraîche", ProductType: "Pot 200g", Analyte: "Escherichia coli", Measurement: 1, Operator: "=", UpperBound: internal.FloatPtr(0)},
	}

	body := alertBody(rows)
	if !strings.Contains(body, "non-conformes détectés: 2") {
		t.Fatalf("body should count distinct samples, got:\n%s", body)
	}
	for _, want := range []string{"ECH-0001", "ECH-0002", "Flore totale", "règle < 50000"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestBoundText(t *testing.T) {
	row := internal.NonConformityRow{LowerBound: internal.FloatPtr(6.6), UpperBound: internal.FloatPtr(6.8)}
	if got := boundText(row); got != "6.6..6.8" {
		t.Fatalf("boundText = %q", got)
	}
	if got := boundText(internal.NonConformityRow{}); got != "?" {
		t.Fatalf("boundText empty = %q", got)
	}
}
