package report

import (
	"os"
	"path/filepath"
	"testing"

	"labqc/internal"
)

func TestExportNonConformitiesXLSX(t *testing.T) {
	rows := []internal.NonConformityRow{
		{
			SampleNumber:  "ECH-0001",
			Site:          "Laval",
			ProductFamily: "GYMA 0%",
			ProductType:   "Pot 500g",
			Analyte:       "Flore totale",
			Measurement:   80000,
			RuleSource:    "dynamic",
			Operator:      "<",
			UpperBound:    internal.FloatPtr(50000),
		},
		{
			SampleNumber:  "ECH-0002",
			Site:          "Laval",
			ProductFamily: "GYMA 0%",
			ProductType:   "Pot 500g",
			Analyte:       "Escherichia coli",
			Measurement:   1,
			RuleSource:    "fallback",
			Operator:      "=",
			UpperBound:    internal.FloatPtr(0),
		},
	}

	out := filepath.Join(t.TempDir(), "non_conformites.xlsx")
	if err := ExportNonConformitiesXLSX(rows, out); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Fatal("exported file is empty")
	}
}
