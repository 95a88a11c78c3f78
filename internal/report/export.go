package report

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"labqc/internal"
)

// ExportNonConformitiesXLSX writes one row per failing analyte of each
// non-conforming sample.
func ExportNonConformitiesXLSX(rows []internal.NonConformityRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"sample_number", "site", "product_family", "product_type",
		"analyte", "measurement", "operator", "lower_bound", "upper_bound", "rule_source",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.SampleNumber)
		set(2, row.Site)
		set(3, row.ProductFamily)
		set(4, row.ProductType)
		set(5, row.Analyte)
		set(6, row.Measurement)
		set(7, row.Operator)
		set(8, derefFloat(row.LowerBound))
		set(9, derefFloat(row.UpperBound))
		set(10, row.RuleSource)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
