package rules

import "labqc/internal"

// Reference sample volumes (mL) the conversion table carries columns for.
const (
	Volume100 = 100
	Volume250 = 250
	Volume500 = 500
)

// ConvertUFC turns a raw colony count into UFC/g for the given nominal
// sample volume. The lookup is exact on the raw count; when the row or the
// volume column is absent the converter degrades to the raw count unchanged
// and reports degraded=true so the caller can log it. A zero count is zero
// in any volume.
func ConvertUFC(rows []internal.UfcConversionRow, rawCount float64, volume int) (float64, bool) {
	if rawCount == 0 {
		return 0, false
	}

	for _, row := range rows {
		if row.RawCount != rawCount {
			continue
		}
		var col *float64
		switch volume {
		case Volume100:
			col = row.Ufc100
		case Volume250:
			col = row.Ufc250
		case Volume500:
			col = row.Ufc500
		}
		if col == nil {
			return rawCount, true
		}
		return *col, false
	}

	return rawCount, true
}
