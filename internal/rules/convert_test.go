package rules

import (
	"testing"

	"labqc/internal"
)

func conversionTable() []internal.UfcConversionRow {
	return []internal.UfcConversionRow{
		{RawCount: 1, Ufc100: fp(10), Ufc250: fp(4), Ufc500: fp(2)},
		{RawCount: 10, Ufc100: fp(100), Ufc250: fp(40)},
	}
}

func TestConvertUFC(t *testing.T) {
	cases := []struct {
		name     string
		raw      float64
		volume   int
		want     float64
		degraded bool
	}{
		{name: "zero is zero in any volume", raw: 0, volume: Volume500, want: 0},
		{name: "row and column present", raw: 10, volume: Volume250, want: 40},
		{name: "smallest volume", raw: 1, volume: Volume100, want: 10},
		{name: "missing row degrades to raw", raw: 7, volume: Volume100, want: 7, degraded: true},
		{name: "missing column degrades to raw", raw: 10, volume: Volume500, want: 10, degraded: true},
		{name: "unsupported volume degrades to raw", raw: 1, volume: 750, want: 1, degraded: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, degraded := ConvertUFC(conversionTable(), tc.raw, tc.volume)
			if got != tc.want || degraded != tc.degraded {
				t.Fatalf("ConvertUFC(%v, %d) = (%v, %v), want (%v, %v)", tc.raw, tc.volume, got, degraded, tc.want, tc.degraded)
			}
		})
	}
}
