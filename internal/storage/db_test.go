package storage

import (
	"fmt"
	"path/filepath"
	"testing"

	"labqc/internal"
	"labqc/internal/rules"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "labqc.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSampleRoundTrip(t *testing.T) {
	db := openTestDB(t)

	verdict := internal.VerdictConforme
	err := db.UpsertSamples([]internal.Sample{{
		SampleNumber:  "ECH-0001",
		FormID:        3,
		Site:          "Laval",
		ProductFamily: "GYMA 0%",
		ProductType:   "Pot 500g",
		AjDlc:         "DLC",
		Measurements:  map[string]string{"Flore totale": "12000", "pH": "4,6"},
		Verdict:       &verdict,
	}})
	if err != nil {
		t.Fatal(err)
	}

	sample, err := db.MustSampleByNumber("ECH-0001")
	if err != nil {
		t.Fatal(err)
	}
	if sample.FormID != 3 || sample.AjDlc != "DLC" || sample.Measurements["pH"] != "4,6" {
		t.Fatalf("round trip mismatch: %+v", sample)
	}
	if sample.Verdict == nil || *sample.Verdict != internal.VerdictConforme {
		t.Fatalf("verdict not round-tripped: %+v", sample.Verdict)
	}

	// Upsert on the same number replaces, not duplicates.
	sample.Measurements["Flore totale"] = "99000"
	sample.Verdict = nil
	if err := db.UpsertSamples([]internal.Sample{sample}); err != nil {
		t.Fatal(err)
	}
	again, err := db.MustSampleByNumber("ECH-0001")
	if err != nil {
		t.Fatal(err)
	}
	if again.Measurements["Flore totale"] != "99000" || again.Verdict != nil {
		t.Fatalf("upsert did not replace: %+v", again)
	}

	missing, err := db.GetSampleByNumber("ECH-9999")
	if err != nil || missing != nil {
		t.Fatalf("missing sample should be (nil, nil), got %+v %v", missing, err)
	}
}

func TestListSamplesPage(t *testing.T) {
	db := openTestDB(t)

	samples := make([]internal.Sample, 0, 23)
	for i := 1; i <= 23; i++ {
		samples = append(samples, internal.Sample{
			SampleNumber:  fmt.Sprintf("ECH-%04d", i),
			FormID:        1,
			Site:          "Laval",
			ProductFamily: "GYMA 0%",
		})
	}
	if err := db.UpsertSamples(samples); err != nil {
		t.Fatal(err)
	}

	total := 0
	pageSize := 10
	for offset := 0; ; offset += pageSize {
		page, err := db.ListSamplesPage(offset, pageSize)
		if err != nil {
			t.Fatal(err)
		}
		total += len(page)
		if len(page) < pageSize {
			break
		}
	}
	if total != 23 {
		t.Fatalf("pagination scanned %d samples, want 23", total)
	}
}

func TestUpdateSampleVerdict(t *testing.T) {
	db := openTestDB(t)
	if err := db.UpsertSamples([]internal.Sample{{SampleNumber: "ECH-0001", FormID: 1, Site: "Laval", ProductFamily: "GYMA 0%"}}); err != nil {
		t.Fatal(err)
	}
	sample, err := db.MustSampleByNumber("ECH-0001")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateSampleVerdict(sample.ID, internal.VerdictNonConforme); err != nil {
		t.Fatal(err)
	}
	sample, err = db.MustSampleByNumber("ECH-0001")
	if err != nil {
		t.Fatal(err)
	}
	if sample.Verdict == nil || *sample.Verdict != internal.VerdictNonConforme {
		t.Fatalf("verdict not updated: %+v", sample.Verdict)
	}
}

func TestLoadSnapshot(t *testing.T) {
	db := openTestDB(t)
	if err := SeedFixtures(db); err != nil {
		t.Fatal(err)
	}

	snapshot, err := db.LoadSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshot.Rules) == 0 || len(snapshot.ZoneRules) == 0 || len(snapshot.Conversions) == 0 {
		t.Fatalf("snapshot incomplete: rules=%d zones=%d conversions=%d",
			len(snapshot.Rules), len(snapshot.ZoneRules), len(snapshot.Conversions))
	}

	resolved, ok := snapshot.Resolve("Laval", "GYMA 0%", "Pot 500g", "Flore totale", rules.ContextFlags{})
	if !ok || resolved.Source != rules.SourceDynamic || *resolved.Upper != 30000 {
		t.Fatalf("seeded rule not resolvable: %+v ok=%v", resolved, ok)
	}

	byForm, err := db.AssignmentsByForm()
	if err != nil {
		t.Fatal(err)
	}
	if len(byForm[1]) != 4 || len(byForm[2]) != 1 {
		t.Fatalf("unexpected assignment grouping: %+v", byForm)
	}
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)
	if err := db.SetMetadata("lastRecomputeAt", "2026-09-01T10:00:00Z"); err != nil {
		t.Fatal(err)
	}
	value, err := db.GetMetadata("lastRecomputeAt")
	if err != nil || value == nil || *value != "2026-09-01T10:00:00Z" {
		t.Fatalf("metadata round trip failed: %v %v", value, err)
	}
	missing, err := db.GetMetadata("absent")
	if err != nil || missing != nil {
		t.Fatalf("missing key should be (nil, nil), got %v %v", missing, err)
	}
}
