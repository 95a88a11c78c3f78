package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"labqc/internal"
	"labqc/internal/config"
	"labqc/internal/notify"
	"labqc/internal/rules"
	"labqc/internal/storage"
)

type captureNotifier struct {
	calls  int
	alerts []notify.Alert
}

func (n *captureNotifier) Send(_ context.Context, alert notify.Alert) error {
	n.calls++
	n.alerts = append(n.alerts, alert)
	return nil
}

type failingNotifier struct{}

func (failingNotifier) Send(context.Context, notify.Alert) error {
	return fmt.Errorf("smtp relay down")
}

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "labqc.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// seedPopulation writes one dynamic rule, one assignment set and 100 samples:
// 95 already carry the verdict a fresh evaluation computes, 5 carry a stale
// Conforme verdict although their measurement now violates the rule.
func seedPopulation(t *testing.T, db *storage.DB) {
	t.Helper()

	err := db.UpsertThresholdRules([]internal.ThresholdRule{
		{Site: "*", ProductFamily: "GYMA 0%", Analyte: "Flore totale", Operator: rules.OpLess, UpperBound: internal.FloatPtr(50000), Active: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	err = db.UpsertAssignments([]internal.AnalyteAssignment{
		{FormID: 1, Analyte: "Flore totale", Status: internal.AssignmentCompleted},
	})
	if err != nil {
		t.Fatal(err)
	}

	conforme := internal.VerdictConforme
	samples := make([]internal.Sample, 0, 100)
	for i := 1; i <= 100; i++ {
		measurement := "12000"
		if i <= 5 {
			// Stale: persisted Conforme, but the measurement violates the rule.
			measurement = "80000"
		}
		samples = append(samples, internal.Sample{
			SampleNumber:  fmt.Sprintf("ECH-%04d", i),
			FormID:        1,
			Site:          "Laval",
			ProductFamily: "GYMA 0%",
			ProductType:   "Pot 500g",
			Measurements:  map[string]string{"Flore totale": measurement},
			Verdict:       &conforme,
		})
	}
	if err := db.UpsertSamples(samples); err != nil {
		t.Fatal(err)
	}
}

func TestRecomputeAllDiffsAndIdempotence(t *testing.T) {
	db := openTestDB(t)
	seedPopulation(t, db)

	cfg := config.Config{BatchPageSize: 7, NotifyRecipient: "qualite@example.com", NotifySubject: "Alerte"}
	notifier := &captureNotifier{}
	recomputer := New(db, cfg, notifier)

	summary, err := recomputer.RecomputeAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Scanned != 100 || summary.Updated != 5 || summary.Errors != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	for i := 1; i <= 5; i++ {
		sample, err := db.MustSampleByNumber(fmt.Sprintf("ECH-%04d", i))
		if err != nil {
			t.Fatal(err)
		}
		if sample.Verdict == nil || *sample.Verdict != internal.VerdictNonConforme {
			t.Fatalf("sample %s should carry the recomputed verdict, got %+v", sample.SampleNumber, sample.Verdict)
		}
	}

	if notifier.calls != 1 || len(notifier.alerts[0].Rows) != 5 {
		t.Fatalf("expected one alert covering 5 flips, got calls=%d alerts=%+v", notifier.calls, notifier.alerts)
	}
	if summary.Notified != 5 {
		t.Fatalf("expected 5 notified rows, got %d", summary.Notified)
	}

	// Second pass with no data change writes nothing and alerts nobody.
	summary, err = recomputer.RecomputeAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 0 || summary.Errors != 0 {
		t.Fatalf("second pass must be a no-op: %+v", summary)
	}
	if notifier.calls != 1 {
		t.Fatalf("no new flips, no new alert; calls=%d", notifier.calls)
	}
}

func TestRecomputeAllFillsMissingVerdicts(t *testing.T) {
	db := openTestDB(t)
	err := db.UpsertAssignments([]internal.AnalyteAssignment{
		{FormID: 1, Analyte: "Flore totale", Status: internal.AssignmentCompleted},
	})
	if err != nil {
		t.Fatal(err)
	}
	// No verdict persisted yet; no rule configured either, so the default
	// Conforme is written on the first pass.
	err = db.UpsertSamples([]internal.Sample{{
		SampleNumber:  "ECH-NEW",
		FormID:        1,
		Site:          "Laval",
		ProductFamily: "Famille Inconnue",
		Measurements:  map[string]string{"Flore totale": "12"},
	}})
	if err != nil {
		t.Fatal(err)
	}

	recomputer := New(db, config.Config{BatchPageSize: 50}, nil)
	summary, err := recomputer.RecomputeAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 1 {
		t.Fatalf("missing verdict must be written, got %+v", summary)
	}
	sample, err := db.MustSampleByNumber("ECH-NEW")
	if err != nil {
		t.Fatal(err)
	}
	if sample.Verdict == nil || *sample.Verdict != internal.VerdictConforme {
		t.Fatalf("expected Conforme, got %+v", sample.Verdict)
	}
}

func TestRecomputeAllNotificationFailureIsNonFatal(t *testing.T) {
	db := openTestDB(t)
	seedPopulation(t, db)

	recomputer := New(db, config.Config{BatchPageSize: 33, NotifyRecipient: "qualite@example.com"}, failingNotifier{})
	summary, err := recomputer.RecomputeAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 5 || summary.Errors != 0 {
		t.Fatalf("delivery failure must not fail the batch: %+v", summary)
	}
	if summary.Notified != 0 {
		t.Fatalf("failed delivery must not count as notified: %+v", summary)
	}
}

func TestNonConformitiesReport(t *testing.T) {
	db := openTestDB(t)
	seedPopulation(t, db)

	recomputer := New(db, config.Config{BatchPageSize: 10}, nil)
	rows, err := recomputer.NonConformities(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 report rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Analyte != "Flore totale" || row.Measurement != 80000 || row.RuleSource != rules.SourceDynamic {
			t.Fatalf("unexpected report row: %+v", row)
		}
	}
}
