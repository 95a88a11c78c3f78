package batch

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"labqc/internal"
	"labqc/internal/config"
	"labqc/internal/conformity"
	"labqc/internal/notify"
	"labqc/internal/storage"
)

type Recomputer struct {
	db       *storage.DB
	cfg      config.Config
	notifier notify.Notifier
}

// New builds a recomputer. notifier may be nil, in which case verdict flips
// are not alerted.
func New(db *storage.DB, cfg config.Config, notifier notify.Notifier) *Recomputer {
	return &Recomputer{db: db, cfg: cfg, notifier: notifier}
}

type Summary struct {
	Scanned  int
	Updated  int
	Errors   int
	Notified int
}

// RecomputeAll loads one consistent snapshot and re-evaluates every sample
// against it, writing back only the verdicts that changed. A write failure
// on one sample is counted and never aborts the rest of the pass; running
// the pass twice with no data change in between updates nothing the second
// time. Samples flipping to Non-conforme are bundled into one
// fire-and-forget alert whose delivery failure is only warned about.
func (r *Recomputer) RecomputeAll(ctx context.Context) (Summary, error) {
	start := time.Now()

	snapshot, err := r.db.LoadSnapshot()
	if err != nil {
		return Summary{}, err
	}
	byForm, err := r.db.AssignmentsByForm()
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	var flipped []internal.NonConformityRow

	pageSize := r.cfg.BatchPageSize
	for offset := 0; ; offset += pageSize {
		page, err := r.db.ListSamplesPage(offset, pageSize)
		if err != nil {
			return summary, err
		}

		for _, sample := range page {
			summary.Scanned++

			eval := conformity.Evaluate(snapshot, sample, byForm[sample.FormID])
			for _, warning := range eval.Warnings {
				fmt.Printf("recompute warning: %s\n", warning)
			}

			if sample.Verdict != nil && *sample.Verdict == eval.Verdict {
				continue
			}

			if err := r.db.UpdateSampleVerdict(sample.ID, eval.Verdict); err != nil {
				summary.Errors++
				fmt.Printf("recompute write failed sample=%s: %v\n", sample.SampleNumber, err)
				continue
			}
			summary.Updated++

			if eval.Verdict == internal.VerdictNonConforme {
				flipped = append(flipped, eval.NonConformities(sample)...)
			}
		}

		if len(page) < pageSize {
			break
		}
	}

	if len(flipped) > 0 && r.notifier != nil {
		alert := notify.Alert{
			Recipient: r.cfg.NotifyRecipient,
			Subject:   r.cfg.NotifySubject,
			Rows:      flipped,
		}
		if err := r.notifier.Send(ctx, alert); err != nil {
			fmt.Printf("notification delivery failed: %v\n", err)
		} else {
			summary.Notified = len(flipped)
		}
	}

	_ = r.db.InsertRun(traceID(),
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{"scanned": summary.Scanned, "updated": summary.Updated, "errors": summary.Errors, "notified": summary.Notified})
	_ = r.db.SetMetadata("lastRecomputeAt", time.Now().UTC().Format(time.RFC3339))

	return summary, nil
}

// NonConformities re-evaluates the whole population against a fresh snapshot
// and returns one row per failing analyte of each Non-conforme sample,
// without persisting anything. Feeds the xlsx report.
func (r *Recomputer) NonConformities(ctx context.Context) ([]internal.NonConformityRow, error) {
	snapshot, err := r.db.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	byForm, err := r.db.AssignmentsByForm()
	if err != nil {
		return nil, err
	}

	var out []internal.NonConformityRow
	pageSize := r.cfg.BatchPageSize
	for offset := 0; ; offset += pageSize {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		default:
		}

		page, err := r.db.ListSamplesPage(offset, pageSize)
		if err != nil {
			return out, err
		}
		for _, sample := range page {
			eval := conformity.Evaluate(snapshot, sample, byForm[sample.FormID])
			out = append(out, eval.NonConformities(sample)...)
		}
		if len(page) < pageSize {
			break
		}
	}
	return out, nil
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
