package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"labqc/internal/batch"
	"labqc/internal/config"
	"labqc/internal/report"
)

// Service periodically re-runs the batch recompute, optionally exporting the
// current non-conformity report after each cycle.
type Service struct {
	cfg        config.Config
	recomputer *batch.Recomputer
}

func NewService(cfg config.Config, recomputer *batch.Recomputer) *Service {
	return &Service{cfg: cfg, recomputer: recomputer}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.runCycle(ctx); err != nil {
			fmt.Printf("watch cycle error: %v\n", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	summary, err := s.recomputer.RecomputeAll(ctx)
	if err != nil {
		return err
	}

	if s.cfg.WatchAutoExport && summary.Updated > 0 {
		rows, err := s.recomputer.NonConformities(ctx)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			filename := fmt.Sprintf("non_conformites_%s.xlsx", time.Now().Format("20060102_150405"))
			outputPath := filepath.Join(s.cfg.OutputDir, "watch", filename)
			if err := report.ExportNonConformitiesXLSX(rows, outputPath); err != nil {
				return err
			}
		}
	}

	fmt.Printf("watch cycle done scanned=%d updated=%d errors=%d notified=%d\n",
		summary.Scanned, summary.Updated, summary.Errors, summary.Notified)
	return nil
}
