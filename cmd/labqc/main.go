package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"labqc/internal"
	"labqc/internal/batch"
	"labqc/internal/config"
	"labqc/internal/conformity"
	"labqc/internal/notify"
	gmailnotifier "labqc/internal/notify/gmail"
	"labqc/internal/report"
	"labqc/internal/storage"
	"labqc/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "recompute":
		recomputer := batch.New(db, cfg, makeNotifier(cfg))
		summary, err := recomputer.RecomputeAll(context.Background())
		must(err)
		fmt.Printf("recompute done scanned=%d updated=%d errors=%d notified=%d\n",
			summary.Scanned, summary.Updated, summary.Errors, summary.Notified)
	case "evaluate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		number := fs.String("sample", "", "sample number")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*number) == "" {
			must(fmt.Errorf("--sample is required"))
		}
		sample, err := db.MustSampleByNumber(*number)
		must(err)
		snapshot, err := db.LoadSnapshot()
		must(err)
		byForm, err := db.AssignmentsByForm()
		must(err)
		eval := conformity.Evaluate(snapshot, sample, byForm[sample.FormID])
		printEvaluation(sample, eval)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		recomputer := batch.New(db, cfg, nil)
		rows, err := recomputer.NonConformities(context.Background())
		must(err)
		must(report.ExportNonConformitiesXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)
	case "seed:fixtures":
		must(storage.SeedFixtures(db))
		fmt.Println("fixtures seeded")
	case "watch":
		recomputer := batch.New(db, cfg, makeNotifier(cfg))
		s := watcher.NewService(cfg, recomputer)
		must(s.Run(context.Background()))
	default:
		usage()
		os.Exit(1)
	}
}

func makeNotifier(cfg config.Config) notify.Notifier {
	if !cfg.NotifyEnabled {
		return nil
	}
	notifier, err := gmailnotifier.NewNotifier(cfg)
	if err != nil {
		fmt.Printf("notifier disabled: %v\n", err)
		return nil
	}
	return notifier
}

func printEvaluation(sample internal.Sample, eval conformity.Evaluation) {
	previous := "(aucun)"
	if eval.Previous != nil {
		previous = string(*eval.Previous)
	}
	fmt.Printf("sample=%s family=%s type=%s\n", sample.SampleNumber, sample.ProductFamily, sample.ProductType)
	fmt.Printf("verdict=%s persisted=%s\n", eval.Verdict, previous)
	for _, result := range eval.Analytes {
		note := ""
		if result.Organoleptic {
			note = " (hors verdict)"
		}
		fmt.Printf("  %-32s %-8s raw=%q source=%s%s\n", result.Analyte, result.Status, result.Raw, result.Source, note)
	}
	for _, warning := range eval.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
}

func usage() {
	fmt.Println("usage: labqc <command>")
	fmt.Println("commands:")
	fmt.Println("  recompute")
	fmt.Println("  evaluate --sample=ECH-0001")
	fmt.Println("  export:xlsx --out=./out/non_conformites.xlsx")
	fmt.Println("  seed:fixtures")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
