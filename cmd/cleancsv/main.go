package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"cleancsv/internal/audit"
	"cleancsv/internal/cleaner"
	"cleancsv/internal/history"
	"cleancsv/internal/metrics"
	"cleancsv/internal/metrics/datadog"
	"cleancsv/internal/profile"
	"cleancsv/internal/spec"

	// register all history backends with the factory registry.
	// flags specify which to use but support for all of them is built in.
	_ "cleancsv/internal/history/all"
)

// main is the entry point for the cleancsv binary. It loads the cleaning
// spec (falling back to the built-in default when missing or malformed),
// optionally initializes metrics and run-history backends, and executes one
// cleaning run: ingest → profile → stages → profile → egress.
func main() {
	var (
		specPath          string
		metricsBackendFlg string
		historyKindFlg    string
		historyDSNFlg     string
	)

	flag.StringVar(&specPath, "spec", "specs.json", "cleaning spec JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (datadog, none)")
	flag.StringVar(&historyKindFlg, "history-backend", "sqlite", "run-history backend (sqlite, postgres, mssql)")
	flag.StringVar(&historyDSNFlg, "history-dsn", "", "run-history DSN; empty disables run history")
	noProfile := flag.Bool("no-profile", false, "skip profiling artifacts")
	verbose := flag.Bool("v", false, "enable debug-level audit messages")

	flag.Parse()

	minLevel := audit.LevelInfo
	if *verbose {
		minLevel = audit.LevelDebug
	}
	var logger audit.Logger = audit.NewLevel(os.Stderr, minLevel)

	sp, info, err := spec.Load(specPath, logger)
	if err != nil {
		fatalf("load spec: %v", err)
	}

	// Second audit destination: the spec's summary_file, Info and above.
	if sp.SummaryFile != "" {
		sf, serr := audit.OpenFile(sp.Resolve(sp.SummaryFile), audit.LevelInfo)
		if serr != nil {
			logger.Warnf("could not open summary file: %v", serr)
		} else {
			defer sf.Close()
			logger = audit.Multi(logger, sf)
		}
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "datadog":
		b, berr := datadog.NewBackend(context.Background(), datadog.Options{
			JobName: "cleancsv",
			Tags:    datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")),
		})
		if berr != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", berr)
		} else {
			metrics.SetBackend(b)
			defer func() {
				if cerr := b.Close(); cerr != nil {
					log.Printf("metrics: datadog close/flush error: %v", cerr)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()

	var repo history.Repository = history.Nop{}
	if historyDSNFlg != "" {
		r, herr := history.New(ctx, history.Config{Kind: historyKindFlg, DSN: historyDSNFlg})
		if herr != nil {
			logger.Warnf("run history disabled: %v", herr)
		} else if herr = r.Init(ctx); herr != nil {
			logger.Warnf("run history disabled: %v", herr)
			r.Close()
		} else {
			repo = r
			defer r.Close()
		}
	}

	run := history.NewRun(info.ResolvedPath, info.UsedFallback)
	c := cleaner.New(sp, logger, profile.HTML{})
	start := time.Now()

	record := func() {
		run.FinishedAt = time.Now().UTC()
		run.Mutated = c.Mutated()
		if rerr := repo.Record(ctx, run); rerr != nil {
			logger.Warnf("could not record run: %v", rerr)
		}
	}

	if err := c.Ingest(); err != nil {
		run.Error = err.Error()
		record()
		fatalf("%v", err)
	}
	run.RowsIn = c.Table().NumRows()
	run.ColumnsIn = c.Table().NumCols()

	if !*noProfile {
		if _, perr := c.ProduceProfile(); perr != nil {
			logger.Errorf("input profile failed: %v", perr)
		}
	}

	c.RunAll()

	if !*noProfile {
		if _, perr := c.ProduceProfile(); perr != nil {
			logger.Errorf("output profile failed: %v", perr)
		}
	}

	if err := c.Export(); err != nil {
		run.Error = err.Error()
		record()
		fatalf("%v", err)
	}
	run.RowsOut = c.Table().NumRows()
	run.ColumnsOut = c.Table().NumCols()

	record()
	metrics.ObserveRunDuration(time.Since(start))

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
