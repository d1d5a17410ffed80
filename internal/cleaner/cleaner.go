// Package cleaner implements the spec-driven cleaning pipeline: table
// ingestion, the fixed sequence of transformation stages, mutation tracking,
// profiling target selection, and table egress.
package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cleancsv/internal/audit"
	"cleancsv/internal/metrics"
	"cleancsv/internal/profile"
	"cleancsv/internal/spec"
	"cleancsv/internal/table"
)

// Cleaner owns one table for the duration of a run and applies the cleaning
// stages to it strictly sequentially. It is not safe for concurrent use; a
// caller wanting a responsive UI runs the whole pipeline on a worker of its
// own choosing.
type Cleaner struct {
	spec     spec.Spec
	log      audit.Logger
	renderer profile.Renderer

	tbl     *table.Table
	mutated bool
}

// New returns a Cleaner for the given spec. A nil logger discards audit
// messages; a nil renderer uses the built-in HTML profiler.
func New(sp spec.Spec, logger audit.Logger, renderer profile.Renderer) *Cleaner {
	if logger == nil {
		logger = audit.Nop{}
	}
	if renderer == nil {
		renderer = profile.HTML{}
	}
	return &Cleaner{spec: sp, log: logger, renderer: renderer}
}

// Table returns the table currently owned by the cleaner.
func (c *Cleaner) Table() *table.Table { return c.tbl }

// SetTable hands an already-materialized table to the cleaner, bypassing
// ingestion. Intended for tests and embedding callers.
func (c *Cleaner) SetTable(t *table.Table) { c.tbl = t }

// Mutated reports whether any stage has altered the table in this run.
// It is never reset during a run.
func (c *Cleaner) Mutated() bool { return c.mutated }

// Ingest reads the spec's input_file into memory. Failure is fatal to the
// run: the error is propagated and nothing else can proceed.
func (c *Cleaner) Ingest() error {
	path := c.spec.Resolve(c.spec.InputFile)
	t, err := table.ReadCSV(path, c.spec.DelimiterInRune(), c.spec.EncodingIn)
	if err != nil {
		c.log.Errorf("failed to read CSV: %v", err)
		return err
	}
	c.log.Infof("loaded data %q", path)
	metrics.IncRows("in", t.NumRows())
	c.tbl = t
	return nil
}

// Export writes the (possibly cleaned) table to the spec's output_file.
// When export_output_file is false the call is a no-op apart from a warning.
// Write failure is fatal and propagated.
func (c *Cleaner) Export() error {
	if !c.spec.ExportOutputFile {
		c.log.Warnf("the spec key \"export_output_file\" is false - cleaned data was not stored")
		return nil
	}

	path := c.spec.Resolve(c.spec.OutputFile)
	if err := c.tbl.WriteCSV(path, c.spec.DelimiterOutRune()); err != nil {
		c.log.Errorf("failed to write CSV: %v", err)
		return err
	}
	c.log.Infof("processed data written to %q", path)
	metrics.IncRows("out", c.tbl.NumRows())
	return nil
}

// ProduceProfile writes a profiling artifact for the current table and
// returns its path. The target is input_file_profile until the first stage
// mutates the table, output_file_profile afterwards, so calling this before
// and after RunAll yields two distinct artifacts without the caller tracking
// mutation state itself.
func (c *Cleaner) ProduceProfile() (string, error) {
	if c.tbl == nil {
		return "", fmt.Errorf("profile: no table ingested")
	}

	var path string
	if !c.mutated {
		path = c.spec.Resolve(c.spec.InputFileProfile)
		c.log.Infof("profiling source data to %q", path)
	} else {
		path = c.spec.Resolve(c.spec.OutputFileProfile)
		c.log.Infof("cleaned data - profiling to %q", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("profile: create dir: %w", err)
		}
	}
	if err := c.renderer.Render(c.tbl, path); err != nil {
		c.log.Errorf("profiling failed: %v", err)
		return "", err
	}
	c.log.Infof("profiling finished")
	return path, nil
}

// RunAll applies every cleaning stage in its fixed position, whether or not
// earlier stages were enabled. Disabled stages and stages with empty column
// lists are pure no-ops and do not mark the table mutated.
func (c *Cleaner) RunAll() *table.Table {
	stages := []struct {
		name string
		fn   func()
	}{
		{"drop_repeat_headers", c.dropRepeatHeaders},
		{"drop_duplicates", c.dropDuplicates},
		{"numeric_coercion", c.coerceNumericColumns},
		{"type_casts", c.castColumns},
		{"datetime_parsing", c.parseDatetimeColumns},
		{"drop_na", c.dropAllMissingRows},
		{"drop_col", c.dropColumns},
		{"quantile_outliers", c.dropQuantileOutliers},
	}

	for _, s := range stages {
		start := time.Now()
		s.fn()
		metrics.ObserveStageDuration(s.name, time.Since(start))
	}
	return c.tbl
}
