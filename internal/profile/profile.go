// Package profile produces human-readable profiling artifacts for a table.
//
// The pipeline depends only on the Renderer capability; HTML is the built-in
// implementation. The artifact format is a contract with humans, not with
// code — nothing in the pipeline reads it back.
package profile

import (
	"fmt"
	"html/template"
	"math"
	"os"
	"path/filepath"
	"time"

	"cleancsv/internal/table"
)

// Renderer writes a profiling artifact for a table to the given path.
type Renderer interface {
	Render(t *table.Table, path string) error
}

// ColumnStats summarizes one column for the report.
type ColumnStats struct {
	Name     string
	Kind     string // "numeric", "datetime", "text", "mixed", "empty"
	Count    int    // non-missing cells
	Missing  int
	Distinct int

	// Numeric summary; valid only when HasNumeric.
	HasNumeric bool
	Min        float64
	Max        float64
	Mean       float64

	Samples []string // up to maxSamples distinct rendered values
}

const maxSamples = 5

// Summarize computes per-column statistics in one pass per column.
func Summarize(t *table.Table) []ColumnStats {
	out := make([]ColumnStats, len(t.Columns))

	for ci, name := range t.Columns {
		st := ColumnStats{Name: name}

		distinct := map[string]struct{}{}
		var sum float64
		var numeric, strings, times int
		st.Min = math.Inf(1)
		st.Max = math.Inf(-1)

		for _, row := range t.Rows {
			c := row[ci]
			if table.IsMissing(c) {
				st.Missing++
				continue
			}
			st.Count++

			rendered := table.FormatCell(c, "")
			if _, seen := distinct[rendered]; !seen {
				distinct[rendered] = struct{}{}
				if len(st.Samples) < maxSamples {
					st.Samples = append(st.Samples, rendered)
				}
			}

			switch v := c.(type) {
			case int64:
				numeric++
				f := float64(v)
				sum += f
				st.Min = math.Min(st.Min, f)
				st.Max = math.Max(st.Max, f)
			case float64:
				numeric++
				sum += v
				st.Min = math.Min(st.Min, v)
				st.Max = math.Max(st.Max, v)
			case time.Time:
				times++
			default:
				strings++
			}
		}

		st.Distinct = len(distinct)

		switch {
		case st.Count == 0:
			st.Kind = "empty"
		case numeric == st.Count:
			st.Kind = "numeric"
		case times == st.Count:
			st.Kind = "datetime"
		case strings == st.Count:
			st.Kind = "text"
		default:
			st.Kind = "mixed"
		}

		if numeric > 0 {
			st.HasNumeric = true
			st.Mean = sum / float64(numeric)
		} else {
			st.Min, st.Max = 0, 0
		}

		out[ci] = st
	}

	return out
}

// HTML is the built-in Renderer producing a self-contained HTML report.
type HTML struct {
	// Title overrides the report title; default "Data profile".
	Title string
}

type reportData struct {
	Title       string
	GeneratedAt string
	Rows        int
	Cols        int
	Missing     int
	Columns     []ColumnStats
}

// Render implements Renderer. Parent directories are created as needed.
func (h HTML) Render(t *table.Table, path string) error {
	title := h.Title
	if title == "" {
		title = "Data profile"
	}

	stats := Summarize(t)
	missing := 0
	for _, s := range stats {
		missing += s.Missing
	}

	data := reportData{
		Title:       title,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Rows:        t.NumRows(),
		Cols:        t.NumCols(),
		Missing:     missing,
		Columns:     stats,
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("profile: create dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if err := reportTmpl.Execute(f, data); err != nil {
		_ = f.Close()
		return fmt.Errorf("profile: render: %w", err)
	}
	return f.Close()
}

var _ Renderer = HTML{}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
th { background: #f0f0f0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="overview">{{.Rows}} rows &times; {{.Cols}} columns, {{.Missing}} missing cells. Generated {{.GeneratedAt}}.</p>
<table id="columns">
<thead>
<tr><th>Column</th><th>Kind</th><th>Count</th><th>Missing</th><th>Distinct</th><th>Min</th><th>Mean</th><th>Max</th><th>Samples</th></tr>
</thead>
<tbody>
{{range .Columns}}<tr>
<td>{{.Name}}</td>
<td>{{.Kind}}</td>
<td>{{.Count}}</td>
<td>{{.Missing}}</td>
<td>{{.Distinct}}</td>
{{if .HasNumeric}}<td>{{printf "%g" .Min}}</td><td>{{printf "%g" .Mean}}</td><td>{{printf "%g" .Max}}</td>{{else}}<td></td><td></td><td></td>{{end}}
<td>{{range $i, $s := .Samples}}{{if $i}}, {{end}}{{$s}}{{end}}</td>
</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))
