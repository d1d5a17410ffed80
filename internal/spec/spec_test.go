package spec

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"cleancsv/internal/audit"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// TestLoadDefaults verifies that every recognized key missing from the
// document resolves to its documented default.
func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "specs.json")
	writeFile(t, path, `{}`)

	sp, info, err := Load(path, audit.Nop{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if info.UsedFallback {
		t.Fatalf("UsedFallback=true for a valid empty document")
	}
	if info.ResolvedPath != path {
		t.Fatalf("ResolvedPath=%q, want %q", info.ResolvedPath, path)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"input_file", sp.InputFile, "data/my_data.csv"},
		{"output_file", sp.OutputFile, "data/my_data_clean1.csv"},
		{"delimiter_in", sp.DelimiterIn, ","},
		{"delimiter_out", sp.DelimiterOut, ","},
		{"encoding_in", sp.EncodingIn, "utf-8"},
		{"input_file_profile", sp.InputFileProfile, "profiles/input_file.html"},
		{"output_file_profile", sp.OutputFileProfile, "profiles/output_file.html"},
		{"summary_file", sp.SummaryFile, ""},
		{"drop_repeat_headers", sp.DropRepeatHeaders, true},
		{"drop_duplicates", sp.DropDuplicates, true},
		{"drop_na", sp.DropNA, true},
		{"clean_types", sp.CleanTypes, true},
		{"export_output_file", sp.ExportOutputFile, true},
		{"str_col", sp.StrCol, []string{"Product", "Purchase Address"}},
		{"float_col", sp.FloatCol, []string{}},
		{"int_col", sp.IntCol, []string{}},
		{"numeric_col", sp.NumericCol, []string{"Order ID", "Quantity Ordered", "Price Each"}},
		{"datetime_col", sp.DatetimeCol, []string{"Order Date"}},
		{"datetime_format", sp.DatetimeFormat, []string{"%m/%d/%y %H:%M"}},
		{"drop_col", sp.DropCol, []string{}},
		{"quantile_ouliers_col", sp.QuantileOutliersCol, []string{}},
	}

	for _, tt := range tests {
		if !reflect.DeepEqual(tt.got, tt.want) {
			t.Errorf("%s = %#v, want %#v", tt.name, tt.got, tt.want)
		}
	}
}

// TestLoadUserValuesOverrideDefaults verifies user-supplied keys win and
// explicit zero values (false, empty list) are respected, not replaced by
// defaults.
func TestLoadUserValuesOverrideDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "specs.json")
	writeFile(t, path, `{
		"input_file": "in.csv",
		"delimiter_in": ";",
		"drop_duplicates": false,
		"numeric_col": [],
		"drop_col": ["X"]
	}`)

	sp, _, err := Load(path, audit.Nop{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sp.InputFile != "in.csv" {
		t.Errorf("InputFile=%q", sp.InputFile)
	}
	if sp.DelimiterIn != ";" {
		t.Errorf("DelimiterIn=%q", sp.DelimiterIn)
	}
	if sp.DropDuplicates {
		t.Errorf("DropDuplicates=true, want explicit false honored")
	}
	if len(sp.NumericCol) != 0 {
		t.Errorf("NumericCol=%v, want explicit empty list honored", sp.NumericCol)
	}
	if !reflect.DeepEqual(sp.DropCol, []string{"X"}) {
		t.Errorf("DropCol=%v", sp.DropCol)
	}
	// Keys absent from the document still default.
	if !sp.DropRepeatHeaders {
		t.Errorf("DropRepeatHeaders defaulted to false")
	}
}

// TestLoadMissingFileFallsBack verifies the missing-file fallback: the
// built-in default is substituted, the resolved path differs from the
// requested one, and the default spec is persisted for inspection.
func TestLoadMissingFileFallsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	requested := filepath.Join(dir, "nope.json")

	sp, info, err := Load(requested, audit.Nop{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !info.UsedFallback {
		t.Fatalf("UsedFallback=false for a missing file")
	}
	if info.ResolvedPath == requested {
		t.Fatalf("ResolvedPath equals requested path on fallback")
	}
	want := filepath.Join(dir, DefaultFileName)
	if info.ResolvedPath != want {
		t.Fatalf("ResolvedPath=%q, want %q", info.ResolvedPath, want)
	}
	if _, serr := os.Stat(want); serr != nil {
		t.Fatalf("default spec not persisted: %v", serr)
	}
	if sp.InputFile != "data/my_data.csv" {
		t.Fatalf("fallback spec InputFile=%q", sp.InputFile)
	}
}

// TestLoadMalformedJSONFallsBack verifies the malformed-document fallback.
func TestLoadMalformedJSONFallsBack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "specs.json")
	writeFile(t, path, `{"input_file": `)

	sp, info, err := Load(path, audit.Nop{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !info.UsedFallback {
		t.Fatalf("UsedFallback=false for malformed JSON")
	}
	if info.ResolvedPath == path {
		t.Fatalf("ResolvedPath equals requested path on fallback")
	}
	if !sp.DropDuplicates {
		t.Fatalf("fallback spec lost defaults")
	}
}

// TestLoadFallbackPrefersPersistedDefault verifies that an existing
// default_specs.json is used as fallback content instead of the built-in.
func TestLoadFallbackPrefersPersistedDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, DefaultFileName), `{"input_file": "persisted.csv"}`)

	sp, info, err := Load(filepath.Join(dir, "missing.json"), audit.Nop{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !info.UsedFallback {
		t.Fatalf("UsedFallback=false")
	}
	if sp.InputFile != "persisted.csv" {
		t.Fatalf("InputFile=%q, want value from persisted default", sp.InputFile)
	}
}

// TestResolve verifies path resolution against the spec directory.
func TestResolve(t *testing.T) {
	t.Parallel()

	sp := Default(filepath.Join("some", "dir"))

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"relative", "data/in.csv", filepath.Join("some", "dir", "data", "in.csv")},
		{"absolute", string(filepath.Separator) + "tmp/in.csv", string(filepath.Separator) + "tmp/in.csv"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sp.Resolve(tt.in); got != tt.want {
				t.Fatalf("Resolve(%q)=%q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestDelimiterRunes verifies separator fallback for empty and multi-byte
// values.
func TestDelimiterRunes(t *testing.T) {
	t.Parallel()

	sp := Default(".")
	sp.DelimiterIn = "|"
	sp.DelimiterOut = ""
	if sp.DelimiterInRune() != '|' {
		t.Errorf("DelimiterInRune=%q", sp.DelimiterInRune())
	}
	if sp.DelimiterOutRune() != ',' {
		t.Errorf("DelimiterOutRune=%q, want comma fallback", sp.DelimiterOutRune())
	}
}
