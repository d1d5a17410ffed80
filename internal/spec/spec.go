// Package spec implements the cleaning specification: a JSON document with a
// fixed key set controlling which cleaning stages run and with what
// parameters.
//
// Keys are optional in the document. All defaults are resolved once at load
// time so stage code consumes a fully-typed Spec and never performs dynamic
// "get with default" lookups.
package spec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cleancsv/internal/audit"
)

// DefaultFileName is the well-known location (relative to the requested spec's
// directory) where the built-in default specification is persisted on first
// fallback, so fallback runs are reproducible and inspectable.
const DefaultFileName = "default_specs.json"

// Spec is the fully-resolved cleaning specification. Every field has a usable
// value after Load; lookups never fail.
type Spec struct {
	// Dir is the directory of the resolved spec file. All relative paths in
	// the spec resolve against it.
	Dir string

	InputFile  string
	OutputFile string

	DelimiterIn  string
	DelimiterOut string
	EncodingIn   string

	InputFileProfile  string
	OutputFileProfile string
	SummaryFile       string

	DropRepeatHeaders bool
	DropDuplicates    bool
	DropNA            bool
	CleanTypes        bool
	ExportOutputFile  bool

	StrCol     []string
	FloatCol   []string
	IntCol     []string
	NumericCol []string

	DatetimeCol    []string
	DatetimeFormat []string

	DropCol             []string
	QuantileOutliersCol []string
}

// LoadInfo reports how a Load resolved. UsedFallback is true when the
// requested document was missing or malformed and the built-in default was
// substituted; in that case ResolvedPath differs from the requested path.
type LoadInfo struct {
	ResolvedPath string
	UsedFallback bool
}

// doc is the on-disk document shape. Pointer fields distinguish "absent"
// from an explicit zero value; absent keys fall back to defaults in resolve.
type doc struct {
	InputFile         *string   `json:"input_file"`
	OutputFile        *string   `json:"output_file"`
	DelimiterIn       *string   `json:"delimiter_in"`
	DelimiterOut      *string   `json:"delimiter_out"`
	EncodingIn        *string   `json:"encoding_in"`
	InputFileProfile  *string   `json:"input_file_profile"`
	OutputFileProfile *string   `json:"output_file_profile"`
	SummaryFile       *string   `json:"summary_file"`
	DropRepeatHeaders *bool     `json:"drop_repeat_headers"`
	DropDuplicates    *bool     `json:"drop_duplicates"`
	DropNA            *bool     `json:"drop_na"`
	CleanTypes        *bool     `json:"clean_types"`
	ExportOutputFile  *bool     `json:"export_output_file"`
	StrCol            *[]string `json:"str_col"`
	FloatCol          *[]string `json:"float_col"`
	IntCol            *[]string `json:"int_col"`
	NumericCol        *[]string `json:"numeric_col"`
	DatetimeCol       *[]string `json:"datetime_col"`
	DatetimeFormat    *[]string `json:"datetime_format"`
	DropCol           *[]string `json:"drop_col"`
	// The key spelling below is the recognized one; existing spec files use it.
	QuantileOutliersCol *[]string `json:"quantile_ouliers_col"`
}

// defaultDoc returns the built-in default specification with every key set.
func defaultDoc() doc {
	s := func(v string) *string { return &v }
	b := func(v bool) *bool { return &v }
	l := func(v ...string) *[]string {
		// Zero arguments yield a nil slice; keep empty lists non-nil so the
		// persisted default document carries [] rather than null.
		if v == nil {
			v = []string{}
		}
		return &v
	}

	return doc{
		InputFile:           s("data/my_data.csv"),
		OutputFile:          s("data/my_data_clean1.csv"),
		DelimiterIn:         s(","),
		DelimiterOut:        s(","),
		EncodingIn:          s("utf-8"),
		InputFileProfile:    s("profiles/input_file.html"),
		OutputFileProfile:   s("profiles/output_file.html"),
		SummaryFile:         s(""),
		DropRepeatHeaders:   b(true),
		DropDuplicates:      b(true),
		DropNA:              b(true),
		CleanTypes:          b(true),
		ExportOutputFile:    b(true),
		StrCol:              l("Product", "Purchase Address"),
		FloatCol:            l(),
		IntCol:              l(),
		NumericCol:          l("Order ID", "Quantity Ordered", "Price Each"),
		DatetimeCol:         l("Order Date"),
		DatetimeFormat:      l("%m/%d/%y %H:%M"),
		DropCol:             l(),
		QuantileOutliersCol: l(),
	}
}

// resolve fills a Spec from a document, substituting the documented default
// for every absent key.
func resolve(d doc, dir string) Spec {
	def := defaultDoc()

	str := func(v, fallback *string) string {
		if v != nil {
			return *v
		}
		return *fallback
	}
	bl := func(v, fallback *bool) bool {
		if v != nil {
			return *v
		}
		return *fallback
	}
	list := func(v, fallback *[]string) []string {
		if v != nil {
			return *v
		}
		return *fallback
	}

	sp := Spec{
		Dir:                 dir,
		InputFile:           str(d.InputFile, def.InputFile),
		OutputFile:          str(d.OutputFile, def.OutputFile),
		DelimiterIn:         str(d.DelimiterIn, def.DelimiterIn),
		DelimiterOut:        str(d.DelimiterOut, def.DelimiterOut),
		EncodingIn:          str(d.EncodingIn, def.EncodingIn),
		InputFileProfile:    str(d.InputFileProfile, def.InputFileProfile),
		OutputFileProfile:   str(d.OutputFileProfile, def.OutputFileProfile),
		SummaryFile:         str(d.SummaryFile, def.SummaryFile),
		DropRepeatHeaders:   bl(d.DropRepeatHeaders, def.DropRepeatHeaders),
		DropDuplicates:      bl(d.DropDuplicates, def.DropDuplicates),
		DropNA:              bl(d.DropNA, def.DropNA),
		CleanTypes:          bl(d.CleanTypes, def.CleanTypes),
		ExportOutputFile:    bl(d.ExportOutputFile, def.ExportOutputFile),
		StrCol:              list(d.StrCol, def.StrCol),
		FloatCol:            list(d.FloatCol, def.FloatCol),
		IntCol:              list(d.IntCol, def.IntCol),
		NumericCol:          list(d.NumericCol, def.NumericCol),
		DatetimeCol:         list(d.DatetimeCol, def.DatetimeCol),
		DatetimeFormat:      list(d.DatetimeFormat, def.DatetimeFormat),
		DropCol:             list(d.DropCol, def.DropCol),
		QuantileOutliersCol: list(d.QuantileOutliersCol, def.QuantileOutliersCol),
	}

	// An explicit empty delimiter means "use the default", matching the
	// historical spec files that carry "" to mean comma.
	if sp.DelimiterIn == "" {
		sp.DelimiterIn = ","
	}
	if sp.DelimiterOut == "" {
		sp.DelimiterOut = ","
	}
	if sp.EncodingIn == "" {
		sp.EncodingIn = "utf-8"
	}

	return sp
}

// Default returns the built-in default Spec resolved against dir.
func Default(dir string) Spec {
	return resolve(doc{}, dir)
}

// Load reads and resolves the specification at path.
//
// A missing file or malformed JSON is not an error: the built-in default
// specification is substituted, a warning is recorded, and LoadInfo reports
// the fallback. The default specification is persisted to DefaultFileName in
// the requested path's directory the first time it is needed; if a document
// already exists there it is used as the fallback content.
//
// Any other I/O failure is returned as an error.
func Load(path string, logger audit.Logger) (Spec, LoadInfo, error) {
	if logger == nil {
		logger = audit.Nop{}
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var d doc
		if jerr := json.Unmarshal(raw, &d); jerr != nil {
			logger.Warnf("spec file %q is not valid JSON - %v - loading default spec instead", path, jerr)
			return loadFallback(path, logger)
		}
		dir := filepath.Dir(path)
		logger.Infof("loaded spec %q", path)
		return resolve(d, dir), LoadInfo{ResolvedPath: path, UsedFallback: false}, nil

	case errors.Is(err, os.ErrNotExist):
		logger.Warnf("spec not found %q - loading default spec instead", path)
		return loadFallback(path, logger)

	default:
		return Spec{}, LoadInfo{}, fmt.Errorf("read spec %q: %w", path, err)
	}
}

// loadFallback resolves the default-spec location next to the requested path,
// persisting the built-in default there when absent.
func loadFallback(requested string, logger audit.Logger) (Spec, LoadInfo, error) {
	dir := filepath.Dir(requested)
	defPath := filepath.Join(dir, DefaultFileName)
	info := LoadInfo{ResolvedPath: defPath, UsedFallback: true}

	if raw, err := os.ReadFile(defPath); err == nil {
		var d doc
		if jerr := json.Unmarshal(raw, &d); jerr == nil {
			logger.Infof("loaded default spec %q", defPath)
			return resolve(d, dir), info, nil
		}
		logger.Warnf("persisted default spec %q is not valid JSON - using built-in defaults", defPath)
		return Default(dir), info, nil
	}

	if err := writeDefault(defPath); err != nil {
		// Not fatal: the run still proceeds on the built-in default, it is
		// just not inspectable on disk.
		logger.Warnf("could not persist default spec to %q: %v", defPath, err)
	} else {
		logger.Infof("persisted default spec to %q", defPath)
	}
	return Default(dir), info, nil
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(defaultDoc(), "", "    ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// Resolve joins a spec-relative path against the spec's own directory.
// Absolute paths pass through unchanged.
func (s Spec) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Dir, p)
}

// DelimiterInRune returns the ingestion field separator as a rune.
// Multi-rune values fall back to the first rune.
func (s Spec) DelimiterInRune() rune { return firstRune(s.DelimiterIn) }

// DelimiterOutRune returns the egress field separator as a rune.
func (s Spec) DelimiterOutRune() rune { return firstRune(s.DelimiterOut) }

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return ','
}
