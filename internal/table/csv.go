package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decoderFor maps a spec encoding_in value to a text decoder. UTF-8 input is
// passed through untouched (BOM handling is done on the header).
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case "latin-1", "latin1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported input encoding %q", name)
	}
}

// ReadCSV ingests a delimited text file with a header row of column names.
//
// Cell typing at ingestion is deliberately loose: every non-empty field is a
// string cell; an empty field is the missing sentinel. Short records are
// padded with missing cells and long records are truncated to the header
// width, so the invariant "every row has len(Columns) cells" holds from here
// on.
//
// Open/read failure is fatal to the run and is returned unmodified apart from
// path context.
func ReadCSV(path string, comma rune, encodingIn string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read csv %q: %w", path, err)
	}
	defer f.Close()

	dec, err := decoderFor(encodingIn)
	if err != nil {
		return nil, fmt.Errorf("read csv %q: %w", path, err)
	}
	var src io.Reader = f
	if dec != nil {
		src = transform.NewReader(f, dec)
	}

	r := csv.NewReader(src)
	r.Comma = comma
	r.FieldsPerRecord = -1

	hdr, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv %q: header: %w", path, err)
	}
	hdr[0] = strings.TrimPrefix(hdr[0], "\uFEFF")

	t := &Table{Columns: append([]string(nil), hdr...)}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %q: %w", path, err)
		}

		row := make([]Cell, len(t.Columns))
		for i := range row {
			if i >= len(rec) || rec[i] == "" {
				row[i] = nil
				continue
			}
			row[i] = rec[i]
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// WriteCSV writes the table as delimited text, creating parent directories as
// needed. Write failure is fatal to the run.
func (t *Table) WriteCSV(path string, comma rune) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write csv %q: %w", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write csv %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = comma

	if err := w.Write(t.Columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv %q: %w", path, err)
	}

	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range row {
			rec[i] = FormatCell(c, t.Layouts[t.Columns[i]])
		}
		if err := w.Write(rec); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv %q: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv %q: %w", path, err)
	}
	return f.Close()
}
