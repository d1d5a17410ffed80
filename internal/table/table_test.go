package table

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// TestColumnIndexAndDrop verifies column lookup and removal across rows.
func TestColumnIndexAndDrop(t *testing.T) {
	t.Parallel()

	tbl := New("A", "B", "C")
	tbl.Rows = [][]Cell{
		{"1", "2", "3"},
		{"4", "5", "6"},
	}

	if ix := tbl.ColumnIndex("B"); ix != 1 {
		t.Fatalf("ColumnIndex(B)=%d", ix)
	}
	if ix := tbl.ColumnIndex("Z"); ix != -1 {
		t.Fatalf("ColumnIndex(Z)=%d, want -1", ix)
	}

	if !tbl.DropColumn("B") {
		t.Fatalf("DropColumn(B)=false")
	}
	if tbl.DropColumn("B") {
		t.Fatalf("DropColumn(B) twice=true")
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"A", "C"}) {
		t.Fatalf("Columns=%v", tbl.Columns)
	}
	for i, row := range tbl.Rows {
		if len(row) != 2 {
			t.Fatalf("row %d has %d cells", i, len(row))
		}
	}
	if tbl.Rows[0][1] != "3" {
		t.Fatalf("cell shifted wrong: %v", tbl.Rows[0])
	}
}

// TestFilter verifies in-place row filtering preserves order and reports the
// removed count.
func TestFilter(t *testing.T) {
	t.Parallel()

	tbl := New("A")
	tbl.Rows = [][]Cell{{"1"}, {"2"}, {"3"}, {"4"}}

	removed := tbl.Filter(func(i int, _ []Cell) bool { return i%2 == 0 })
	if removed != 2 {
		t.Fatalf("removed=%d", removed)
	}
	if !reflect.DeepEqual(tbl.Rows, [][]Cell{{"1"}, {"3"}}) {
		t.Fatalf("Rows=%v", tbl.Rows)
	}
}

// TestIsMissing verifies the missing sentinel across cell types, including
// the NaN fold.
func TestIsMissing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Cell
		want bool
	}{
		{"nil", nil, true},
		{"nan", math.NaN(), true},
		{"zero float", 0.0, false},
		{"empty string", "", false},
		{"string", "x", false},
		{"int", int64(0), false},
		{"time", time.Time{}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsMissing(tt.in); got != tt.want {
				t.Fatalf("IsMissing(%v)=%v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestFormatCell verifies egress rendering of every cell type.
func TestFormatCell(t *testing.T) {
	t.Parallel()

	ts := time.Date(2019, 4, 8, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		in     Cell
		layout string
		want   string
	}{
		{"missing", nil, "", ""},
		{"nan is missing", math.NaN(), "", ""},
		{"string", "hello", "", "hello"},
		{"int", int64(-42), "", "-42"},
		{"float", 2.5, "", "2.5"},
		{"time with layout", ts, "%m/%d/%y %H:%M", "04/08/19 14:30"},
		{"time without layout", ts, "", "2019-04-08T14:30:00Z"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatCell(tt.in, tt.layout); got != tt.want {
				t.Fatalf("FormatCell=%q, want %q", got, tt.want)
			}
		})
	}
}

// TestReadCSV verifies ingestion: header handling, empty-field-to-missing,
// BOM strip, delimiter choice, and ragged-row alignment.
func TestReadCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "in.csv")
	data := "\uFEFFA;B;C\n1;;3\nshort\n1;2;3;extra\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadCSV(path, ';', "utf-8")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}

	if !reflect.DeepEqual(tbl.Columns, []string{"A", "B", "C"}) {
		t.Fatalf("Columns=%v (BOM not stripped?)", tbl.Columns)
	}
	if tbl.NumRows() != 3 {
		t.Fatalf("NumRows=%d", tbl.NumRows())
	}
	if tbl.Rows[0][1] != nil {
		t.Fatalf("empty field ingested as %#v, want missing", tbl.Rows[0][1])
	}
	if !reflect.DeepEqual(tbl.Rows[1], []Cell{"short", nil, nil}) {
		t.Fatalf("short row not padded: %v", tbl.Rows[1])
	}
	if !reflect.DeepEqual(tbl.Rows[2], []Cell{"1", "2", "3"}) {
		t.Fatalf("long row not truncated: %v", tbl.Rows[2])
	}
}

// TestReadCSVMissingFile verifies open failure propagates (fatal to the run).
func TestReadCSVMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"), ',', "utf-8")
	if err == nil {
		t.Fatalf("ReadCSV on missing file returned nil error")
	}
}

// TestReadCSVLatin1 verifies the encoding_in decoder path.
func TestReadCSVLatin1(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "latin1.csv")
	// "café" in Latin-1: é is byte 0xE9.
	data := []byte("name\ncaf\xe9\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadCSV(path, ',', "latin-1")
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if tbl.Rows[0][0] != "café" {
		t.Fatalf("cell=%q, want decoded café", tbl.Rows[0][0])
	}
}

// TestReadCSVUnknownEncoding verifies unsupported encodings are rejected.
func TestReadCSVUnknownEncoding(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "x.csv")
	if err := os.WriteFile(path, []byte("A\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadCSV(path, ',', "ebcdic"); err == nil {
		t.Fatalf("unsupported encoding accepted")
	}
}

// TestWriteCSVRoundTrip verifies the idempotency property: reading a table
// and writing it back with no cleaning yields the same bytes (modulo
// delimiter formatting), and a second round trip is identical.
func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	content := "A,B,C\n1,,3\nx,y,z\n"
	if err := os.WriteFile(in, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadCSV(in, ',', "utf-8")
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "sub", "out.csv")
	if err := tbl.WriteCSV(out, ','); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != content {
		t.Fatalf("round trip changed bytes:\n got %q\nwant %q", got, content)
	}

	// Second trip through memory must be identical too.
	tbl2, err := ReadCSV(out, ',', "utf-8")
	if err != nil {
		t.Fatal(err)
	}
	out2 := filepath.Join(dir, "out2.csv")
	if err := tbl2.WriteCSV(out2, ','); err != nil {
		t.Fatal(err)
	}
	got2, err := os.ReadFile(out2)
	if err != nil {
		t.Fatal(err)
	}
	if string(got2) != content {
		t.Fatalf("second round trip changed bytes: %q", got2)
	}
}

// TestWriteCSVDatetimeLayout verifies datetimes render back through their
// recorded source layout.
func TestWriteCSVDatetimeLayout(t *testing.T) {
	t.Parallel()

	tbl := New("When")
	tbl.Rows = [][]Cell{{time.Date(2019, 4, 8, 14, 30, 0, 0, time.UTC)}}
	tbl.SetLayout("When", "%m/%d/%y %H:%M")

	out := filepath.Join(t.TempDir(), "dt.csv")
	if err := tbl.WriteCSV(out, ','); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "When\n04/08/19 14:30\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
