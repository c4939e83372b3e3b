package builtins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ai-SPB-Holding/DataCode-sub002/internal/value"
)

func TestWriteCsvThenReadCsvRoundTrips(t *testing.T) {
	io := ioBuiltins()
	tbl := value.NewTable([]string{"name", "age"})
	if err := tbl.AppendRow([]value.Value{value.String("ada"), value.Number(30)}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
	if err := tbl.AppendRow([]value.Value{value.String("linus"), value.Number(40)}); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}

	path := filepath.Join(t.TempDir(), "people.csv")
	if _, err := io["write_csv"].Call([]value.Value{value.FromTable(tbl), value.String(path)}); err != nil {
		t.Fatalf("write_csv: %v", err)
	}

	result := call(t, io, "read_csv", value.String(path))
	got := result.Tbl
	if got.NumRows() != 2 || got.NumCols() != 2 {
		t.Fatalf("read_csv shape = %dx%d, want 2x2", got.NumRows(), got.NumCols())
	}
	ageCell, ok := got.Get(0, "age")
	if !ok || ageCell.Num != 30 {
		t.Errorf("age[0] = %v, want 30", ageCell)
	}
	nameCell, _ := got.Get(1, "name")
	if nameCell.Str != "linus" {
		t.Errorf("name[1] = %q, want linus", nameCell.Str)
	}
}

func TestReadCsvMissingFileErrors(t *testing.T) {
	io := ioBuiltins()
	if _, err := io["read_csv"].Call([]value.Value{value.String("/nonexistent/path.csv")}); err == nil {
		t.Fatal("expected error reading a missing file")
	}
}

func TestCellValueParsesNumbersAndBooleans(t *testing.T) {
	if v := cellValue("3.14"); v.Kind != value.KindNumber || v.Num != 3.14 {
		t.Errorf("cellValue(3.14) = %v", v)
	}
	if v := cellValue("true"); v.Kind != value.KindBool || !v.Bool {
		t.Errorf("cellValue(true) = %v", v)
	}
	if v := cellValue("hello"); v.Kind != value.KindString || v.Str != "hello" {
		t.Errorf("cellValue(hello) = %v", v)
	}
}

func TestWriteCsvRejectsNonTable(t *testing.T) {
	io := ioBuiltins()
	if _, err := io["write_csv"].Call([]value.Value{value.Number(1), value.String(filepath.Join(os.TempDir(), "x.csv"))}); err == nil {
		t.Fatal("expected error writing a non-table")
	}
}
