package table

import (
	"bytes"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	in := strings.Join([]string{
		"Region,Status,Delay_Days,Planned_OnAir_Date",
		"North,Delayed,3,2024-03-01",
		"South,On-Time,,2024-03-02",
		`"East, Inc",Pending,nan,`,
	}, "\n")

	tbl, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}
	if got := tbl.Rows[0].Get("Delay_Days"); got.Kind() != KindNumber {
		t.Errorf("Delay_Days kind = %v, want number", got.Kind())
	}
	if got := tbl.Rows[0].Get("Planned_OnAir_Date"); got.Kind() != KindTime {
		t.Errorf("date kind = %v, want time", got.Kind())
	}
	if !tbl.Rows[1].Get("Delay_Days").IsNull() {
		t.Error("empty cell should be null")
	}
	if !tbl.Rows[2].Get("Delay_Days").IsNull() {
		t.Error("nan cell should be null")
	}
	if got := tbl.Rows[2].Get("Region").String(); got != "East, Inc" {
		t.Errorf("quoted field = %q, want %q", got, "East, Inc")
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	tbl := New("Region", "Note")
	tbl.Append(Row{"Region": String("North"), "Note": String(`contains "quotes", commas`)})
	tbl.Append(Row{"Region": String("South"), "Note": Null()})

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if got := back.Rows[0].Get("Note").String(); got != `contains "quotes", commas` {
		t.Errorf("round-tripped field = %q", got)
	}
	if !back.Rows[1].Get("Note").IsNull() {
		t.Error("empty cell should read back as null")
	}
}

func TestWriteRowsCSVUnionHeader(t *testing.T) {
	rows := []Row{
		{"Region": String("North"), "Status": String("Delayed")},
		{"Region": String("South"), "PIC": String("Kim")},
	}

	var buf bytes.Buffer
	if err := WriteRowsCSV(&buf, rows); err != nil {
		t.Fatalf("WriteRowsCSV() error: %v", err)
	}
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	if header != "PIC,Region,Status" {
		t.Errorf("header = %q, want union of all fields sorted", header)
	}
}

func TestWriteRowsCSVForSpreadsheet(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRowsCSVForSpreadsheet(&buf, []Row{{"Region": String("North")}})
	if err != nil {
		t.Fatalf("WriteRowsCSVForSpreadsheet() error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), utf8BOM) {
		t.Error("spreadsheet variant should start with a UTF-8 BOM")
	}
}
