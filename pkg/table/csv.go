package table

import (
	"encoding/csv"
	"io"
	"os"
	"slices"
)

// ReadCSV parses a CSV stream into a table. The first record is the header;
// every cell goes through [Parse] so dates and numbers come out typed.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}

	t := New(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = Parse(record[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ReadCSVFile loads a table from a CSV file on disk.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes the table with its own column order as header. encoding/csv
// quotes fields containing commas, quotes, or newlines per RFC 4180, which is
// the escaping contract for every data export.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			v := row.Get(col)
			if v.IsNull() {
				record[i] = ""
			} else {
				record[i] = v.String()
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRowsCSV writes an arbitrary row set with a sorted union-of-fields
// header, so repeated exports of the same rows produce identical files. This
// is the shape of the per-node data export, where rows from different
// subtrees may carry different field sets.
func WriteRowsCSV(w io.Writer, rows []Row) error {
	var header []string
	for _, row := range rows {
		for field := range row {
			if !slices.Contains(header, field) {
				header = append(header, field)
			}
		}
	}
	slices.Sort(header)

	out := &Table{Columns: header, Rows: rows}
	return out.WriteCSV(w)
}

// utf8BOM marks CSV output so spreadsheet applications detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteRowsCSVForSpreadsheet is WriteRowsCSV with a UTF-8 BOM prefix, the
// variant offered for opening directly in Excel.
func WriteRowsCSVForSpreadsheet(w io.Writer, rows []Row) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	return WriteRowsCSV(w, rows)
}
