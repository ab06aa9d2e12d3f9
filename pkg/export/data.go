package export

import (
	"io"

	"github.com/matzehuels/decomptree/pkg/table"
	"github.com/matzehuels/decomptree/pkg/tree"
)

// WriteNodeCSV exports the raw rows folded into one node as CSV with a
// union-of-fields header. A nil node (nothing selected) writes nothing and
// returns nil.
func WriteNodeCSV(w io.Writer, n *tree.Node) error {
	if n == nil {
		return nil
	}
	return table.WriteRowsCSV(w, n.Rows)
}

// WriteNodeCSVForSpreadsheet is WriteNodeCSV with a UTF-8 BOM so Excel picks
// the right encoding when the file is opened directly.
func WriteNodeCSVForSpreadsheet(w io.Writer, n *tree.Node) error {
	if n == nil {
		return nil
	}
	return table.WriteRowsCSVForSpreadsheet(w, n.Rows)
}

// WriteSubtreeJSON exports one node and its descendants as indented JSON with
// raw rows excluded. A nil node is a no-op.
func WriteSubtreeJSON(w io.Writer, n *tree.Node) error {
	if n == nil {
		return nil
	}
	data, err := tree.MarshalSubtree(n)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteTableCSV exports the full input table.
func WriteTableCSV(w io.Writer, t *table.Table) error {
	return t.WriteCSV(w)
}

// WriteTreeJSON exports the full serialized tree, raw rows embedded, falling
// back to a raw-less document when embedding fails. It reports whether the
// fallback was taken.
func WriteTreeJSON(w io.Writer, root *tree.Node) (bool, error) {
	data, fellBack, err := tree.Marshal(root)
	if err != nil {
		return fellBack, err
	}
	_, err = w.Write(data)
	return fellBack, err
}
