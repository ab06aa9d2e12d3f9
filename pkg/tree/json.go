package tree

import (
	json "github.com/goccy/go-json"

	"github.com/matzehuels/decomptree/pkg/table"
)

// TreeJSON is the transport shape of an aggregation tree. It mirrors the node
// fields with snake_case keys and embeds each node's raw rows as JSON-safe
// records.
type TreeJSON struct {
	Name        string            `json:"name"`
	Value       float64           `json:"value"`
	Percentage  int               `json:"percentage"`
	Level       int               `json:"level"`
	Column      string            `json:"column,omitempty"`
	NodeValue   string            `json:"node_value,omitempty"`
	TooltipData map[string]string `json:"tooltip_data"`
	Color       string            `json:"color"`
	Children    []*TreeJSON       `json:"children,omitempty"`
	RawData     []map[string]any  `json:"raw_data"`
}

// SubtreeJSON is the raw-less export shape used for per-node subtree
// downloads: structure and display data only, no embedded records.
type SubtreeJSON struct {
	Name        string            `json:"name"`
	Value       float64           `json:"value"`
	Level       int               `json:"level"`
	Column      string            `json:"column,omitempty"`
	NodeValue   string            `json:"node_value,omitempty"`
	Color       string            `json:"color"`
	TooltipData map[string]string `json:"tooltip_data"`
	Children    []*SubtreeJSON    `json:"children"`
}

// ToJSON converts the subtree to its transport shape, raw rows included.
func (n *Node) ToJSON() *TreeJSON {
	out := &TreeJSON{
		Name:        n.Name,
		Value:       n.Value,
		Percentage:  n.Percentage,
		Level:       n.Level,
		Column:      n.Column,
		NodeValue:   n.NodeValue,
		TooltipData: n.TooltipData,
		Color:       n.Color,
		RawData:     make([]map[string]any, 0, len(n.Rows)),
	}
	if out.TooltipData == nil {
		out.TooltipData = map[string]string{}
	}
	for _, row := range n.Rows {
		out.RawData = append(out.RawData, row.JSON())
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, child.ToJSON())
	}
	return out
}

// ToSubtreeJSON converts the subtree to the raw-less export shape.
func (n *Node) ToSubtreeJSON() *SubtreeJSON {
	out := &SubtreeJSON{
		Name:        n.Name,
		Value:       n.Value,
		Level:       n.Level,
		Column:      n.Column,
		NodeValue:   n.NodeValue,
		Color:       n.Color,
		TooltipData: n.TooltipData,
		Children:    []*SubtreeJSON{},
	}
	if out.TooltipData == nil {
		out.TooltipData = map[string]string{}
	}
	for _, child := range n.Children {
		out.Children = append(out.Children, child.ToSubtreeJSON())
	}
	return out
}

// Marshal serializes the tree with embedded raw rows. If serialization fails
// (a non-serializable embedded value), it falls back to emitting the tree
// with raw_data elided instead of failing the whole export. The second return
// reports whether the fallback was taken.
func Marshal(root *Node) ([]byte, bool, error) {
	data, err := json.Marshal(root.ToJSON())
	if err == nil {
		return data, false, nil
	}

	stripped := root.ToJSON()
	elideRaw(stripped)
	data, fallbackErr := json.Marshal(stripped)
	if fallbackErr != nil {
		return nil, true, err
	}
	return data, true, nil
}

// MarshalSubtree serializes one node and its descendants without raw rows.
func MarshalSubtree(n *Node) ([]byte, error) {
	return json.MarshalIndent(n.ToSubtreeJSON(), "", "  ")
}

// UnmarshalTree parses a serialized tree back into its transport shape.
func UnmarshalTree(data []byte) (*TreeJSON, error) {
	var t TreeJSON
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// FromJSON rebuilds a Node tree from its transport shape, reversing ToJSON.
// Raw rows are retyped through [table.FromJSON], so a tree that round-trips
// the cache carries the same typed records as a fresh aggregation.
func FromJSON(t *TreeJSON) *Node {
	n := &Node{
		Name:        t.Name,
		Column:      t.Column,
		NodeValue:   t.NodeValue,
		Value:       t.Value,
		Count:       len(t.RawData),
		Percentage:  t.Percentage,
		Level:       t.Level,
		TooltipData: t.TooltipData,
		Color:       t.Color,
	}
	if n.TooltipData == nil {
		n.TooltipData = map[string]string{}
	}
	for _, record := range t.RawData {
		row := make(table.Row, len(record))
		for field, v := range record {
			row[field] = table.FromJSON(v)
		}
		n.Rows = append(n.Rows, row)
	}
	for _, child := range t.Children {
		n.Children = append(n.Children, FromJSON(child))
	}
	return n
}

func elideRaw(t *TreeJSON) {
	t.RawData = []map[string]any{}
	for _, child := range t.Children {
		elideRaw(child)
	}
}
