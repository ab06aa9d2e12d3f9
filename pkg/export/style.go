// Package export renders a laid-out tree to shareable artifacts: SVG and PNG
// images with tight computed bounds, DOT for Graphviz, per-node raw-data CSV,
// subtree JSON, and the full-table CSV.
//
// # Overview
//
// Image export starts from a bounding box over every visible glyph and label
// ([ComputeBounds]), adds a fixed margin, and renders the same scene through
// one of two sinks: a vector sink ([WriteSVG], via svgo) and a raster sink
// ([WritePNG], via gg). Both honor the same [Style], the same transparent or
// white background choice, and the same integer scale factor, so the four
// image variants differ only in encoding.
//
// # Complete tree vs current view
//
// [Snapshot] captures either the live, possibly-collapsed layout or a fresh
// force-expanded copy of the whole tree. The current-view bounding box is
// never larger than the complete-tree one for the same data.
package export

import (
	"github.com/matzehuels/decomptree/pkg/errors"
	"github.com/matzehuels/decomptree/pkg/tree"
)

// Shape selects the glyph drawn for each node.
type Shape string

// Node shapes.
const (
	ShapeCircle   Shape = "Circle"
	ShapeSquare   Shape = "Square"
	ShapeDiamond  Shape = "Diamond"
	ShapeTriangle Shape = "Triangle"
	ShapeStar     Shape = "Star"
)

// Background selects the canvas fill behind the tree.
type Background string

// Backgrounds.
const (
	BackgroundTransparent Background = "transparent"
	BackgroundWhite       Background = "white"
)

// Style carries every visual knob the renderers honor. The zero value is not
// useful; start from [DefaultStyle].
type Style struct {
	NodeSize    float64 // glyph radius (circles) or half-extent (other shapes)
	Shape       Shape
	LineWidth   float64
	LineColor   string
	LineOpacity float64
	FontSize    float64
	FontWeight  int // CSS-style weight; >= 600 renders bold
	LabelMode   tree.LabelMode

	// Group outlines: rounded dashed boxes around each subtree rooted at
	// OutlineLevel, stroked in the subtree root's color.
	ShowGroupOutlines bool
	OutlineLevel      int
	OutlineOpacity    float64

	Scale      int // integer raster scale factor, 1 to 6
	Background Background
}

// DefaultStyle mirrors the interactive defaults.
func DefaultStyle() Style {
	return Style{
		NodeSize:       17,
		Shape:          ShapeCircle,
		LineWidth:      3,
		LineColor:      "#9CA3AF",
		LineOpacity:    0.7,
		FontSize:       13,
		FontWeight:     600,
		LabelMode:      tree.LabelValuePercentage,
		OutlineOpacity: 0.25,
		Scale:          3,
		Background:     BackgroundTransparent,
	}
}

// Validate checks the style's constrained fields.
func (s Style) Validate() error {
	if err := errors.ValidateScale(s.Scale); err != nil {
		return err
	}
	switch s.Shape {
	case ShapeCircle, ShapeSquare, ShapeDiamond, ShapeTriangle, ShapeStar:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown node shape %q", s.Shape)
	}
	switch s.Background {
	case BackgroundTransparent, BackgroundWhite:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown background %q", s.Background)
	}
	return nil
}

// Bold reports whether labels render in the bold face.
func (s Style) Bold() bool { return s.FontWeight >= 600 }
