package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/tree"
)

// WritePNG rasterizes the laid-out tree. The context is allocated at
// scale-times the canvas size and drawn in canvas units, so every stroke and
// glyph renders at native resolution instead of being upsampled.
func WritePNG(w io.Writer, l *layout.Layout, style Style, fonts *FontSet) error {
	if err := style.Validate(); err != nil {
		return err
	}
	m, err := fonts.Measurer(style)
	if err != nil {
		return err
	}
	bounds := ComputeBounds(l, style, m)
	frame := Frame(bounds, style)

	dc := gg.NewContext(frame.Width*style.Scale, frame.Height*style.Scale)
	dc.Scale(float64(style.Scale), float64(style.Scale))

	if style.Background == BackgroundWhite {
		dc.SetHexColor("#ffffff")
		dc.Clear()
	}

	lr, lg, lb := hexRGB(style.LineColor)
	for _, link := range l.Links {
		sx := link.Source.Y + frame.OffsetX
		sy := link.Source.X + frame.OffsetY
		tx := link.Target.Y + frame.OffsetX
		ty := link.Target.X + frame.OffsetY
		mx := (sx + tx) / 2

		dc.MoveTo(sx, sy)
		dc.CubicTo(mx, sy, mx, ty, tx, ty)
		dc.SetRGBA(lr, lg, lb, style.LineOpacity)
		dc.SetLineWidth(style.LineWidth)
		dc.Stroke()
	}

	for _, n := range l.Nodes {
		drawShapePNG(dc, n, frame, style)
	}

	face, err := fonts.Face(style.FontSize, style.Bold())
	if err != nil {
		return err
	}
	dc.SetFontFace(face)
	dc.SetHexColor("#111111")
	for _, n := range l.Nodes {
		cx := n.Y + frame.OffsetX
		baseline := n.X + frame.OffsetY - style.FontSize/2
		dc.DrawStringAnchored(tree.FormatLabel(n.Node, style.LabelMode), cx, baseline, 0.5, 0)
	}

	for _, o := range groupOutlines(l, style) {
		or, og, ob := hexRGB(o.color)
		dc.DrawRoundedRectangle(o.x+frame.OffsetX, o.y+frame.OffsetY, o.width, o.height, outlineRadius)
		dc.SetRGBA(or, og, ob, style.OutlineOpacity)
		dc.SetLineWidth(outlineStrokeWidth)
		dc.SetDash(8, 6)
		dc.Stroke()
		dc.SetDash()
	}

	return dc.EncodePNG(w)
}

func drawShapePNG(dc *gg.Context, n *layout.PlacedNode, frame Canvas, style Style) {
	cx := n.Y + frame.OffsetX
	cy := n.X + frame.OffsetY
	size := style.NodeSize
	fill := n.Node.Color
	if fill == "" {
		fill = "#CBD5E1"
	}

	switch style.Shape {
	case ShapeSquare:
		dc.DrawRoundedRectangle(cx-size, cy-size, 2*size, 2*size, 2)
	case ShapeDiamond:
		tracePolygon(dc, diamondPoints(cx, cy, size))
	case ShapeTriangle:
		tracePolygon(dc, trianglePoints(cx, cy, size))
	case ShapeStar:
		tracePolygon(dc, starPoints(cx, cy, size))
	default:
		dc.DrawCircle(cx, cy, size)
	}

	dc.SetHexColor(fill)
	dc.FillPreserve()
	dc.SetHexColor("#ffffff")
	dc.SetLineWidth(3)
	dc.Stroke()
}

func tracePolygon(dc *gg.Context, points []point) {
	for i, p := range points {
		if i == 0 {
			dc.MoveTo(p.x, p.y)
		} else {
			dc.LineTo(p.x, p.y)
		}
	}
	dc.ClosePath()
}

// hexRGB parses #rgb or #rrggbb into unit-range channels. Invalid input
// yields black rather than an error; colors reaching the renderers have
// already been validated upstream.
func hexRGB(hex string) (r, g, b float64) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0
	}
	parse := func(component string) float64 {
		v, err := strconv.ParseUint(component, 16, 8)
		if err != nil {
			return 0
		}
		return float64(v) / 255
	}
	return parse(s[0:2]), parse(s[2:4]), parse(s[4:6])
}
