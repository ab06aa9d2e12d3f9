package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/decomptree/pkg/layout"
	"github.com/matzehuels/decomptree/pkg/tree"
)

// WriteSVG renders the laid-out tree as a standalone SVG document. The
// viewBox holds the unscaled canvas; width and height carry the scale factor
// so raster conversions come out at the requested resolution.
func WriteSVG(w io.Writer, l *layout.Layout, style Style, m TextMeasurer) error {
	if err := style.Validate(); err != nil {
		return err
	}
	bounds := ComputeBounds(l, style, m)
	frame := Frame(bounds, style)

	canvas := svg.New(w)
	canvas.Start(frame.Width*style.Scale, frame.Height*style.Scale,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, frame.Width, frame.Height))
	if style.Background == BackgroundWhite {
		canvas.Rect(0, 0, frame.Width, frame.Height, "fill:#ffffff")
	}

	linkStyle := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s;stroke-opacity:%s",
		style.LineColor, ftoa(style.LineWidth), ftoa(style.LineOpacity))
	for _, link := range l.Links {
		canvas.Path(linkPath(link, frame), linkStyle)
	}

	for _, n := range l.Nodes {
		drawShapeSVG(canvas, n, frame, style)
	}

	textStyle := fmt.Sprintf(
		"text-anchor:middle;font-family:Calibri,Arial,sans-serif;font-size:%spx;font-weight:%d;fill:#111",
		ftoa(style.FontSize), style.FontWeight)
	for _, n := range l.Nodes {
		x := n.Y + frame.OffsetX
		// Label baseline sits half an em above the glyph center.
		y := n.X + frame.OffsetY - style.FontSize/2
		canvas.Text(round(x), round(y), tree.FormatLabel(n.Node, style.LabelMode), textStyle)
	}

	for _, o := range groupOutlines(l, style) {
		canvas.Path(roundedRectPath(o.x+frame.OffsetX, o.y+frame.OffsetY, o.width, o.height, outlineRadius),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s;stroke-dasharray:%s;opacity:%s",
				o.color, ftoa(outlineStrokeWidth), outlineDash, ftoa(style.OutlineOpacity)))
	}

	canvas.End()
	return nil
}

// linkPath produces the cubic curve between parent and child, bowing
// horizontally with control points at the depth midway.
func linkPath(link layout.Link, frame Canvas) string {
	sx := link.Source.Y + frame.OffsetX
	sy := link.Source.X + frame.OffsetY
	tx := link.Target.Y + frame.OffsetX
	ty := link.Target.X + frame.OffsetY
	mx := (sx + tx) / 2
	return fmt.Sprintf("M%s,%s C%s,%s %s,%s %s,%s",
		ftoa(sx), ftoa(sy), ftoa(mx), ftoa(sy), ftoa(mx), ftoa(ty), ftoa(tx), ftoa(ty))
}

func drawShapeSVG(canvas *svg.SVG, n *layout.PlacedNode, frame Canvas, style Style) {
	cx := n.Y + frame.OffsetX
	cy := n.X + frame.OffsetY
	size := style.NodeSize
	fill := n.Node.Color
	if fill == "" {
		fill = "#CBD5E1"
	}
	shapeStyle := fmt.Sprintf("fill:%s;stroke:#fff;stroke-width:3", fill)

	switch style.Shape {
	case ShapeSquare:
		canvas.Rect(round(cx-size), round(cy-size), round(2*size), round(2*size), shapeStyle+";rx:2")
	case ShapeDiamond:
		canvas.Path(polygonPath(diamondPoints(cx, cy, size)), shapeStyle)
	case ShapeTriangle:
		canvas.Path(polygonPath(trianglePoints(cx, cy, size)), shapeStyle)
	case ShapeStar:
		canvas.Path(polygonPath(starPoints(cx, cy, size)), shapeStyle)
	default:
		canvas.Circle(round(cx), round(cy), round(size), shapeStyle)
	}
}

type point struct{ x, y float64 }

func diamondPoints(cx, cy, s float64) []point {
	return []point{{cx, cy - s}, {cx + s, cy}, {cx, cy + s}, {cx - s, cy}}
}

func trianglePoints(cx, cy, s float64) []point {
	return []point{{cx, cy - s}, {cx - s, cy + s}, {cx + s, cy + s}}
}

// starPoints alternates the full radius with half radius over ten spokes.
func starPoints(cx, cy, s float64) []point {
	out := make([]point, 0, 10)
	for i := 0; i < 10; i++ {
		angle := float64(i) * math.Pi / 5
		r := s
		if i%2 == 1 {
			r = s * 0.5
		}
		out = append(out, point{cx + math.Cos(angle)*r, cy + math.Sin(angle)*r})
	}
	return out
}

func polygonPath(points []point) string {
	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(ftoa(p.x))
		b.WriteString(",")
		b.WriteString(ftoa(p.y))
	}
	b.WriteString(" Z")
	return b.String()
}

// roundedRectPath draws a rectangle with rounded corners as a path so the
// dashes run along the full perimeter.
func roundedRectPath(x, y, width, height, radius float64) string {
	r := math.Min(radius, math.Min(width/2, height/2))
	return fmt.Sprintf(
		"M %s,%s H %s A %s,%s 0 0 1 %s,%s V %s A %s,%s 0 0 1 %s,%s H %s A %s,%s 0 0 1 %s,%s V %s A %s,%s 0 0 1 %s,%s Z",
		ftoa(x+r), ftoa(y),
		ftoa(x+width-r),
		ftoa(r), ftoa(r), ftoa(x+width), ftoa(y+r),
		ftoa(y+height-r),
		ftoa(r), ftoa(r), ftoa(x+width-r), ftoa(y+height),
		ftoa(x+r),
		ftoa(r), ftoa(r), ftoa(x), ftoa(y+height-r),
		ftoa(y+r),
		ftoa(r), ftoa(r), ftoa(x+r), ftoa(y),
	)
}

func ftoa(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func round(f float64) int {
	return int(math.Round(f))
}
