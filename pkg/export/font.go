package export

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// TextMeasurer reports the rendered width of a label string in user units.
// Bounds computation and both image sinks share one measurer so the box
// always fits what actually gets drawn.
type TextMeasurer interface {
	Width(s string) float64
}

// FontSet lazily builds font faces for the Go font family at the sizes the
// exporter needs. Faces are cached; a FontSet is safe for concurrent use.
type FontSet struct {
	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// NewFontSet creates an empty face cache.
func NewFontSet() *FontSet {
	return &FontSet{faces: map[faceKey]font.Face{}}
}

// Face returns the cached face for a size/weight combination.
func (fs *FontSet) Face(size float64, bold bool) (font.Face, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	key := faceKey{size: size, bold: bold}
	if face, ok := fs.faces[key]; ok {
		return face, nil
	}

	ttf := goregular.TTF
	if bold {
		ttf = gobold.TTF
	}
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	fs.faces[key] = face
	return face, nil
}

// Measurer returns a TextMeasurer for the style's font size and weight.
func (fs *FontSet) Measurer(style Style) (TextMeasurer, error) {
	face, err := fs.Face(style.FontSize, style.Bold())
	if err != nil {
		return nil, err
	}
	return faceMeasurer{face: face}, nil
}

type faceMeasurer struct {
	face font.Face
}

func (m faceMeasurer) Width(s string) float64 {
	return float64(font.MeasureString(m.face, s)) / 64
}

// FixedMeasurer measures every rune at a constant width. Used in tests and as
// a degraded fallback when face construction fails.
type FixedMeasurer struct {
	PerRune float64
}

func (m FixedMeasurer) Width(s string) float64 {
	return float64(len([]rune(s))) * m.PerRune
}
