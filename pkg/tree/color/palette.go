package color

// Palettes are the named level-color presets for by-level coloring. A
// hierarchy deeper than a palette wraps around.
var Palettes = map[string][]string{
	"Category10 (d3)": {
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	},
	"Tableau10": {
		"#4E79A7", "#F28E2B", "#E15759", "#76B7B2", "#59A14F",
		"#EDC948", "#B07AA1", "#FF9DA7", "#9C755F", "#BAB0AC",
	},
	"Okabe-Ito (colorblind-safe)": {
		"#0072B2", "#E69F00", "#009E73", "#D55E00", "#CC79A7",
		"#F0E442", "#56B4E9", "#000000",
	},
	"Set2": {
		"#66C2A5", "#FC8D62", "#8DA0CB", "#E78AC3", "#A6D854",
		"#FFD92F", "#E5C494", "#B3B3B3",
	},
	"Pastel1": {
		"#FBB4AE", "#B3CDE3", "#CCEBC5", "#DECBE4", "#FED9A6",
		"#FFFFCC", "#E5D8BD", "#FDDAEC", "#F2F2F2",
	},
}

// DefaultPalette is the palette used when by-level mode names none.
const DefaultPalette = "Category10 (d3)"

// LevelColorsFromPalette expands a named palette to a per-level color map
// covering the given number of hierarchy levels, wrapping when the hierarchy
// is deeper than the palette. Unknown palette names use DefaultPalette.
func LevelColorsFromPalette(name string, levels int) map[int]string {
	palette, ok := Palettes[name]
	if !ok {
		palette = Palettes[DefaultPalette]
	}
	out := make(map[int]string, levels)
	for lvl := 0; lvl < levels; lvl++ {
		out[lvl] = palette[lvl%len(palette)]
	}
	return out
}
