package errors

import "regexp"

// ValidateHierarchy checks the ordered column list an aggregation runs over.
// An empty hierarchy is a configuration error the caller must surface before
// any tree is built; duplicate columns would assign two levels to one column.
func ValidateHierarchy(hierarchy []string) error {
	if len(hierarchy) == 0 {
		return New(ErrCodeInvalidHierarchy, "hierarchy must name at least one column")
	}
	seen := make(map[string]struct{}, len(hierarchy))
	for _, col := range hierarchy {
		if col == "" {
			return New(ErrCodeInvalidHierarchy, "hierarchy contains an empty column name")
		}
		if _, dup := seen[col]; dup {
			return New(ErrCodeInvalidHierarchy, "hierarchy lists column %q twice", col)
		}
		seen[col] = struct{}{}
	}
	return nil
}

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateHexColor checks a display color string ("#RGB" or "#RRGGBB").
func ValidateHexColor(color string) error {
	if !hexColorRe.MatchString(color) {
		return New(ErrCodeInvalidConfig, "invalid hex color %q", color)
	}
	return nil
}

// ValidateScale checks the raster export scale factor.
func ValidateScale(scale int) error {
	if scale < 1 || scale > 6 {
		return New(ErrCodeInvalidScale, "export scale must be between 1 and 6, got %d", scale)
	}
	return nil
}
