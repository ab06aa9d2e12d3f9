package errors

import (
	stderrors "errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "WithoutCause",
			err:  New(ErrCodeInvalidHierarchy, "hierarchy must name at least one column"),
			want: "INVALID_HIERARCHY: hierarchy must name at least one column",
		},
		{
			name: "WithCause",
			err:  Wrap(ErrCodeInternal, stderrors.New("boom"), "render svg"),
			want: "INTERNAL_ERROR: render svg: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAndGetCode(t *testing.T) {
	base := New(ErrCodeInvalidScale, "export scale must be between 1 and 6, got 9")
	wrapped := Wrap(ErrCodeInternal, base, "export failed")

	if !Is(base, ErrCodeInvalidScale) {
		t.Error("Is() should match the error's own code")
	}
	if Is(base, ErrCodeNotFound) {
		t.Error("Is() should not match a different code")
	}
	// The outermost code wins when wrapping.
	if got := GetCode(wrapped); got != ErrCodeInternal {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeInternal)
	}
	if GetCode(stderrors.New("plain")) != "" {
		t.Error("GetCode() on a plain error should be empty")
	}
}

func TestValidateHierarchy(t *testing.T) {
	tests := []struct {
		name      string
		hierarchy []string
		wantCode  Code
	}{
		{"Empty", nil, ErrCodeInvalidHierarchy},
		{"EmptyColumn", []string{"Region", ""}, ErrCodeInvalidHierarchy},
		{"Duplicate", []string{"Region", "Status", "Region"}, ErrCodeInvalidHierarchy},
		{"Valid", []string{"Region", "Status"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHierarchy(tt.hierarchy)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("ValidateHierarchy() = %v, want nil", err)
				}
				return
			}
			if !Is(err, tt.wantCode) {
				t.Errorf("ValidateHierarchy() = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestValidateHexColor(t *testing.T) {
	for _, valid := range []string{"#3B82F6", "#fff", "#000000"} {
		if err := ValidateHexColor(valid); err != nil {
			t.Errorf("ValidateHexColor(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "3B82F6", "#12", "#12345G", "blue"} {
		if err := ValidateHexColor(invalid); err == nil {
			t.Errorf("ValidateHexColor(%q) = nil, want error", invalid)
		}
	}
}

func TestValidateScale(t *testing.T) {
	for scale := 1; scale <= 6; scale++ {
		if err := ValidateScale(scale); err != nil {
			t.Errorf("ValidateScale(%d) = %v, want nil", scale, err)
		}
	}
	for _, scale := range []int{0, -1, 7, 100} {
		if !Is(ValidateScale(scale), ErrCodeInvalidScale) {
			t.Errorf("ValidateScale(%d) should fail with INVALID_SCALE", scale)
		}
	}
}
