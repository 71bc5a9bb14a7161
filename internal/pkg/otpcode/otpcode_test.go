package otpcode

import "testing"

func TestNewNumericFallsBackToDefaultWidth(t *testing.T) {
	for _, digits := range []int{-1, 0, 3, 11} {
		code, err := NewNumeric(digits).Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(code) != DefaultDigits {
			t.Errorf("NewNumeric(%d) generated %q, want %d digits", digits, code, DefaultDigits)
		}
	}
}

func TestGenerateWidthAndCharset(t *testing.T) {
	for digits := 4; digits <= 10; digits++ {
		gen := NewNumeric(digits)
		for range 20 {
			code, err := gen.Generate()
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(code) != digits {
				t.Fatalf("Generate() = %q, want %d characters", code, digits)
			}
			for _, r := range code {
				if r < '0' || r > '9' {
					t.Fatalf("Generate() = %q, contains non-digit %q", code, r)
				}
			}
		}
	}
}

func TestGenerateIsNotConstant(t *testing.T) {
	gen := NewNumeric(6)
	seen := make(map[string]struct{})
	for range 50 {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Errorf("50 generated codes produced %d distinct values", len(seen))
	}
}
