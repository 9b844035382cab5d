// ABOUTME: Tests for version constants
// ABOUTME: Ensures version information is properly defined
package version

import (
	"strings"
	"testing"
)

func TestConstantsDefined(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	// Check for common placeholder values
	placeholders := []string{"TODO", "FIXME", "XXX", "placeholder"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s should not be empty", tt.name)
			}
			if len(tt.value) > 100 {
				t.Errorf("%s is unreasonably long", tt.name)
			}
			for _, placeholder := range placeholders {
				if tt.value == placeholder {
					t.Errorf("%s should not be placeholder value: %s", tt.name, placeholder)
				}
			}
		})
	}
}

func TestString(t *testing.T) {
	s := String()
	for _, part := range []string{Product, Version, Manufacturer} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, missing %q", s, part)
		}
	}
}
