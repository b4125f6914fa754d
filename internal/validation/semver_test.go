package validation

import "testing"

func TestNormalizeVersion(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1.2.0", "1.2.0"},
		{"v1.2.0", "1.2.0"},
		{"1.2", "1.2.0"},
		{"2.0.0-beta.1", "2.0.0-beta.1"},
		{"not-a-version", "not-a-version"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeVersion(tt.input); got != tt.want {
			t.Errorf("NormalizeVersion(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsValidSemver(t *testing.T) {
	valid := []string{"1.0.0", "v2.3.4", "0.0.1", "1.0.0-rc.1"}
	for _, v := range valid {
		if !IsValidSemver(v) {
			t.Errorf("IsValidSemver(%q) = false, want true", v)
		}
	}

	invalid := []string{"", "not-a-version", "one.two.three"}
	for _, v := range invalid {
		if IsValidSemver(v) {
			t.Errorf("IsValidSemver(%q) = true, want false", v)
		}
	}
}
