package translate

import "testing"

func TestNormalizeTableStyle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"LightGridAccent1", "Light Grid Accent 1"},
		{"TableGrid", "Table Grid"},
		{"Table Grid", "Table Grid"},
		{" ", ""},
		{"lower", "lower"},
	}
	for _, tt := range tests {
		if got := NormalizeTableStyle(tt.in); got != tt.want {
			t.Errorf("NormalizeTableStyle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
