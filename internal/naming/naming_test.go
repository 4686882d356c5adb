package naming

import (
	"strings"
	"testing"
)

func TestDeriveName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"MyApp-1.2.3_x86_64.AppImage", "MyApp-1 2 3_x86_64"},
		{"/tmp/downloads/Firefox.AppImage", "Firefox"},
		{"Kdenlive 24.02 (beta).appimage", "Kdenlive 24 02 beta"},
		{"weird###name!!.AppImage", "weird name"},
		{"already_clean-name.AppImage", "already_clean-name"},
		{"....AppImage", ""},
		{"多字节.AppImage", ""},
	}

	for _, tt := range tests {
		if got := DeriveName(tt.path); got != tt.want {
			t.Errorf("DeriveName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"MyApp-1 2 3_x86_64", "myapp-1-2-3_x86_64"},
		{"Firefox", "firefox"},
		{"Kdenlive 24 02 beta", "kdenlive-24-02-beta"},
		{"---Edge Case---", "edge-case"},
		{"", ""},
		{"___", "___"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.name); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSanitizeOutputAlphabet(t *testing.T) {
	inputs := []string{
		"Some App (v2)",
		"tabs\tand\nnewlines",
		"UPPER lower 123",
		"überraschung",
		"a.b,c;d:e/f\\g",
	}

	for _, in := range inputs {
		got := Sanitize(in)
		if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
			t.Errorf("Sanitize(%q) = %q has leading/trailing dash", in, got)
		}
		for _, r := range got {
			ok := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
			if !ok {
				t.Errorf("Sanitize(%q) = %q contains %q", in, got, r)
			}
		}
	}
}

// Ids must be reconstructible: deriving a name from the stored bundle
// filename and sanitizing it again has to reproduce the import-time id.
func TestIDStableAcrossReconstruction(t *testing.T) {
	sources := []string{
		"MyApp-1.2.3_x86_64.AppImage",
		"Some App (v2).AppImage",
		"GIMP_2.10.38.appimage",
	}

	for _, src := range sources {
		id := Sanitize(DeriveName(src))
		stored := id + ".AppImage"
		again := Sanitize(DeriveName(stored))
		if again != id {
			t.Errorf("id for %q drifted: import %q, relist %q", src, id, again)
		}
	}
}
