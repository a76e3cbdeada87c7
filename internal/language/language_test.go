package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"en", "en", false},
		{"EN", "en", false},
		{"en-US", "en", false},
		{"english", "en", false},
		{"eng", "en", false},
		{"hi", "hi", false},
		{"hi-IN", "hi", false},
		{"Hindi", "hi", false},
		{"fr", "", true},
		{"", "", true},
		{"not a language", "", true},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Normalize(%q) expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil || got != tt.expected {
			t.Errorf("Normalize(%q) = %q, %v; want %q", tt.input, got, err, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"hi", "Hindi"},
		{"hindi", "Hindi"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSlideshowStem(t *testing.T) {
	if got := SlideshowStem("en"); got != "english" {
		t.Fatalf("SlideshowStem(en) = %q", got)
	}
	if got := SlideshowStem("hi"); got != "hindi" {
		t.Fatalf("SlideshowStem(hi) = %q", got)
	}
}

func TestNativeName(t *testing.T) {
	if got := NativeName("hi"); got == "" || got == "Hindi" {
		t.Fatalf("expected native script name, got %q", got)
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"en", "english", "fr", "hi", "HI"})
	if len(got) != 2 || got[0] != "en" || got[1] != "hi" {
		t.Fatalf("NormalizeList = %v", got)
	}
	if NormalizeList(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
