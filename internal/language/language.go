package language

import (
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Narration languages the pipeline produces.
const (
	English = "en"
	Hindi   = "hi"
)

// Supported lists narration languages in output order.
var Supported = []string{English, Hindi}

var words = map[string]string{
	"english": English,
	"eng":     English,
	"hindi":   Hindi,
	"hin":     Hindi,
}

// Normalize converts a code, ISO 639-2 code, or English word to the
// two-letter code. It returns an error for unsupported languages.
func Normalize(code string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return "", fmt.Errorf("language code is empty")
	}
	if mapped, ok := words[trimmed]; ok {
		return mapped, nil
	}
	tag, err := xlang.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", code, err)
	}
	base, _ := tag.Base()
	for _, s := range Supported {
		if base.String() == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q", code)
}

// IsSupported reports whether code normalizes to a narration language.
func IsSupported(code string) bool {
	_, err := Normalize(code)
	return err == nil
}

// DisplayName returns the English name for code ("English", "Hindi").
// Unknown input is returned uppercased.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	tag, err := xlang.Parse(strings.ToLower(trimmed))
	if err != nil {
		if mapped, ok := words[strings.ToLower(trimmed)]; ok {
			tag = xlang.Make(mapped)
		} else {
			return strings.ToUpper(trimmed)
		}
	}
	name := display.English.Languages().Name(tag)
	if name == "" {
		return strings.ToUpper(trimmed)
	}
	return name
}

// NativeName returns the language's name in its own script.
func NativeName(code string) string {
	normalized, err := Normalize(code)
	if err != nil {
		return DisplayName(code)
	}
	return display.Self.Name(xlang.Make(normalized))
}

// SlideshowStem returns the lowercase name used in slideshow file names,
// e.g. "english" for english_slideshow_v3.mp4.
func SlideshowStem(code string) string {
	return strings.ToLower(DisplayName(code))
}

// NormalizeList deduplicates codes, dropping unsupported entries.
func NormalizeList(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		normalized, err := Normalize(code)
		if err != nil {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
