package versioning

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is one of the fixed asset kinds attached to a content unit.
type Kind string

const (
	KindEnText     Kind = "en_text"
	KindHiText     Kind = "hi_text"
	KindEnAudio    Kind = "en_audio"
	KindHiAudio    Kind = "hi_audio"
	KindImage      Kind = "image"
	KindImageVideo Kind = "image_video"
	KindEnVideo    Kind = "en_video"
	KindHiVideo    Kind = "hi_video"
)

type kindSpec struct {
	base   string
	ext    string
	binary bool
	legacy string
	lang   string
	// scanned kinds were historically written as loose files without metadata;
	// their on-disk files are folded into the record on every read and mutation.
	scanned bool
}

var kindSpecs = map[Kind]kindSpec{
	KindEnText:     {base: "final_text_en", ext: ".txt", legacy: "final_text_en.txt", lang: "en"},
	KindHiText:     {base: "final_text_hi", ext: ".txt", legacy: "final_text_hi.txt", lang: "hi"},
	KindEnAudio:    {base: "final_text_en", ext: ".mp3", binary: true, legacy: "final_text_en.mp3", lang: "en"},
	KindHiAudio:    {base: "final_text_hi", ext: ".mp3", binary: true, legacy: "final_text_hi.mp3", lang: "hi"},
	KindImage:      {base: "image_to_use", ext: ".png", binary: true, legacy: "image_to_use.png"},
	KindImageVideo: {base: "page_image_video", ext: ".mp4", binary: true},
	KindEnVideo:    {base: "page_video_en", ext: ".mp4", binary: true, lang: "en", scanned: true},
	KindHiVideo:    {base: "page_video_hi", ext: ".mp4", binary: true, lang: "hi", scanned: true},
}

var allKinds = []Kind{
	KindEnText, KindHiText, KindEnAudio, KindHiAudio,
	KindImage, KindImageVideo, KindEnVideo, KindHiVideo,
}

// AllKinds returns every asset kind in display order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind resolves a kind key such as "en_text".
func ParseKind(value string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(value)))
	if !k.Valid() {
		return "", &ValidationError{Op: "parse kind", Kind: value, Err: ErrUnknownKind}
	}
	return k, nil
}

// Valid reports whether k is a known asset kind.
func (k Kind) Valid() bool {
	_, ok := kindSpecs[k]
	return ok
}

func (k Kind) String() string { return string(k) }

// Base returns the logical file base name, e.g. "final_text_en".
func (k Kind) Base() string { return kindSpecs[k].base }

// Ext returns the file extension including the dot.
func (k Kind) Ext() string { return kindSpecs[k].ext }

// Binary reports whether version content is copied bytes rather than text.
func (k Kind) Binary() bool { return kindSpecs[k].binary }

// LegacyName returns the pre-versioning flat file name, or "" if the kind has none.
func (k Kind) LegacyName() string { return kindSpecs[k].legacy }

func (k Kind) scanned() bool { return kindSpecs[k].scanned }

// FileName returns the version file name for ordinal, e.g. final_text_en_v3.txt.
func (k Kind) FileName(ordinal int) string {
	return fmt.Sprintf("%s_v%d%s", k.Base(), ordinal, k.Ext())
}

// ParseOrdinal extracts the ordinal from a version file name of this kind.
func (k Kind) ParseOrdinal(name string) (int, bool) {
	spec, ok := kindSpecs[k]
	if !ok {
		return 0, false
	}
	prefix := spec.base + "_v"
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, spec.ext) {
		return 0, false
	}
	digits := name[len(prefix) : len(name)-len(spec.ext)]
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// matchesFamily reports whether name belongs to the kind's file family: any
// file starting with the base name and ending with the extension, including
// the legacy flat file and hand-made variations.
func (k Kind) matchesFamily(name string) bool {
	return strings.HasPrefix(name, k.Base()) && strings.HasSuffix(name, k.Ext())
}

// TextKind returns the translated-text kind for a narration language.
func TextKind(lang string) (Kind, bool) { return byLanguage(lang, ".txt", "final_text_") }

// AudioKind returns the narrated-audio kind for a narration language.
func AudioKind(lang string) (Kind, bool) { return byLanguage(lang, ".mp3", "final_text_") }

// PageVideoKind returns the composed page video kind for a narration language.
func PageVideoKind(lang string) (Kind, bool) { return byLanguage(lang, ".mp4", "page_video_") }

func byLanguage(lang, ext, basePrefix string) (Kind, bool) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	for _, k := range allKinds {
		spec := kindSpecs[k]
		if spec.lang == lang && spec.ext == ext && strings.HasPrefix(spec.base, basePrefix) {
			return k, true
		}
	}
	return "", false
}
