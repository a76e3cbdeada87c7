// Package expected computes the expected version: the highest ordinal present
// across a chosen set of asset kinds in one content unit or a whole document.
// Nothing is cached; every call re-reads the store.
package expected

import (
	"fmt"
	"path/filepath"

	"slidecast/internal/versioning"
)

// Source reports the highest ordinal of a kind within a unit.
type Source interface {
	LatestOrdinal(unitDir string, kind versioning.Kind) (int, error)
}

// ConvergenceKinds are the kinds the document pipeline aligns before page
// videos and slideshows are composed and that batch fast-forward carries.
// The primary image is left out, so an image edit does not push every unit
// of a document to a new version. Per-unit views use versioning.AllKinds.
var ConvergenceKinds = []versioning.Kind{
	versioning.KindEnText,
	versioning.KindHiText,
	versioning.KindEnAudio,
	versioning.KindHiAudio,
	versioning.KindEnVideo,
	versioning.KindHiVideo,
	versioning.KindImageVideo,
}

// DisplayFloor is the floor used when an expected version is shown to a user.
const DisplayFloor = 1

// ForUnit returns max(floor, highest ordinal of kinds in unitDir).
func ForUnit(src Source, unitDir string, kinds []versioning.Kind, floor int) (int, error) {
	return ForDocument(src, []string{unitDir}, kinds, floor)
}

// ForDocument returns max(floor, highest ordinal of kinds across unitDirs).
func ForDocument(src Source, unitDirs []string, kinds []versioning.Kind, floor int) (int, error) {
	best := max(floor, 0)
	for _, dir := range unitDirs {
		for _, kind := range kinds {
			n, err := src.LatestOrdinal(dir, kind)
			if err != nil {
				return 0, fmt.Errorf("expected version %s %s: %w", filepath.Base(dir), kind, err)
			}
			best = max(best, n)
		}
	}
	return best, nil
}

// Staleness describes how far one kind lags the unit's most advanced kind.
type Staleness struct {
	Kind     versioning.Kind
	Current  int
	Expected int
}

// Stale reports whether Current < Expected.
func (s Staleness) Stale() bool { return s.Current < s.Expected }

// Stale compares kind against the unit's expected version over every kind,
// the primary image included.
func Stale(src Source, unitDir string, kind versioning.Kind) (Staleness, error) {
	exp, err := ForUnit(src, unitDir, versioning.AllKinds(), 0)
	if err != nil {
		return Staleness{}, err
	}
	cur, err := src.LatestOrdinal(unitDir, kind)
	if err != nil {
		return Staleness{}, err
	}
	return Staleness{Kind: kind, Current: cur, Expected: max(exp, cur)}, nil
}

// Lagging lists the kinds of unitDir that trail the unit's expected version.
func Lagging(src Source, unitDir string) ([]Staleness, error) {
	var out []Staleness
	for _, kind := range versioning.AllKinds() {
		s, err := Stale(src, unitDir, kind)
		if err != nil {
			return nil, err
		}
		if s.Stale() {
			out = append(out, s)
		}
	}
	return out, nil
}
