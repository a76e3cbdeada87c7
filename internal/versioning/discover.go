package versioning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"slidecast/internal/logging"
)

type diskVersion struct {
	ordinal int
	name    string
	modTime time.Time
}

// scanKind lists the version files of kind present in unitDir, ascending.
func scanKind(unitDir string, kind Kind) ([]diskVersion, error) {
	entries, err := os.ReadDir(unitDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read unit dir: %w", err)
	}
	return scanEntries(entries, kind), nil
}

func scanEntries(entries []os.DirEntry, kind Kind) []diskVersion {
	var found []diskVersion
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		ordinal, ok := kind.ParseOrdinal(entry.Name())
		if !ok {
			continue
		}
		dv := diskVersion{ordinal: ordinal, name: entry.Name()}
		if info, err := entry.Info(); err == nil {
			dv.modTime = info.ModTime()
		}
		found = append(found, dv)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ordinal < found[j].ordinal })
	return found
}

func highestOnDisk(unitDir string, kind Kind) (int, error) {
	found, err := scanKind(unitDir, kind)
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		return 0, nil
	}
	return found[len(found)-1].ordinal, nil
}

// register adds untracked disk versions to h. Files or ordinals already
// tracked win. When anything is added, latest moves to the highest ordinal.
func register(h *History, found []diskVersion, kind Kind) int {
	added := 0
	for _, dv := range found {
		if h.hasFile(dv.name) || h.indexOf(dv.ordinal) >= 0 {
			continue
		}
		created := ""
		if !dv.modTime.IsZero() {
			created = dv.modTime.UTC().Format(time.RFC3339)
		}
		h.Versions = append(h.Versions, VersionRecord{
			Ordinal:  dv.ordinal,
			File:     dv.name,
			Created:  created,
			Producer: ProducerExternal,
		})
		added++
	}
	if added > 0 {
		h.normalize(kind)
		h.Latest = h.Versions[len(h.Versions)-1].File
	}
	return added
}

// adoptUntracked folds version files of kind that exist in unitDir but are
// missing from h. Nothing is saved.
func adoptUntracked(unitDir string, kind Kind, h *History) (int, error) {
	found, err := scanKind(unitDir, kind)
	if err != nil {
		return 0, err
	}
	return register(h, found, kind), nil
}

// DiscoverAndRegister records version files present in unitDir but missing
// from its metadata, typically written by the background worker. It returns
// the number of versions registered per kind and is safe to repeat.
func (m *Manager) DiscoverAndRegister(unitDir string) (map[Kind]int, error) {
	discovered := map[Kind]int{}
	entries, err := os.ReadDir(unitDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return discovered, nil
		}
		return nil, fmt.Errorf("read unit dir: %w", err)
	}

	rec, err := Load(unitDir)
	if err != nil {
		return nil, err
	}
	for _, kind := range allKinds {
		if n := register(rec.History(kind), scanEntries(entries, kind), kind); n > 0 {
			discovered[kind] = n
		}
	}
	if len(discovered) == 0 {
		return discovered, nil
	}
	if err := Save(unitDir, rec); err != nil {
		return nil, err
	}
	for kind, n := range discovered {
		m.logger.Info("versions discovered",
			logging.String(logging.FieldUnit, filepath.Base(unitDir)),
			logging.String(logging.FieldKind, kind.String()),
			logging.Int("count", n),
			logging.String(logging.FieldEventType, "versions_discovered"),
		)
	}
	return discovered, nil
}

// DiscoverAll runs DiscoverAndRegister over each unit and returns the total
// number of versions registered. A failing unit is logged and skipped.
func (m *Manager) DiscoverAll(unitDirs []string) (int, error) {
	total := 0
	var firstErr error
	for _, dir := range unitDirs {
		found, err := m.DiscoverAndRegister(dir)
		if err != nil {
			logging.WarnWithContext(m.logger, "discovery failed; unit skipped", "discovery_failed",
				logging.String(logging.FieldUnit, filepath.Base(dir)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check versions.json in the unit directory"),
				logging.String(logging.FieldImpact, "versions on disk stay unregistered for this unit"),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, n := range found {
			total += n
		}
	}
	return total, firstErr
}
