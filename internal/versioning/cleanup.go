package versioning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"slidecast/internal/logging"
)

// UntrackedKey is the CleanupAll bucket for untracked versioned files.
const UntrackedKey = "untracked_variations"

var (
	versionedPattern = regexp.MustCompile(`_v\d+\.(txt|mp3|mp4|png)$`)
	archivedTask     = regexp.MustCompile(`^image_(edit|to_video)_prompt_for_v\d+\.txt(\.\d+)?\.(completed|failed)$`)
)

// coreFiles survive CleanupUntracked regardless of their names.
var coreFiles = map[string]struct{}{
	MetadataFile:              {},
	"page_text.txt":           {},
	"clean_text.txt":          {},
	"whole_story_cleaned.txt": {},
	"image.png":               {},
}

// CleanupOld deletes every file of the kind's family except the latest and
// truncates the history to the latest record. It is destructive and only runs
// on explicit request. Kinds without a latest version are left untouched.
func (m *Manager) CleanupOld(unitDir string, kind Kind) (int, error) {
	if !kind.Valid() {
		return 0, nil
	}
	rec, err := Load(unitDir)
	if err != nil {
		return 0, err
	}
	h := rec.History(kind)
	latest, ok := h.LatestRecord()
	if !ok {
		return 0, nil
	}

	entries, err := os.ReadDir(unitDir)
	if err != nil {
		return 0, fmt.Errorf("read unit dir: %w", err)
	}
	deleted := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if name == latest.File || !kind.matchesFamily(name) {
			continue
		}
		if err := os.Remove(filepath.Join(unitDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(m.logger, "cleanup could not remove file", "cleanup_remove_failed",
				logging.String(logging.FieldUnit, filepath.Base(unitDir)),
				logging.String("file", name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the unit directory"),
				logging.String(logging.FieldImpact, "old version file remains on disk"),
			)
			continue
		}
		deleted++
	}

	h.Versions = []VersionRecord{latest}
	h.Latest = latest.File
	if err := Save(unitDir, rec); err != nil {
		return deleted, err
	}
	if deleted > 0 {
		m.logger.Info("old versions removed",
			logging.String(logging.FieldUnit, filepath.Base(unitDir)),
			logging.String(logging.FieldKind, kind.String()),
			logging.Int("count", deleted),
			logging.String(logging.FieldEventType, "versions_cleaned"),
		)
	}
	return deleted, nil
}

// CleanupUntracked removes files that look versioned but are not tracked in
// metadata, plus archived task files. Core extraction files and pending task
// files are kept.
func (m *Manager) CleanupUntracked(unitDir string) (int, error) {
	entries, err := os.ReadDir(unitDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read unit dir: %w", err)
	}
	rec, err := Load(unitDir)
	if err != nil {
		return 0, err
	}
	tracked := make(map[string]struct{})
	for _, kind := range allKinds {
		for _, v := range rec.History(kind).Versions {
			tracked[v.File] = struct{}{}
		}
	}

	deleted := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if _, ok := tracked[name]; ok {
			continue
		}
		if _, ok := coreFiles[name]; ok {
			continue
		}
		if strings.HasPrefix(name, "image_edit_prompt_for_v") || strings.HasPrefix(name, "image_to_video_prompt_for_v") {
			if !archivedTask.MatchString(name) {
				continue
			}
		} else if !versionedPattern.MatchString(name) {
			continue
		}
		if err := os.Remove(filepath.Join(unitDir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return deleted, fmt.Errorf("remove %s: %w", name, err)
		}
		deleted++
	}
	return deleted, nil
}

// CleanupAll runs CleanupOld for every kind and CleanupUntracked over each
// unit, returning deletions per kind key plus UntrackedKey.
func (m *Manager) CleanupAll(unitDirs []string) (map[string]int, error) {
	totals := map[string]int{}
	for _, dir := range unitDirs {
		for _, kind := range allKinds {
			n, err := m.CleanupOld(dir, kind)
			if err != nil {
				return totals, fmt.Errorf("cleanup %s %s: %w", filepath.Base(dir), kind, err)
			}
			if n > 0 {
				totals[kind.String()] += n
			}
		}
		n, err := m.CleanupUntracked(dir)
		if err != nil {
			return totals, fmt.Errorf("cleanup untracked %s: %w", filepath.Base(dir), err)
		}
		if n > 0 {
			totals[UntrackedKey] += n
		}
	}
	return totals, nil
}
