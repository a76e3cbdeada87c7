package versioning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"slidecast/internal/logging"
)

// MigrateLegacy adopts pre-versioning flat files (final_text_en.txt,
// image_to_use.png, ...) as ordinal 1 of kinds that have no versions yet. The
// flat file is renamed to its v1 name. A second call is a no-op.
func (m *Manager) MigrateLegacy(unitDir string) (map[Kind]int, error) {
	migrated := map[Kind]int{}
	rec, err := Load(unitDir)
	if err != nil {
		return nil, err
	}

	for _, kind := range allKinds {
		legacy := kind.LegacyName()
		if legacy == "" {
			continue
		}
		h := rec.History(kind)
		if len(h.Versions) > 0 {
			continue
		}
		legacyPath := filepath.Join(unitDir, legacy)
		info, err := os.Stat(legacyPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", legacy, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		name := kind.FileName(1)
		target := filepath.Join(unitDir, name)
		if _, err := os.Stat(target); err == nil {
			m.logger.Debug("legacy migration skipped; v1 already on disk",
				logging.String(logging.FieldUnit, filepath.Base(unitDir)),
				logging.String(logging.FieldKind, kind.String()),
			)
			continue
		}
		if err := os.Rename(legacyPath, target); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", legacy, err)
		}
		h.Versions = append(h.Versions, VersionRecord{
			Ordinal:  1,
			File:     name,
			Created:  info.ModTime().UTC().Format(time.RFC3339),
			Producer: ProducerMigrated,
		})
		h.Latest = name
		migrated[kind] = 1
	}

	if len(migrated) == 0 {
		return migrated, nil
	}
	if err := Save(unitDir, rec); err != nil {
		return nil, err
	}
	m.logger.Info("legacy files migrated",
		logging.String(logging.FieldUnit, filepath.Base(unitDir)),
		logging.Int("kinds", len(migrated)),
		logging.String(logging.FieldEventType, "legacy_migrated"),
	)
	return migrated, nil
}
