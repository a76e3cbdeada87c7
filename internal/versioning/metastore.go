package versioning

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"slidecast/internal/fileutil"
)

// MetadataFile is the per-unit version record file name.
const MetadataFile = "versions.json"

// MetadataPath returns the location of a unit's version record.
func MetadataPath(unitDir string) string {
	return filepath.Join(unitDir, MetadataFile)
}

// Load returns the persisted record for unitDir, or a complete empty record
// when none exists. Kinds missing from an older file are backfilled in memory
// only; the file is not touched until the next Save.
func Load(unitDir string) (Record, error) {
	rec := newRecord()
	data, err := os.ReadFile(MetadataPath(unitDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return rec, nil
		}
		return nil, fmt.Errorf("read version metadata: %w", err)
	}

	var raw map[string]*History
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode version metadata %s: %w", MetadataPath(unitDir), err)
	}
	for key, h := range raw {
		kind := Kind(key)
		if !kind.Valid() || h == nil {
			continue
		}
		if h.Versions == nil {
			h.Versions = []VersionRecord{}
		}
		h.normalize(kind)
		rec[kind] = h
	}
	return rec, nil
}

// Save atomically replaces the unit's version record.
func Save(unitDir string, rec Record) error {
	out := make(map[string]*History, len(allKinds))
	for _, k := range allKinds {
		out[string(k)] = rec.History(k)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode version metadata: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(MetadataPath(unitDir), data, 0o644); err != nil {
		return fmt.Errorf("write version metadata: %w", err)
	}
	return nil
}
