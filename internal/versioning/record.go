package versioning

import (
	"sort"
	"time"
)

// Producer labels recorded on versions the store creates itself.
const (
	ProducerFastForward = "fast-forward"
	ProducerExternal    = "external"
	ProducerMigrated    = "unknown (migrated)"
	ProducerManualEdit  = "manual-edit"
	ProducerUserUpload  = "user-upload"
)

// VersionRecord describes one materialized version file. The JSON field names
// match records written by earlier tooling so existing versions.json files
// load unchanged; Ordinal is backfilled from the file name when absent.
type VersionRecord struct {
	Ordinal  int    `json:"ordinal,omitempty"`
	File     string `json:"file"`
	Created  string `json:"created"`
	Producer string `json:"model"`
}

// CreatedAt parses the creation timestamp, accepting RFC3339 and the naive
// ISO form older records carry.
func (r VersionRecord) CreatedAt() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, r.Created); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// History is the version history of one asset kind within a content unit.
// Latest is empty iff Versions is empty; otherwise it names some entry's file.
type History struct {
	Latest   string          `json:"latest"`
	Versions []VersionRecord `json:"versions"`
}

// Record maps every asset kind of a content unit to its history.
type Record map[Kind]*History

func newRecord() Record {
	rec := make(Record, len(allKinds))
	for _, k := range allKinds {
		rec[k] = &History{Versions: []VersionRecord{}}
	}
	return rec
}

// History returns the history for kind, creating an empty one if missing.
func (r Record) History(kind Kind) *History {
	h, ok := r[kind]
	if !ok || h == nil {
		h = &History{Versions: []VersionRecord{}}
		r[kind] = h
	}
	if h.Versions == nil {
		h.Versions = []VersionRecord{}
	}
	return h
}

func (h *History) indexOf(ordinal int) int {
	for i, v := range h.Versions {
		if v.Ordinal == ordinal {
			return i
		}
	}
	return -1
}

func (h *History) hasFile(name string) bool {
	for _, v := range h.Versions {
		if v.File == name {
			return true
		}
	}
	return false
}

// HighestOrdinal returns the largest recorded ordinal, or 0 when empty.
func (h *History) HighestOrdinal() int {
	highest := 0
	for _, v := range h.Versions {
		if v.Ordinal > highest {
			highest = v.Ordinal
		}
	}
	return highest
}

// LatestRecord returns the record the latest pointer names.
func (h *History) LatestRecord() (VersionRecord, bool) {
	if h.Latest == "" {
		return VersionRecord{}, false
	}
	for _, v := range h.Versions {
		if v.File == h.Latest {
			return v, true
		}
	}
	return VersionRecord{}, false
}

// normalize backfills ordinals from file names, sorts ascending, keeps the
// first record of a duplicated ordinal, and repairs a dangling latest pointer.
func (h *History) normalize(kind Kind) {
	for i := range h.Versions {
		if h.Versions[i].Ordinal > 0 {
			continue
		}
		if n, ok := kind.ParseOrdinal(h.Versions[i].File); ok {
			h.Versions[i].Ordinal = n
		} else {
			h.Versions[i].Ordinal = i + 1
		}
	}
	sort.SliceStable(h.Versions, func(i, j int) bool {
		return h.Versions[i].Ordinal < h.Versions[j].Ordinal
	})
	unique := h.Versions[:0]
	for _, v := range h.Versions {
		if len(unique) > 0 && unique[len(unique)-1].Ordinal == v.Ordinal {
			continue
		}
		unique = append(unique, v)
	}
	h.Versions = unique
	if len(h.Versions) == 0 {
		h.Latest = ""
		return
	}
	if !h.hasFile(h.Latest) {
		h.Latest = h.Versions[len(h.Versions)-1].File
	}
}
