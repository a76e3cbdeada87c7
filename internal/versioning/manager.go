package versioning

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"slidecast/internal/fileutil"
	"slidecast/internal/logging"
)

// Content is the payload of a new version: literal text, raw bytes, or a
// source file copied verbatim.
type Content struct {
	text       string
	data       []byte
	sourcePath string
	isText     bool
}

// Text wraps literal text for a text kind.
func Text(s string) Content { return Content{text: s, isText: true} }

// Bytes wraps raw bytes.
func Bytes(b []byte) Content { return Content{data: b} }

// FromFile references a file whose bytes become the new version.
func FromFile(path string) Content { return Content{sourcePath: path} }

// Manager performs version operations on content unit directories. It holds
// no per-unit state; every call reloads the unit's record.
type Manager struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logging.NewComponentLogger(logger, "versioning"),
		now:    time.Now,
	}
}

// CreateVersion appends a new version of kind holding content and makes it
// latest. The new ordinal is one past the highest ordinal tracked or present
// on disk, so it never collides with an existing file.
func (m *Manager) CreateVersion(unitDir string, kind Kind, content Content, producer string) (VersionRecord, string, error) {
	if !kind.Valid() {
		return VersionRecord{}, "", &ValidationError{Op: "create version", Kind: string(kind), Err: ErrUnknownKind}
	}
	if kind.Binary() && content.isText {
		return VersionRecord{}, "", &ValidationError{Op: "create version", Kind: string(kind), Err: errors.New("binary kind requires file or byte content")}
	}

	rec, err := Load(unitDir)
	if err != nil {
		return VersionRecord{}, "", err
	}
	h := rec.History(kind)
	if kind.scanned() {
		if _, err := adoptUntracked(unitDir, kind, h); err != nil {
			return VersionRecord{}, "", err
		}
	}

	onDisk, err := highestOnDisk(unitDir, kind)
	if err != nil {
		return VersionRecord{}, "", err
	}
	ordinal := max(h.HighestOrdinal(), onDisk) + 1

	name := kind.FileName(ordinal)
	path := filepath.Join(unitDir, name)
	if err := materialize(path, content); err != nil {
		return VersionRecord{}, "", fmt.Errorf("write %s: %w", name, err)
	}

	record := VersionRecord{
		Ordinal:  ordinal,
		File:     name,
		Created:  m.now().UTC().Format(time.RFC3339),
		Producer: producer,
	}
	h.Versions = append(h.Versions, record)
	h.Latest = name
	if err := Save(unitDir, rec); err != nil {
		_ = os.Remove(path)
		return VersionRecord{}, "", err
	}

	m.logger.Debug("version created",
		logging.String(logging.FieldUnit, filepath.Base(unitDir)),
		logging.String(logging.FieldKind, kind.String()),
		logging.Int(logging.FieldOrdinal, ordinal),
		logging.String("producer", producer),
		logging.String(logging.FieldEventType, "version_created"),
	)
	return record, path, nil
}

// view loads the history of kind for reading. Page video files written
// without metadata are folded in memory, the same way the next mutation
// would adopt them.
func view(unitDir string, kind Kind) (*History, error) {
	rec, err := Load(unitDir)
	if err != nil {
		return nil, err
	}
	h := rec.History(kind)
	if kind.scanned() {
		if _, err := adoptUntracked(unitDir, kind, h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// LatestVersionPath resolves the latest pointer to a path. ok is false when
// the kind has no versions.
func (m *Manager) LatestVersionPath(unitDir string, kind Kind) (string, bool, error) {
	if !kind.Valid() {
		return "", false, nil
	}
	h, err := view(unitDir, kind)
	if err != nil {
		return "", false, err
	}
	if h.Latest == "" {
		return "", false, nil
	}
	return filepath.Join(unitDir, h.Latest), true, nil
}

// Versions returns the kind's history in ascending ordinal order.
func (m *Manager) Versions(unitDir string, kind Kind) ([]VersionRecord, error) {
	if !kind.Valid() {
		return nil, nil
	}
	rec, err := Load(unitDir)
	if err != nil {
		return nil, err
	}
	h := rec.History(kind)
	out := make([]VersionRecord, len(h.Versions))
	copy(out, h.Versions)
	return out, nil
}

// History returns the kind's full history including the latest pointer.
func (m *Manager) History(unitDir string, kind Kind) (History, error) {
	if !kind.Valid() {
		return History{}, nil
	}
	rec, err := Load(unitDir)
	if err != nil {
		return History{}, err
	}
	h := rec.History(kind)
	out := History{Latest: h.Latest, Versions: make([]VersionRecord, len(h.Versions))}
	copy(out.Versions, h.Versions)
	return out, nil
}

// VersionPath returns the path of a specific ordinal.
func (m *Manager) VersionPath(unitDir string, kind Kind, ordinal int) (string, bool, error) {
	if !kind.Valid() {
		return "", false, nil
	}
	h, err := view(unitDir, kind)
	if err != nil {
		return "", false, err
	}
	idx := h.indexOf(ordinal)
	if idx < 0 {
		return "", false, nil
	}
	return filepath.Join(unitDir, h.Versions[idx].File), true, nil
}

// VersionCount returns the number of recorded versions.
func (m *Manager) VersionCount(unitDir string, kind Kind) (int, error) {
	if !kind.Valid() {
		return 0, nil
	}
	rec, err := Load(unitDir)
	if err != nil {
		return 0, err
	}
	return len(rec.History(kind).Versions), nil
}

// LatestOrdinal returns the highest ordinal of kind, 0 when none exists. For
// page video kinds, loose files not yet in the record also count.
func (m *Manager) LatestOrdinal(unitDir string, kind Kind) (int, error) {
	if !kind.Valid() {
		return 0, nil
	}
	h, err := view(unitDir, kind)
	if err != nil {
		return 0, err
	}
	return h.HighestOrdinal(), nil
}

// Restore points latest at an existing ordinal without touching history.
// It returns false when the ordinal is not recorded.
func (m *Manager) Restore(unitDir string, kind Kind, ordinal int) (bool, error) {
	if !kind.Valid() {
		return false, nil
	}
	rec, err := Load(unitDir)
	if err != nil {
		return false, err
	}
	h := rec.History(kind)
	idx := h.indexOf(ordinal)
	if idx < 0 {
		return false, nil
	}
	h.Latest = h.Versions[idx].File
	if err := Save(unitDir, rec); err != nil {
		return false, err
	}
	m.logger.Info("version restored",
		logging.String(logging.FieldUnit, filepath.Base(unitDir)),
		logging.String(logging.FieldKind, kind.String()),
		logging.Int(logging.FieldOrdinal, ordinal),
		logging.String(logging.FieldEventType, "version_restored"),
	)
	return true, nil
}

// FastForward copies the latest version's content into every ordinal from
// the current highest+1 through target, leaving latest at target. Version
// files already on disk but missing from metadata are registered first, so
// an out-of-band version is never overwritten. It returns false when there
// is nothing to copy or the kind is already at or past target.
func (m *Manager) FastForward(unitDir string, kind Kind, target int, producer string) (bool, error) {
	if !kind.Valid() {
		return false, nil
	}
	if producer == "" {
		producer = ProducerFastForward
	}
	rec, err := Load(unitDir)
	if err != nil {
		return false, err
	}
	h := rec.History(kind)
	adopted, err := adoptUntracked(unitDir, kind, h)
	if err != nil {
		return false, err
	}

	current := h.HighestOrdinal()
	if current == 0 || current >= target {
		if adopted > 0 {
			if err := Save(unitDir, rec); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	if h.Latest == "" {
		return false, nil
	}
	payload, err := os.ReadFile(filepath.Join(unitDir, h.Latest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", h.Latest, err)
	}

	created := make([]string, 0, target-current)
	for ordinal := current + 1; ordinal <= target; ordinal++ {
		name := kind.FileName(ordinal)
		path := filepath.Join(unitDir, name)
		if _, err := os.Lstat(path); err == nil {
			removeAll(created)
			return false, fmt.Errorf("fast-forward %s: %s already exists", kind, name)
		}
		if err := fileutil.WriteFileAtomic(path, payload, 0o644); err != nil {
			removeAll(created)
			return false, fmt.Errorf("write %s: %w", name, err)
		}
		created = append(created, path)
		h.Versions = append(h.Versions, VersionRecord{
			Ordinal:  ordinal,
			File:     name,
			Created:  m.now().UTC().Format(time.RFC3339),
			Producer: producer,
		})
		h.Latest = name
	}
	if err := Save(unitDir, rec); err != nil {
		removeAll(created)
		return false, err
	}
	m.logger.Info("version fast-forwarded",
		logging.String(logging.FieldUnit, filepath.Base(unitDir)),
		logging.String(logging.FieldKind, kind.String()),
		logging.Int("from", current),
		logging.Int("to", target),
		logging.String(logging.FieldEventType, "version_fast_forwarded"),
	)
	return true, nil
}

// DeleteVersion removes a historical version's file and record. It refuses
// (false) to delete the sole version or the one latest points at.
func (m *Manager) DeleteVersion(unitDir string, kind Kind, ordinal int) (bool, error) {
	if !kind.Valid() {
		return false, nil
	}
	rec, err := Load(unitDir)
	if err != nil {
		return false, err
	}
	h := rec.History(kind)
	if kind.scanned() {
		if _, err := adoptUntracked(unitDir, kind, h); err != nil {
			return false, err
		}
	}
	if len(h.Versions) <= 1 {
		return false, nil
	}
	idx := h.indexOf(ordinal)
	if idx < 0 {
		return false, nil
	}
	target := h.Versions[idx]
	if target.File == h.Latest {
		return false, nil
	}
	if err := os.Remove(filepath.Join(unitDir, target.File)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("remove %s: %w", target.File, err)
	}
	h.Versions = append(h.Versions[:idx], h.Versions[idx+1:]...)
	if err := Save(unitDir, rec); err != nil {
		return false, err
	}
	m.logger.Info("version deleted",
		logging.String(logging.FieldUnit, filepath.Base(unitDir)),
		logging.String(logging.FieldKind, kind.String()),
		logging.Int(logging.FieldOrdinal, ordinal),
		logging.String(logging.FieldEventType, "version_deleted"),
	)
	return true, nil
}

// CommitAt stores content so that it lands at ordinal or later. When the kind
// lags behind ordinal-1, earlier content is carried forward first; when it has
// no versions, the new content seeds ordinals 1 through ordinal-1 as
// fast-forward copies. Kinds already at or past ordinal simply append.
func (m *Manager) CommitAt(unitDir string, kind Kind, content Content, producer string, ordinal int) (VersionRecord, string, error) {
	if !kind.Valid() {
		return VersionRecord{}, "", &ValidationError{Op: "commit version", Kind: string(kind), Err: ErrUnknownKind}
	}
	if ordinal < 1 {
		return VersionRecord{}, "", &ValidationError{Op: "commit version", Kind: string(kind), Err: fmt.Errorf("ordinal %d out of range", ordinal)}
	}
	current, err := m.LatestOrdinal(unitDir, kind)
	if err != nil {
		return VersionRecord{}, "", err
	}
	switch {
	case current == 0 && ordinal > 1:
		if _, _, err := m.CreateVersion(unitDir, kind, content, ProducerFastForward); err != nil {
			return VersionRecord{}, "", err
		}
		if _, err := m.FastForward(unitDir, kind, ordinal-1, ProducerFastForward); err != nil {
			return VersionRecord{}, "", err
		}
	case current > 0 && current < ordinal-1:
		if _, err := m.FastForward(unitDir, kind, ordinal-1, ProducerFastForward); err != nil {
			return VersionRecord{}, "", err
		}
	}
	return m.CreateVersion(unitDir, kind, content, producer)
}

func materialize(path string, content Content) error {
	switch {
	case content.sourcePath != "":
		return fileutil.CopyFileVerified(content.sourcePath, path)
	case content.isText:
		return fileutil.WriteFileAtomic(path, []byte(content.text), 0o644)
	default:
		return fileutil.WriteFileAtomic(path, content.data, 0o644)
	}
}

func removeAll(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
