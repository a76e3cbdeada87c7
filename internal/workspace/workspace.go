package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"slidecast/internal/services"
)

const (
	// UnitPrefix starts every content unit directory name.
	UnitPrefix = "scene_"
	// WholeStoryFile holds the cleaned full text of a document.
	WholeStoryFile = "whole_story_cleaned.txt"
)

// SourceTextFiles are tried in order when reading a unit's extracted text.
var SourceTextFiles = []string{"clean_text.txt", "page_text.txt", "text.txt"}

// Workspace is a root directory of documents.
type Workspace struct {
	Root string
}

// New returns a Workspace rooted at root.
func New(root string) *Workspace {
	return &Workspace{Root: root}
}

// Unit is one content unit directory inside a document.
type Unit struct {
	Document string
	Index    int
	Dir      string
}

// Name returns the unit directory name.
func (u Unit) Name() string { return filepath.Base(u.Dir) }

// Label returns "document/scene_NNNN" for logs and tables.
func (u Unit) Label() string { return u.Document + "/" + u.Name() }

// UnitDirName formats the directory name for a unit index.
func UnitDirName(index int) string {
	return fmt.Sprintf("%s%04d", UnitPrefix, index)
}

// DocumentDir returns the directory for document.
func (w *Workspace) DocumentDir(document string) string {
	return filepath.Join(w.Root, document)
}

// ValidateDocument rejects names that would escape the workspace.
func ValidateDocument(document string) error {
	trimmed := strings.TrimSpace(document)
	if trimmed == "" || trimmed == "." || trimmed == ".." || strings.ContainsAny(trimmed, `/\`) {
		return fmt.Errorf("%w: invalid document name %q", services.ErrValidation, document)
	}
	return nil
}

// Documents lists document directories that contain at least one unit.
func (w *Workspace) Documents() ([]string, error) {
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		units, err := w.Units(entry.Name())
		if err != nil {
			return nil, err
		}
		if len(units) > 0 {
			docs = append(docs, entry.Name())
		}
	}
	sort.Strings(docs)
	return docs, nil
}

// Units lists a document's units ordered by index then name.
func (w *Workspace) Units(document string) ([]Unit, error) {
	if err := ValidateDocument(document); err != nil {
		return nil, err
	}
	dir := w.DocumentDir(document)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: document %q", services.ErrNotFound, document)
		}
		return nil, fmt.Errorf("list units: %w", err)
	}
	var units []Unit
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), UnitPrefix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), UnitPrefix))
		if err != nil {
			idx = 0
		}
		units = append(units, Unit{Document: document, Index: idx, Dir: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(units, func(i, j int) bool {
		if units[i].Index != units[j].Index {
			return units[i].Index < units[j].Index
		}
		return units[i].Name() < units[j].Name()
	})
	return units, nil
}

// UnitDirs returns the directories of Units.
func (w *Workspace) UnitDirs(document string) ([]string, error) {
	units, err := w.Units(document)
	if err != nil {
		return nil, err
	}
	dirs := make([]string, len(units))
	for i, u := range units {
		dirs[i] = u.Dir
	}
	return dirs, nil
}

// AllUnits lists units across every document, or only document when set.
func (w *Workspace) AllUnits(document string) ([]Unit, error) {
	if document != "" {
		return w.Units(document)
	}
	docs, err := w.Documents()
	if err != nil {
		return nil, err
	}
	var all []Unit
	for _, doc := range docs {
		units, err := w.Units(doc)
		if err != nil {
			return nil, err
		}
		all = append(all, units...)
	}
	return all, nil
}

// Unit resolves an existing unit by document and index.
func (w *Workspace) Unit(document string, index int) (Unit, error) {
	if err := ValidateDocument(document); err != nil {
		return Unit{}, err
	}
	dir := filepath.Join(w.DocumentDir(document), UnitDirName(index))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Unit{}, fmt.Errorf("%w: unit %s/%s", services.ErrNotFound, document, UnitDirName(index))
	}
	return Unit{Document: document, Index: index, Dir: dir}, nil
}

// ReadSourceText returns the unit's extracted text from the first file of
// SourceTextFiles that exists.
func (u Unit) ReadSourceText() (string, error) {
	for _, name := range SourceTextFiles {
		data, err := os.ReadFile(filepath.Join(u.Dir, name))
		if err == nil {
			return strings.TrimSpace(string(data)), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("read %s: %w", name, err)
		}
	}
	return "", fmt.Errorf("%w: no source text in %s", services.ErrNotFound, u.Label())
}

// ReadWholeStory returns the document's cleaned story, or "" when absent.
func (w *Workspace) ReadWholeStory(document string) (string, error) {
	data, err := os.ReadFile(filepath.Join(w.DocumentDir(document), WholeStoryFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read whole story: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SlideshowPath returns the document-level slideshow file for a language stem
// ("english", "hindi") and ordinal.
func (w *Workspace) SlideshowPath(document, stem string, ordinal int) string {
	return filepath.Join(w.DocumentDir(document), fmt.Sprintf("%s_slideshow_v%d.mp4", stem, ordinal))
}

var slideshowPattern = regexp.MustCompile(`^([a-z]+)_slideshow_v(\d+)\.mp4$`)

// LatestSlideshow returns the highest-ordinal slideshow for stem.
func (w *Workspace) LatestSlideshow(document, stem string) (string, int, bool) {
	entries, err := os.ReadDir(w.DocumentDir(document))
	if err != nil {
		return "", 0, false
	}
	best, bestPath := 0, ""
	for _, entry := range entries {
		m := slideshowPattern.FindStringSubmatch(entry.Name())
		if m == nil || m[1] != stem {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil || n <= best {
			continue
		}
		best, bestPath = n, filepath.Join(w.DocumentDir(document), entry.Name())
	}
	return bestPath, best, best > 0
}

var titleCaser = cases.Title(language.English)

// Title renders a document directory name for display.
func Title(document string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(document)
	return titleCaser.String(strings.Join(strings.Fields(cleaned), " "))
}
