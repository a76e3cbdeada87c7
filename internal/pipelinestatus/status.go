// Package pipelinestatus reports how far each document has progressed
// through the pipeline. Reports are computed from the workspace on every
// call and never modify it.
package pipelinestatus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"slidecast/internal/expected"
	"slidecast/internal/language"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

// Stage names in pipeline order.
const (
	StageExtracted  = "extracted"
	StagePlanned    = "planned"
	StageRewritten  = "rewritten"
	StageAudio      = "audio"
	StagePageVideos = "page_videos"
	StageSlideshow  = "slideshow"
)

// Stage is the progress of one pipeline step.
type Stage struct {
	Name     string
	Total    int
	Done     int
	Expected int
	Present  []string
	Missing  []string
}

// Complete reports whether every expected output exists at the expected version.
func (s Stage) Complete() bool { return s.Total > 0 && s.Done == s.Total }

// Report is the status of one document.
type Report struct {
	Document string
	Title    string
	Units    int
	Stages   []Stage
}

// Stage returns the named stage.
func (r Report) Stage(name string) (Stage, bool) {
	i := slices.IndexFunc(r.Stages, func(s Stage) bool { return s.Name == name })
	if i < 0 {
		return Stage{}, false
	}
	return r.Stages[i], true
}

// Complete reports whether every stage is complete.
func (r Report) Complete() bool {
	for _, s := range r.Stages {
		if !s.Complete() {
			return false
		}
	}
	return len(r.Stages) > 0
}

type builder struct {
	ws    *workspace.Workspace
	src   expected.Source
	langs []string
	units []workspace.Unit
	dirs  []string
	doc   string
}

// Build computes the report for document. langs defaults to every supported
// narration language.
func Build(ws *workspace.Workspace, src expected.Source, document string, langs []string) (Report, error) {
	if len(langs) == 0 {
		langs = language.Supported
	}
	units, err := ws.Units(document)
	if err != nil {
		return Report{}, err
	}
	b := &builder{ws: ws, src: src, langs: langs, units: units, doc: document}
	for _, u := range units {
		b.dirs = append(b.dirs, u.Dir)
	}
	report := Report{Document: document, Title: workspace.Title(document), Units: len(units)}
	if len(units) == 0 {
		return report, nil
	}

	report.Stages = append(report.Stages, b.extracted(), b.planned())
	textAudio := b.kinds(versioning.TextKind, versioning.AudioKind)

	rewritten, err := b.versioned(StageRewritten, textAudio, versioning.TextKind)
	if err != nil {
		return Report{}, err
	}
	audio, err := b.versioned(StageAudio, textAudio, versioning.AudioKind)
	if err != nil {
		return Report{}, err
	}
	videoKinds := append(b.kinds(versioning.PageVideoKind), textAudio...)
	videos, err := b.versioned(StagePageVideos, videoKinds, versioning.PageVideoKind)
	if err != nil {
		return Report{}, err
	}
	report.Stages = append(report.Stages, rewritten, audio, videos, b.slideshow(videos.Expected))
	return report, nil
}

func (b *builder) extracted() Stage {
	s := Stage{Name: StageExtracted, Total: len(b.units), Done: len(b.units)}
	for _, u := range b.units {
		s.Present = append(s.Present, u.Name())
	}
	return s
}

// planned counts the whole-story file plus one cleaned text per unit.
func (b *builder) planned() Stage {
	s := Stage{Name: StagePlanned, Total: len(b.units) + 1}
	b.check(&s, filepath.Join(b.ws.DocumentDir(b.doc), workspace.WholeStoryFile), workspace.WholeStoryFile)
	for _, u := range b.units {
		b.check(&s, filepath.Join(u.Dir, workspace.SourceTextFiles[0]), u.Name()+"/"+workspace.SourceTextFiles[0])
	}
	return s
}

func (b *builder) check(s *Stage, path, label string) {
	if exists(path) {
		s.Done++
		s.Present = append(s.Present, label)
		return
	}
	s.Missing = append(s.Missing, label)
}

func (b *builder) kinds(resolvers ...func(string) (versioning.Kind, bool)) []versioning.Kind {
	var out []versioning.Kind
	for _, resolve := range resolvers {
		for _, lang := range b.langs {
			if k, ok := resolve(lang); ok {
				out = append(out, k)
			}
		}
	}
	return out
}

// versioned checks that each unit's kind for every language sits at the
// expected version computed over basis.
func (b *builder) versioned(name string, basis []versioning.Kind, resolve func(string) (versioning.Kind, bool)) (Stage, error) {
	exp, err := expected.ForDocument(b.src, b.dirs, basis, 0)
	if err != nil {
		return Stage{}, err
	}
	s := Stage{Name: name, Expected: exp, Total: len(b.units) * len(b.langs)}
	for _, u := range b.units {
		for _, lang := range b.langs {
			kind, ok := resolve(lang)
			if !ok {
				continue
			}
			current, err := b.src.LatestOrdinal(u.Dir, kind)
			if err != nil {
				return Stage{}, fmt.Errorf("%s %s: %w", u.Label(), kind, err)
			}
			label := u.Name() + "/" + kind.Base()
			switch {
			case current > 0 && current == exp:
				s.Done++
				s.Present = append(s.Present, fmt.Sprintf("%s (v%d)", label, current))
			case current > 0:
				s.Missing = append(s.Missing, fmt.Sprintf("%s (has v%d, needs v%d)", label, current, max(exp, 1)))
			default:
				s.Missing = append(s.Missing, fmt.Sprintf("%s (needs v%d)", label, max(exp, 1)))
			}
		}
	}
	return s, nil
}

func (b *builder) slideshow(pageVideoExpected int) Stage {
	s := Stage{Name: StageSlideshow, Total: len(b.langs)}
	latest := make(map[string]int, len(b.langs))
	for _, lang := range b.langs {
		stem := language.SlideshowStem(lang)
		_, n, _ := b.ws.LatestSlideshow(b.doc, stem)
		latest[stem] = n
		s.Expected = max(s.Expected, n)
	}
	s.Expected = max(s.Expected, pageVideoExpected, 1)
	for _, lang := range b.langs {
		stem := language.SlideshowStem(lang)
		label := stem + "_slideshow"
		switch n := latest[stem]; {
		case exists(b.ws.SlideshowPath(b.doc, stem, s.Expected)):
			s.Done++
			s.Present = append(s.Present, fmt.Sprintf("%s (v%d)", label, s.Expected))
		case n > 0:
			s.Missing = append(s.Missing, fmt.Sprintf("%s (has v%d, needs v%d)", label, n, s.Expected))
		default:
			s.Missing = append(s.Missing, fmt.Sprintf("%s (needs v%d)", label, s.Expected))
		}
	}
	return s
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
