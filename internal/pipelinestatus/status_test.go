package pipelinestatus_test

import (
	"errors"
	"path/filepath"
	"testing"

	"slidecast/internal/pipelinestatus"
	"slidecast/internal/services"
	"slidecast/internal/testsupport"
	"slidecast/internal/versioning"
	"slidecast/internal/workspace"
)

func TestBuildReportsStagesAgainstExpectedVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dirs := testsupport.SeedDocument(t, cfg, "kids_story", testsupport.UnitFixture{}, testsupport.UnitFixture{})
	ws := workspace.New(cfg.Paths.WorkspaceDir)
	mgr := versioning.NewManager(nil)

	create := func(dir string, kind versioning.Kind, times int) {
		t.Helper()
		for i := 0; i < times; i++ {
			if _, _, err := mgr.CreateVersion(dir, kind, versioning.Bytes([]byte("x")), "test"); err != nil {
				t.Fatal(err)
			}
		}
	}
	create(dirs[0], versioning.KindEnText, 2)
	create(dirs[0], versioning.KindHiText, 2)
	create(dirs[1], versioning.KindEnText, 1)
	create(dirs[0], versioning.KindEnAudio, 2)
	create(dirs[0], versioning.KindEnVideo, 2)
	testsupport.WriteFile(t, ws.SlideshowPath("kids_story", "english", 1), 8)

	report, err := pipelinestatus.Build(ws, mgr, "kids_story", []string{"en", "hi"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.Title != "Kids Story" || report.Units != 2 {
		t.Fatalf("unexpected report header %+v", report)
	}

	tests := []struct {
		stage    string
		done     int
		total    int
		expected int
	}{
		{pipelinestatus.StageExtracted, 2, 2, 0},
		{pipelinestatus.StagePlanned, 2, 3, 0},
		{pipelinestatus.StageRewritten, 2, 4, 2},
		{pipelinestatus.StageAudio, 1, 4, 2},
		{pipelinestatus.StagePageVideos, 1, 4, 2},
		{pipelinestatus.StageSlideshow, 0, 2, 2},
	}
	for _, tt := range tests {
		s, ok := report.Stage(tt.stage)
		if !ok {
			t.Fatalf("missing stage %s", tt.stage)
		}
		if s.Done != tt.done || s.Total != tt.total || s.Expected != tt.expected {
			t.Errorf("%s: got done=%d total=%d expected=%d", tt.stage, s.Done, s.Total, s.Expected)
		}
	}

	rewritten, _ := report.Stage(pipelinestatus.StageRewritten)
	want := "scene_0002/final_text_en (has v1, needs v2)"
	found := false
	for _, m := range rewritten.Missing {
		if m == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %q in %v", want, rewritten.Missing)
	}
	slideshow, _ := report.Stage(pipelinestatus.StageSlideshow)
	if slideshow.Missing[0] != "english_slideshow (has v1, needs v2)" {
		t.Fatalf("unexpected slideshow missing %v", slideshow.Missing)
	}
	if report.Complete() {
		t.Fatal("report should not be complete")
	}
}

func TestBuildPlannedCountsWholeStory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.SeedDocument(t, cfg, "doc", testsupport.UnitFixture{})
	testsupport.WriteText(t, filepath.Join(cfg.Paths.WorkspaceDir, "doc", workspace.WholeStoryFile), "story")
	ws := workspace.New(cfg.Paths.WorkspaceDir)

	report, err := pipelinestatus.Build(ws, versioning.NewManager(nil), "doc", nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	planned, _ := report.Stage(pipelinestatus.StagePlanned)
	if !planned.Complete() {
		t.Fatalf("expected planned complete, got %+v", planned)
	}
}

func TestBuildUnknownDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ws := workspace.New(cfg.Paths.WorkspaceDir)
	if _, err := pipelinestatus.Build(ws, versioning.NewManager(nil), "missing", nil); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
