package expected_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/expected"
	"slidecast/internal/logging"
	"slidecast/internal/versioning"
)

type fakeSource map[string]map[versioning.Kind]int

func (f fakeSource) LatestOrdinal(unitDir string, kind versioning.Kind) (int, error) {
	if unitDir == "broken" {
		return 0, errors.New("boom")
	}
	return f[unitDir][kind], nil
}

func TestForUnitAndDocument(t *testing.T) {
	src := fakeSource{
		"a": {versioning.KindEnText: 3, versioning.KindEnAudio: 1},
		"b": {versioning.KindHiVideo: 5, versioning.KindImage: 9},
	}
	tests := []struct {
		name  string
		units []string
		kinds []versioning.Kind
		floor int
		want  int
	}{
		{"unit max", []string{"a"}, expected.ConvergenceKinds, 0, 3},
		{"document max", []string{"a", "b"}, expected.ConvergenceKinds, 0, 5},
		{"image excluded", []string{"b"}, []versioning.Kind{versioning.KindEnText}, 0, 0},
		{"image included when asked", []string{"b"}, versioning.AllKinds(), 0, 9},
		{"empty uses floor", []string{"c"}, expected.ConvergenceKinds, expected.DisplayFloor, 1},
		{"no units", nil, expected.ConvergenceKinds, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expected.ForDocument(src, tt.units, tt.kinds, tt.floor)
			if err != nil {
				t.Fatalf("ForDocument: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %d want %d", got, tt.want)
			}
		})
	}
	if got, _ := expected.ForUnit(src, "a", expected.ConvergenceKinds, 0); got != 3 {
		t.Fatalf("ForUnit = %d", got)
	}
	if _, err := expected.ForDocument(src, []string{"a", "broken"}, expected.ConvergenceKinds, 0); err == nil {
		t.Fatal("expected source error to propagate")
	}
}

func TestStaleAndLagging(t *testing.T) {
	src := fakeSource{"a": {versioning.KindEnText: 3, versioning.KindHiText: 3, versioning.KindEnAudio: 2}}
	s, err := expected.Stale(src, "a", versioning.KindEnAudio)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Stale() || s.Current != 2 || s.Expected != 3 {
		t.Fatalf("unexpected staleness %+v", s)
	}
	s, _ = expected.Stale(src, "a", versioning.KindEnText)
	if s.Stale() {
		t.Fatalf("en_text is at the expected version: %+v", s)
	}
	lagging, err := expected.Lagging(src, "a")
	if err != nil {
		t.Fatal(err)
	}
	// en_audio, hi_audio, image, image_video, both page videos
	if len(lagging) != 6 {
		t.Fatalf("expected 6 lagging kinds, got %+v", lagging)
	}
}

func TestImageCountsPerUnitButNotForPipeline(t *testing.T) {
	src := fakeSource{"a": {versioning.KindEnText: 1, versioning.KindImage: 3}}
	if got, _ := expected.ForUnit(src, "a", expected.ConvergenceKinds, 0); got != 1 {
		t.Fatalf("pipeline expected version should ignore the image, got %d", got)
	}
	if got, _ := expected.ForUnit(src, "a", versioning.AllKinds(), 0); got != 3 {
		t.Fatalf("unit expected version should include the image, got %d", got)
	}
	s, err := expected.Stale(src, "a", versioning.KindEnText)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Stale() || s.Expected != 3 {
		t.Fatalf("en_text should trail the image: %+v", s)
	}
	s, _ = expected.Stale(src, "a", versioning.KindImage)
	if s.Stale() {
		t.Fatalf("image is the most advanced kind: %+v", s)
	}
}

func TestRecomputedAfterMutation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scene_0001")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	mgr := versioning.NewManager(logging.NewNop())
	if got, _ := expected.ForUnit(mgr, dir, expected.ConvergenceKinds, 0); got != 0 {
		t.Fatalf("fresh unit expected 0, got %d", got)
	}
	mgr.CreateVersion(dir, versioning.KindEnText, versioning.Text("a"), "m")
	mgr.FastForward(dir, versioning.KindEnText, 3, "")
	if got, _ := expected.ForUnit(mgr, dir, expected.ConvergenceKinds, 0); got != 3 {
		t.Fatalf("expected 3 after fast-forward, got %d", got)
	}
	if err := os.WriteFile(filepath.Join(dir, "page_video_hi_v6.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, _ := expected.ForUnit(mgr, dir, expected.ConvergenceKinds, 0); got != 6 {
		t.Fatalf("loose page video should raise expected version to 6, got %d", got)
	}
}
