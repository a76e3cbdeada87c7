package testsupport

import (
	"fmt"
	"path/filepath"
	"testing"

	"slidecast/internal/config"
)

// UnitFixture describes one scene directory to seed.
type UnitFixture struct {
	Text  string
	Image bool
}

// SeedDocument creates document under the configured workspace with one
// scene directory per fixture (scene_0001, scene_0002, ...) and returns the
// unit directories in order.
func SeedDocument(t testing.TB, cfg *config.Config, document string, units ...UnitFixture) []string {
	t.Helper()
	docDir := filepath.Join(cfg.Paths.WorkspaceDir, document)
	dirs := make([]string, 0, len(units))
	for i, fixture := range units {
		dir := filepath.Join(docDir, fmt.Sprintf("scene_%04d", i+1))
		text := fixture.Text
		if text == "" {
			text = fmt.Sprintf("Page %d text.", i+1)
		}
		WriteText(t, filepath.Join(dir, "clean_text.txt"), text)
		if fixture.Image {
			WriteFile(t, filepath.Join(dir, "image_to_use.png"), 64)
		}
		dirs = append(dirs, dir)
	}
	return dirs
}
