package versioning_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slidecast/internal/logging"
	"slidecast/internal/services"
	"slidecast/internal/versioning"
)

func newUnit(t *testing.T) (string, *versioning.Manager) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "tiger", "scene_0001")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir unit: %v", err)
	}
	return dir, versioning.NewManager(logging.NewNop())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func assertDense(t *testing.T, mgr *versioning.Manager, dir string, kind versioning.Kind) {
	t.Helper()
	versions, err := mgr.Versions(dir, kind)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	for i, v := range versions {
		if v.Ordinal != i+1 {
			t.Fatalf("ordinals not dense: index %d has ordinal %d (%+v)", i, v.Ordinal, versions)
		}
		if v.File != kind.FileName(i+1) {
			t.Fatalf("unexpected file for ordinal %d: %q", i+1, v.File)
		}
	}
}

func assertLatestTracked(t *testing.T, mgr *versioning.Manager, dir string, kind versioning.Kind) {
	t.Helper()
	h, err := mgr.History(dir, kind)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(h.Versions) == 0 {
		if h.Latest != "" {
			t.Fatalf("latest %q set with no versions", h.Latest)
		}
		return
	}
	for _, v := range h.Versions {
		if v.File == h.Latest {
			return
		}
	}
	t.Fatalf("latest %q not among versions %+v", h.Latest, h.Versions)
}

func TestExampleScenario(t *testing.T) {
	dir, mgr := newUnit(t)

	rec, path, err := mgr.CreateVersion(dir, versioning.KindEnText, versioning.Text("Hello"), "m1")
	if err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if filepath.Base(path) != "final_text_en_v1.txt" {
		t.Fatalf("unexpected path %q", path)
	}
	if rec.Ordinal != 1 || rec.Producer != "m1" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if got := readFile(t, path); got != "Hello" {
		t.Fatalf("unexpected content %q", got)
	}
	if n, _ := mgr.VersionCount(dir, versioning.KindEnText); n != 1 {
		t.Fatalf("expected count 1, got %d", n)
	}

	ok, err := mgr.FastForward(dir, versioning.KindEnText, 4, "")
	if err != nil || !ok {
		t.Fatalf("FastForward: ok=%v err=%v", ok, err)
	}
	versions, _ := mgr.Versions(dir, versioning.KindEnText)
	for _, v := range versions[1:] {
		if v.Producer != versioning.ProducerFastForward {
			t.Fatalf("expected fast-forward producer, got %+v", v)
		}
		if got := readFile(t, filepath.Join(dir, v.File)); got != "Hello" {
			t.Fatalf("ordinal %d content %q", v.Ordinal, got)
		}
	}
	if n, _ := mgr.LatestOrdinal(dir, versioning.KindEnText); n != 4 {
		t.Fatalf("expected latest ordinal 4, got %d", n)
	}

	ok, err = mgr.Restore(dir, versioning.KindEnText, 1)
	if err != nil || !ok {
		t.Fatalf("Restore: ok=%v err=%v", ok, err)
	}
	latest, ok, _ := mgr.LatestVersionPath(dir, versioning.KindEnText)
	if !ok || filepath.Base(latest) != "final_text_en_v1.txt" {
		t.Fatalf("unexpected latest %q", latest)
	}
	if n, _ := mgr.VersionCount(dir, versioning.KindEnText); n != 4 {
		t.Fatalf("restore changed count to %d", n)
	}

	ok, err = mgr.DeleteVersion(dir, versioning.KindEnText, 1)
	if err != nil {
		t.Fatalf("DeleteVersion: %v", err)
	}
	if ok {
		t.Fatal("deleting latest must be refused")
	}
	if _, err := os.Stat(filepath.Join(dir, "final_text_en_v1.txt")); err != nil {
		t.Fatalf("refused delete removed file: %v", err)
	}
}

func TestCreateVersionAppendOnly(t *testing.T) {
	dir, mgr := newUnit(t)
	seen := map[string]bool{}
	for i := 1; i <= 5; i++ {
		rec, path, err := mgr.CreateVersion(dir, versioning.KindHiText, versioning.Text("नमस्ते"), "m")
		if err != nil {
			t.Fatalf("CreateVersion %d: %v", i, err)
		}
		if rec.Ordinal != i {
			t.Fatalf("call %d produced ordinal %d", i, rec.Ordinal)
		}
		if seen[path] {
			t.Fatalf("path %q reused", path)
		}
		seen[path] = true
		assertLatestTracked(t, mgr, dir, versioning.KindHiText)
	}
	assertDense(t, mgr, dir, versioning.KindHiText)
}

func TestCreateVersionUnknownKind(t *testing.T) {
	dir, mgr := newUnit(t)
	_, _, err := mgr.CreateVersion(dir, versioning.Kind("subtitles"), versioning.Text("x"), "m")
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *versioning.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !errors.Is(err, versioning.ErrUnknownKind) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error should match ErrUnknownKind and ErrValidation: %v", err)
	}
	if _, err := os.Stat(versioning.MetadataPath(dir)); !os.IsNotExist(err) {
		t.Fatalf("metadata should not be written, err=%v", err)
	}
}

func TestCreateVersionBinaryFromFileAndBytes(t *testing.T) {
	dir, mgr := newUnit(t)
	src := filepath.Join(t.TempDir(), "edit.png")
	writeFile(t, src, "png-bytes")

	_, path, err := mgr.CreateVersion(dir, versioning.KindImage, versioning.FromFile(src), "qwen/qwen-image-edit-plus")
	if err != nil {
		t.Fatalf("CreateVersion from file: %v", err)
	}
	if filepath.Base(path) != "image_to_use_v1.png" || readFile(t, path) != "png-bytes" {
		t.Fatalf("unexpected result %q", path)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source must remain: %v", err)
	}

	_, path, err = mgr.CreateVersion(dir, versioning.KindEnAudio, versioning.Bytes([]byte("ID3")), "eleven_flash_v2_5")
	if err != nil {
		t.Fatalf("CreateVersion bytes: %v", err)
	}
	if filepath.Base(path) != "final_text_en_v1.mp3" {
		t.Fatalf("unexpected audio path %q", path)
	}

	if _, _, err := mgr.CreateVersion(dir, versioning.KindImage, versioning.Text("nope"), "m"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("text content for binary kind should be a validation error, got %v", err)
	}
}

func TestCreateVersionMissingSourcePropagates(t *testing.T) {
	dir, mgr := newUnit(t)
	_, _, err := mgr.CreateVersion(dir, versioning.KindImage, versioning.FromFile(filepath.Join(dir, "missing.png")), "m")
	if err == nil {
		t.Fatal("expected I/O error for missing source")
	}
	if errors.Is(err, services.ErrValidation) {
		t.Fatalf("I/O error must not be classified as validation: %v", err)
	}
	if n, _ := mgr.VersionCount(dir, versioning.KindImage); n != 0 {
		t.Fatalf("failed create recorded a version")
	}
}

func TestFastForwardNoOps(t *testing.T) {
	dir, mgr := newUnit(t)
	ok, err := mgr.FastForward(dir, versioning.KindEnAudio, 3, "")
	if err != nil || ok {
		t.Fatalf("fast-forward with no versions: ok=%v err=%v", ok, err)
	}

	for i := 0; i < 3; i++ {
		if _, _, err := mgr.CreateVersion(dir, versioning.KindEnText, versioning.Text("t"), "m"); err != nil {
			t.Fatal(err)
		}
	}
	for _, target := range []int{1, 3} {
		ok, err := mgr.FastForward(dir, versioning.KindEnText, target, "")
		if err != nil || ok {
			t.Fatalf("target %d: ok=%v err=%v", target, ok, err)
		}
	}
	if n, _ := mgr.VersionCount(dir, versioning.KindEnText); n != 3 {
		t.Fatalf("no-op fast-forward changed count to %d", n)
	}
	if ok, _ := mgr.FastForward(dir, versioning.Kind("bogus"), 9, ""); ok {
		t.Fatal("unknown kind must be refused")
	}
}

func TestFastForwardConvergence(t *testing.T) {
	dir, mgr := newUnit(t)
	if _, _, err := mgr.CreateVersion(dir, versioning.KindImageVideo, versioning.Bytes([]byte("clip-1")), "wan"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := mgr.CreateVersion(dir, versioning.KindImageVideo, versioning.Bytes([]byte("clip-2")), "wan"); err != nil {
		t.Fatal(err)
	}
	ok, err := mgr.FastForward(dir, versioning.KindImageVideo, 6, "")
	if err != nil || !ok {
		t.Fatalf("FastForward: ok=%v err=%v", ok, err)
	}
	if n, _ := mgr.LatestOrdinal(dir, versioning.KindImageVideo); n != 6 {
		t.Fatalf("latest ordinal %d", n)
	}
	if n, _ := mgr.VersionCount(dir, versioning.KindImageVideo); n != 6 {
		t.Fatalf("version count %d", n)
	}
	p6, _, _ := mgr.VersionPath(dir, versioning.KindImageVideo, 6)
	if readFile(t, p6) != "clip-2" {
		t.Fatalf("ordinal 6 should copy ordinal 2")
	}
	latest, _, _ := mgr.LatestVersionPath(dir, versioning.KindImageVideo)
	if latest != p6 {
		t.Fatalf("latest %q want %q", latest, p6)
	}
	assertDense(t, mgr, dir, versioning.KindImageVideo)
	assertLatestTracked(t, mgr, dir, versioning.KindImageVideo)
}

func TestFastForwardCopiesRestoredLatest(t *testing.T) {
	dir, mgr := newUnit(t)
	mgr.CreateVersion(dir, versioning.KindEnText, versioning.Text("first"), "m")
	mgr.CreateVersion(dir, versioning.KindEnText, versioning.Text("second"), "m")
	if ok, _ := mgr.Restore(dir, versioning.KindEnText, 1); !ok {
		t.Fatal("restore failed")
	}
	if ok, err := mgr.FastForward(dir, versioning.KindEnText, 3, "carry"); err != nil || !ok {
		t.Fatalf("FastForward: ok=%v err=%v", ok, err)
	}
	p3, _, _ := mgr.VersionPath(dir, versioning.KindEnText, 3)
	if readFile(t, p3) != "first" {
		t.Fatalf("fast-forward should copy the restored latest")
	}
	versions, _ := mgr.Versions(dir, versioning.KindEnText)
	if versions[2].Producer != "carry" {
		t.Fatalf("custom producer not recorded: %+v", versions[2])
	}
}

func TestFastForwardKeepsUntrackedVersionFile(t *testing.T) {
	dir, mgr := newUnit(t)
	if _, _, err := mgr.CreateVersion(dir, versioning.KindEnText, versioning.Text("tracked v1"), "m"); err != nil {
		t.Fatal(err)
	}
	v2 := filepath.Join(dir, versioning.KindEnText.FileName(2))
	writeFile(t, v2, "worker v2")

	ok, err := mgr.FastForward(dir, versioning.KindEnText, 3, "")
	if err != nil || !ok {
		t.Fatalf("FastForward: ok=%v err=%v", ok, err)
	}
	if got := readFile(t, v2); got != "worker v2" {
		t.Fatalf("ordinal 2 overwritten with %q", got)
	}
	p3, ok, _ := mgr.VersionPath(dir, versioning.KindEnText, 3)
	if !ok || readFile(t, p3) != "worker v2" {
		t.Fatal("ordinal 3 should copy the adopted ordinal 2")
	}
	versions, _ := mgr.Versions(dir, versioning.KindEnText)
	if len(versions) != 3 || versions[1].Producer != versioning.ProducerExternal {
		t.Fatalf("untracked file not registered: %+v", versions)
	}
	assertDense(t, mgr, dir, versioning.KindEnText)
	assertLatestTracked(t, mgr, dir, versioning.KindEnText)
}

func TestCommitAtKeepsUntrackedVersionFile(t *testing.T) {
	dir, mgr := newUnit(t)
	if _, _, err := mgr.CreateVersion(dir, versioning.KindHiText, versioning.Text("tracked v1"), "m"); err != nil {
		t.Fatal(err)
	}
	v2 := filepath.Join(dir, versioning.KindHiText.FileName(2))
	writeFile(t, v2, "worker v2")

	rec, path, err := mgr.CommitAt(dir, versioning.KindHiText, versioning.Text("new v3"), "m", 3)
	if err != nil {
		t.Fatalf("CommitAt: %v", err)
	}
	if rec.Ordinal != 3 || readFile(t, path) != "new v3" {
		t.Fatalf("unexpected commit %+v at %q", rec, path)
	}
	if got := readFile(t, v2); got != "worker v2" {
		t.Fatalf("ordinal 2 overwritten with %q", got)
	}
	assertDense(t, mgr, dir, versioning.KindHiText)
}

func TestLoadDropsDuplicateOrdinals(t *testing.T) {
	dir, mgr := newUnit(t)
	writeFile(t, filepath.Join(dir, "final_text_en_v1.txt"), "one")
	writeFile(t, filepath.Join(dir, "final_text_en_v2.txt"), "two")
	writeFile(t, versioning.MetadataPath(dir), `{"en_text": {"latest": "final_text_en_v2.txt", "versions": [
  {"ordinal": 1, "file": "final_text_en_v1.txt", "created": "2024-10-24T01:30:00", "model": "first"},
  {"ordinal": 2, "file": "final_text_en_v2.txt", "created": "2024-10-24T01:35:00", "model": "m"},
  {"ordinal": 1, "file": "final_text_en_v1.txt", "created": "2024-10-24T01:40:00", "model": "second"}
]}}`)

	versions, err := mgr.Versions(dir, versioning.KindEnText)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 2 || versions[0].Producer != "first" {
		t.Fatalf("duplicate ordinal kept: %+v", versions)
	}
	assertDense(t, mgr, dir, versioning.KindEnText)
	if n, _ := mgr.VersionCount(dir, versioning.KindEnText); n != 2 {
		t.Fatalf("version count %d", n)
	}
}

func TestRestoreDoesNotDelete(t *testing.T) {
	dir, mgr := newUnit(t)
	for i := 0; i < 3; i++ {
		mgr.CreateVersion(dir, versioning.KindHiAudio, versioning.Bytes([]byte{byte(i)}), "m")
	}
	before, _ := mgr.Versions(dir, versioning.KindHiAudio)
	for _, k := range []int{2, 1, 3} {
		ok, err := mgr.Restore(dir, versioning.KindHiAudio, k)
		if err != nil || !ok {
			t.Fatalf("restore %d: ok=%v err=%v", k, ok, err)
		}
		latest, _, _ := mgr.LatestVersionPath(dir, versioning.KindHiAudio)
		if filepath.Base(latest) != versioning.KindHiAudio.FileName(k) {
			t.Fatalf("latest %q after restore %d", latest, k)
		}
		after, _ := mgr.Versions(dir, versioning.KindHiAudio)
		if len(after) != len(before) {
			t.Fatalf("restore changed history length")
		}
		for i := range after {
			if after[i] != before[i] {
				t.Fatalf("restore changed record %d: %+v vs %+v", i, after[i], before[i])
			}
		}
	}
	for _, k := range []int{0, 4, -1} {
		if ok, _ := mgr.Restore(dir, versioning.KindHiAudio, k); ok {
			t.Fatalf("restore %d should be refused", k)
		}
	}
}

func TestDeleteProtection(t *testing.T) {
	dir, mgr := newUnit(t)
	mgr.CreateVersion(dir, versioning.KindImage, versioning.Bytes([]byte("a")), "m")
	if ok, _ := mgr.DeleteVersion(dir, versioning.KindImage, 1); ok {
		t.Fatal("deleting the sole version must be refused")
	}
	mgr.CreateVersion(dir, versioning.KindImage, versioning.Bytes([]byte("b")), "m")
	mgr.CreateVersion(dir, versioning.KindImage, versioning.Bytes([]byte("c")), "m")

	if ok, _ := mgr.DeleteVersion(dir, versioning.KindImage, 3); ok {
		t.Fatal("deleting latest must be refused")
	}
	if ok, _ := mgr.DeleteVersion(dir, versioning.KindImage, 9); ok {
		t.Fatal("deleting a missing ordinal must be refused")
	}

	ok, err := mgr.DeleteVersion(dir, versioning.KindImage, 2)
	if err != nil || !ok {
		t.Fatalf("DeleteVersion: ok=%v err=%v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "image_to_use_v2.png")); !os.IsNotExist(err) {
		t.Fatalf("file should be removed, err=%v", err)
	}
	versions, _ := mgr.Versions(dir, versioning.KindImage)
	if len(versions) != 2 || versions[0].Ordinal != 1 || versions[1].Ordinal != 3 {
		t.Fatalf("unexpected history after delete: %+v", versions)
	}
	assertLatestTracked(t, mgr, dir, versioning.KindImage)

	_, path, err := mgr.CreateVersion(dir, versioning.KindImage, versioning.Bytes([]byte("d")), "m")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "image_to_use_v4.png" {
		t.Fatalf("ordinals must stay fresh after a mid-history delete, got %q", path)
	}
	if p, ok, _ := mgr.VersionPath(dir, versioning.KindImage, 3); !ok || readFile(t, p) != "c" {
		t.Fatalf("ordinal 3 should still resolve to its original file")
	}
}

func TestLoadBackfillsMissingKindsWithoutWriting(t *testing.T) {
	dir, mgr := newUnit(t)
	legacy := `{"en_text": {"latest": "final_text_en_v2.txt", "versions": [
  {"file": "final_text_en_v1.txt", "created": "2024-10-24T01:30:00", "model": "gemini-2.5-flash"},
  {"file": "final_text_en_v2.txt", "created": "2024-10-24T01:35:00.123456", "model": null}
]}}`
	writeFile(t, versioning.MetadataPath(dir), legacy)

	rec, err := versioning.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, kind := range versioning.AllKinds() {
		if rec[kind] == nil {
			t.Fatalf("kind %s not backfilled", kind)
		}
	}
	en := rec[versioning.KindEnText]
	if en.Versions[1].Ordinal != 2 || en.Latest != "final_text_en_v2.txt" {
		t.Fatalf("unexpected history %+v", en)
	}
	if _, ok := en.Versions[0].CreatedAt(); !ok {
		t.Fatal("naive ISO timestamp should parse")
	}
	if readFile(t, versioning.MetadataPath(dir)) != legacy {
		t.Fatal("Load must not rewrite the stored file")
	}

	n, err := mgr.LatestOrdinal(dir, versioning.KindEnText)
	if err != nil || n != 2 {
		t.Fatalf("LatestOrdinal on legacy record: %d %v", n, err)
	}
}

func TestLoadDefaultRecord(t *testing.T) {
	dir, _ := newUnit(t)
	rec, err := versioning.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rec) != len(versioning.AllKinds()) {
		t.Fatalf("expected %d kinds, got %d", len(versioning.AllKinds()), len(rec))
	}
	for kind, h := range rec {
		if h.Latest != "" || len(h.Versions) != 0 {
			t.Fatalf("kind %s not empty: %+v", kind, h)
		}
	}
}

func TestLoadCorruptRecordErrors(t *testing.T) {
	dir, mgr := newUnit(t)
	writeFile(t, versioning.MetadataPath(dir), "{not json")
	if _, err := versioning.Load(dir); err == nil {
		t.Fatal("expected decode error")
	}
	if _, _, err := mgr.CreateVersion(dir, versioning.KindEnText, versioning.Text("x"), "m"); err == nil {
		t.Fatal("CreateVersion must surface the metadata error")
	}
}

func TestCommitAtCarriesForward(t *testing.T) {
	dir, mgr := newUnit(t)
	mgr.CreateVersion(dir, versioning.KindImageVideo, versioning.Bytes([]byte("v1")), "wan")

	rec, path, err := mgr.CommitAt(dir, versioning.KindImageVideo, versioning.Bytes([]byte("new")), "wan", 4)
	if err != nil {
		t.Fatalf("CommitAt: %v", err)
	}
	if rec.Ordinal != 4 || readFile(t, path) != "new" {
		t.Fatalf("unexpected commit %+v at %q", rec, path)
	}
	p3, _, _ := mgr.VersionPath(dir, versioning.KindImageVideo, 3)
	if readFile(t, p3) != "v1" {
		t.Fatalf("ordinal 3 should carry v1 forward")
	}
	assertDense(t, mgr, dir, versioning.KindImageVideo)

	rec, _, err = mgr.CommitAt(dir, versioning.KindImageVideo, versioning.Bytes([]byte("again")), "wan", 2)
	if err != nil || rec.Ordinal != 5 {
		t.Fatalf("commit below current should append: %+v %v", rec, err)
	}
}

func TestCommitAtOnEmptyHistory(t *testing.T) {
	dir, mgr := newUnit(t)
	rec, path, err := mgr.CommitAt(dir, versioning.KindEnVideo, versioning.Bytes([]byte("page")), "ffmpeg", 3)
	if err != nil {
		t.Fatalf("CommitAt: %v", err)
	}
	if rec.Ordinal != 3 || filepath.Base(path) != "page_video_en_v3.mp4" || rec.Producer != "ffmpeg" {
		t.Fatalf("unexpected commit %+v %q", rec, path)
	}
	assertDense(t, mgr, dir, versioning.KindEnVideo)
	if _, _, err := mgr.CommitAt(dir, versioning.KindEnVideo, versioning.Bytes(nil), "x", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("ordinal 0 should be a validation error, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	k, err := versioning.ParseKind(" EN_AUDIO ")
	if err != nil || k != versioning.KindEnAudio {
		t.Fatalf("ParseKind: %v %v", k, err)
	}
	if _, err := versioning.ParseKind("video"); !errors.Is(err, versioning.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if k, ok := versioning.AudioKind("hi"); !ok || k != versioning.KindHiAudio {
		t.Fatalf("AudioKind(hi) = %v %v", k, ok)
	}
	if k, ok := versioning.TextKind("en"); !ok || k != versioning.KindEnText {
		t.Fatalf("TextKind(en) = %v %v", k, ok)
	}
	if k, ok := versioning.PageVideoKind("hi"); !ok || k != versioning.KindHiVideo {
		t.Fatalf("PageVideoKind(hi) = %v %v", k, ok)
	}
	if _, ok := versioning.TextKind("fr"); ok {
		t.Fatal("unexpected kind for fr")
	}
}

func TestParseOrdinal(t *testing.T) {
	tests := []struct {
		kind versioning.Kind
		name string
		want int
		ok   bool
	}{
		{versioning.KindEnText, "final_text_en_v3.txt", 3, true},
		{versioning.KindEnText, "final_text_en_v3.mp3", 0, false},
		{versioning.KindEnAudio, "final_text_en_v12.mp3", 12, true},
		{versioning.KindEnText, "final_text_en.txt", 0, false},
		{versioning.KindEnText, "final_text_en_v.txt", 0, false},
		{versioning.KindEnText, "final_text_en_v0.txt", 0, false},
		{versioning.KindEnText, "final_text_en_v2_old.txt", 0, false},
		{versioning.KindHiVideo, "page_video_hi_v7.mp4", 7, true},
		{versioning.KindImageVideo, "page_video_en_v1.mp4", 0, false},
	}
	for _, tt := range tests {
		got, ok := tt.kind.ParseOrdinal(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s.ParseOrdinal(%q) = %d,%v want %d,%v", tt.kind, tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
