package main

import (
	"errors"
	"path/filepath"
	"testing"

	"slidecast/internal/taskqueue"
	"slidecast/internal/testsupport"
)

func TestQueueEnqueueDefaultsTargetPastLatestImage(t *testing.T) {
	env := setupCLITestEnv(t)
	dirs := testsupport.SeedDocument(t, env.cfg, "tale", testsupport.UnitFixture{})
	png := filepath.Join(testsupport.BaseDir(env.cfg), "upload.png")
	testsupport.WriteFile(t, png, 32)

	mustRunCLI(t, env, "versions", "create", "tale", "1", "image", "--file", png)
	out := mustRunCLI(t, env, "queue", "enqueue", "tale", "1", "image-edit", "-p", "make it sunny")
	requireContains(t, out, "image_edit_prompt_for_v2.txt")
	requireContains(t, out, "target v2")

	out = mustRunCLI(t, env, "queue", "enqueue", "tale", "1", "image_to_video", "--prompt", "pan slowly", "--target", "4")
	requireContains(t, out, "image_to_video_prompt_for_v4.txt")

	out = mustRunCLI(t, env, "queue", "list", "tale")
	requireContains(t, out, "tale/scene_0001")
	requireContains(t, out, "make it sunny")
	requireContains(t, out, string(taskqueue.StatusPending))

	pending, err := taskqueue.New().ListPending(dirs[0], taskqueue.KindImageToVideo)
	if err != nil || len(pending) != 1 || pending[0].TargetOrdinal != 4 {
		t.Fatalf("pending i2v = %+v, %v", pending, err)
	}
}

func TestQueueEnqueueRefusesTaskInProgress(t *testing.T) {
	env := setupCLITestEnv(t)
	dirs := testsupport.SeedDocument(t, env.cfg, "tale", testsupport.UnitFixture{Image: true})

	q := taskqueue.New()
	task, err := q.Enqueue(dirs[0], taskqueue.KindImageEdit, "first", 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Claim(task); err != nil {
		t.Fatalf("claim: %v", err)
	}

	out := mustRunCLI(t, env, "queue", "enqueue", "tale", "1", "image_edit", "-p", "second", "--target", "1")
	requireContains(t, out, "refused:")
}

func TestQueueEnqueueRejectsEmptyPrompt(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedDocument(t, env.cfg, "tale", testsupport.UnitFixture{})

	if _, _, err := runCLI(t, env, "queue", "enqueue", "tale", "1", "image_edit", "--target", "1"); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}

func TestQueueRequeueFailedTasks(t *testing.T) {
	env := setupCLITestEnv(t)
	dirs := testsupport.SeedDocument(t, env.cfg, "tale", testsupport.UnitFixture{Image: true})

	q := taskqueue.New()
	task, err := q.Enqueue(dirs[0], taskqueue.KindImageEdit, "retry me", 2)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Claim(task); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := q.Fail(task, errors.New("model timeout")); err != nil {
		t.Fatalf("fail: %v", err)
	}

	out := mustRunCLI(t, env, "queue", "requeue", "tale", "1")
	requireContains(t, out, "Requeued")

	pending, err := q.ListPending(dirs[0], taskqueue.KindImageEdit)
	if err != nil || len(pending) != 1 || pending[0].Prompt != "retry me" {
		t.Fatalf("pending = %+v, %v", pending, err)
	}
	requireContains(t, mustRunCLI(t, env, "queue", "requeue", "tale", "1"), "refused:")
}

func TestQueueHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	requireContains(t, mustRunCLI(t, env, "queue", "history"), "No task runs recorded")
}
