package scheduler

import "testing"

func TestMediaSyncTaskRoundTrip(t *testing.T) {
	task, err := NewMediaSyncTask(MediaSyncPayload{RecordID: "rec1"})
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	if task.Type() != TaskMediaSync {
		t.Fatalf("unexpected task type %s", task.Type())
	}

	payload, err := ParseMediaSyncPayload(task)
	if err != nil {
		t.Fatalf("failed to parse payload: %v", err)
	}
	if payload.RecordID != "rec1" {
		t.Fatalf("expected rec1, got %s", payload.RecordID)
	}
}
