package web

import (
	"strings"
	"testing"
	"time"
)

func TestCleanup(t *testing.T) {
	jm := NewJobManager()

	// Create an old completed job (2 hours ago)
	old := jm.CreateJob(OpClearAll, []string{"/m/old.mp3"}, nil, "")
	jm.UpdateJob(old.ID, func(j *Job) {
		j.Status = StatusCompleted
	})
	// Backdate CompletedAt
	jm.mu.Lock()
	past := time.Now().Add(-2 * time.Hour)
	jm.jobs[old.ID].CompletedAt = &past
	jm.mu.Unlock()

	recent := jm.CreateJob(OpClearAll, []string{"/m/recent.mp3"}, nil, "")
	jm.UpdateJob(recent.ID, func(j *Job) {
		j.Status = StatusCompleted
	})

	running := jm.CreateJob(OpClearAll, []string{"/m/running.mp3"}, nil, "")
	jm.UpdateJob(running.ID, func(j *Job) {
		j.Status = StatusRunning
	})

	jm.cleanup()

	if _, err := jm.GetJob(old.ID); err == nil {
		t.Error("old completed job should have been cleaned up")
	}
	if _, err := jm.GetJob(recent.ID); err != nil {
		t.Error("recent completed job should NOT have been cleaned up")
	}
	if _, err := jm.GetJob(running.ID); err != nil {
		t.Error("running job should NOT have been cleaned up")
	}
}

func TestCreateJobUniqueIDs(t *testing.T) {
	jm := NewJobManager()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		job := jm.CreateJob(OpClearAll, nil, nil, "")
		if ids[job.ID] {
			t.Fatalf("duplicate job ID: %s", job.ID)
		}
		ids[job.ID] = true
	}
}

func TestJobIDFormat(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(OpClearAll, nil, nil, "")
	if !strings.HasPrefix(job.ID, "job_") {
		t.Errorf("job ID should start with 'job_', got %q", job.ID)
	}
	if len(job.ID) != len("job_")+36 {
		t.Errorf("job ID should carry a UUID, got %q", job.ID)
	}
}

func TestCreateJobTotal(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(OpClear, []string{"a", "b", "c"}, []string{"TITLE"}, "")
	if job.Total != 3 || job.Status != StatusPending {
		t.Errorf("job = %+v", job)
	}
}

func TestUpdateJobTimestamps(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(OpClearAll, nil, nil, "")

	jm.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusRunning
	})
	j, _ := jm.GetJob(job.ID)
	if j.StartedAt == nil {
		t.Error("StartedAt should be set when status changes to running")
	}

	jm.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusCompleted
	})
	j, _ = jm.GetJob(job.ID)
	if j.CompletedAt == nil {
		t.Error("CompletedAt should be set when status changes to completed")
	}
}

func TestFinalStatusSticks(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(OpClearAll, nil, nil, "")

	jm.UpdateJob(job.ID, func(j *Job) { j.Status = StatusCancelled })
	jm.UpdateJob(job.ID, func(j *Job) { j.Status = StatusCompleted })

	j, _ := jm.GetJob(job.ID)
	if j.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", j.Status)
	}
}

func TestGetJobReturnsSnapshot(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(OpClearAll, []string{"a"}, nil, "")

	snap, _ := jm.GetJob(job.ID)
	snap.Files[0] = "changed"
	snap.Progress = 99

	again, _ := jm.GetJob(job.ID)
	if again.Files[0] != "a" || again.Progress != 0 {
		t.Errorf("snapshot mutation leaked: %+v", again)
	}
}

func TestUpdateJobNotFound(t *testing.T) {
	jm := NewJobManager()
	err := jm.UpdateJob("nonexistent", func(j *Job) {})
	if err == nil {
		t.Error("UpdateJob should return error for nonexistent job")
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(OpClearAll, nil, nil, "")

	ch := jm.Subscribe(job.ID)

	jm.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusRunning
	})

	select {
	case update := <-ch:
		if update.Status != StatusRunning {
			t.Errorf("expected status running, got %s", update.Status)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for update")
	}

	jm.Unsubscribe(job.ID, ch)
}

func TestSlowSubscriberGetsFinalUpdate(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(OpClearAll, nil, nil, "")
	ch := jm.Subscribe(job.ID)
	defer jm.Unsubscribe(job.ID, ch)

	for i := 0; i < 20; i++ {
		jm.UpdateJob(job.ID, func(j *Job) { j.Progress++ })
	}
	jm.UpdateJob(job.ID, func(j *Job) { j.Status = StatusCompleted })

	var last *Job
	for len(ch) > 0 {
		last = <-ch
	}
	if last == nil || last.Status != StatusCompleted {
		t.Errorf("last update = %+v, want completed", last)
	}
}
