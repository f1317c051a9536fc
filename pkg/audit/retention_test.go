package audit

import (
	"testing"
	"time"
)

func TestNewRetentionWorker(t *testing.T) {
	worker := NewRetentionWorker(nil, 30, nil)

	if worker == nil {
		t.Fatal("expected non-nil worker")
	}

	expectedRetention := 30 * 24 // hours
	actualHours := int(worker.retention.Hours())
	if actualHours != expectedRetention {
		t.Errorf("expected retention %d hours, got %d", expectedRetention, actualHours)
	}

	expectedInterval := 24 // hours
	actualIntervalHours := int(worker.interval.Hours())
	if actualIntervalHours != expectedInterval {
		t.Errorf("expected interval %d hours, got %d", expectedInterval, actualIntervalHours)
	}
}

func TestNewRetentionWorker_ZeroRetention(t *testing.T) {
	// Worker with zero retention should be disabled (Run returns immediately).
	worker := NewRetentionWorker(nil, 0, nil)

	if worker == nil {
		t.Fatal("expected non-nil worker")
	}

	if worker.retention != 0 {
		t.Errorf("expected zero retention, got %v", worker.retention)
	}
}

func TestRetentionWorker_Cleanup(t *testing.T) {
	store := newTestAuditStore(t)

	old := &EventRecord{
		EventType:   "approval",
		Actor:       "alice",
		SubjectType: SubjectInspection,
		SubjectKey:  "insp-1",
		Outcome:     OutcomeSuccess,
	}
	if err := store.Append(old); err != nil {
		t.Fatal(err)
	}
	// Backdate the event past the retention window.
	err := store.db.Model(&EventRecord{}).Where("id = ?", old.ID).
		Update("created_at", time.Now().Add(-48*time.Hour)).Error
	if err != nil {
		t.Fatal(err)
	}

	recent := &EventRecord{
		EventType:   "approval",
		Actor:       "bob",
		SubjectType: SubjectInspection,
		SubjectKey:  "insp-2",
		Outcome:     OutcomeSuccess,
	}
	if err := store.Append(recent); err != nil {
		t.Fatal(err)
	}

	worker := NewRetentionWorker(store, 1, nil)
	worker.cleanup()

	if _, err := store.Get(old.ID); err != ErrNotFound {
		t.Errorf("old event should be deleted, got err %v", err)
	}
	if _, err := store.Get(recent.ID); err != nil {
		t.Errorf("recent event should survive, got err %v", err)
	}
}
