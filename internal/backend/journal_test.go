package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

func newJournalStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func onlyLog(t *testing.T, s *store.Store) store.TimeLog {
	t.Helper()
	logs, err := s.ListTimeLogs(store.LogFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Fatalf("expected 1 journal row, got %d", len(logs))
	}
	return logs[0]
}

func TestJournalSubmitted(t *testing.T) {
	s := newJournalStore(t)
	var forwarded []worktimer.TimeLogRecord
	next := worktimer.SubmitterFunc(func(_ context.Context, r worktimer.TimeLogRecord) error {
		forwarded = append(forwarded, r)
		return nil
	})

	j := NewJournal(next, s, nil)
	if err := j.Submit(context.Background(), scenarioRecord()); err != nil {
		t.Fatal(err)
	}
	if len(forwarded) != 1 {
		t.Fatalf("forwarded %d records, want 1", len(forwarded))
	}

	l := onlyLog(t, s)
	if l.Status != store.StatusSubmitted || l.Error != "" {
		t.Fatalf("status = %q, error = %q", l.Status, l.Error)
	}
	if l.WorkItemID != "jc1" || l.ParentContextID != "proj1" || l.WorkItemLabel != "Task X" || l.DurationMinutes != 2 || l.Notes != "done" {
		t.Fatalf("unexpected journal row: %+v", l)
	}
}

func TestJournalFailedReturnsError(t *testing.T) {
	s := newJournalStore(t)
	boom := errors.New("connection refused")
	calls := 0
	next := worktimer.SubmitterFunc(func(context.Context, worktimer.TimeLogRecord) error {
		calls++
		return boom
	})

	err := NewJournal(next, s, nil).Submit(context.Background(), scenarioRecord())
	if !errors.Is(err, boom) {
		t.Fatalf("expected forwarded error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("next called %d times, want exactly 1", calls)
	}

	l := onlyLog(t, s)
	if l.Status != store.StatusFailed || l.Error != "connection refused" {
		t.Fatalf("status = %q, error = %q", l.Status, l.Error)
	}
}

func TestJournalLocalOnly(t *testing.T) {
	s := newJournalStore(t)
	if err := NewJournal(nil, s, nil).Submit(context.Background(), scenarioRecord()); err != nil {
		t.Fatal(err)
	}
	if l := onlyLog(t, s); l.Status != store.StatusLocal {
		t.Fatalf("status = %q, want local", l.Status)
	}
}

func TestJournalWithMachine(t *testing.T) {
	s := newJournalStore(t)
	m := worktimer.New(worktimer.Config{
		Store:     worktimer.NewTimerStore(s, nil),
		Submitter: NewJournal(nil, s, nil),
		Identity:  worktimer.Identity{UserID: "u1", Role: worktimer.RoleFreelancer},
	})
	t.Cleanup(m.Close)

	if _, err := m.Start("jc1", "Task X", "proj1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetState(worktimer.ActiveTimerKey); !ok {
		t.Fatal("running timer should be in the local state table")
	}
	m.Stop(context.Background(), worktimer.StopOptions{Notes: "done"})

	if _, ok, _ := s.GetState(worktimer.ActiveTimerKey); ok {
		t.Fatal("slot should be cleared after Stop")
	}
	l := onlyLog(t, s)
	if l.WorkItemID != "jc1" || l.LoggerID != "u1" || l.Notes != "done" {
		t.Fatalf("unexpected journal row: %+v", l)
	}
}
