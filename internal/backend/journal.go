package backend

import (
	"context"
	"io"
	"log/slog"

	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

// JournalStore is the part of the store the Journal writes to.
type JournalStore interface {
	AppendTimeLog(store.TimeLog) (*store.TimeLog, error)
}

// Journal is a Submitter that forwards to next and records the outcome
// locally. With a nil next, records are kept as local only. The error
// from next is returned unchanged; nothing is retried.
type Journal struct {
	next   worktimer.Submitter
	store  JournalStore
	logger *slog.Logger
}

// NewJournal wraps next. next may be nil.
func NewJournal(next worktimer.Submitter, s JournalStore, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Journal{next: next, store: s, logger: logger}
}

// Submit forwards record and journals the result.
func (j *Journal) Submit(ctx context.Context, record worktimer.TimeLogRecord) error {
	status := store.StatusLocal
	var submitErr error
	if j.next != nil {
		submitErr = j.next.Submit(ctx, record)
		status = store.StatusSubmitted
		if submitErr != nil {
			status = store.StatusFailed
		}
	}

	entry := store.TimeLog{
		WorkItemID:      record.WorkItemID,
		WorkItemLabel:   record.WorkItemLabel,
		ParentContextID: record.ParentContextID,
		LoggerID:        record.LoggerID,
		StartTime:       record.StartTime,
		EndTime:         record.EndTime,
		DurationMinutes: record.DurationMinutes,
		Notes:           record.Notes,
		ManualEntry:     record.ManualEntry,
		Status:          status,
	}
	if submitErr != nil {
		entry.Error = submitErr.Error()
	}
	if _, err := j.store.AppendTimeLog(entry); err != nil {
		j.logger.Warn("journal time log", "work_item", record.WorkItemID, "error", err)
	}
	return submitErr
}
