package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

type jsonExport struct {
	ExportedAt   string      `json:"exported_at"`
	Count        int         `json:"count"`
	TotalMinutes int64       `json:"total_minutes"`
	Logs         []jsonEntry `json:"logs"`
}

type jsonEntry struct {
	ID              int64  `json:"id"`
	Project         string `json:"project"`
	ParentContextID string `json:"parent_context_id"`
	WorkItemID      string `json:"work_item_id"`
	WorkItemLabel   string `json:"work_item_label,omitempty"`
	LoggerID        string `json:"logger_id"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int64  `json:"duration_minutes"`
	Duration        string `json:"duration"`
	Notes           string `json:"notes,omitempty"`
	ManualEntry     bool   `json:"manual_entry"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
}

// ToJSON writes journal rows to path as an indented document.
func ToJSON(logs []store.TimeLog, projects map[string]*store.Project, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(logs),
		Logs:       []jsonEntry{},
	}

	for _, l := range logs {
		export.TotalMinutes += l.DurationMinutes
		export.Logs = append(export.Logs, jsonEntry{
			ID:              l.ID,
			Project:         projectName(projects, l.ParentContextID),
			ParentContextID: l.ParentContextID,
			WorkItemID:      l.WorkItemID,
			WorkItemLabel:   l.WorkItemLabel,
			LoggerID:        l.LoggerID,
			StartTime:       l.StartTime.Local().Format(time.RFC3339),
			EndTime:         l.EndTime.Local().Format(time.RFC3339),
			DurationMinutes: l.DurationMinutes,
			Duration:        worktimer.FormatDuration(l.DurationMinutes * 60),
			Notes:           l.Notes,
			ManualEntry:     l.ManualEntry,
			Status:          l.Status,
			Error:           l.Error,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
