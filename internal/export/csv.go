package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/jobtimer/internal/store"
	"github.com/sadopc/jobtimer/internal/worktimer"
)

// ToCSV writes journal rows to path. projects maps a parent context code
// to its catalog entry; unknown codes are written as-is.
func ToCSV(logs []store.TimeLog, projects map[string]*store.Project, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"ID", "Project", "Work Item", "Label", "Start", "End", "Minutes", "Duration", "Notes", "Status", "Error"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, l := range logs {
		row := []string{
			fmt.Sprintf("%d", l.ID),
			projectName(projects, l.ParentContextID),
			l.WorkItemID,
			l.WorkItemLabel,
			l.StartTime.Local().Format(time.RFC3339),
			l.EndTime.Local().Format(time.RFC3339),
			fmt.Sprintf("%d", l.DurationMinutes),
			worktimer.FormatDuration(l.DurationMinutes * 60),
			l.Notes,
			l.Status,
			l.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func projectName(projects map[string]*store.Project, code string) string {
	if p, ok := projects[code]; ok {
		return p.Name
	}
	if code == "" {
		return "Unknown"
	}
	return code
}
