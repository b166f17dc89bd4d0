package worktimer

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultReminderNote is the note of a stop confirmed from a reminder.
// %s is replaced by the threshold, e.g. "1h".
const DefaultReminderNote = "Stopped after the %s reminder"

// FormatDuration renders seconds as HH:MM:SS. Negative input renders
// as zero.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatElapsed is FormatDuration for a time.Duration, truncated to
// whole seconds.
func FormatElapsed(d time.Duration) string {
	return FormatDuration(int64(d / time.Second))
}

// DurationMinutes rounds d to the nearest whole minute, half away from
// zero: 90s is 2, 29s is 0.
func DurationMinutes(d time.Duration) int64 {
	if d < 0 {
		d = 0
	}
	return int64(math.Round(d.Seconds() / 60))
}

// ReminderNote fills template with threshold. An empty template means
// DefaultReminderNote.
func ReminderNote(template string, threshold time.Duration) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultReminderNote
	}
	return strings.ReplaceAll(template, "%s", thresholdLabel(threshold))
}

func thresholdLabel(d time.Duration) string {
	m := int64(d / time.Minute)
	if m >= 60 && m%60 == 0 {
		return fmt.Sprintf("%dh", m/60)
	}
	return fmt.Sprintf("%dm", m)
}
