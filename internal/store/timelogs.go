package store

import (
	"fmt"
	"time"
)

const timeLogColumns = `id, work_item_id, work_item_label, parent_context_id, logger_id,
	start_time, end_time, duration_minutes, notes, manual_entry, status, error, recorded_at`

// AppendTimeLog writes a journal row. RecordedAt defaults to now.
func (s *Store) AppendTimeLog(l TimeLog) (*TimeLog, error) {
	if l.RecordedAt.IsZero() {
		l.RecordedAt = time.Now()
	}
	manual := 0
	if l.ManualEntry {
		manual = 1
	}
	res, err := s.db.Exec(
		`INSERT INTO time_logs (work_item_id, work_item_label, parent_context_id, logger_id,
			start_time, end_time, duration_minutes, notes, manual_entry, status, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.WorkItemID, l.WorkItemLabel, l.ParentContextID, l.LoggerID,
		formatTime(l.StartTime), formatTime(l.EndTime), l.DurationMinutes, l.Notes, manual,
		l.Status, l.Error, formatTime(l.RecordedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("append time log: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTimeLog(id)
}

func (s *Store) GetTimeLog(id int64) (*TimeLog, error) {
	l, err := scanTimeLog(s.db.QueryRow(`SELECT `+timeLogColumns+` FROM time_logs WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get time log %d: %w", id, err)
	}
	return l, nil
}

// ListTimeLogs returns journal rows, newest first.
func (s *Store) ListTimeLogs(f LogFilter) ([]TimeLog, error) {
	query := `SELECT ` + timeLogColumns + ` FROM time_logs WHERE 1=1`
	var args []any

	if f.ParentContextID != "" {
		query += ` AND parent_context_id = ?`
		args = append(args, f.ParentContextID)
	}
	if f.WorkItemID != "" {
		query += ` AND work_item_id = ?`
		args = append(args, f.WorkItemID)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND start_time < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY start_time DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time logs: %w", err)
	}
	defer rows.Close()

	var logs []TimeLog
	for rows.Next() {
		l, err := scanTimeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// GetDailyMinutes sums logged minutes per day and project for logs that
// started in [from, to). Project name and color come from the catalog
// when the project is known locally.
func (s *Store) GetDailyMinutes(from, to time.Time) ([]DailyMinutes, error) {
	rows, err := s.db.Query(`
		SELECT date(l.start_time) AS day, l.parent_context_id,
		       COALESCE(p.name, l.parent_context_id), COALESCE(p.color, '#6C63FF'),
		       COALESCE(SUM(l.duration_minutes), 0), COUNT(*)
		FROM time_logs l
		LEFT JOIN projects p ON p.code = l.parent_context_id
		WHERE l.start_time >= ? AND l.start_time < ?
		GROUP BY day, l.parent_context_id
		ORDER BY day, l.parent_context_id`,
		formatTime(from), formatTime(to),
	)
	if err != nil {
		return nil, fmt.Errorf("daily minutes: %w", err)
	}
	defer rows.Close()

	var out []DailyMinutes
	for rows.Next() {
		var d DailyMinutes
		if err := rows.Scan(&d.Date, &d.ParentContextID, &d.ProjectName, &d.ProjectColor, &d.Minutes, &d.LogCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetMinutesOn returns the minutes logged on the UTC calendar day of day.
func (s *Store) GetMinutesOn(day time.Time) (int64, error) {
	var total int64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(duration_minutes), 0)
		FROM time_logs
		WHERE date(start_time) = ?`, day.UTC().Format("2006-01-02"),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("minutes on %s: %w", day.Format("2006-01-02"), err)
	}
	return total, nil
}

// CountByStatus returns how many journal rows carry each status.
func (s *Store) CountByStatus() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM time_logs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count time logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanTimeLog(row scanner) (*TimeLog, error) {
	l := &TimeLog{}
	var start, end, recorded string
	var manual int
	err := row.Scan(&l.ID, &l.WorkItemID, &l.WorkItemLabel, &l.ParentContextID, &l.LoggerID,
		&start, &end, &l.DurationMinutes, &l.Notes, &manual, &l.Status, &l.Error, &recorded)
	if err != nil {
		return nil, err
	}
	l.ManualEntry = manual == 1
	l.StartTime, _ = time.Parse(time.RFC3339, start)
	l.EndTime, _ = time.Parse(time.RFC3339, end)
	l.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
	return l, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
