package store

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// appendLog is a test helper that journals a log of minutes starting
// startOffset before now.
func appendLog(t *testing.T, s *Store, parent, item string, startOffset time.Duration, minutes int64, status string) *TimeLog {
	t.Helper()
	start := time.Now().UTC().Add(-startOffset)
	l, err := s.AppendTimeLog(TimeLog{
		WorkItemID:      item,
		ParentContextID: parent,
		LoggerID:        "u1",
		StartTime:       start,
		EndTime:         start.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Status:          status,
	})
	if err != nil {
		t.Fatalf("append log: %v", err)
	}
	return l
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/jobtimer.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetState("k", "v"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: no re-migration, data survives.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	v, ok, err := s2.GetState("k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("state after reopen = %q, %v, %v", v, ok, err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)
	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Projects
// ============================================================

func TestCreateAndGetProject(t *testing.T) {
	s := newTestStore(t)
	p, err := s.CreateProject("proj1", "Website", "#FF0000", "Acme")
	if err != nil {
		t.Fatal(err)
	}
	if p.Code != "proj1" || p.Name != "Website" || p.Color != "#FF0000" || p.Client != "Acme" {
		t.Fatalf("unexpected project: %+v", p)
	}
	if p.ID == 0 || p.Archived || p.CreatedAt.IsZero() {
		t.Fatalf("unexpected defaults: %+v", p)
	}

	byCode, err := s.GetProjectByCode("proj1")
	if err != nil {
		t.Fatal(err)
	}
	if byCode.ID != p.ID {
		t.Fatalf("GetProjectByCode returned %d, want %d", byCode.ID, p.ID)
	}
}

func TestCreateProjectDuplicateCode(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateProject("proj1", "A", "#111", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateProject("proj1", "B", "#222", ""); err == nil {
		t.Fatal("expected error for duplicate project code")
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetProject(999); err == nil {
		t.Fatal("expected error for missing project")
	}
	if _, err := s.GetProjectByCode("nope"); err == nil {
		t.Fatal("expected error for missing project code")
	}
}

func TestListProjects(t *testing.T) {
	s := newTestStore(t)
	s.CreateProject("p2", "B", "#222", "")
	s.CreateProject("p1", "A", "#111", "")

	projects, err := s.ListProjects(false)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].Name != "A" || projects[1].Name != "B" {
		t.Fatalf("expected sorted by name: got %s, %s", projects[0].Name, projects[1].Name)
	}
}

func TestListProjectsEmpty(t *testing.T) {
	s := newTestStore(t)
	projects, err := s.ListProjects(false)
	if err != nil {
		t.Fatal(err)
	}
	if projects != nil {
		t.Fatalf("expected nil slice, got %d items", len(projects))
	}
}

func TestArchiveProject(t *testing.T) {
	s := newTestStore(t)
	p, _ := s.CreateProject("old", "Old", "#333", "")
	s.ArchiveProject(p.ID)

	projects, _ := s.ListProjects(false)
	if len(projects) != 0 {
		t.Fatal("archived project should be hidden")
	}
	projects, _ = s.ListProjects(true)
	if len(projects) != 1 || !projects[0].Archived {
		t.Fatal("archived project should appear with includeArchived")
	}
}

func TestUpdateProject(t *testing.T) {
	s := newTestStore(t)
	p, _ := s.CreateProject("p1", "Old", "#333", "")
	s.UpdateProject(p.ID, "New", "#444", "Globex")
	updated, _ := s.GetProject(p.ID)
	if updated.Name != "New" || updated.Color != "#444" || updated.Client != "Globex" {
		t.Fatalf("update failed: %+v", updated)
	}
	if updated.Code != "p1" {
		t.Fatalf("code should not change, got %q", updated.Code)
	}
}

// ============================================================
// Work items
// ============================================================

func TestCreateAndGetWorkItem(t *testing.T) {
	s := newTestStore(t)
	p, _ := s.CreateProject("proj1", "Website", "#000", "")

	w, err := s.CreateWorkItem(p.ID, "jc1", "Task X", "frontend")
	if err != nil {
		t.Fatal(err)
	}
	if w.ProjectID != p.ID || w.Code != "jc1" || w.Title != "Task X" || w.Tags != "frontend" {
		t.Fatalf("unexpected work item: %+v", w)
	}

	got, err := s.GetWorkItem(w.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Task X" {
		t.Fatalf("got %+v", got)
	}
}

func TestCreateWorkItemDuplicateCodeSameProject(t *testing.T) {
	s := newTestStore(t)
	p, _ := s.CreateProject("proj1", "Website", "#000", "")
	s.CreateWorkItem(p.ID, "jc1", "Task X", "")
	if _, err := s.CreateWorkItem(p.ID, "jc1", "Task Y", ""); err == nil {
		t.Fatal("expected error for duplicate code in one project")
	}
}

func TestCreateWorkItemSameCodeDifferentProjects(t *testing.T) {
	s := newTestStore(t)
	p1, _ := s.CreateProject("p1", "A", "#111", "")
	p2, _ := s.CreateProject("p2", "B", "#222", "")
	if _, err := s.CreateWorkItem(p1.ID, "jc1", "Task", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateWorkItem(p2.ID, "jc1", "Task", ""); err != nil {
		t.Fatalf("same code in another project should be allowed: %v", err)
	}
}

func TestCreateWorkItemInvalidProject(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateWorkItem(999, "jc1", "Orphan", ""); err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestListWorkItems(t *testing.T) {
	s := newTestStore(t)
	p1, _ := s.CreateProject("p1", "A", "#111", "")
	p2, _ := s.CreateProject("p2", "B", "#222", "")
	s.CreateWorkItem(p1.ID, "jc2", "Zeta", "")
	s.CreateWorkItem(p1.ID, "jc1", "Alpha", "")
	s.CreateWorkItem(p2.ID, "jc3", "Other", "")

	items, err := s.ListWorkItems(p1.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Alpha" || items[1].Title != "Zeta" {
		t.Fatalf("expected sorted by title: %s, %s", items[0].Title, items[1].Title)
	}
}

func TestArchiveAndUpdateWorkItem(t *testing.T) {
	s := newTestStore(t)
	p, _ := s.CreateProject("p1", "A", "#111", "")
	w, _ := s.CreateWorkItem(p.ID, "jc1", "Old", "")

	s.UpdateWorkItem(w.ID, "New", "tag")
	got, _ := s.GetWorkItem(w.ID)
	if got.Title != "New" || got.Tags != "tag" {
		t.Fatalf("update failed: %+v", got)
	}

	s.ArchiveWorkItem(w.ID)
	if items, _ := s.ListWorkItems(p.ID, false); len(items) != 0 {
		t.Fatal("archived work item should be hidden")
	}
	if items, _ := s.ListWorkItems(p.ID, true); len(items) != 1 || !items[0].Archived {
		t.Fatal("archived work item should appear with includeArchived")
	}
}

// ============================================================
// Time log journal
// ============================================================

func TestAppendAndGetTimeLog(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	l, err := s.AppendTimeLog(TimeLog{
		WorkItemID:      "jc1",
		WorkItemLabel:   "Task X",
		ParentContextID: "proj1",
		LoggerID:        "u1",
		StartTime:       start,
		EndTime:         start.Add(90 * time.Second),
		DurationMinutes: 2,
		Notes:           "done",
		Status:          StatusFailed,
		Error:           "status 503",
	})
	if err != nil {
		t.Fatal(err)
	}
	if l.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if !l.StartTime.Equal(start) || !l.EndTime.Equal(start.Add(90*time.Second)) {
		t.Fatalf("times = %v..%v", l.StartTime, l.EndTime)
	}
	if l.DurationMinutes != 2 || l.Notes != "done" || l.ManualEntry {
		t.Fatalf("unexpected log: %+v", l)
	}
	if l.Status != StatusFailed || l.Error != "status 503" {
		t.Fatalf("status = %q/%q", l.Status, l.Error)
	}
	if l.RecordedAt.IsZero() {
		t.Fatal("RecordedAt should default to now")
	}
}

func TestGetTimeLogNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetTimeLog(999); err == nil {
		t.Fatal("expected error for missing log")
	}
}

func TestListTimeLogsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	appendLog(t, s, "proj1", "jc1", 2*time.Hour, 30, StatusSubmitted)
	appendLog(t, s, "proj1", "jc2", time.Hour, 15, StatusSubmitted)

	logs, err := s.ListTimeLogs(LogFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(logs))
	}
	if logs[0].WorkItemID != "jc2" {
		t.Fatalf("expected newest first, got %s", logs[0].WorkItemID)
	}
}

func TestListTimeLogsFilters(t *testing.T) {
	s := newTestStore(t)
	appendLog(t, s, "proj1", "jc1", 3*time.Hour, 10, StatusSubmitted)
	appendLog(t, s, "proj1", "jc2", 2*time.Hour, 20, StatusFailed)
	appendLog(t, s, "proj2", "jc3", time.Hour, 30, StatusLocal)

	byParent, _ := s.ListTimeLogs(LogFilter{ParentContextID: "proj1"})
	if len(byParent) != 2 {
		t.Fatalf("parent filter: expected 2, got %d", len(byParent))
	}
	byItem, _ := s.ListTimeLogs(LogFilter{WorkItemID: "jc3"})
	if len(byItem) != 1 || byItem[0].ParentContextID != "proj2" {
		t.Fatalf("work item filter: got %+v", byItem)
	}
	byStatus, _ := s.ListTimeLogs(LogFilter{Status: StatusFailed})
	if len(byStatus) != 1 || byStatus[0].WorkItemID != "jc2" {
		t.Fatalf("status filter: got %+v", byStatus)
	}

	from := time.Now().UTC().Add(-150 * time.Minute)
	recent, _ := s.ListTimeLogs(LogFilter{From: &from})
	if len(recent) != 2 {
		t.Fatalf("date filter: expected 2, got %d", len(recent))
	}

	limited, _ := s.ListTimeLogs(LogFilter{Limit: 1})
	if len(limited) != 1 {
		t.Fatalf("limit: expected 1, got %d", len(limited))
	}
}

func TestGetDailyMinutes(t *testing.T) {
	s := newTestStore(t)
	s.CreateProject("proj1", "Website", "#ABCDEF", "")
	appendLog(t, s, "proj1", "jc1", 2*time.Hour, 30, StatusSubmitted)
	appendLog(t, s, "proj1", "jc2", time.Hour, 45, StatusFailed)
	appendLog(t, s, "unknown", "jc9", time.Hour, 5, StatusLocal)

	now := time.Now().UTC()
	// Logs straddling midnight may split across days; sum over all rows.
	rows, err := s.GetDailyMinutes(now.Add(-24*time.Hour), now.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	byParent := map[string]int64{}
	for _, r := range rows {
		byParent[r.ParentContextID] += r.Minutes
		if r.ParentContextID == "proj1" && (r.ProjectName != "Website" || r.ProjectColor != "#ABCDEF") {
			t.Fatalf("catalog fields not joined: %+v", r)
		}
		if r.ParentContextID == "unknown" && r.ProjectName != "unknown" {
			t.Fatalf("unknown project should fall back to its code: %+v", r)
		}
	}
	if byParent["proj1"] != 75 || byParent["unknown"] != 5 {
		t.Fatalf("minutes = %v", byParent)
	}
}

func TestGetDailyMinutesEmpty(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	rows, err := s.GetDailyMinutes(now.Add(-24*time.Hour), now.Add(24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if rows != nil {
		t.Fatal("expected nil for empty journal")
	}
}

func TestGetMinutesOn(t *testing.T) {
	s := newTestStore(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for _, l := range []TimeLog{
		{WorkItemID: "jc1", StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusSubmitted},
		{WorkItemID: "jc1", StartTime: day.Add(14 * time.Hour), EndTime: day.Add(15 * time.Hour), DurationMinutes: 30, Status: StatusFailed},
		{WorkItemID: "jc1", StartTime: day.Add(-time.Hour), EndTime: day, DurationMinutes: 60, Status: StatusSubmitted},
	} {
		if _, err := s.AppendTimeLog(l); err != nil {
			t.Fatal(err)
		}
	}

	total, err := s.GetMinutesOn(day.Add(12 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if total != 90 {
		t.Fatalf("expected 90 minutes, got %d", total)
	}
}

func TestCountByStatus(t *testing.T) {
	s := newTestStore(t)
	appendLog(t, s, "p", "a", time.Hour, 1, StatusSubmitted)
	appendLog(t, s, "p", "b", time.Hour, 1, StatusSubmitted)
	appendLog(t, s, "p", "c", time.Hour, 1, StatusFailed)

	counts, err := s.CountByStatus()
	if err != nil {
		t.Fatal(err)
	}
	if counts[StatusSubmitted] != 2 || counts[StatusFailed] != 1 || counts[StatusLocal] != 0 {
		t.Fatalf("counts = %v", counts)
	}
}

// ============================================================
// Local state slots
// ============================================================

func TestStateRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, ok, err := s.GetState("active_timer"); err != nil || ok {
		t.Fatalf("empty slot = %v, %v", ok, err)
	}
	if err := s.SetState("active_timer", `{"workItemId":"jc1"}`); err != nil {
		t.Fatal(err)
	}
	v, ok, err := s.GetState("active_timer")
	if err != nil || !ok || v != `{"workItemId":"jc1"}` {
		t.Fatalf("GetState = %q, %v, %v", v, ok, err)
	}

	s.SetState("active_timer", "second")
	if v, _, _ := s.GetState("active_timer"); v != "second" {
		t.Fatalf("overwrite failed: %q", v)
	}

	if err := s.DeleteState("active_timer"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.GetState("active_timer"); ok {
		t.Fatal("slot should be empty after delete")
	}
	if err := s.DeleteState("active_timer"); err != nil {
		t.Fatalf("deleting a missing key: %v", err)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSeedSettings(t *testing.T) {
	s := newTestStore(t)

	if err := s.SeedSettings(map[string]string{SettingReminderMinutes: "60,120", SettingStopNote: ""}); err != nil {
		t.Fatal(err)
	}
	if v, _ := s.GetSetting(SettingReminderMinutes); v != "60,120" {
		t.Fatalf("seeded value = %q", v)
	}

	s.SetSetting(SettingReminderMinutes, "30")
	s.SeedSettings(map[string]string{SettingReminderMinutes: "60,120"})
	if v, _ := s.GetSetting(SettingReminderMinutes); v != "30" {
		t.Fatalf("seed overwrote an edited value: %q", v)
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)

	s.SetSetting("key", "v1")
	s.SetSetting("key", "v2")
	val, _ := s.GetSetting("key")
	if val != "v2" {
		t.Fatalf("expected v2, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nonexistent"); err == nil {
		t.Fatal("expected error for missing setting")
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting("b", "2")
	s.SetSetting("a", "1")
	s.SetSetting("c", "3")

	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

// ============================================================
// Close
// ============================================================

func TestCloseStore(t *testing.T) {
	s, _ := NewMemory()
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
}
