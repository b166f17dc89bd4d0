package store

import (
	"fmt"
	"time"
)

const workItemColumns = `id, project_id, code, title, tags, archived, created_at, updated_at`

func (s *Store) CreateWorkItem(projectID int64, code, title, tags string) (*WorkItem, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO work_items (project_id, code, title, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		projectID, code, title, tags, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert work item: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetWorkItem(id)
}

func (s *Store) GetWorkItem(id int64) (*WorkItem, error) {
	w, err := scanWorkItem(s.db.QueryRow(`SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get work item %d: %w", id, err)
	}
	return w, nil
}

func (s *Store) ListWorkItems(projectID int64, includeArchived bool) ([]WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE project_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY title`

	rows, err := s.db.Query(query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *w)
	}
	return items, rows.Err()
}

func (s *Store) UpdateWorkItem(id int64, title, tags string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE work_items SET title = ?, tags = ?, updated_at = ? WHERE id = ?`,
		title, tags, now, id,
	)
	return err
}

func (s *Store) ArchiveWorkItem(id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE work_items SET archived = 1, updated_at = ? WHERE id = ?`, now, id,
	)
	return err
}

func scanWorkItem(row scanner) (*WorkItem, error) {
	w := &WorkItem{}
	var createdAt, updatedAt string
	var archived int
	if err := row.Scan(&w.ID, &w.ProjectID, &w.Code, &w.Title, &w.Tags, &archived, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	w.Archived = archived == 1
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return w, nil
}
