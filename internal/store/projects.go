package store

import (
	"fmt"
	"time"
)

const projectColumns = `id, code, name, color, client, archived, created_at, updated_at`

func (s *Store) CreateProject(code, name, color, client string) (*Project, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.Exec(
		`INSERT INTO projects (code, name, color, client, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		code, name, color, client, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetProject(id)
}

func (s *Store) GetProject(id int64) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	return p, nil
}

// GetProjectByCode looks a project up by its backend identifier.
func (s *Store) GetProjectByCode(code string) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE code = ?`, code))
	if err != nil {
		return nil, fmt.Errorf("get project %q: %w", code, err)
	}
	return p, nil
}

func (s *Store) ListProjects(includeArchived bool) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(id int64, name, color, client string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE projects SET name = ?, color = ?, client = ?, updated_at = ? WHERE id = ?`,
		name, color, client, now, id,
	)
	return err
}

func (s *Store) ArchiveProject(id int64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`UPDATE projects SET archived = 1, updated_at = ? WHERE id = ?`, now, id,
	)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*Project, error) {
	p := &Project{}
	var createdAt, updatedAt string
	var archived int
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Color, &p.Client, &archived, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.Archived = archived == 1
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return p, nil
}
