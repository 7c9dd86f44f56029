package store

import (
	"database/sql"
	"fmt"

	"github.com/uptaskhq/uptask-server/internal/model"
)

type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func scanProject(scanner interface{ Scan(...any) error }) (*model.Project, error) {
	var p model.Project
	err := scanner.Scan(&p.ID, &p.ProjectName, &p.ClientName, &p.Description, &p.ManagerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const projectCols = `id, project_name, client_name, description, manager_id, created_at, updated_at`

func (s *ProjectStore) Create(projectName, clientName, description string, managerID int64) (*model.Project, error) {
	result, err := s.db.Exec(
		`INSERT INTO projects (project_name, client_name, description, manager_id) VALUES (?, ?, ?, ?)`,
		projectName, clientName, description, managerID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the project with its team member ids loaded, or nil.
func (s *ProjectStore) GetByID(id int64) (*model.Project, error) {
	row := s.db.QueryRow(`SELECT `+projectCols+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	rows, err := s.db.Query(`SELECT user_id FROM project_members WHERE project_id = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("get project team: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		p.Team = append(p.Team, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team: %w", err)
	}
	return p, nil
}

// ListForUser returns projects where the account is manager or team member.
func (s *ProjectStore) ListForUser(userID int64) ([]model.Project, error) {
	rows, err := s.db.Query(
		`SELECT `+projectCols+` FROM projects
		 WHERE manager_id = ?
		    OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)
		 ORDER BY created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectStore) Update(id int64, projectName, clientName, description string) (*model.Project, error) {
	_, err := s.db.Exec(
		`UPDATE projects SET project_name = ?, client_name = ?, description = ?, updated_at = datetime('now') WHERE id = ?`,
		projectName, clientName, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes the project. Tasks, notes, and memberships cascade through
// foreign keys.
func (s *ProjectStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (s *ProjectStore) AddMember(projectID, userID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`,
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember removes the account from the team. Returns false when the
// account was not on it.
func (s *ProjectStore) RemoveMember(projectID, userID int64) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return count > 0, nil
}

func (s *ProjectStore) IsMember(projectID, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM project_members WHERE project_id = ? AND user_id = ?`,
		projectID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	return n > 0, nil
}

// ListTeam returns the id/name/email projection of every team member.
func (s *ProjectStore) ListTeam(projectID int64) ([]model.Profile, error) {
	rows, err := s.db.Query(
		`SELECT u.id, u.name, u.email FROM users u
		 JOIN project_members pm ON pm.user_id = u.id
		 WHERE pm.project_id = ? ORDER BY pm.created_at`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}
	defer rows.Close()

	var team []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Email); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		team = append(team, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team: %w", err)
	}
	return team, nil
}
