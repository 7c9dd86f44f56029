package store

import (
	"database/sql"
	"fmt"

	"github.com/uptaskhq/uptask-server/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := scanner.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const taskCols = `id, project_id, name, description, status, created_at, updated_at`

func (s *TaskStore) Create(projectID int64, name, description string) (*model.Task, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (project_id, name, description) VALUES (?, ?, ?)`,
		projectID, name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the task with its status-change history loaded, or nil.
func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT id, task_id, user_id, status, created_at FROM task_status_changes WHERE task_id = ? ORDER BY created_at`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("get status changes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.StatusChange
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		t.CompletedBy = append(t.CompletedBy, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status changes: %w", err)
	}
	return t, nil
}

func (s *TaskStore) ListByProject(projectID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE project_id = ? ORDER BY created_at`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) Update(id int64, name, description string) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET name = ?, description = ?, updated_at = datetime('now') WHERE id = ?`,
		name, description, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

// UpdateStatus moves the task to a new status and records who moved it.
func (s *TaskStore) UpdateStatus(id int64, status string, userID int64) (*model.Task, error) {
	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = datetime('now') WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO task_status_changes (task_id, user_id, status) VALUES (?, ?, ?)`,
		id, userID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("record status change: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
