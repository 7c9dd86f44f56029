package store

import (
	"database/sql"
	"fmt"

	"github.com/uptaskhq/uptask-server/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

const noteCols = `id, task_id, created_by, content, created_at`

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	err := scanner.Scan(&n.ID, &n.TaskID, &n.CreatedBy, &n.Content, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *NoteStore) Create(taskID, createdBy int64, content string) (*model.Note, error) {
	result, err := s.db.Exec(
		`INSERT INTO notes (task_id, created_by, content) VALUES (?, ?, ?)`,
		taskID, createdBy, content,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id)
	return scanNote(row)
}

func (s *NoteStore) GetByID(id int64) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// ListByTask returns the task's notes with each author's profile joined in.
func (s *NoteStore) ListByTask(taskID int64) ([]model.NoteWithAuthor, error) {
	rows, err := s.db.Query(
		`SELECT n.id, n.task_id, n.created_by, n.content, n.created_at, u.id, u.name, u.email
		 FROM notes n JOIN users u ON u.id = n.created_by
		 WHERE n.task_id = ? ORDER BY n.created_at`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.NoteWithAuthor
	for rows.Next() {
		var n model.NoteWithAuthor
		err := rows.Scan(&n.ID, &n.TaskID, &n.CreatedBy, &n.Content, &n.CreatedAt,
			&n.Author.ID, &n.Author.Name, &n.Author.Email)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (s *NoteStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
