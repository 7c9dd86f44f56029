package model

import "time"

type Note struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	CreatedBy int64     `json:"created_by"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteWithAuthor is a note joined with its author's profile for listings.
type NoteWithAuthor struct {
	Note
	Author Profile `json:"author"`
}
