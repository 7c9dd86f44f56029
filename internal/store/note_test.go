package store

import (
	"testing"

	"github.com/uptaskhq/uptask-server/internal/database"
)

func setupNoteTestDB(t *testing.T) (*NoteStore, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("Alice", "alice@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	p, err := NewProjectStore(db).Create("Website", "Acme", "desc", u.ID)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	task, err := NewTaskStore(db).Create(p.ID, "Design", "Wireframes")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return NewNoteStore(db), task.ID, u.ID
}

func TestNoteCreateAndList(t *testing.T) {
	ns, taskID, userID := setupNoteTestDB(t)

	n, err := ns.Create(taskID, userID, "Looks good so far")
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if n.Content != "Looks good so far" {
		t.Errorf("content = %q", n.Content)
	}

	notes, err := ns.ListByTask(taskID)
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(notes))
	}
	if notes[0].Author.Email != "alice@example.com" {
		t.Errorf("author = %+v", notes[0].Author)
	}
}

func TestNoteDelete(t *testing.T) {
	ns, taskID, userID := setupNoteTestDB(t)

	n, err := ns.Create(taskID, userID, "temp")
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if err := ns.Delete(n.ID); err != nil {
		t.Fatalf("delete note: %v", err)
	}

	got, err := ns.GetByID(n.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}
