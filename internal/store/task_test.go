package store

import (
	"testing"

	"github.com/uptaskhq/uptask-server/internal/database"
	"github.com/uptaskhq/uptask-server/internal/model"
)

func setupTaskTestDB(t *testing.T) (*TaskStore, int64, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	u, err := NewUserStore(db).Create("Manager", "manager@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	p, err := NewProjectStore(db).Create("Website", "Acme", "desc", u.ID)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return NewTaskStore(db), p.ID, u.ID
}

func TestTaskCreateDefaultsPending(t *testing.T) {
	ts, projectID, _ := setupTaskTestDB(t)

	task, err := ts.Create(projectID, "Design", "Wireframes")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != model.StatusPending {
		t.Errorf("status = %q, want %q", task.Status, model.StatusPending)
	}
	if task.ProjectID != projectID {
		t.Errorf("project id = %d, want %d", task.ProjectID, projectID)
	}
}

func TestTaskUpdateStatusRecordsChange(t *testing.T) {
	ts, projectID, userID := setupTaskTestDB(t)

	task, err := ts.Create(projectID, "Design", "Wireframes")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	updated, err := ts.UpdateStatus(task.ID, model.StatusInProgress, userID)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != model.StatusInProgress {
		t.Errorf("status = %q, want %q", updated.Status, model.StatusInProgress)
	}
	if len(updated.CompletedBy) != 1 {
		t.Fatalf("status changes = %d, want 1", len(updated.CompletedBy))
	}
	if updated.CompletedBy[0].UserID != userID {
		t.Errorf("changed by = %d, want %d", updated.CompletedBy[0].UserID, userID)
	}
	if updated.CompletedBy[0].Status != model.StatusInProgress {
		t.Errorf("recorded status = %q, want %q", updated.CompletedBy[0].Status, model.StatusInProgress)
	}
}

func TestTaskListByProject(t *testing.T) {
	ts, projectID, _ := setupTaskTestDB(t)

	for _, name := range []string{"Design", "Build", "Ship"} {
		if _, err := ts.Create(projectID, name, "desc"); err != nil {
			t.Fatalf("create task %s: %v", name, err)
		}
	}

	tasks, err := ts.ListByProject(projectID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("tasks = %d, want 3", len(tasks))
	}
}

func TestTaskDelete(t *testing.T) {
	ts, projectID, _ := setupTaskTestDB(t)

	task, err := ts.Create(projectID, "Design", "Wireframes")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := ts.Delete(task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	got, err := ts.GetByID(task.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{
		model.StatusPending, model.StatusOnHold, model.StatusInProgress,
		model.StatusUnderReview, model.StatusCompleted,
	} {
		if !model.ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	if model.ValidStatus("done") {
		t.Error(`ValidStatus("done") = true, want false`)
	}
}
