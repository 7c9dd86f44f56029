package store

import (
	"database/sql"
	"testing"

	"github.com/uptaskhq/uptask-server/internal/database"
)

func setupProjectTestDB(t *testing.T) (*ProjectStore, *UserStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewProjectStore(db), NewUserStore(db), db
}

func createTestUser(t *testing.T, us *UserStore, email string) int64 {
	t.Helper()
	u, err := us.Create("Test", email, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u.ID
}

func TestProjectCreate(t *testing.T) {
	ps, us, _ := setupProjectTestDB(t)
	managerID := createTestUser(t, us, "manager@example.com")

	p, err := ps.Create("Website", "Acme", "Company site relaunch", managerID)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.ProjectName != "Website" {
		t.Errorf("project name = %q, want %q", p.ProjectName, "Website")
	}
	if p.ManagerID != managerID {
		t.Errorf("manager = %d, want %d", p.ManagerID, managerID)
	}
	if len(p.Team) != 0 {
		t.Errorf("team = %v, want empty", p.Team)
	}
}

func TestProjectGetByIDNotFound(t *testing.T) {
	ps, _, _ := setupProjectTestDB(t)

	p, err := ps.GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if p != nil {
		t.Error("expected nil for nonexistent project")
	}
}

func TestProjectTeamMembership(t *testing.T) {
	ps, us, _ := setupProjectTestDB(t)
	managerID := createTestUser(t, us, "manager@example.com")
	memberID := createTestUser(t, us, "member@example.com")

	p, err := ps.Create("Website", "Acme", "desc", managerID)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	if err := ps.AddMember(p.ID, memberID); err != nil {
		t.Fatalf("add member: %v", err)
	}

	ok, err := ps.IsMember(p.ID, memberID)
	if err != nil {
		t.Fatalf("is member: %v", err)
	}
	if !ok {
		t.Error("expected membership after AddMember")
	}

	got, err := ps.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if len(got.Team) != 1 || got.Team[0] != memberID {
		t.Errorf("team = %v, want [%d]", got.Team, memberID)
	}

	team, err := ps.ListTeam(p.ID)
	if err != nil {
		t.Fatalf("list team: %v", err)
	}
	if len(team) != 1 || team[0].Email != "member@example.com" {
		t.Errorf("team profiles = %+v", team)
	}

	removed, err := ps.RemoveMember(p.ID, memberID)
	if err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if !removed {
		t.Error("expected RemoveMember to report removal")
	}

	removed, err = ps.RemoveMember(p.ID, memberID)
	if err != nil {
		t.Fatalf("remove member again: %v", err)
	}
	if removed {
		t.Error("expected false when removing a non-member")
	}
}

func TestProjectListForUser(t *testing.T) {
	ps, us, _ := setupProjectTestDB(t)
	managerID := createTestUser(t, us, "manager@example.com")
	memberID := createTestUser(t, us, "member@example.com")
	outsiderID := createTestUser(t, us, "outsider@example.com")

	p, err := ps.Create("Website", "Acme", "desc", managerID)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := ps.AddMember(p.ID, memberID); err != nil {
		t.Fatalf("add member: %v", err)
	}

	for _, tc := range []struct {
		userID int64
		want   int
	}{
		{managerID, 1},
		{memberID, 1},
		{outsiderID, 0},
	} {
		projects, err := ps.ListForUser(tc.userID)
		if err != nil {
			t.Fatalf("list for user %d: %v", tc.userID, err)
		}
		if len(projects) != tc.want {
			t.Errorf("user %d sees %d projects, want %d", tc.userID, len(projects), tc.want)
		}
	}
}

func TestProjectDeleteCascades(t *testing.T) {
	ps, us, db := setupProjectTestDB(t)
	managerID := createTestUser(t, us, "manager@example.com")

	p, err := ps.Create("Website", "Acme", "desc", managerID)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	tsk, err := NewTaskStore(db).Create(p.ID, "Design", "Wireframes")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := NewNoteStore(db).Create(tsk.ID, managerID, "First draft ready"); err != nil {
		t.Fatalf("create note: %v", err)
	}

	if err := ps.Delete(p.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	var tasks, notes int
	if err := db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&tasks); err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if err := db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&notes); err != nil {
		t.Fatalf("count notes: %v", err)
	}
	if tasks != 0 || notes != 0 {
		t.Errorf("tasks = %d, notes = %d after project delete, want 0, 0", tasks, notes)
	}
}
