package model

import "time"

type Project struct {
	ID          int64     `json:"id"`
	ProjectName string    `json:"project_name"`
	ClientName  string    `json:"client_name"`
	Description string    `json:"description"`
	ManagerID   int64     `json:"manager_id"`
	Team        []int64   `json:"team,omitempty"`
	Tasks       []Task    `json:"tasks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ManagedBy reports whether the account is the project's manager. Mutating a
// project or its tasks requires this.
func (p *Project) ManagedBy(accountID int64) bool {
	return p.ManagerID == accountID
}

// VisibleTo reports whether the account is the manager or a team member.
// This is the looser predicate used for read access.
func (p *Project) VisibleTo(accountID int64) bool {
	if p.ManagerID == accountID {
		return true
	}
	for _, id := range p.Team {
		if id == accountID {
			return true
		}
	}
	return false
}
