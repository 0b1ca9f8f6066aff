package domain

import (
	"strings"
	"time"
)

// Group is a set of people sharing expenses.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerEmail  string    `json:"ownerEmail"`
	SyncEnabled bool      `json:"syncEnabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks required group fields.
func (g *Group) Validate() error {
	return ValidateGroupName(g.Name)
}

// Member is a participant of a group.
type Member struct {
	GroupID  string    `json:"groupId"`
	UserID   string    `json:"userId"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Validate checks required member fields.
func (m *Member) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return ErrInvalidIDFormat
	}
	return ValidateEmail(m.Email)
}
