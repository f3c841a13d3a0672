package models

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleSuperAdmin       Role = "super_admin"
	RoleDomainLead       Role = "domain_lead"
	RoleCampusAmbassador Role = "campus_ambassador"
	RoleCheckinCrew      Role = "checkin_crew"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleSuperAdmin, RoleDomainLead, RoleCampusAmbassador, RoleCheckinCrew:
		return Role(s), nil
	}

	return "", fmt.Errorf("unknown role %q", s)
}

// Prefix returns the short role code used in generated ticket identifiers.
// Roles are a closed set: an unhandled role is a programmer error, not a fallback.
func (r Role) Prefix() string {
	switch r {
	case RoleSuperAdmin:
		return "SA"
	case RoleDomainLead:
		return "DL"
	case RoleCampusAmbassador:
		return "CA"
	case RoleCheckinCrew:
		return "CC"
	default:
		panic(fmt.Sprintf("models: no prefix for role %q", r))
	}
}

// CanManageEvents reports whether the role may create and mutate events.
func (r Role) CanManageEvents() bool {
	return r == RoleSuperAdmin || r == RoleDomainLead
}

type User struct {
	ID                string
	Email             string
	Name              string
	Role              Role
	PassHash          []byte
	IsVerified        bool
	VerificationToken *string
	CampusID          *string
}

// PublicUser is the only shape in which a user leaves the service:
// no password hash, no verification token.
type PublicUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Venue       string    `json:"venue"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Capacity    int       `json:"capacity"`
	CreatedBy   string    `json:"created_by"`
}

type Campus struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

type Team struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	EventID string `json:"event_id"`
}

type Registration struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	TeamID    *string   `json:"team_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Ticket struct {
	ID       string    `json:"id"`
	Code     string    `json:"code"`
	EventID  string    `json:"event_id"`
	UserID   string    `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
}

// Message is the mail job published to the queue for the mailer worker.
type Message struct {
	Email   string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
