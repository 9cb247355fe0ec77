package models

import "time"

// Field-level validation for team operations lives in the service
// layer so the responses carry per-field message bags; the request
// structs here only shape the JSON.

// CreateTeamRequest represents the request body for creating a team
type CreateTeamRequest struct {
	Name         string `json:"name"`
	PersonalTeam bool   `json:"personal_team"`
}

// UpdateTeamNameRequest represents the request body for renaming a team
type UpdateTeamNameRequest struct {
	Name string `json:"name"`
}

// AddTeamMemberRequest represents the request body for adding a member
type AddTeamMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteTeamMemberRequest represents the request body for inviting a member
type InviteTeamMemberRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UpdateMemberRoleRequest represents the request body for updating a member role
type UpdateMemberRoleRequest struct {
	Role string `json:"role"`
}

// SwitchTeamRequest represents the request body for switching the current team
type SwitchTeamRequest struct {
	TeamID string `json:"team_id" binding:"required"`
}

// TeamResponse represents a team in API responses
type TeamResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	UserID       string    `json:"user_id"`
	PersonalTeam bool      `json:"personal_team"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MemberResponse represents a team member in API responses
type MemberResponse struct {
	UserID      string       `json:"user_id"`
	Role        *string      `json:"role,omitempty"`
	InvitedByID *string      `json:"invited_by_id,omitempty"`
	JoinedAt    time.Time    `json:"joined_at"`
	User        UserResponse `json:"user"`
}

// InvitationResponse represents a pending invitation in API responses
type InvitationResponse struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	Email       string    `json:"email"`
	Role        *string   `json:"role,omitempty"`
	InvitedByID string    `json:"invited_by_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleResponse represents an assignable role in API responses
type RoleResponse struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Description string   `json:"description,omitempty"`
}
