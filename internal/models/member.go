package models

import "time"

// Member roles.
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// Member represents an operator account allowed to use the API.
type Member struct {
	ID           string    `json:"id" example:"9b2f6c1e-0d43-4a8b-8f11-2c5e7a9d3b60"`
	Email        string    `json:"email" example:"operator@billstock.io"`
	FullName     string    `json:"full_name" example:"Budi Operator"`
	Role         string    `json:"role" example:"operator"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

// CreateMemberRequest represents a member registration request
type CreateMemberRequest struct {
	Email    string `json:"email" binding:"required,email" example:"operator@billstock.io"`
	Password string `json:"password" binding:"required" example:"supersafe1"`
	FullName string `json:"full_name" binding:"required" example:"Budi Operator"`
	Role     string `json:"role,omitempty" example:"operator"`
}

// UpdateMemberRequest represents a member update request
type UpdateMemberRequest struct {
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
	Password string `json:"password,omitempty"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"operator@billstock.io"`
	Password string `json:"password" binding:"required" example:"supersafe1"`
}

// LoginResponse bundles the bearer token and the authenticated member.
type LoginResponse struct {
	Token  string `json:"token"`
	Member Member `json:"member"`
}
