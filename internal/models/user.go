package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// DefaultOrganization is used when a user carries neither a company nor an organization.
const DefaultOrganization = "default"

// User represents an account that can sign in to the dashboard
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email              string             `bson:"email" json:"email"`
	PasswordHash       string             `bson:"password" json:"-"`
	Name               string             `bson:"name" json:"name"`
	Role               Role               `bson:"role" json:"role"`
	Organization       string             `bson:"organization" json:"organization"`
	Company            string             `bson:"company" json:"company"`
	IsActive           bool               `bson:"isActive" json:"isActive"`
	Suspended          bool               `bson:"suspended" json:"suspended"`
	MustChangePassword bool               `bson:"mustChangePassword" json:"mustChangePassword"`
	LastLogin          *time.Time         `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Organization groups users, machines and billing under one plan
type Organization struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name      string              `bson:"name" json:"name"`
	PlanID    *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	Suspended bool                `bson:"suspended" json:"suspended"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Company      string `json:"company"`
	Organization string `json:"organization"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Claims represents the session token claims
type Claims struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	Organization string `json:"organization"`
	Exp          int64  `json:"exp"`
}

// IsAdmin reports whether the session belongs to an administrator.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	switch u.Role {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != "manage_plans" && action != "manage_access_requests"
	case RoleOperator:
		return action == "view_records" || action == "create_prestart" ||
			action == "create_service" || action == "update_service"
	case RoleViewer:
		return action == "view_records"
	default:
		return false
	}
}

// ResolveOrganization returns the organization a user belongs to. A company value
// always takes precedence over the organization field.
func ResolveOrganization(company, organization string) string {
	switch {
	case company != "":
		return company
	case organization != "":
		return organization
	default:
		return DefaultOrganization
	}
}
