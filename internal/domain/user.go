package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between operator roles
type Role string

// Define constants for roles
const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// SystemUser is an operator account allowed to sign in to the POS
// (front desk staff or the gym owner).
type SystemUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *SystemUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is the authenticated principal of a request. It is built by the
// auth middleware from the bearer token and handed to whatever needs to
// know who is calling.
type Session struct {
	UserID string
	Email  string
	Role   Role
}

func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// HasRole reports whether the session carries any of the given roles.
func (s Session) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}
