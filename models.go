package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleListener is the default role assigned on registration
	RoleListener UserRole = "listener"
	// RoleStaff covers show hosts and content editors
	RoleStaff UserRole = "staff"
	// RoleAdmin can manage users, events, and station content
	RoleAdmin UserRole = "admin"
)

// User is the account model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	DisplayName   string     `bun:"display_name,notnull" json:"display_name,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	IsProtected   bool       `bun:"is_protected,notnull,default:false" json:"is_protected,omitempty"`
	Profile       *Profile   `bun:"rel:has-one,join:id=user_id" json:"profile,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// NormalizeEmail lowercases and trims an email for storage and lookups.
// Every write and every lookup goes through this so two addresses that
// differ only by case collapse to the same record.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile holds the mutable presentation fields attached to a user.
// An empty profile row is created together with the user record.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	Bio           string     `bun:"bio" json:"bio,omitempty"`
	AvatarURL     string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Event is a station event listeners can register for. Capacity is nil
// for unlimited events. RegisteredCount is denormalized and must always
// equal the number of registration rows; it only moves inside the same
// transaction that inserts or deletes a row.
type Event struct {
	bun.BaseModel   `bun:"table:events,alias:evt"`
	ID              uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title           string     `bun:"title,notnull" json:"title,omitempty"`
	Capacity        *int       `bun:"capacity" json:"capacity,omitempty"`
	RegisteredCount int        `bun:"registered_count,notnull,default:0" json:"registered_count"`
	StartsAt        *time.Time `bun:"starts_at,nullzero" json:"starts_at,omitempty"`
	CreatedAt       *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt       *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// HasCapacity reports whether the event still has free slots.
func (e *Event) HasCapacity() bool {
	if e.Capacity == nil {
		return true
	}
	return e.RegisteredCount < *e.Capacity
}

// EventRegistration is the (event, user) join row. Created on register,
// deleted on unregister, never updated in place.
type EventRegistration struct {
	bun.BaseModel `bun:"table:event_registrations,alias:evr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	EventID       uuid.UUID  `bun:"event_id,notnull,type:uuid" json:"event_id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// DirectoryPage is one page of users for the admin directory.
type DirectoryPage struct {
	Users      []*User `json:"users"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

// DirectoryStats aggregates counts for the admin dashboard.
type DirectoryStats struct {
	TotalUsers         int            `json:"total_users"`
	ActiveUsers        int            `json:"active_users"`
	UsersByRole        map[string]int `json:"users_by_role"`
	TotalEvents        int            `json:"total_events"`
	TotalRegistrations int            `json:"total_registrations"`
}
