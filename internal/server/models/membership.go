package models

import "time"

// Role is the part a user plays on a farm. The set is open; the constants
// below are the roles the server itself reasons about.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	RoleWorker  Role = "worker"
)

// DefaultRole is granted when a caller does not name one.
const DefaultRole = RoleWorker

// Membership records that UserID may act on FarmID. There is at most one
// membership per (FarmID, UserID).
type Membership struct {
	FarmID    string
	UserID    string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
