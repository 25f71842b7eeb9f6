package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the actor of every core operation. Admins are not a separate type;
// the resolver branches on Role.
type User struct {
	ID           int64
	Username     string
	Email        string
	Role         Role
	WarehouseIDs []int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
