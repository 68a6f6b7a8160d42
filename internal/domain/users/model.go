package users

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Role         Role
	CreatedAt    time.Time
}
