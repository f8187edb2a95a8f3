// Package models defines server-side data models persisted in the database
// and the public projections returned to API clients.
package models

import "time"

// User is the stored user record. Password always holds a bcrypt hash.
type User struct {
	UserName    string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	JoinAt      time.Time
	LastLoginAt *time.Time
}

// UserSummary is the public profile of a user. It never carries the password.
type UserSummary struct {
	UserName  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// UserDetail is the public profile plus the account timestamps.
type UserDetail struct {
	UserSummary
	JoinAt      time.Time  `json:"join_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// Summary strips private fields from u.
func (u *User) Summary() UserSummary {
	return UserSummary{
		UserName:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}

// Detail strips private fields from u but keeps its timestamps.
func (u *User) Detail() *UserDetail {
	return &UserDetail{
		UserSummary: u.Summary(),
		JoinAt:      u.JoinAt,
		LastLoginAt: u.LastLoginAt,
	}
}
