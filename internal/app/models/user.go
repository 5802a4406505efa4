package models

import (
	"strings"
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID                  int64      `json:"id" db:"id" example:"1"`
	Email               string     `json:"email" db:"email" example:"jane.doe@university.edu"`
	PasswordHash        string     `json:"-" db:"password_hash"`
	Phone               *string    `json:"phone,omitempty" db:"phone" example:"+905551112233"`
	EmailConfirmed      bool       `json:"emailConfirmed" db:"email_confirmed"`
	TwoFactorEnabled    bool       `json:"twoFactorEnabled" db:"two_factor_enabled"`
	FirstName           string     `json:"firstName" db:"first_name" example:"Jane"`
	LastName            string     `json:"lastName" db:"last_name" example:"Doe"`
	UniversityID        *string    `json:"universityId,omitempty" db:"university_id" example:"20210042"`
	UserType            UserType   `json:"userType" db:"user_type" example:"Student"`
	Department          *string    `json:"department,omitempty" db:"department" example:"Computer Engineering"`
	JoinDate            time.Time  `json:"joinDate" db:"join_date"`
	TotalVolunteerHours int        `json:"totalVolunteerHours" db:"total_volunteer_hours"`
	IsActive            bool       `json:"isActive" db:"is_active"`
	LastLoginAt         *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"` // nullable
}

// FullName joins first and last name
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user is an administrator
func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}

// UserFilter narrows the admin user listing
type UserFilter struct {
	Search   string
	IsActive *bool
	UserType UserType
	From     *time.Time
	To       *time.Time
}
