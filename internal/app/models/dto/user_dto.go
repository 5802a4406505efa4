package dto

import (
	"time"

	"github.com/yigit/unievents/internal/app/models"
)

// UserResponse represents the public view of a user
type UserResponse struct {
	ID                  int64           `json:"id"`
	Email               string          `json:"email"`
	FirstName           string          `json:"firstName"`
	LastName            string          `json:"lastName"`
	Phone               *string         `json:"phone,omitempty"`
	UniversityID        *string         `json:"universityId,omitempty"`
	Department          *string         `json:"department,omitempty"`
	UserType            models.UserType `json:"userType" example:"Student"`
	EmailConfirmed      bool            `json:"emailConfirmed"`
	TwoFactorEnabled    bool            `json:"twoFactorEnabled"`
	IsActive            bool            `json:"isActive"`
	JoinDate            time.Time       `json:"joinDate"`
	LastLoginAt         *time.Time      `json:"lastLoginAt,omitempty"`
	TotalVolunteerHours int             `json:"totalVolunteerHours"`
}

// UpdateProfileRequest represents the fields a user may edit on their own profile
type UpdateProfileRequest struct {
	FirstName    string  `json:"firstName" binding:"required,max=100"`
	LastName     string  `json:"lastName" binding:"required,max=100"`
	Phone        *string `json:"phone" binding:"omitempty,phone"`
	UniversityID *string `json:"universityId" binding:"omitempty,max=50"`
	Department   *string `json:"department" binding:"omitempty,max=100"`
}

// ChangePasswordRequest starts a verified password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=128"`
}

// CodeRequest carries a one-time code for the authenticated user
type CodeRequest struct {
	Code string `json:"code" binding:"required,len=6,numeric"`
}

// PasswordRequest re-confirms the caller's password
type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest is used by administrators to create accounts
type CreateUserRequest struct {
	Email        string          `json:"email" binding:"required,email,max=256"`
	Password     string          `json:"password" binding:"required,min=8,max=128"`
	FirstName    string          `json:"firstName" binding:"required,max=100"`
	LastName     string          `json:"lastName" binding:"required,max=100"`
	Phone        *string         `json:"phone" binding:"omitempty,phone"`
	UniversityID *string         `json:"universityId" binding:"omitempty,max=50"`
	Department   *string         `json:"department" binding:"omitempty,max=100"`
	UserType     models.UserType `json:"userType" binding:"required,usertype"`
}

// UpdateUserRequest is used by administrators to edit accounts
type UpdateUserRequest struct {
	Email        string  `json:"email" binding:"required,email,max=256"`
	FirstName    string  `json:"firstName" binding:"required,max=100"`
	LastName     string  `json:"lastName" binding:"required,max=100"`
	Phone        *string `json:"phone" binding:"omitempty,phone"`
	UniversityID *string `json:"universityId" binding:"omitempty,max=50"`
	Department   *string `json:"department" binding:"omitempty,max=100"`
	IsActive     bool    `json:"isActive"`
}

// ChangeRoleRequest sets a user's account type
type ChangeRoleRequest struct {
	UserType models.UserType `json:"userType" binding:"required,usertype"`
}

// UserListResponse is a page of users
type UserListResponse struct {
	Users      []UserResponse `json:"users"`
	Pagination PaginationInfo `json:"pagination"`
}

// DashboardResponse aggregates everything on a student's dashboard
type DashboardResponse struct {
	Registrations         []*models.Registration `json:"registrations"`
	Certificates          []*models.Certificate  `json:"certificates"`
	ClubMemberships       []*models.ClubMember   `json:"clubMemberships"`
	RecentNotifications   []*models.Notification `json:"recentNotifications"`
	UpcomingEvents        []*models.Event        `json:"upcomingEvents"`
	TotalVolunteerHours   int                    `json:"totalVolunteerHours"`
	UnreadNotifications   int                    `json:"unreadNotifications"`
	CompletedEvents       int                    `json:"completedEvents"`
	AttendanceRatePercent int                    `json:"attendanceRate"`
}

// EventHistoryResponse lists the events a user has taken part in
type EventHistoryResponse struct {
	TotalRegistrations  int                    `json:"totalRegistrations"`
	CompletedEvents     []*models.Registration `json:"completedEvents"`
	UpcomingEvents      []*models.Registration `json:"upcomingEvents"`
	TotalVolunteerHours int                    `json:"totalVolunteerHours"`
}
