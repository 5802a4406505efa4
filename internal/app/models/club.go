package models

import "time"

// ClubMemberRole is a member's role within a club
type ClubMemberRole string

const (
	ClubRoleMember    ClubMemberRole = "Member"
	ClubRoleOfficer   ClubMemberRole = "Officer"
	ClubRolePresident ClubMemberRole = "President"
)

// MembershipStatus is the approval state of a club membership
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "Pending"
	MembershipApproved MembershipStatus = "Approved"
	MembershipRejected MembershipStatus = "Rejected"
)

// Club defines the model based on the 'clubs' table
type Club struct {
	ID          int64     `json:"id" db:"id"`
	ClubName    string    `json:"clubName" db:"club_name" example:"Photography Club"`
	Description string    `json:"description" db:"description"`
	AdminUserID *int64    `json:"adminUserId,omitempty" db:"admin_user_id"`
	CreatedDate time.Time `json:"createdDate" db:"created_date"`
	LogoURL     *string   `json:"logoUrl,omitempty" db:"logo_url"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	MemberCount int       `json:"memberCount"` // approved members, computed
}

// ClubMember defines the model based on the 'club_members' table
type ClubMember struct {
	ID       int64            `json:"id" db:"id"`
	ClubID   int64            `json:"clubId" db:"club_id"`
	UserID   int64            `json:"userId" db:"user_id"`
	JoinDate time.Time        `json:"joinDate" db:"join_date"`
	Role     ClubMemberRole   `json:"role" db:"role"`
	Status   MembershipStatus `json:"status" db:"status"`
	User     *User            `json:"user,omitempty"` // Relation, no db tag
	Club     *Club            `json:"club,omitempty"` // Relation, no db tag
}

// BlocksJoin reports whether an existing membership prevents a new join request
func (m *ClubMember) BlocksJoin() bool {
	return m.Status == MembershipPending || m.Status == MembershipApproved
}
