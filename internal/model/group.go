package model

import "time"

// Group-level member roles
const (
	GroupRoleAdmin  = "admin"
	GroupRoleMember = "member"
)

// ChatGroup is a named chat channel scoped to exactly one project.
type ChatGroup struct {
	ID          string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name        string `gorm:"not null;type:varchar(100)" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	ProjectID   string `gorm:"index;not null;type:varchar(64)" json:"project_id"`
	CreatedBy   string `gorm:"not null;type:varchar(64)" json:"created_by"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ChatGroup) TableName() string {
	return "chat_groups"
}

// ChatGroupMember relates a user to a group. The composite unique index makes
// membership a set: inserting a duplicate (group, user) pair fails at the
// database level, which addMembers treats as "already present, skip".
type ChatGroupMember struct {
	ID      string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID string `gorm:"uniqueIndex:idx_group_user;not null;type:varchar(64)" json:"group_id"`
	UserID  string `gorm:"uniqueIndex:idx_group_user;not null;type:varchar(64)" json:"user_id"`
	Role    string `gorm:"type:varchar(32)" json:"role"`

	// LastReadSeq is the per-group sequence number of the newest message the
	// member has read. Best-effort read tracking, not on the critical path.
	LastReadSeq int64 `gorm:"not null;default:0" json:"last_read_seq"`

	JoinedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

func (ChatGroupMember) TableName() string {
	return "chat_group_members"
}
