package model

import "time"

// MessageReaction is one (message, user, emoji) triple. The composite unique
// index enforces reaction idempotency at the database level: a second insert
// of the same triple conflicts instead of duplicating.
type MessageReaction struct {
	ID        string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	MessageID string `gorm:"uniqueIndex:idx_msg_user_emoji;not null;type:varchar(64)" json:"message_id"`
	UserID    string `gorm:"uniqueIndex:idx_msg_user_emoji;not null;type:varchar(64)" json:"user_id"`
	UserName  string `gorm:"not null;type:varchar(255)" json:"user_name"`
	Emoji     string `gorm:"uniqueIndex:idx_msg_user_emoji;not null;type:varchar(32)" json:"emoji"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MessageReaction) TableName() string {
	return "message_reactions"
}

// PinnedMessage marks a message as pinned in its group. MessageID is unique:
// a message can be pinned at most once concurrently.
type PinnedMessage struct {
	ID           string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID      string `gorm:"index;not null;type:varchar(64)" json:"group_id"`
	MessageID    string `gorm:"uniqueIndex;not null;type:varchar(64)" json:"message_id"`
	PinnedBy     string `gorm:"not null;type:varchar(64)" json:"pinned_by"`
	PinnedByName string `gorm:"not null;type:varchar(255)" json:"pinned_by_name"`

	PinnedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"pinned_at"`
}

func (PinnedMessage) TableName() string {
	return "pinned_messages"
}
