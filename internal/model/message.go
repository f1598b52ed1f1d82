package model

import (
	"time"
)

// Message types
const (
	MessageTypeText  = "text"
	MessageTypeVoice = "voice"
	MessageTypeReply = "reply"
)

// ChatMessage is one entry in a group's ordered message log.
//
// IDs are Snowflake-generated and therefore time-sortable; SeqID is a
// per-group counter assigned at send time. Ordering within a group is by
// SeqID, with ID as the tie-break. Rows are immutable after creation except
// for the IsDeleted tombstone flag.
type ChatMessage struct {
	ID         string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	GroupID    string `gorm:"index:idx_messages_group_seq;not null;type:varchar(64)" json:"group_id"`
	SenderID   string `gorm:"index;not null;type:varchar(64)" json:"sender_id"`
	SenderName string `gorm:"not null;type:varchar(255)" json:"sender_name"`

	MessageType string `gorm:"not null;default:text;type:varchar(16)" json:"message_type"`
	Content     string `gorm:"type:text" json:"content"`

	VoiceFilePath string  `gorm:"type:varchar(512)" json:"voice_file_path,omitempty"`
	VoiceDuration float64 `json:"voice_duration,omitempty"`

	// ReplyToMessageID references the parent message for replies. Empty for
	// non-reply messages. The parent may itself be soft-deleted; the reply
	// stays resolvable and renders a tombstone preview.
	ReplyToMessageID string `gorm:"index;type:varchar(64)" json:"reply_to_message_id,omitempty"`

	SeqID     int64 `gorm:"index:idx_messages_group_seq;not null" json:"seq_id"`
	IsDeleted bool  `gorm:"not null;default:false" json:"is_deleted"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// IsVoice reports whether the message carries a voice attachment.
func (m *ChatMessage) IsVoice() bool {
	return m.MessageType == MessageTypeVoice
}
