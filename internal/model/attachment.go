package model

import "time"

// VoiceAttachment records one uploaded voice blob. Created once at upload
// time, immutable, referenced by at most one ChatMessage.
type VoiceAttachment struct {
	ID       string  `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FileURL  string  `gorm:"not null;type:varchar(512)" json:"file_url"`
	FilePath string  `gorm:"not null;type:varchar(512)" json:"-"`
	FileType string  `gorm:"type:varchar(64)" json:"file_type"`
	FileSize int64   `gorm:"not null" json:"file_size"`
	Duration float64 `gorm:"not null" json:"duration"`

	UploadedBy string `gorm:"index;not null;type:varchar(64)" json:"uploaded_by"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (VoiceAttachment) TableName() string {
	return "voice_attachments"
}
