package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/moajmalnk/bugricer-sub002/internal/model"
)

// IAttachmentRepository defines the interface for voice-attachment metadata
type IAttachmentRepository interface {
	Create(ctx context.Context, attachment *model.VoiceAttachment) error
	FindByID(ctx context.Context, id string) (*model.VoiceAttachment, error)
}

// AttachmentRepository implements IAttachmentRepository on gorm
type AttachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new IAttachmentRepository instance
func NewAttachmentRepository(db *gorm.DB) IAttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *model.VoiceAttachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *AttachmentRepository) FindByID(ctx context.Context, id string) (*model.VoiceAttachment, error) {
	var attachment model.VoiceAttachment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attachment, nil
}
