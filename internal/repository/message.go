package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/moajmalnk/bugricer-sub002/internal/model"
)

// IMessageRepository defines the interface for message data operations
type IMessageRepository interface {
	Create(ctx context.Context, message *model.ChatMessage) error
	FindByID(ctx context.Context, id string) (*model.ChatMessage, error)

	// FindPage returns one page of a group's messages, newest first
	// (page 1 = most recent pageSize messages), plus the total count.
	// Soft-deleted messages are included; the service tombstones them.
	FindPage(ctx context.Context, groupID string, page, pageSize int) ([]*model.ChatMessage, int64, error)

	// MarkDeleted sets the tombstone flag. The row itself is retained so
	// replies and reactions referencing it stay resolvable.
	MarkDeleted(ctx context.Context, id string) error

	// LatestSeq returns the highest seq_id in the group, 0 if empty.
	LatestSeq(ctx context.Context, groupID string) (int64, error)

	// CountAfterSeq counts messages in the group with seq_id > seq.
	CountAfterSeq(ctx context.Context, groupID string, seq int64) (int64, error)

	// FindAfterSeq returns messages with seq_id > seq in ascending order,
	// capped at limit. Pollers use this to catch up after missed ticks.
	FindAfterSeq(ctx context.Context, groupID string, seq int64, limit int) ([]*model.ChatMessage, error)

	FindByIDs(ctx context.Context, ids []string) ([]*model.ChatMessage, error)
}

// MessageRepository implements IMessageRepository on gorm
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new IMessageRepository instance
func NewMessageRepository(db *gorm.DB) IMessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*model.ChatMessage, error) {
	var message model.ChatMessage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) FindPage(ctx context.Context, groupID string, page, pageSize int) ([]*model.ChatMessage, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("group_id = ?", groupID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var messages []*model.ChatMessage
	offset := (page - 1) * pageSize
	err = r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("seq_id DESC, id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}

	return messages, total, nil
}

func (r *MessageRepository) MarkDeleted(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

func (r *MessageRepository) LatestSeq(ctx context.Context, groupID string) (int64, error) {
	var seq *int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Select("MAX(seq_id)").
		Where("group_id = ?", groupID).
		Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	if seq == nil {
		return 0, nil
	}
	return *seq, nil
}

func (r *MessageRepository) CountAfterSeq(ctx context.Context, groupID string, seq int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("group_id = ? AND seq_id > ?", groupID, seq).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepository) FindAfterSeq(ctx context.Context, groupID string, seq int64, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND seq_id > ?", groupID, seq).
		Order("seq_id ASC, id ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.ChatMessage, error) {
	if len(ids) == 0 {
		return []*model.ChatMessage{}, nil
	}
	var messages []*model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
