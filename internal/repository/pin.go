package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moajmalnk/bugricer-sub002/internal/model"
)

// IPinRepository defines the interface for pinned-message data operations
type IPinRepository interface {
	// Pin records a message as pinned. A message that is already pinned is
	// left untouched. Returns true if the row was actually inserted.
	Pin(ctx context.Context, pin *model.PinnedMessage) (bool, error)

	// Unpin removes the pin for a message. Returns true if a row was removed.
	Unpin(ctx context.Context, messageID string) (bool, error)

	// ListByGroup returns the group's pins, most recently pinned first.
	ListByGroup(ctx context.Context, groupID string) ([]*model.PinnedMessage, error)

	// CountByGroup returns the number of pins in a group.
	CountByGroup(ctx context.Context, groupID string) (int64, error)

	// OldestByGroup returns the earliest pin in a group, or nil if there are none.
	OldestByGroup(ctx context.Context, groupID string) (*model.PinnedMessage, error)

	// IsPinned reports whether the message is currently pinned.
	IsPinned(ctx context.Context, messageID string) (bool, error)

	// PinnedSet returns the subset of messageIDs that are pinned.
	PinnedSet(ctx context.Context, messageIDs []string) (map[string]bool, error)
}

// PinRepository implements IPinRepository on gorm
type PinRepository struct {
	db *gorm.DB
}

// NewPinRepository creates a new IPinRepository instance
func NewPinRepository(db *gorm.DB) IPinRepository {
	return &PinRepository{db: db}
}

// Pin relies on the unique message_id index so concurrent pins of the same
// message collapse to a single row.
func (r *PinRepository) Pin(ctx context.Context, pin *model.PinnedMessage) (bool, error) {
	if pin.ID == "" {
		pin.ID = uuid.New().String()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(pin)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PinRepository) Unpin(ctx context.Context, messageID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Delete(&model.PinnedMessage{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PinRepository) ListByGroup(ctx context.Context, groupID string) ([]*model.PinnedMessage, error) {
	var pins []*model.PinnedMessage
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("pinned_at DESC").
		Find(&pins).Error
	if err != nil {
		return nil, err
	}
	return pins, nil
}

func (r *PinRepository) CountByGroup(ctx context.Context, groupID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PinnedMessage{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *PinRepository) OldestByGroup(ctx context.Context, groupID string) (*model.PinnedMessage, error) {
	var pin model.PinnedMessage
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("pinned_at ASC").
		First(&pin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pin, nil
}

func (r *PinRepository) IsPinned(ctx context.Context, messageID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PinnedMessage{}).
		Where("message_id = ?", messageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PinRepository) PinnedSet(ctx context.Context, messageIDs []string) (map[string]bool, error) {
	pinned := make(map[string]bool)
	if len(messageIDs) == 0 {
		return pinned, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.PinnedMessage{}).
		Where("message_id IN ?", messageIDs).
		Pluck("message_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		pinned[id] = true
	}
	return pinned, nil
}
