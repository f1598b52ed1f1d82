package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moajmalnk/bugricer-sub002/internal/model"
)

// IReactionRepository defines the interface for reaction data operations
type IReactionRepository interface {
	// Add inserts a reaction, ignoring an exact duplicate triple.
	// Returns true if the row was actually inserted.
	Add(ctx context.Context, reaction *model.MessageReaction) (bool, error)

	// Remove deletes the (message, user, emoji) triple.
	// Returns true if a row was actually removed.
	Remove(ctx context.Context, messageID, userID, emoji string) (bool, error)

	// ListByMessage returns all reactions on a message ordered by creation
	// time, oldest first.
	ListByMessage(ctx context.Context, messageID string) ([]*model.MessageReaction, error)

	// ListByMessages returns reactions for many messages in one query.
	ListByMessages(ctx context.Context, messageIDs []string) ([]*model.MessageReaction, error)
}

// ReactionRepository implements IReactionRepository on gorm
type ReactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new IReactionRepository instance
func NewReactionRepository(db *gorm.DB) IReactionRepository {
	return &ReactionRepository{db: db}
}

// Add relies on the unique (message_id, user_id, emoji) index for
// idempotency: a concurrent duplicate insert becomes a silent no-op instead
// of a second row.
func (r *ReactionRepository) Add(ctx context.Context, reaction *model.MessageReaction) (bool, error) {
	if reaction.ID == "" {
		reaction.ID = uuid.New().String()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}, {Name: "emoji"}},
			DoNothing: true,
		}).
		Create(reaction)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReactionRepository) Remove(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&model.MessageReaction{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ReactionRepository) ListByMessage(ctx context.Context, messageID string) ([]*model.MessageReaction, error) {
	var reactions []*model.MessageReaction
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}

func (r *ReactionRepository) ListByMessages(ctx context.Context, messageIDs []string) ([]*model.MessageReaction, error) {
	if len(messageIDs) == 0 {
		return []*model.MessageReaction{}, nil
	}
	var reactions []*model.MessageReaction
	err := r.db.WithContext(ctx).
		Where("message_id IN ?", messageIDs).
		Order("created_at ASC").
		Find(&reactions).Error
	if err != nil {
		return nil, err
	}
	return reactions, nil
}
