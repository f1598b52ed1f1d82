package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moajmalnk/bugricer-sub002/internal/model"
)

// IGroupRepository defines the interface for chat group data operations
type IGroupRepository interface {
	Create(ctx context.Context, group *model.ChatGroup, creator *model.ChatGroupMember) error
	FindByID(ctx context.Context, id string) (*model.ChatGroup, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.ChatGroup, error)

	// DeleteCascade removes the group and everything under it (memberships,
	// messages, reactions, pins) in a single transaction.
	DeleteCascade(ctx context.Context, groupID string) error

	// AddMember inserts a membership row, ignoring duplicates.
	// Returns true if the row was actually inserted.
	AddMember(ctx context.Context, member *model.ChatGroupMember) (bool, error)

	// RemoveMember deletes a membership row.
	// Returns true if a row was actually removed.
	RemoveMember(ctx context.Context, groupID, userID string) (bool, error)

	GetMembers(ctx context.Context, groupID string) ([]*model.ChatGroupMember, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)

	// MemberCounts returns member counts for many groups in one query.
	MemberCounts(ctx context.Context, groupIDs []string) (map[string]int64, error)

	// MemberGroupIDs returns the subset of groupIDs the user belongs to.
	MemberGroupIDs(ctx context.Context, userID string, groupIDs []string) (map[string]bool, error)

	// UpdateLastRead raises the member's last-read sequence. It never lowers
	// it, so stale client acks cannot move the cursor backwards.
	UpdateLastRead(ctx context.Context, groupID, userID string, seq int64) error

	FindMember(ctx context.Context, groupID, userID string) (*model.ChatGroupMember, error)
}

// GroupRepository implements IGroupRepository on gorm
type GroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new IGroupRepository instance
func NewGroupRepository(db *gorm.DB) IGroupRepository {
	return &GroupRepository{db: db}
}

// Create creates the group and its creator membership atomically.
func (r *GroupRepository) Create(ctx context.Context, group *model.ChatGroup, creator *model.ChatGroupMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(creator).Error
	})
}

func (r *GroupRepository) FindByID(ctx context.Context, id string) (*model.ChatGroup, error) {
	var group model.ChatGroup
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&group).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) ListByProject(ctx context.Context, projectID string) ([]*model.ChatGroup, error) {
	var groups []*model.ChatGroup
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *GroupRepository) DeleteCascade(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		messageIDs := tx.Model(&model.ChatMessage{}).
			Select("id").
			Where("group_id = ?", groupID)

		if err := tx.Where("message_id IN (?)", messageIDs).
			Delete(&model.MessageReaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).
			Delete(&model.PinnedMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).
			Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).
			Delete(&model.ChatGroupMember{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", groupID).Delete(&model.ChatGroup{}).Error
	})
}

// AddMember inserts via ON CONFLICT DO NOTHING so concurrent adds of the same
// (group, user) pair cannot produce duplicates.
func (r *GroupRepository) AddMember(ctx context.Context, member *model.ChatGroupMember) (bool, error) {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(member)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.ChatGroupMember{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GroupRepository) GetMembers(ctx context.Context, groupID string) ([]*model.ChatGroupMember, error) {
	var members []*model.ChatGroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ChatGroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GroupRepository) MemberCounts(ctx context.Context, groupIDs []string) (map[string]int64, error) {
	if len(groupIDs) == 0 {
		return map[string]int64{}, nil
	}

	type row struct {
		GroupID string
		Count   int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.ChatGroupMember{}).
		Select("group_id, COUNT(*) as count").
		Where("group_id IN ?", groupIDs).
		Group("group_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.GroupID] = r.Count
	}
	return counts, nil
}

func (r *GroupRepository) MemberGroupIDs(ctx context.Context, userID string, groupIDs []string) (map[string]bool, error) {
	if len(groupIDs) == 0 {
		return map[string]bool{}, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.ChatGroupMember{}).
		Select("group_id").
		Where("user_id = ? AND group_id IN ?", userID, groupIDs).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}

	member := make(map[string]bool, len(ids))
	for _, id := range ids {
		member[id] = true
	}
	return member, nil
}

func (r *GroupRepository) UpdateLastRead(ctx context.Context, groupID, userID string, seq int64) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatGroupMember{}).
		Where("group_id = ? AND user_id = ? AND last_read_seq < ?", groupID, userID, seq).
		Update("last_read_seq", seq).Error
}

func (r *GroupRepository) FindMember(ctx context.Context, groupID, userID string) (*model.ChatGroupMember, error) {
	var member model.ChatGroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}
