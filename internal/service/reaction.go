package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/moajmalnk/bugricer-sub002/internal/model"
	"github.com/moajmalnk/bugricer-sub002/internal/repository"
)

const maxEmojiRunes = 16

// ReactionRequest represents a request to add or remove a reaction
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// IReactionService defines the interface for message reaction operations
type IReactionService interface {
	// AddReaction records a (message, user, emoji) reaction. Adding the same
	// reaction twice is a no-op; returns whether a new reaction was recorded.
	AddReaction(ctx context.Context, messageID, userID, userName, emoji string) (bool, error)

	// RemoveReaction removes the caller's reaction. Removing a reaction that
	// does not exist is a no-op.
	RemoveReaction(ctx context.Context, messageID, userID, emoji string) error

	// ListReactions returns the message's reactions grouped per emoji, in
	// first-reacted order.
	ListReactions(ctx context.Context, messageID, userID string) ([]*ReactionGroup, error)
}

// ReactionService implements the IReactionService interface
type ReactionService struct {
	reactionRepo repository.IReactionRepository
	messageRepo  repository.IMessageRepository
	groupService IGroupService
}

// NewReactionService creates a new IReactionService instance
func NewReactionService(
	reactionRepo repository.IReactionRepository,
	messageRepo repository.IMessageRepository,
	groupService IGroupService,
) IReactionService {
	return &ReactionService{
		reactionRepo: reactionRepo,
		messageRepo:  messageRepo,
		groupService: groupService,
	}
}

func (s *ReactionService) AddReaction(ctx context.Context, messageID, userID, userName, emoji string) (bool, error) {
	if !isEmoji(emoji) {
		return false, ErrInvalidEmoji
	}

	message, err := s.resolveMessage(ctx, messageID, userID)
	if err != nil {
		return false, err
	}
	if message.IsDeleted {
		return false, ErrMessageNotFound
	}

	reaction := &model.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		UserName:  userName,
		Emoji:     emoji,
	}
	added, err := s.reactionRepo.Add(ctx, reaction)
	if err != nil {
		return false, fmt.Errorf("failed to add reaction: %w", err)
	}
	return added, nil
}

func (s *ReactionService) RemoveReaction(ctx context.Context, messageID, userID, emoji string) error {
	if !isEmoji(emoji) {
		return ErrInvalidEmoji
	}

	if _, err := s.resolveMessage(ctx, messageID, userID); err != nil {
		return err
	}

	if _, err := s.reactionRepo.Remove(ctx, messageID, userID, emoji); err != nil {
		return fmt.Errorf("failed to remove reaction: %w", err)
	}
	return nil
}

func (s *ReactionService) ListReactions(ctx context.Context, messageID, userID string) ([]*ReactionGroup, error) {
	message, err := s.resolveMessage(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}
	if message.IsDeleted {
		return []*ReactionGroup{}, nil
	}

	reactions, err := s.reactionRepo.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	return GroupReactions(reactions), nil
}

// resolveMessage loads the message and verifies the caller belongs to its group
func (s *ReactionService) resolveMessage(ctx context.Context, messageID, userID string) (*model.ChatMessage, error) {
	message, err := findMessageIn(ctx, s.messageRepo, messageID)
	if err != nil {
		return nil, err
	}
	isMember, err := s.groupService.IsMember(ctx, message.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}
	return message, nil
}

// isEmoji accepts short sequences of symbol runes: emoji proper plus the
// joiners and variation selectors that compose them. Plain text is rejected.
func isEmoji(emoji string) bool {
	if emoji == "" || !utf8.ValidString(emoji) {
		return false
	}
	runes := 0
	for _, r := range emoji {
		runes++
		if runes > maxEmojiRunes {
			return false
		}
		switch {
		case r == 0x200D || r == 0xFE0F: // ZWJ, variation selector
		case r >= 0x1F000: // emoji blocks
		case r >= 0x2190 && r <= 0x2BFF: // arrows, misc symbols, dingbats
		case r >= 0x1F1E6 && r <= 0x1F1FF: // regional indicators
		default:
			return false
		}
	}
	return true
}
