package service

import (
	"context"
	"fmt"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/internal/model"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/redis"
)

// TypingRequest represents a typing state update
type TypingRequest struct {
	IsTyping bool `json:"is_typing"`
}

// ITypingService defines the interface for typing indicator operations
type ITypingService interface {
	// SetTyping records or clears the caller's typing state in a group.
	SetTyping(ctx context.Context, groupID, userID, userName string, isTyping bool) error

	// ListTyping returns the members currently typing in a group, excluding
	// the caller. Staleness is decided at read time, so an abandoned state
	// disappears without any explicit clear.
	ListTyping(ctx context.Context, groupID, userID string) ([]model.TypingIndicator, error)
}

// TypingService implements the ITypingService interface
type TypingService struct {
	redisClient  redis.RedisClient
	groupService IGroupService
	cfg          *config.ChatConfig
}

// NewTypingService creates a new ITypingService instance
func NewTypingService(redisClient redis.RedisClient, groupService IGroupService, cfg *config.ChatConfig) ITypingService {
	return &TypingService{
		redisClient:  redisClient,
		groupService: groupService,
		cfg:          cfg,
	}
}

func (s *TypingService) SetTyping(ctx context.Context, groupID, userID, userName string, isTyping bool) error {
	isMember, err := s.groupService.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotGroupMember
	}

	if isTyping {
		if err := s.redisClient.SetTyping(ctx, groupID, userID, userName); err != nil {
			return fmt.Errorf("failed to set typing state: %w", err)
		}
		return nil
	}
	if err := s.redisClient.ClearTyping(ctx, groupID, userID); err != nil {
		return fmt.Errorf("failed to clear typing state: %w", err)
	}
	return nil
}

func (s *TypingService) ListTyping(ctx context.Context, groupID, userID string) ([]model.TypingIndicator, error) {
	isMember, err := s.groupService.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}

	typists, err := s.redisClient.ActiveTypists(ctx, groupID, s.cfg.TypingTTL())
	if err != nil {
		return nil, fmt.Errorf("failed to list typists: %w", err)
	}

	others := make([]model.TypingIndicator, 0, len(typists))
	for _, t := range typists {
		if t.UserID == userID {
			continue
		}
		others = append(others, t)
	}
	return others, nil
}
