package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/internal/model"
	"github.com/moajmalnk/bugricer-sub002/internal/repository"
)

// pinPreviewRunes caps the inline text shown for a pinned message
const pinPreviewRunes = 50

// voicePreview stands in for audio content in previews
const voicePreview = "Voice message"

// PinView is a pin joined with a short summary of the pinned message
type PinView struct {
	*model.PinnedMessage
	SenderName  string `json:"sender_name"`
	MessageType string `json:"message_type"`
	Preview     string `json:"preview"`
}

// IPinService defines the interface for pinned-message operations
type IPinService interface {
	// PinMessage pins a message in its group. Pinning an already-pinned
	// message is a no-op; returns whether the pin was newly created. When a
	// group is at its pin limit, the oldest pin is evicted.
	PinMessage(ctx context.Context, messageID, userID, userName string) (bool, error)

	// UnpinMessage removes a pin. Unpinning a message that is not pinned is
	// a no-op.
	UnpinMessage(ctx context.Context, messageID, userID string) error

	// ListPins returns the group's pins, most recently pinned first.
	ListPins(ctx context.Context, groupID, userID string) ([]*PinView, error)
}

// PinService implements the IPinService interface
type PinService struct {
	pinRepo      repository.IPinRepository
	messageRepo  repository.IMessageRepository
	groupService IGroupService
	logger       *zap.Logger
	cfg          *config.ChatConfig
}

// NewPinService creates a new IPinService instance
func NewPinService(
	pinRepo repository.IPinRepository,
	messageRepo repository.IMessageRepository,
	groupService IGroupService,
	logger *zap.Logger,
	cfg *config.ChatConfig,
) IPinService {
	return &PinService{
		pinRepo:      pinRepo,
		messageRepo:  messageRepo,
		groupService: groupService,
		logger:       logger,
		cfg:          cfg,
	}
}

func (s *PinService) PinMessage(ctx context.Context, messageID, userID, userName string) (bool, error) {
	message, err := findMessageIn(ctx, s.messageRepo, messageID)
	if err != nil {
		return false, err
	}
	if message.IsDeleted {
		return false, ErrMessageNotFound
	}

	isMember, err := s.groupService.IsMember(ctx, message.GroupID, userID)
	if err != nil {
		return false, err
	}
	if !isMember {
		return false, ErrNotGroupMember
	}

	// Re-pinning must be a pure no-op; checking before eviction keeps it
	// from costing the group its oldest pin when sitting at the cap.
	alreadyPinned, err := s.pinRepo.IsPinned(ctx, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to check pin state: %w", err)
	}
	if alreadyPinned {
		return false, nil
	}

	if err := s.evictIfFull(ctx, message.GroupID); err != nil {
		return false, err
	}

	pin := &model.PinnedMessage{
		GroupID:      message.GroupID,
		MessageID:    messageID,
		PinnedBy:     userID,
		PinnedByName: userName,
	}
	pinned, err := s.pinRepo.Pin(ctx, pin)
	if err != nil {
		return false, fmt.Errorf("failed to pin message: %w", err)
	}
	return pinned, nil
}

func (s *PinService) UnpinMessage(ctx context.Context, messageID, userID string) error {
	message, err := findMessageIn(ctx, s.messageRepo, messageID)
	if err != nil {
		return err
	}

	isMember, err := s.groupService.IsMember(ctx, message.GroupID, userID)
	if err != nil {
		return err
	}
	if !isMember {
		return ErrNotGroupMember
	}

	if _, err := s.pinRepo.Unpin(ctx, messageID); err != nil {
		return fmt.Errorf("failed to unpin message: %w", err)
	}
	return nil
}

func (s *PinService) ListPins(ctx context.Context, groupID, userID string) ([]*PinView, error) {
	if _, err := s.groupService.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}
	isMember, err := s.groupService.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}

	pins, err := s.pinRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}

	ids := make([]string, 0, len(pins))
	for _, pin := range pins {
		ids = append(ids, pin.MessageID)
	}
	messages, err := s.messageRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pinned messages: %w", err)
	}
	byID := make(map[string]*model.ChatMessage, len(messages))
	for _, m := range messages {
		byID[m.ID] = m
	}

	views := make([]*PinView, 0, len(pins))
	for _, pin := range pins {
		view := &PinView{PinnedMessage: pin}
		if m := byID[pin.MessageID]; m != nil && !m.IsDeleted {
			view.SenderName = m.SenderName
			view.MessageType = m.MessageType
			view.Preview = previewText(m)
		}
		views = append(views, view)
	}
	return views, nil
}

// evictIfFull drops the oldest pin when the group is at its pin limit.
// Pinning always succeeds from the caller's point of view.
func (s *PinService) evictIfFull(ctx context.Context, groupID string) error {
	count, err := s.pinRepo.CountByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to count pins: %w", err)
	}
	if count < int64(s.cfg.MaxPinnedPerGroup) {
		return nil
	}

	oldest, err := s.pinRepo.OldestByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to find oldest pin: %w", err)
	}
	if oldest == nil {
		return nil
	}
	if _, err := s.pinRepo.Unpin(ctx, oldest.MessageID); err != nil {
		return fmt.Errorf("failed to evict oldest pin: %w", err)
	}
	s.logger.Info("evicted oldest pin",
		zap.String("group_id", groupID), zap.String("message_id", oldest.MessageID))
	return nil
}

// previewText summarizes a message for pin lists and reply previews
func previewText(m *model.ChatMessage) string {
	if m.IsVoice() {
		return voicePreview
	}
	return truncateRunes(m.Content, pinPreviewRunes)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
