package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/internal/model"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/kafka"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/redis"
	"github.com/moajmalnk/bugricer-sub002/internal/repository"
	"github.com/moajmalnk/bugricer-sub002/utils/snowflake"
)

// catchUpLimit caps how many messages a single since-seq query returns.
const catchUpLimit = 200

// SendMessageRequest represents a request to send a message to a group
type SendMessageRequest struct {
	Content          string `json:"content"`
	MessageType      string `json:"message_type" binding:"required"`
	AttachmentID     string `json:"attachment_id"`
	ReplyToMessageID string `json:"reply_to_message_id"`
}

// ReactionUser identifies one user inside a grouped reaction
type ReactionUser struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// ReactionGroup aggregates one emoji's reactions on a message.
// Groups are ordered by the time the emoji was first used on the message.
type ReactionGroup struct {
	Emoji string         `json:"emoji"`
	Count int            `json:"count"`
	Users []ReactionUser `json:"users"`
}

// ReplyPreview is the inline summary of the message being replied to
type ReplyPreview struct {
	MessageID  string `json:"message_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	IsDeleted  bool   `json:"is_deleted"`
}

// MessageView is a message decorated with pin state, grouped reactions,
// and the reply target preview
type MessageView struct {
	*model.ChatMessage
	IsPinned  bool             `json:"is_pinned"`
	Reactions []*ReactionGroup `json:"reactions"`
	ReplyTo   *ReplyPreview    `json:"reply_to,omitempty"`
}

// Pagination describes one page of a larger result set
type Pagination struct {
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Total int64 `json:"total"`
}

// MessagePage is one page of a group's history, oldest message first
type MessagePage struct {
	Messages   []*MessageView `json:"messages"`
	Pagination Pagination     `json:"pagination"`
}

// IMessageService defines the interface for message operations
type IMessageService interface {
	SendMessage(ctx context.Context, groupID, senderID, senderName string, req *SendMessageRequest) (*MessageView, error)
	GetMessages(ctx context.Context, groupID, userID string, page int) (*MessagePage, error)
	GetMessagesSince(ctx context.Context, groupID, userID string, afterSeq int64) ([]*MessageView, error)
	DeleteMessage(ctx context.Context, messageID, actorID string, isAdmin bool) error
}

// MessageService implements the IMessageService interface
type MessageService struct {
	messageRepo    repository.IMessageRepository
	reactionRepo   repository.IReactionRepository
	pinRepo        repository.IPinRepository
	attachmentRepo repository.IAttachmentRepository
	groupService   IGroupService
	snowflakeGen   *snowflake.Generator
	redisClient    redis.RedisClient
	producer       *kafka.ActivityProducer
	logger         *zap.Logger
	cfg            *config.ChatConfig
}

// NewMessageService creates a new IMessageService instance
func NewMessageService(
	messageRepo repository.IMessageRepository,
	reactionRepo repository.IReactionRepository,
	pinRepo repository.IPinRepository,
	attachmentRepo repository.IAttachmentRepository,
	groupService IGroupService,
	snowflakeGen *snowflake.Generator,
	redisClient redis.RedisClient,
	producer *kafka.ActivityProducer,
	logger *zap.Logger,
	cfg *config.ChatConfig,
) IMessageService {
	return &MessageService{
		messageRepo:    messageRepo,
		reactionRepo:   reactionRepo,
		pinRepo:        pinRepo,
		attachmentRepo: attachmentRepo,
		groupService:   groupService,
		snowflakeGen:   snowflakeGen,
		redisClient:    redisClient,
		producer:       producer,
		logger:         logger,
		cfg:            cfg,
	}
}

// SendMessage validates and persists a message. The message gets a Snowflake
// ID and a per-group sequence number from Redis; ordering within a group is
// (seq_id, id) ascending.
func (s *MessageService) SendMessage(ctx context.Context, groupID, senderID, senderName string, req *SendMessageRequest) (*MessageView, error) {
	isMember, err := s.groupService.IsMember(ctx, groupID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}

	message := &model.ChatMessage{
		GroupID:     groupID,
		SenderID:    senderID,
		SenderName:  senderName,
		MessageType: req.MessageType,
		Content:     strings.TrimSpace(req.Content),
	}

	switch req.MessageType {
	case model.MessageTypeText:
		if err := s.validateContent(message.Content); err != nil {
			return nil, err
		}
	case model.MessageTypeReply:
		if err := s.validateContent(message.Content); err != nil {
			return nil, err
		}
		if req.ReplyToMessageID == "" {
			return nil, ErrReplyTargetNotFound
		}
		target, err := findMessageIn(ctx, s.messageRepo, req.ReplyToMessageID)
		if err != nil {
			if errors.Is(err, ErrMessageNotFound) {
				return nil, ErrReplyTargetNotFound
			}
			return nil, err
		}
		if target.GroupID != groupID {
			return nil, ErrReplyTargetNotFound
		}
		message.ReplyToMessageID = req.ReplyToMessageID
	case model.MessageTypeVoice:
		if req.AttachmentID == "" {
			return nil, ErrInvalidVoiceFile
		}
		attachment, err := s.attachmentRepo.FindByID(ctx, req.AttachmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to find attachment: %w", err)
		}
		if attachment == nil {
			return nil, ErrAttachmentNotFound
		}
		message.VoiceFilePath = attachment.FileURL
		message.VoiceDuration = attachment.Duration
		// A voice message carries audio, not text; stray content is dropped.
		message.Content = ""
	default:
		return nil, ErrInvalidMessageType
	}

	messageID, err := s.snowflakeGen.NextStringID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate message ID: %w", err)
	}
	message.ID = messageID

	seqID, err := s.redisClient.GenerateSeqID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSequencerUnavailable, err)
	}
	message.SeqID = seqID

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	s.emitSent(ctx, message)

	views, err := s.decorate(ctx, []*model.ChatMessage{message})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// GetMessages returns one page of the group's history. Page 1 holds the
// newest messages; within a page, messages run oldest to newest. A page
// beyond the last returns an empty list with valid pagination metadata.
func (s *MessageService) GetMessages(ctx context.Context, groupID, userID string, page int) (*MessagePage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

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

	pageSize := s.cfg.PageSize
	messages, total, err := s.messageRepo.FindPage(ctx, groupID, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve messages: %w", err)
	}

	pages := int((total + int64(pageSize) - 1) / int64(pageSize))

	// FindPage returns newest first; clients render pages top-down.
	reverse(messages)

	views, err := s.decorate(ctx, messages)
	if err != nil {
		return nil, err
	}

	return &MessagePage{
		Messages: views,
		Pagination: Pagination{
			Page:  page,
			Pages: pages,
			Total: total,
		},
	}, nil
}

// GetMessagesSince returns every message with a sequence number above
// afterSeq, oldest first. This is the polling catch-up path: a client that
// missed ticks still sees each message exactly once.
func (s *MessageService) GetMessagesSince(ctx context.Context, groupID, userID string, afterSeq int64) ([]*MessageView, error) {
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

	messages, err := s.messageRepo.FindAfterSeq(ctx, groupID, afterSeq, catchUpLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve messages: %w", err)
	}
	return s.decorate(ctx, messages)
}

// DeleteMessage tombstones a message. Platform admins may delete any
// message; the sender may delete their own within the delete window.
// The row survives so replies and history pagination stay stable.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, actorID string, isAdmin bool) error {
	message, err := findMessageIn(ctx, s.messageRepo, messageID)
	if err != nil {
		return err
	}
	if message.IsDeleted {
		return nil
	}

	if !isAdmin {
		if message.SenderID != actorID {
			return ErrDeleteNotAllowed
		}
		if time.Since(message.CreatedAt) > s.cfg.DeleteWindow() {
			return ErrDeleteNotAllowed
		}
	}

	if err := s.messageRepo.MarkDeleted(ctx, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	// A deleted message cannot stay pinned.
	if _, err := s.pinRepo.Unpin(ctx, messageID); err != nil {
		s.logger.Warn("failed to unpin deleted message",
			zap.String("message_id", messageID), zap.Error(err))
	}

	return nil
}

func (s *MessageService) validateContent(content string) error {
	if len(content) == 0 {
		return ErrInvalidMessageContent
	}
	if len(content) > s.cfg.MaxContentLength {
		return ErrInvalidMessageContent
	}
	return nil
}

// findMessageIn loads a message, mapping the gorm miss to ErrMessageNotFound
func findMessageIn(ctx context.Context, repo repository.IMessageRepository, id string) (*model.ChatMessage, error) {
	message, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return message, nil
}

// decorate attaches pin state, grouped reactions, and reply previews to a
// batch of messages. Deleted messages are tombstoned: the row stays in the
// page but its content, attachment, and reactions are withheld.
func (s *MessageService) decorate(ctx context.Context, messages []*model.ChatMessage) ([]*MessageView, error) {
	ids := make([]string, 0, len(messages))
	replyIDs := make([]string, 0)
	for _, m := range messages {
		ids = append(ids, m.ID)
		if m.ReplyToMessageID != "" {
			replyIDs = append(replyIDs, m.ReplyToMessageID)
		}
	}

	pinned, err := s.pinRepo.PinnedSet(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pins: %w", err)
	}

	reactions, err := s.reactionRepo.ListByMessages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	byMessage := make(map[string][]*model.MessageReaction)
	for _, r := range reactions {
		byMessage[r.MessageID] = append(byMessage[r.MessageID], r)
	}

	targets, err := s.messageRepo.FindByIDs(ctx, replyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reply targets: %w", err)
	}
	targetByID := make(map[string]*model.ChatMessage, len(targets))
	for _, t := range targets {
		targetByID[t.ID] = t
	}

	views := make([]*MessageView, 0, len(messages))
	for _, m := range messages {
		msg := *m
		view := &MessageView{
			ChatMessage: &msg,
			Reactions:   []*ReactionGroup{},
		}
		if msg.IsDeleted {
			msg.Content = ""
			msg.VoiceFilePath = ""
			msg.VoiceDuration = 0
		} else {
			view.IsPinned = pinned[msg.ID]
			view.Reactions = GroupReactions(byMessage[msg.ID])
		}
		if msg.ReplyToMessageID != "" {
			view.ReplyTo = replyPreview(targetByID[msg.ReplyToMessageID])
		}
		views = append(views, view)
	}
	return views, nil
}

// GroupReactions collapses raw reaction rows into per-emoji groups,
// preserving first-reacted order. Rows must be sorted by creation time.
func GroupReactions(reactions []*model.MessageReaction) []*ReactionGroup {
	groups := []*ReactionGroup{}
	index := make(map[string]*ReactionGroup)
	for _, r := range reactions {
		group, ok := index[r.Emoji]
		if !ok {
			group = &ReactionGroup{Emoji: r.Emoji}
			index[r.Emoji] = group
			groups = append(groups, group)
		}
		group.Count++
		group.Users = append(group.Users, ReactionUser{UserID: r.UserID, UserName: r.UserName})
	}
	return groups
}

// replyPreview builds the inline summary of a reply target. A target that
// was deleted, or purged entirely, shows as a deleted stub.
func replyPreview(target *model.ChatMessage) *ReplyPreview {
	if target == nil {
		return &ReplyPreview{IsDeleted: true}
	}
	preview := &ReplyPreview{
		MessageID:  target.ID,
		SenderName: target.SenderName,
		IsDeleted:  target.IsDeleted,
	}
	if !target.IsDeleted {
		preview.Content = previewText(target)
	}
	return preview
}

func reverse(messages []*model.ChatMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

func (s *MessageService) emitSent(ctx context.Context, message *model.ChatMessage) {
	if s.producer == nil {
		return
	}
	event := kafka.ActivityEvent{
		Type:       kafka.EventMessageSent,
		GroupID:    message.GroupID,
		ActorID:    message.SenderID,
		MessageID:  message.ID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.producer.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit activity event",
			zap.String("type", event.Type), zap.String("message_id", message.ID), zap.Error(err))
	}
}
