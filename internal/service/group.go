package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moajmalnk/bugricer-sub002/internal/model"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/kafka"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/redis"
	"github.com/moajmalnk/bugricer-sub002/internal/repository"
)

// CreateGroupRequest represents a request to create a new chat group
type CreateGroupRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=100"`
	Description string   `json:"description" binding:"max=500"`
	ProjectID   string   `json:"project_id" binding:"required"`
	MemberIDs   []string `json:"member_ids"`
}

// AddMembersRequest represents a request to add members to a group
type AddMembersRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

// RemoveMembersRequest represents a request to remove members from a group
type RemoveMembersRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

// GroupView is a group decorated with membership context for the caller
type GroupView struct {
	*model.ChatGroup
	MemberCount int64 `json:"member_count"`
	IsMember    bool  `json:"is_member"`
	UnreadCount int64 `json:"unread_count"`
}

// IGroupService defines the interface for chat group management operations
type IGroupService interface {
	CreateGroup(ctx context.Context, creatorID, creatorName string, isAdmin bool, req *CreateGroupRequest) (*model.ChatGroup, error)
	DeleteGroup(ctx context.Context, groupID, actorID string, isAdmin bool) error
	ListGroups(ctx context.Context, projectID, userID string) ([]*GroupView, error)
	GetGroup(ctx context.Context, groupID string) (*model.ChatGroup, error)
	AddMembers(ctx context.Context, groupID, actorID string, isAdmin bool, userIDs []string) (int, error)
	RemoveMembers(ctx context.Context, groupID, actorID string, isAdmin bool, userIDs []string) (int, error)
	GetMembers(ctx context.Context, groupID, actorID string) ([]*model.ChatGroupMember, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	MarkRead(ctx context.Context, groupID, userID string, seqID int64) error
}

// GroupService implements the IGroupService interface
type GroupService struct {
	groupRepo   repository.IGroupRepository
	messageRepo repository.IMessageRepository
	projects    repository.IProjectDirectory
	redisClient redis.RedisClient
	producer    *kafka.ActivityProducer
	logger      *zap.Logger
}

// NewGroupService creates a new IGroupService instance
func NewGroupService(
	groupRepo repository.IGroupRepository,
	messageRepo repository.IMessageRepository,
	projects repository.IProjectDirectory,
	redisClient redis.RedisClient,
	producer *kafka.ActivityProducer,
	logger *zap.Logger,
) IGroupService {
	return &GroupService{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		projects:    projects,
		redisClient: redisClient,
		producer:    producer,
		logger:      logger,
	}
}

// CreateGroup creates a chat group and enrolls the creator as its admin.
// Only platform admins may create groups, and the owning project must
// exist. Any initial members are added in the same pass; duplicates are
// ignored.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID, creatorName string, isAdmin bool, req *CreateGroupRequest) (*model.ChatGroup, error) {
	if !isAdmin {
		return nil, ErrAdminRequired
	}

	name := strings.TrimSpace(req.Name)
	if len(name) == 0 || len(name) > 100 {
		return nil, ErrInvalidGroupName
	}

	exists, err := s.projects.ProjectExists(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if !exists {
		return nil, ErrProjectNotFound
	}

	group := &model.ChatGroup{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		ProjectID:   req.ProjectID,
		CreatedBy:   creatorID,
	}
	creator := &model.ChatGroupMember{
		ID:      uuid.New().String(),
		GroupID: group.ID,
		UserID:  creatorID,
		Role:    model.GroupRoleAdmin,
	}
	if err := s.groupRepo.Create(ctx, group, creator); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	for _, userID := range req.MemberIDs {
		if userID == creatorID {
			continue
		}
		member := &model.ChatGroupMember{
			GroupID: group.ID,
			UserID:  userID,
			Role:    model.GroupRoleMember,
		}
		if _, err := s.groupRepo.AddMember(ctx, member); err != nil {
			return nil, fmt.Errorf("failed to add initial member: %w", err)
		}
	}

	s.emit(ctx, kafka.ActivityEvent{
		Type:      kafka.EventGroupCreated,
		GroupID:   group.ID,
		ProjectID: group.ProjectID,
		ActorID:   creatorID,
	})

	return group, nil
}

// DeleteGroup removes a group and every row that hangs off it in one
// transaction, then clears the group's Redis state. Only the group creator
// or a platform admin may delete a group.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, actorID string, isAdmin bool) error {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return ErrGroupNotFound
	}
	if !isAdmin && group.CreatedBy != actorID {
		return ErrNotGroupAdmin
	}

	if err := s.groupRepo.DeleteCascade(ctx, groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	// Redis keys are advisory state; the group is already gone if this fails.
	if err := s.redisClient.DeleteGroupState(ctx, groupID); err != nil {
		s.logger.Warn("failed to clear group redis state",
			zap.String("group_id", groupID), zap.Error(err))
	}

	s.emit(ctx, kafka.ActivityEvent{
		Type:      kafka.EventGroupDeleted,
		GroupID:   groupID,
		ProjectID: group.ProjectID,
		ActorID:   actorID,
	})

	return nil
}

// ListGroups returns the project's groups decorated with the caller's
// membership, member counts, and unread counts.
func (s *GroupService) ListGroups(ctx context.Context, projectID, userID string) ([]*GroupView, error) {
	groups, err := s.groupRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	groupIDs := make([]string, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}

	counts, err := s.groupRepo.MemberCounts(ctx, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	memberOf, err := s.groupRepo.MemberGroupIDs(ctx, userID, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve memberships: %w", err)
	}

	views := make([]*GroupView, 0, len(groups))
	for _, g := range groups {
		view := &GroupView{
			ChatGroup:   g,
			MemberCount: counts[g.ID],
			IsMember:    memberOf[g.ID],
		}
		if view.IsMember {
			unread, err := s.unreadCount(ctx, g.ID, userID)
			if err != nil {
				return nil, err
			}
			view.UnreadCount = unread
		}
		views = append(views, view)
	}
	return views, nil
}

// GetGroup returns a single group by ID
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*model.ChatGroup, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return group, nil
}

// AddMembers adds users to a group. Requires a platform admin or a group
// admin. Users who are already members are skipped. Returns the number of
// members actually added.
func (s *GroupService) AddMembers(ctx context.Context, groupID, actorID string, isAdmin bool, userIDs []string) (int, error) {
	if len(userIDs) == 0 {
		return 0, ErrEmptyMemberList
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return 0, ErrGroupNotFound
	}

	if err := s.requireGroupAdmin(ctx, groupID, actorID, isAdmin); err != nil {
		return 0, err
	}

	added := 0
	for _, userID := range userIDs {
		member := &model.ChatGroupMember{
			GroupID: groupID,
			UserID:  userID,
			Role:    model.GroupRoleMember,
		}
		inserted, err := s.groupRepo.AddMember(ctx, member)
		if err != nil {
			return added, fmt.Errorf("failed to add member %s: %w", userID, err)
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

// RemoveMembers removes users from a group. Requires a platform admin or a
// group admin, except that any member may remove themselves. Users who are
// not members are skipped. Returns the number of members actually removed.
func (s *GroupService) RemoveMembers(ctx context.Context, groupID, actorID string, isAdmin bool, userIDs []string) (int, error) {
	if len(userIDs) == 0 {
		return 0, ErrEmptyMemberList
	}

	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return 0, ErrGroupNotFound
	}

	selfOnly := true
	for _, userID := range userIDs {
		if userID != actorID {
			selfOnly = false
			break
		}
	}
	if !selfOnly {
		if err := s.requireGroupAdmin(ctx, groupID, actorID, isAdmin); err != nil {
			return 0, err
		}
	}

	removed := 0
	for _, userID := range userIDs {
		gone, err := s.groupRepo.RemoveMember(ctx, groupID, userID)
		if err != nil {
			return removed, fmt.Errorf("failed to remove member %s: %w", userID, err)
		}
		if gone {
			removed++
		}
	}
	return removed, nil
}

// requireGroupAdmin passes for platform admins and for members holding the
// group admin role.
func (s *GroupService) requireGroupAdmin(ctx context.Context, groupID, actorID string, isAdmin bool) error {
	if isAdmin {
		return nil
	}
	actor, err := s.groupRepo.FindMember(ctx, groupID, actorID)
	if err != nil {
		return fmt.Errorf("failed to find actor membership: %w", err)
	}
	if actor == nil || actor.Role != model.GroupRoleAdmin {
		return ErrNotGroupAdmin
	}
	return nil
}

// GetMembers returns the group's member list, earliest joiner first
func (s *GroupService) GetMembers(ctx context.Context, groupID, actorID string) ([]*model.ChatGroupMember, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to find group: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}

	isMember, err := s.groupRepo.IsMember(ctx, groupID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, ErrNotGroupMember
	}

	members, err := s.groupRepo.GetMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// IsMember checks whether a user belongs to a group.
// This is the permission gate for every message-level operation.
func (s *GroupService) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return isMember, nil
}

// MarkRead advances the caller's read cursor in a group. The cursor never
// moves backwards, so stale acknowledgements from slow clients are no-ops,
// and never past the group's newest message, so a bogus ack cannot mark
// messages read before they exist.
func (s *GroupService) MarkRead(ctx context.Context, groupID, userID string, seqID int64) error {
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return ErrNotGroupMember
	}

	latest, err := s.messageRepo.LatestSeq(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to find latest message: %w", err)
	}
	if seqID > latest {
		seqID = latest
	}

	if err := s.groupRepo.UpdateLastRead(ctx, groupID, userID, seqID); err != nil {
		return fmt.Errorf("failed to update read cursor: %w", err)
	}
	return nil
}

func (s *GroupService) unreadCount(ctx context.Context, groupID, userID string) (int64, error) {
	member, err := s.groupRepo.FindMember(ctx, groupID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to find member: %w", err)
	}
	if member == nil {
		return 0, nil
	}
	count, err := s.messageRepo.CountAfterSeq(ctx, groupID, member.LastReadSeq)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// emit publishes an activity event when a producer is configured.
// Event delivery is best effort and never fails the caller's request.
func (s *GroupService) emit(ctx context.Context, event kafka.ActivityEvent) {
	if s.producer == nil {
		return
	}
	event.OccurredAt = time.Now().UTC()
	if err := s.producer.Emit(ctx, event); err != nil {
		s.logger.Warn("failed to emit activity event",
			zap.String("type", event.Type), zap.String("group_id", event.GroupID), zap.Error(err))
	}
}
