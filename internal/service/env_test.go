package service

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/utils/snowflake"
)

// testEnv wires every service against the in-memory fakes and miniredis
type testEnv struct {
	groupRepo      *fakeGroupRepo
	messageRepo    *fakeMessageRepo
	reactionRepo   *fakeReactionRepo
	pinRepo        *fakePinRepo
	attachmentRepo *fakeAttachmentRepo
	projects       *fakeProjectDirectory

	mr  *miniredis.Miniredis
	cfg *config.ChatConfig

	groups    IGroupService
	messages  IMessageService
	reactions IReactionService
	pins      IPinService
	typing    ITypingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		groupRepo:      newFakeGroupRepo(),
		messageRepo:    newFakeMessageRepo(),
		reactionRepo:   newFakeReactionRepo(),
		pinRepo:        newFakePinRepo(),
		attachmentRepo: newFakeAttachmentRepo(),
		projects:       newFakeProjectDirectory("proj-1", "proj-2"),
		cfg:            testChatConfig(),
	}

	redisClient, mr := newTestRedis(t)
	env.mr = mr

	gen, err := snowflake.NewGenerator(1)
	require.NoError(t, err)

	logger := zap.NewNop()
	env.groups = NewGroupService(env.groupRepo, env.messageRepo, env.projects, redisClient, nil, logger)
	env.messages = NewMessageService(env.messageRepo, env.reactionRepo, env.pinRepo, env.attachmentRepo,
		env.groups, gen, redisClient, nil, logger, env.cfg)
	env.reactions = NewReactionService(env.reactionRepo, env.messageRepo, env.groups)
	env.pins = NewPinService(env.pinRepo, env.messageRepo, env.groups, logger, env.cfg)
	env.typing = NewTypingService(redisClient, env.groups, env.cfg)

	return env
}

// createGroup creates a group owned by the platform admin "owner" with the
// given extra members
func (env *testEnv) createGroup(t *testing.T, memberIDs ...string) string {
	t.Helper()
	group, err := env.groups.CreateGroup(context.Background(), "owner", "Olivia", true, &CreateGroupRequest{
		Name:      "triage",
		ProjectID: "proj-1",
		MemberIDs: memberIDs,
	})
	require.NoError(t, err)
	return group.ID
}

// sendText sends a text message and returns its view
func (env *testEnv) sendText(t *testing.T, groupID, senderID, content string) *MessageView {
	t.Helper()
	msg, err := env.messages.SendMessage(context.Background(), groupID, senderID, senderID, &SendMessageRequest{
		Content:     content,
		MessageType: "text",
	})
	require.NoError(t, err)
	return msg
}
