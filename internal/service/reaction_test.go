package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	thumbsUp = "\U0001F44D"
	fire     = "\U0001F525"
)

func TestAddReactionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")
	msg := env.sendText(t, groupID, "owner", "ship it")

	added, err := env.reactions.AddReaction(ctx, msg.ID, "dev1", "Dana", thumbsUp)
	require.NoError(t, err)
	assert.True(t, added)

	// Same (message, user, emoji) again: silently absorbed.
	added, err = env.reactions.AddReaction(ctx, msg.ID, "dev1", "Dana", thumbsUp)
	require.NoError(t, err)
	assert.False(t, added)

	groups, err := env.reactions.ListReactions(ctx, msg.ID, "owner")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Count)
}

func TestSameUserDifferentEmoji(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")
	msg := env.sendText(t, groupID, "owner", "hotfix deployed")

	_, err := env.reactions.AddReaction(ctx, msg.ID, "dev1", "Dana", thumbsUp)
	require.NoError(t, err)
	_, err = env.reactions.AddReaction(ctx, msg.ID, "dev1", "Dana", fire)
	require.NoError(t, err)

	groups, err := env.reactions.ListReactions(ctx, msg.ID, "owner")
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestReactionGroupingOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1", "dev2")
	msg := env.sendText(t, groupID, "owner", "release notes")

	// fire lands first, then two thumbs; groups keep first-reacted order.
	_, err := env.reactions.AddReaction(ctx, msg.ID, "dev1", "Dana", fire)
	require.NoError(t, err)
	_, err = env.reactions.AddReaction(ctx, msg.ID, "dev2", "Eli", thumbsUp)
	require.NoError(t, err)
	_, err = env.reactions.AddReaction(ctx, msg.ID, "owner", "Olivia", thumbsUp)
	require.NoError(t, err)

	groups, err := env.reactions.ListReactions(ctx, msg.ID, "owner")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, fire, groups[0].Emoji)
	assert.Equal(t, thumbsUp, groups[1].Emoji)
	assert.Equal(t, 2, groups[1].Count)
	assert.Equal(t, "Eli", groups[1].Users[0].UserName)
	assert.Equal(t, "Olivia", groups[1].Users[1].UserName)
}

func TestRemoveReactionIsNoOpWhenAbsent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")
	msg := env.sendText(t, groupID, "owner", "done")

	// Nothing to remove, still fine.
	require.NoError(t, env.reactions.RemoveReaction(ctx, msg.ID, "dev1", thumbsUp))

	_, err := env.reactions.AddReaction(ctx, msg.ID, "dev1", "Dana", thumbsUp)
	require.NoError(t, err)
	require.NoError(t, env.reactions.RemoveReaction(ctx, msg.ID, "dev1", thumbsUp))

	groups, err := env.reactions.ListReactions(ctx, msg.ID, "owner")
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestReactionRequiresMembership(t *testing.T) {
	env := newTestEnv(t)

	groupID := env.createGroup(t)
	msg := env.sendText(t, groupID, "owner", "private")

	_, err := env.reactions.AddReaction(context.Background(), msg.ID, "outsider", "X", thumbsUp)
	assert.ErrorIs(t, err, ErrNotGroupMember)
}

func TestReactionOnDeletedMessage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")
	msg := env.sendText(t, groupID, "owner", "gone soon")
	require.NoError(t, env.messages.DeleteMessage(ctx, msg.ID, "owner", false))

	_, err := env.reactions.AddReaction(ctx, msg.ID, "dev1", "Dana", thumbsUp)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestReactionOnUnknownMessage(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reactions.AddReaction(context.Background(), "missing", "dev1", "Dana", thumbsUp)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestEmojiValidation(t *testing.T) {
	cases := []struct {
		emoji string
		valid bool
	}{
		{thumbsUp, true},
		{fire, true},
		{"❤️", true},       // heart with variation selector
		{"\U0001F469‍\U0001F4BB", true}, // ZWJ sequence
		{"\U0001F1E9\U0001F1EA", true},       // flag
		{"", false},
		{"thumbs up", false},
		{"a", false},
		{":+1:", false},
		{"\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D\U0001F44D", false}, // over length
	}
	for _, tc := range cases {
		assert.Equal(t, tc.valid, isEmoji(tc.emoji), "emoji %q", tc.emoji)
	}
}

func TestAddReactionRejectsInvalidEmoji(t *testing.T) {
	env := newTestEnv(t)

	groupID := env.createGroup(t, "dev1")
	msg := env.sendText(t, groupID, "owner", "x")

	_, err := env.reactions.AddReaction(context.Background(), msg.ID, "dev1", "Dana", "not-an-emoji")
	assert.ErrorIs(t, err, ErrInvalidEmoji)
}
