package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moajmalnk/bugricer-sub002/internal/model"
)

func TestPinMessageIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")
	msg := env.sendText(t, groupID, "owner", "read this first")

	pinned, err := env.pins.PinMessage(ctx, msg.ID, "dev1", "Dana")
	require.NoError(t, err)
	assert.True(t, pinned)

	pinned, err = env.pins.PinMessage(ctx, msg.ID, "owner", "Olivia")
	require.NoError(t, err)
	assert.False(t, pinned)

	pins, err := env.pins.ListPins(ctx, groupID, "owner")
	require.NoError(t, err)
	require.Len(t, pins, 1)
	// The original pinner is kept when a second pin is absorbed.
	assert.Equal(t, "Dana", pins[0].PinnedByName)
}

func TestListPinsNewestFirstWithPreview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")
	long := env.sendText(t, groupID, "owner", strings.Repeat("x", 80))
	short := env.sendText(t, groupID, "owner", "short one")

	_, err := env.pins.PinMessage(ctx, long.ID, "dev1", "Dana")
	require.NoError(t, err)
	_, err = env.pins.PinMessage(ctx, short.ID, "dev1", "Dana")
	require.NoError(t, err)

	pins, err := env.pins.ListPins(ctx, groupID, "owner")
	require.NoError(t, err)
	require.Len(t, pins, 2)

	assert.Equal(t, short.ID, pins[0].MessageID)
	assert.Equal(t, "short one", pins[0].Preview)

	assert.Equal(t, long.ID, pins[1].MessageID)
	assert.Equal(t, strings.Repeat("x", 50)+"...", pins[1].Preview)
}

func TestVoicePinPreview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")

	attachment := &model.VoiceAttachment{FileURL: "http://x/a.wav", Duration: 2}
	require.NoError(t, env.attachmentRepo.Create(ctx, attachment))
	msg, err := env.messages.SendMessage(ctx, groupID, "dev1", "Dana", &SendMessageRequest{
		MessageType:  "voice",
		AttachmentID: attachment.ID,
	})
	require.NoError(t, err)

	_, err = env.pins.PinMessage(ctx, msg.ID, "owner", "Olivia")
	require.NoError(t, err)

	pins, err := env.pins.ListPins(ctx, groupID, "owner")
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, "Voice message", pins[0].Preview)
}

func TestPinCapEvictsOldest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Cap is 3 in the test config.
	groupID := env.createGroup(t, "dev1")

	var ids []string
	for i := 0; i < 4; i++ {
		msg := env.sendText(t, groupID, "owner", "pin target")
		ids = append(ids, msg.ID)
	}

	for _, id := range ids {
		_, err := env.pins.PinMessage(ctx, id, "dev1", "Dana")
		require.NoError(t, err)
	}

	pins, err := env.pins.ListPins(ctx, groupID, "owner")
	require.NoError(t, err)
	require.Len(t, pins, 3)

	// The first pin was evicted to make room for the fourth.
	for _, p := range pins {
		assert.NotEqual(t, ids[0], p.MessageID)
	}
}

func TestRepinAtCapKeepsEveryPin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")

	var ids []string
	for i := 0; i < 3; i++ {
		msg := env.sendText(t, groupID, "owner", "pin target")
		ids = append(ids, msg.ID)
	}
	for _, id := range ids {
		_, err := env.pins.PinMessage(ctx, id, "dev1", "Dana")
		require.NoError(t, err)
	}

	// Re-pinning an already-pinned message while the group sits at the cap
	// must be a pure no-op, not evict the oldest pin.
	pinned, err := env.pins.PinMessage(ctx, ids[2], "dev1", "Dana")
	require.NoError(t, err)
	assert.False(t, pinned)

	pins, err := env.pins.ListPins(ctx, groupID, "owner")
	require.NoError(t, err)
	require.Len(t, pins, 3)

	got := make([]string, 0, len(pins))
	for _, p := range pins {
		got = append(got, p.MessageID)
	}
	assert.ElementsMatch(t, ids, got)
}

func TestUnpinIsNoOpWhenAbsent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")
	msg := env.sendText(t, groupID, "owner", "never pinned")

	require.NoError(t, env.pins.UnpinMessage(ctx, msg.ID, "dev1"))
}

func TestPinRequiresMembership(t *testing.T) {
	env := newTestEnv(t)

	groupID := env.createGroup(t)
	msg := env.sendText(t, groupID, "owner", "private")

	_, err := env.pins.PinMessage(context.Background(), msg.ID, "outsider", "X")
	assert.ErrorIs(t, err, ErrNotGroupMember)
}

func TestPinDeletedMessageRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	groupID := env.createGroup(t, "dev1")
	msg := env.sendText(t, groupID, "owner", "going away")
	require.NoError(t, env.messages.DeleteMessage(ctx, msg.ID, "owner", false))

	_, err := env.pins.PinMessage(ctx, msg.ID, "dev1", "Dana")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}
