package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/internal/model"
	"github.com/moajmalnk/bugricer-sub002/internal/pkg/redis"
)

// In-memory repository fakes. They mirror the database semantics the real
// implementations lean on: unique indexes behave as insert-or-ignore, and
// query ordering matches the SQL ORDER BY clauses.

type fakeGroupRepo struct {
	mu      sync.Mutex
	groups  map[string]*model.ChatGroup
	members map[string]map[string]*model.ChatGroupMember // groupID -> userID
	joinSeq int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:  make(map[string]*model.ChatGroup),
		members: make(map[string]map[string]*model.ChatGroupMember),
	}
}

func (f *fakeGroupRepo) Create(ctx context.Context, group *model.ChatGroup, creator *model.ChatGroupMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	group.CreatedAt = time.Now()
	f.groups[group.ID] = group
	f.addMemberLocked(creator)
	return nil
}

func (f *fakeGroupRepo) addMemberLocked(member *model.ChatGroupMember) bool {
	byUser, ok := f.members[member.GroupID]
	if !ok {
		byUser = make(map[string]*model.ChatGroupMember)
		f.members[member.GroupID] = byUser
	}
	if _, exists := byUser[member.UserID]; exists {
		return false
	}
	f.joinSeq++
	member.JoinedAt = time.Now().Add(time.Duration(f.joinSeq) * time.Millisecond)
	byUser[member.UserID] = member
	return true
}

func (f *fakeGroupRepo) FindByID(ctx context.Context, id string) (*model.ChatGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups[id], nil
}

func (f *fakeGroupRepo) ListByProject(ctx context.Context, projectID string) ([]*model.ChatGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ChatGroup
	for _, g := range f.groups {
		if g.ProjectID == projectID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeGroupRepo) DeleteCascade(ctx context.Context, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, groupID)
	delete(f.members, groupID)
	return nil
}

func (f *fakeGroupRepo) AddMember(ctx context.Context, member *model.ChatGroupMember) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addMemberLocked(member), nil
}

func (f *fakeGroupRepo) RemoveMember(ctx context.Context, groupID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byUser := f.members[groupID]
	if _, ok := byUser[userID]; !ok {
		return false, nil
	}
	delete(byUser, userID)
	return true, nil
}

func (f *fakeGroupRepo) GetMembers(ctx context.Context, groupID string) ([]*model.ChatGroupMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ChatGroupMember
	for _, m := range f.members[groupID] {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (f *fakeGroupRepo) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.members[groupID][userID]
	return ok, nil
}

func (f *fakeGroupRepo) MemberCounts(ctx context.Context, groupIDs []string) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int64)
	for _, id := range groupIDs {
		if n := len(f.members[id]); n > 0 {
			out[id] = int64(n)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) MemberGroupIDs(ctx context.Context, userID string, groupIDs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]bool)
	for _, id := range groupIDs {
		if _, ok := f.members[id][userID]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) UpdateLastRead(ctx context.Context, groupID, userID string, seq int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.members[groupID][userID]; ok && m.LastReadSeq < seq {
		m.LastReadSeq = seq
	}
	return nil
}

func (f *fakeGroupRepo) FindMember(ctx context.Context, groupID, userID string) (*model.ChatGroupMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[groupID][userID], nil
}

// fakeProjectDirectory resolves project ids against a fixed allow list
type fakeProjectDirectory struct {
	known map[string]bool
}

func newFakeProjectDirectory(projectIDs ...string) *fakeProjectDirectory {
	known := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		known[id] = true
	}
	return &fakeProjectDirectory{known: known}
}

func (f *fakeProjectDirectory) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	return f.known[projectID], nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*model.ChatMessage
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageRepo) FindByID(ctx context.Context, id string) (*model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMessageRepo) inGroup(groupID string) []*model.ChatMessage {
	var out []*model.ChatMessage
	for _, m := range f.messages {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeMessageRepo) FindPage(ctx context.Context, groupID string, page, pageSize int) ([]*model.ChatMessage, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.inGroup(groupID)
	sort.Slice(all, func(i, j int) bool {
		if all[i].SeqID != all[j].SeqID {
			return all[i].SeqID > all[j].SeqID
		}
		return all[i].ID > all[j].ID
	})
	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	out := make([]*model.ChatMessage, end-start)
	copy(out, all[start:end])
	return out, total, nil
}

func (f *fakeMessageRepo) MarkDeleted(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id {
			m.IsDeleted = true
		}
	}
	return nil
}

func (f *fakeMessageRepo) LatestSeq(ctx context.Context, groupID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var max int64
	for _, m := range f.inGroup(groupID) {
		if m.SeqID > max {
			max = m.SeqID
		}
	}
	return max, nil
}

func (f *fakeMessageRepo) CountAfterSeq(ctx context.Context, groupID string, seq int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.inGroup(groupID) {
		if m.SeqID > seq {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) FindAfterSeq(ctx context.Context, groupID string, seq int64, limit int) ([]*model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.ChatMessage
	for _, m := range f.inGroup(groupID) {
		if m.SeqID > seq {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeqID != out[j].SeqID {
			return out[i].SeqID < out[j].SeqID
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*model.ChatMessage
	for _, m := range f.messages {
		if want[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeReactionRepo struct {
	mu        sync.Mutex
	reactions []*model.MessageReaction
	seq       int
}

func newFakeReactionRepo() *fakeReactionRepo {
	return &fakeReactionRepo{}
}

func (f *fakeReactionRepo) Add(ctx context.Context, reaction *model.MessageReaction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reactions {
		if r.MessageID == reaction.MessageID && r.UserID == reaction.UserID && r.Emoji == reaction.Emoji {
			return false, nil
		}
	}
	f.seq++
	reaction.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	f.reactions = append(f.reactions, reaction)
	return true, nil
}

func (f *fakeReactionRepo) Remove(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.reactions {
		if r.MessageID == messageID && r.UserID == userID && r.Emoji == emoji {
			f.reactions = append(f.reactions[:i], f.reactions[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReactionRepo) ListByMessage(ctx context.Context, messageID string) ([]*model.MessageReaction, error) {
	return f.ListByMessages(ctx, []string{messageID})
}

func (f *fakeReactionRepo) ListByMessages(ctx context.Context, messageIDs []string) ([]*model.MessageReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		want[id] = true
	}
	var out []*model.MessageReaction
	for _, r := range f.reactions {
		if want[r.MessageID] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakePinRepo struct {
	mu   sync.Mutex
	pins []*model.PinnedMessage
	seq  int
}

func newFakePinRepo() *fakePinRepo {
	return &fakePinRepo{}
}

func (f *fakePinRepo) Pin(ctx context.Context, pin *model.PinnedMessage) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pins {
		if p.MessageID == pin.MessageID {
			return false, nil
		}
	}
	f.seq++
	pin.PinnedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	f.pins = append(f.pins, pin)
	return true, nil
}

func (f *fakePinRepo) Unpin(ctx context.Context, messageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.pins {
		if p.MessageID == messageID {
			f.pins = append(f.pins[:i], f.pins[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePinRepo) ListByGroup(ctx context.Context, groupID string) ([]*model.PinnedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.PinnedMessage
	for _, p := range f.pins {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PinnedAt.After(out[j].PinnedAt) })
	return out, nil
}

func (f *fakePinRepo) CountByGroup(ctx context.Context, groupID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, p := range f.pins {
		if p.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

func (f *fakePinRepo) OldestByGroup(ctx context.Context, groupID string) (*model.PinnedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var oldest *model.PinnedMessage
	for _, p := range f.pins {
		if p.GroupID != groupID {
			continue
		}
		if oldest == nil || p.PinnedAt.Before(oldest.PinnedAt) {
			oldest = p
		}
	}
	return oldest, nil
}

func (f *fakePinRepo) IsPinned(ctx context.Context, messageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pins {
		if p.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePinRepo) PinnedSet(ctx context.Context, messageIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, id := range messageIDs {
		pinned, _ := f.IsPinned(ctx, id)
		if pinned {
			out[id] = true
		}
	}
	return out, nil
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments map[string]*model.VoiceAttachment
	seq         int
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string]*model.VoiceAttachment)}
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, attachment *model.VoiceAttachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if attachment.ID == "" {
		f.seq++
		attachment.ID = fmt.Sprintf("att-%d", f.seq)
	}
	f.attachments[attachment.ID] = attachment
	return nil
}

func (f *fakeAttachmentRepo) FindByID(ctx context.Context, id string) (*model.VoiceAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attachments[id], nil
}

// newTestRedis returns a redis client backed by miniredis
func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	client := redis.NewClientFromRedis(rdb)
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func testChatConfig() *config.ChatConfig {
	return &config.ChatConfig{
		PageSize:          5,
		MaxContentLength:  2000,
		TypingTTLSeconds:  8,
		DeleteWindowMin:   60,
		MaxPinnedPerGroup: 3,
	}
}
