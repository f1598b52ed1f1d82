package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/moajmalnk/bugricer-sub002/config"
	"github.com/moajmalnk/bugricer-sub002/internal/model"
)

// RedisClient is the interface the messaging core uses for ephemeral state:
// per-group message sequences and the typing registry.
type RedisClient interface {
	Close() error
	GetClient() *redis.Client
	Ping(ctx context.Context) error

	// GenerateSeqID atomically increments and returns the per-group message
	// sequence. Concurrent senders each get a distinct, ordered value.
	GenerateSeqID(ctx context.Context, groupID string) (int64, error)

	// SetTyping records that a user is typing in a group.
	SetTyping(ctx context.Context, groupID, userID, userName string) error

	// ClearTyping removes a user's typing entry. No-op if absent.
	ClearTyping(ctx context.Context, groupID, userID string) error

	// ActiveTypists returns the typing entries refreshed within ttl.
	// Expired entries are filtered at read time and lazily deleted.
	ActiveTypists(ctx context.Context, groupID string, ttl time.Duration) ([]model.TypingIndicator, error)

	// DeleteGroupState removes all ephemeral keys for a group (sequence
	// counter and typing hash). Called from the group-deletion cascade.
	DeleteGroupState(ctx context.Context, groupID string) error
}

type Client struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{
		client: rdb,
		config: cfg,
	}, nil
}

// NewClientFromRedis wraps an existing go-redis client. Used by tests to run
// against miniredis.
func NewClientFromRedis(rdb *redis.Client) *Client {
	return &Client{client: rdb}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) GetClient() *redis.Client {
	return c.client
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) GenerateSeqID(ctx context.Context, groupID string) (int64, error) {
	key := seqKey(groupID)
	result, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to generate seq id for group %s: %w", groupID, err)
	}
	return result, nil
}

func (c *Client) SetTyping(ctx context.Context, groupID, userID, userName string) error {
	// Field value is "<unix-milli>|<name>"; the name goes last because it may
	// itself contain the separator.
	value := strconv.FormatInt(time.Now().UnixMilli(), 10) + "|" + userName
	if err := c.client.HSet(ctx, typingKey(groupID), userID, value).Err(); err != nil {
		return fmt.Errorf("failed to set typing for user %s in group %s: %w", userID, groupID, err)
	}
	return nil
}

func (c *Client) ClearTyping(ctx context.Context, groupID, userID string) error {
	if err := c.client.HDel(ctx, typingKey(groupID), userID).Err(); err != nil {
		return fmt.Errorf("failed to clear typing for user %s in group %s: %w", userID, groupID, err)
	}
	return nil
}

func (c *Client) ActiveTypists(ctx context.Context, groupID string, ttl time.Duration) ([]model.TypingIndicator, error) {
	entries, err := c.client.HGetAll(ctx, typingKey(groupID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read typing registry for group %s: %w", groupID, err)
	}

	now := time.Now()
	active := make([]model.TypingIndicator, 0, len(entries))
	var expired []string

	for userID, value := range entries {
		updatedAt, userName, ok := parseTypingValue(value)
		if !ok || now.Sub(updatedAt) > ttl {
			expired = append(expired, userID)
			continue
		}
		active = append(active, model.TypingIndicator{
			GroupID:   groupID,
			UserID:    userID,
			UserName:  userName,
			UpdatedAt: updatedAt,
		})
	}

	// Lazy cleanup; correctness comes from the read-time filter above, so a
	// failed delete is not an error.
	if len(expired) > 0 {
		c.client.HDel(ctx, typingKey(groupID), expired...)
	}

	return active, nil
}

func (c *Client) DeleteGroupState(ctx context.Context, groupID string) error {
	if err := c.client.Del(ctx, seqKey(groupID), typingKey(groupID)).Err(); err != nil {
		return fmt.Errorf("failed to delete ephemeral state for group %s: %w", groupID, err)
	}
	return nil
}

func seqKey(groupID string) string {
	return fmt.Sprintf("chat:group:%s:seq_id", groupID)
}

func typingKey(groupID string) string {
	return fmt.Sprintf("chat:group:%s:typing", groupID)
}

func parseTypingValue(value string) (time.Time, string, bool) {
	parts := strings.SplitN(value, "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", false
	}
	millis, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", false
	}
	return time.UnixMilli(millis), parts[1], true
}
