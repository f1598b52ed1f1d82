package model

import "time"

// TypingIndicator is ephemeral per-group per-user "is typing" state. It lives
// only in Redis with a short TTL and is never persisted to Postgres.
type TypingIndicator struct {
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	UpdatedAt time.Time `json:"updated_at"`
}
