// Package poller implements the client-side polling loop for group chat.
// Connected clients poll on a fixed interval instead of holding a socket;
// the poller turns those fetches into a stream of incremental updates.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval matches the web client's refresh cadence.
const DefaultInterval = 3 * time.Second

// DefaultFailureThreshold is how many consecutive fetch failures are
// tolerated before updates are marked degraded.
const DefaultFailureThreshold = 3

// Message is one chat message as seen by a polling client
type Message struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	SeqID       int64     `json:"seq_id"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

// Typist is one group member currently typing
type Typist struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// Update is the result of one successful poll tick. Messages holds every
// message newer than the previous tick's high-water mark, oldest first;
// Typing is the full current set, replacing the previous one.
type Update struct {
	Messages []Message
	Typing   []Typist

	// Degraded is set once fetches have failed too many times in a row.
	// The poller keeps trying; the flag clears on the next success.
	Degraded bool
}

// Fetcher retrieves chat state for one group. Implementations must be safe
// for use from the poller's goroutine.
type Fetcher interface {
	FetchSince(ctx context.Context, groupID string, afterSeq int64) ([]Message, error)
	FetchTyping(ctx context.Context, groupID string) ([]Typist, error)
}

// Config controls poll cadence and failure tolerance
type Config struct {
	Interval         time.Duration
	FailureThreshold int
}

func (c *Config) withDefaults() Config {
	out := Config{Interval: DefaultInterval, FailureThreshold: DefaultFailureThreshold}
	if c != nil {
		if c.Interval > 0 {
			out.Interval = c.Interval
		}
		if c.FailureThreshold > 0 {
			out.FailureThreshold = c.FailureThreshold
		}
	}
	return out
}

// Poller polls one group and emits Updates. Ticks are single-flight: a
// fetch that outlives the interval simply absorbs the ticks it missed, and
// the next fetch picks up from the same high-water mark, so no message is
// ever skipped.
type Poller struct {
	fetcher Fetcher
	groupID string
	cfg     Config
	logger  *zap.Logger

	updates chan Update

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool

	lastSeq  int64
	failures int
}

// New creates a poller for one group. afterSeq is the sequence number of the
// newest message the client already has; pass 0 to receive everything.
func New(fetcher Fetcher, groupID string, afterSeq int64, cfg *Config, logger *zap.Logger) *Poller {
	return &Poller{
		fetcher: fetcher,
		groupID: groupID,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		updates: make(chan Update, 1),
		lastSeq: afterSeq,
	}
}

// Updates is the stream of poll results. It is closed after Stop returns.
func (p *Poller) Updates() <-chan Update {
	return p.updates
}

// Start launches the poll loop. The first fetch happens immediately rather
// than one interval in. Start is a no-op if the poller is already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx)
}

// Stop halts polling and waits for the loop to exit. Results from a fetch
// still in flight when Stop is called are discarded, never emitted.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.updates)
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	messages, err := p.fetcher.FetchSince(ctx, p.groupID, p.lastSeq)
	if err != nil {
		p.recordFailure(ctx, err)
		return
	}
	typing, err := p.fetcher.FetchTyping(ctx, p.groupID)
	if err != nil {
		p.recordFailure(ctx, err)
		return
	}
	p.failures = 0

	for _, m := range messages {
		if m.SeqID > p.lastSeq {
			p.lastSeq = m.SeqID
		}
	}

	update := Update{Messages: messages, Typing: typing}
	select {
	case <-ctx.Done():
		// Stopped while the fetch was in flight.
	case p.updates <- update:
	}
}

// recordFailure counts consecutive failures. Transient errors stay quiet;
// once the threshold is hit a degraded update is emitted so the client can
// surface a connectivity warning instead of an error per tick.
func (p *Poller) recordFailure(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	p.failures++
	p.logger.Warn("poll tick failed",
		zap.String("group_id", p.groupID),
		zap.Int("consecutive_failures", p.failures),
		zap.Error(err),
	)
	if p.failures < p.cfg.FailureThreshold {
		return
	}

	select {
	case <-ctx.Done():
	case p.updates <- Update{Degraded: true}:
	default:
		// A pending update already tells the client something; don't block.
	}
}
