package snowflake

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

const (
	// Epoch is the custom epoch (January 1, 2024 00:00:00 UTC)
	Epoch int64 = 1704067200000 // milliseconds

	// NodeIDBits and SequenceBits together occupy the 22 low bits of an ID;
	// the remaining 41 bits carry the millisecond timestamp.
	NodeIDBits   uint8 = 10
	SequenceBits uint8 = 12

	maxNodeID    int64 = -1 ^ (-1 << NodeIDBits)
	sequenceMask int64 = -1 ^ (-1 << SequenceBits)

	nodeIDShift    = SequenceBits
	timestampShift = SequenceBits + NodeIDBits
)

var (
	ErrInvalidNodeID       = errors.New("node ID exceeds maximum value")
	ErrClockMovedBackwards = errors.New("clock moved backwards")
)

// Generator produces unique, time-sortable IDs using the Snowflake layout.
// IDs generated later always compare greater, which is what message ordering
// relies on (created_at first, ID as tie-break within the same millisecond).
type Generator struct {
	mu sync.Mutex

	epoch  int64
	nodeID int64

	sequence      int64
	lastTimestamp int64
}

// NewGenerator creates a Snowflake generator for the given node.
// nodeID must fit in NodeIDBits (0..1023).
func NewGenerator(nodeID int64) (*Generator, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, ErrInvalidNodeID
	}
	return &Generator{
		epoch:  Epoch,
		nodeID: nodeID,
	}, nil
}

// NextID generates the next unique ID.
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timestamp := g.currentTimestamp()

	if timestamp < g.lastTimestamp {
		return 0, ErrClockMovedBackwards
	}

	if timestamp == g.lastTimestamp {
		g.sequence = (g.sequence + 1) & sequenceMask
		// Sequence overflow - wait for next millisecond
		if g.sequence == 0 {
			timestamp = g.waitNextMillis(g.lastTimestamp)
		}
	} else {
		g.sequence = 0
	}

	g.lastTimestamp = timestamp

	id := ((timestamp - g.epoch) << timestampShift) |
		(g.nodeID << nodeIDShift) |
		g.sequence

	return id, nil
}

// NextStringID generates the next unique ID in decimal string form.
// Decimal strings of equal-epoch snowflakes sort numerically, and the
// persistence layer stores message IDs as strings.
func (g *Generator) NextStringID() (string, error) {
	id, err := g.NextID()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// Timestamp extracts the millisecond timestamp encoded in an ID.
func (g *Generator) Timestamp(id int64) int64 {
	return (id >> timestampShift) + g.epoch
}

// NodeID extracts the node component of an ID.
func (g *Generator) NodeID(id int64) int64 {
	return (id >> nodeIDShift) & maxNodeID
}

// Sequence extracts the per-millisecond sequence component of an ID.
func (g *Generator) Sequence(id int64) int64 {
	return id & sequenceMask
}

func (g *Generator) currentTimestamp() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

func (g *Generator) waitNextMillis(lastTimestamp int64) int64 {
	timestamp := g.currentTimestamp()
	for timestamp <= lastTimestamp {
		timestamp = g.currentTimestamp()
	}
	return timestamp
}
