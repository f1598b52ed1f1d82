package snowflake

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name        string
		nodeID      int64
		expectError bool
	}{
		{name: "valid node ID", nodeID: 1, expectError: false},
		{name: "zero node ID", nodeID: 0, expectError: false},
		{name: "maximum node ID", nodeID: 1023, expectError: false},
		{name: "node ID too large", nodeID: 1024, expectError: true},
		{name: "negative node ID", nodeID: -1, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewGenerator(tt.nodeID)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for node ID %d, got nil", tt.nodeID)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gen == nil {
				t.Fatal("expected generator, got nil")
			}
		})
	}
}

func TestGenerator_NextID_Monotonic(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	var prev int64
	for i := 0; i < 10000; i++ {
		id, err := gen.NextID()
		if err != nil {
			t.Fatalf("NextID failed at iteration %d: %v", i, err)
		}
		if id <= prev {
			t.Fatalf("ID %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestGenerator_NextID_Unique_Concurrent(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	const goroutines = 10
	const perGoroutine = 1000

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perGoroutine)
	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id, err := gen.NextID()
				if err != nil {
					t.Errorf("NextID failed: %v", err)
					return
				}
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate ID generated: %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Fatalf("expected %d unique IDs, got %d", goroutines*perGoroutine, len(seen))
	}
}

func TestGenerator_NextStringID_SortsNumerically(t *testing.T) {
	gen, err := NewGenerator(3)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	var prev int64
	for i := 0; i < 1000; i++ {
		s, err := gen.NextStringID()
		if err != nil {
			t.Fatalf("NextStringID failed: %v", err)
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			t.Fatalf("ID %q is not a decimal integer: %v", s, err)
		}
		if id <= prev {
			t.Fatalf("string ID %q does not sort after previous", s)
		}
		prev = id
	}
}

func TestGenerator_Components(t *testing.T) {
	gen, err := NewGenerator(42)
	if err != nil {
		t.Fatalf("failed to create generator: %v", err)
	}

	before := time.Now().UnixMilli()
	id, err := gen.NextID()
	if err != nil {
		t.Fatalf("NextID failed: %v", err)
	}
	after := time.Now().UnixMilli()

	if got := gen.NodeID(id); got != 42 {
		t.Errorf("NodeID = %d, want 42", got)
	}
	ts := gen.Timestamp(id)
	if ts < before || ts > after {
		t.Errorf("Timestamp %d outside [%d, %d]", ts, before, after)
	}
	if seq := gen.Sequence(id); seq < 0 || seq > sequenceMask {
		t.Errorf("Sequence %d out of range", seq)
	}
}
