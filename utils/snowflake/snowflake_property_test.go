package snowflake

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_IDUniqueness(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all generated IDs are unique", prop.ForAll(
		func(count int) bool {
			g, err := NewGenerator(1)
			if err != nil {
				return false
			}

			ids := make(map[int64]bool)
			for i := 0; i < count; i++ {
				id, err := g.NextID()
				if err != nil {
					return false
				}
				if ids[id] {
					return false
				}
				ids[id] = true
			}

			return len(ids) == count
		},
		gen.IntRange(100, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_IDOrdering(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("IDs from one generator are strictly increasing", prop.ForAll(
		func(nodeID int64, count int) bool {
			g, err := NewGenerator(nodeID)
			if err != nil {
				return false
			}

			var prev int64
			for i := 0; i < count; i++ {
				id, err := g.NextID()
				if err != nil {
					return false
				}
				if id <= prev {
					return false
				}
				prev = id
			}
			return true
		},
		gen.Int64Range(0, 1023),
		gen.IntRange(10, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
