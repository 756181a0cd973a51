package state

import (
	"context"
)

// Diff is a batch of storage overrides produced by one runtime invocation.
// Keys and values are 0x-prefixed hex. A nil value deletes the key.
type Diff map[string]*string

// Reader resolves a storage key to its value. A nil result with a nil error
// means the key is not set.
type Reader interface {
	Get(ctx context.Context, key string) (*string, error)
}

// Stack is a copy-on-write overlay over a base snapshot. Each applied runtime
// invocation pushes exactly one layer holding that invocation's diff. Layers
// are append-only for the life of a trace session and are never popped.
type Stack struct {
	base   Reader
	layers []Diff
}

func NewStack(base Reader) *Stack {
	return &Stack{base: base}
}

// Push adds a new empty overlay on top of the stack and returns its handle.
func (s *Stack) Push() int {
	s.layers = append(s.layers, Diff{})
	return len(s.layers) - 1
}

// SetAll installs a batch of key/value pairs into the most recently pushed
// overlay. Push must have been called at least once.
func (s *Stack) SetAll(diff Diff) {
	top := s.layers[len(s.layers)-1]
	for key, value := range diff {
		top[key] = value
	}
}

// Get walks the layers newest-first and falls back to the base snapshot when
// no layer defines the key. A layer entry with a nil value is a deletion and
// stops the walk.
func (s *Stack) Get(ctx context.Context, key string) (*string, error) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		if value, ok := s.layers[i][key]; ok {
			return value, nil
		}
	}
	if s.base == nil {
		return nil, nil
	}
	return s.base.Get(ctx, key)
}

// Depth returns the number of pushed layers.
func (s *Stack) Depth() int {
	return len(s.layers)
}
