package state

import "context"

// Memory is a flat in-memory Reader, used as a base snapshot in tests and as
// a building block for fixtures.
type Memory map[string]string

func (m Memory) Get(_ context.Context, key string) (*string, error) {
	if value, ok := m[key]; ok {
		return &value, nil
	}
	return nil, nil
}
