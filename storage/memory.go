package storage

import (
	"context"
	"sync"
)

// Memory keeps values in process memory. Everything is lost on restart.
type Memory struct {
	mu      sync.RWMutex
	clients map[string]map[string]string
}

// NewMemory returns an empty in-memory storage
func NewMemory() *Memory {
	return &Memory{clients: make(map[string]map[string]string)}
}

func (m *Memory) Load(_ context.Context, clientID string) (map[string]string, error) {
	if clientID == "" {
		return nil, ErrEmptyClientID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.clients[clientID]))
	for k, v := range m.clients[clientID] {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) Save(_ context.Context, clientID string, values map[string]string) error {
	if clientID == "" {
		return ErrEmptyClientID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.clients[clientID]
	if !ok {
		stored = make(map[string]string, len(values))
		m.clients[clientID] = stored
	}
	for k, v := range values {
		stored[k] = v
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, clientID string, keys ...string) error {
	if clientID == "" {
		return ErrEmptyClientID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.clients[clientID]
	for _, k := range keys {
		delete(stored, k)
	}
	if len(stored) == 0 {
		delete(m.clients, clientID)
	}
	return nil
}
