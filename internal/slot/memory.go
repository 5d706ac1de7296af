package slot

import (
	"context"
	"sync"

	"civicfeedback/internal/config"
	"civicfeedback/internal/observability"
)

// MemorySlot keeps values in process memory. Values are copied on the way in and out.
type MemorySlot struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemorySlot creates an empty in-memory slot
func NewMemorySlot() *MemorySlot {
	return &MemorySlot{values: make(map[string][]byte)}
}

// Get returns a copy of the stored value
func (s *MemorySlot) Get(ctx context.Context, key string) (result0 []byte, result1 bool, err error) {
	_, span := observability.TraceSlotFunction(ctx, "Get",
		observability.AttributeSlotKey(key),
		observability.AttributeBackend(config.StoreBackendMemory),
	)
	defer observability.FinishSpan(span, &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value under key
func (s *MemorySlot) Set(ctx context.Context, key string, value []byte) (err error) {
	_, span := observability.TraceSlotFunction(ctx, "Set",
		observability.AttributeSlotKey(key),
		observability.AttributeBackend(config.StoreBackendMemory),
	)
	defer observability.FinishSpan(span, &err)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// Backend returns the backend name
func (s *MemorySlot) Backend() string { return config.StoreBackendMemory }

// Close is a no-op
func (s *MemorySlot) Close() error { return nil }
