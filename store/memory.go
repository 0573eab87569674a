package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process KV implementation. It backs tests and local runs
// without a database; RunInTx serializes writers with the store mutex rather
// than providing real rollback.
type Memory struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data map[string]map[string]json.RawMessage
}

var _ KV = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string]map[string]json.RawMessage{}}
}

func (s *Memory) Push(ctx context.Context, collection string, doc any) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := uuid.NewString()
	if s.data[collection] == nil {
		s.data[collection] = map[string]json.RawMessage{}
	}
	s.data[collection][key] = data
	return key, nil
}

func (s *Memory) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[collection][key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append(json.RawMessage(nil), raw...), nil
}

func (s *Memory) Snapshot(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]json.RawMessage, len(s.data[collection]))
	for k, v := range s.data[collection] {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out, nil
}

func (s *Memory) Merge(ctx context.Context, collection, key string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[collection][key]
	if !ok {
		return ErrKeyNotFound
	}

	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.data[collection][key] = data
	return nil
}

func (s *Memory) Remove(ctx context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[collection][key]; !ok {
		return ErrKeyNotFound
	}
	delete(s.data[collection], key)
	return nil
}

// RunInTx serializes fn against every other transaction. fn receives an
// unlocked view so its own operations can take the mutex.
func (s *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context, tx KV) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, s)
}
