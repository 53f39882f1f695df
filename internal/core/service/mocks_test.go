package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Kavita9-git/MyShope-E-com-sub001/internal/core/domain"
)

var errUnavailable = errors.New("unavailable")

// Mock NotificationSink
type mockSink struct {
	mu    sync.Mutex
	sent  []domain.Notification
	fails int // number of upcoming sends that fail
	panic bool
}

func (m *mockSink) Send(ctx context.Context, n domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.panic {
		m.panic = false
		panic("sink exploded")
	}
	if m.fails > 0 {
		m.fails--
		return errUnavailable
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockSink) notifications() []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Notification(nil), m.sent...)
}

// Mock CartSnapshotStore
type mockCarts struct {
	mu    sync.Mutex
	carts map[string][]domain.CartLine
	err   error
}

func newMockCarts() *mockCarts {
	return &mockCarts{carts: make(map[string][]domain.CartLine)}
}

func (m *mockCarts) CurrentCart(ctx context.Context, userID string) ([]domain.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.carts[userID], nil
}

func (m *mockCarts) SaveCart(ctx context.Context, userID string, lines []domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = lines
	return nil
}

func (m *mockCarts) ClearCart(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

func (m *mockCarts) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Mock KVStore
type mockStore struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	setKeys []string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.setKeys = append(m.setKeys, key)
	return nil
}

func (m *mockStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
