package cache

import (
	"context"
	"sync"

	"github.com/couchcryptid/disaster-response-service/internal/domain"
)

// Memory is an in-process CacheStore bounded by an LRU eviction policy.
// Stale entries stay until overwritten or evicted.
type Memory struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*node
	head       *node // most recently used
	tail       *node // least recently used
}

type node struct {
	entry domain.CacheEntry
	prev  *node
	next  *node
}

// NewMemory creates a store holding at most maxEntries keys.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Memory{
		maxEntries: maxEntries,
		entries:    make(map[string]*node),
	}
}

func (m *Memory) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.entries[key]
	if !ok {
		return domain.CacheEntry{}, false, nil
	}
	m.moveToFront(n)
	return n.entry, true, nil
}

func (m *Memory) Set(_ context.Context, entry domain.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, ok := m.entries[entry.Key]; ok {
		n.entry = entry
		m.moveToFront(n)
		return nil
	}

	n := &node{entry: entry}
	m.entries[entry.Key] = n
	m.addToFront(n)

	if len(m.entries) > m.maxEntries {
		m.evictTail()
	}
	return nil
}

// Len returns the number of stored keys, fresh or stale.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Ping always succeeds; it lets Memory stand in wherever a pingable cache is expected.
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) moveToFront(n *node) {
	if n == m.head {
		return
	}
	m.unlink(n)
	m.addToFront(n)
}

func (m *Memory) addToFront(n *node) {
	n.next = m.head
	n.prev = nil
	if m.head != nil {
		m.head.prev = n
	}
	m.head = n
	if m.tail == nil {
		m.tail = n
	}
}

func (m *Memory) unlink(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		m.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		m.tail = n.prev
	}
}

func (m *Memory) evictTail() {
	if m.tail == nil {
		return
	}
	delete(m.entries, m.tail.entry.Key)
	m.unlink(m.tail)
}
