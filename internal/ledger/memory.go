package ledger

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/koinonia-app/backend/internal/models"
)

// Memory is an in-process Ledger used for local development and tests. It
// honors the same atomicity contract as the remote backends: each operation
// holds the store lock for the whole mutation, so a toggle and its counter
// adjustment are indivisible.
type Memory struct {
	mu    sync.Mutex
	nodes map[string]*memoryNode
}

type memoryNode struct {
	count    int64
	actors   map[string]time.Time
	children map[string]ChildRecord
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{nodes: make(map[string]*memoryNode)}
}

func (m *Memory) node(entity Entity, kind models.InteractionKind) *memoryNode {
	key := entity.Path() + "/" + string(kind)
	n, ok := m.nodes[key]
	if !ok {
		n = &memoryNode{
			actors:   make(map[string]time.Time),
			children: make(map[string]ChildRecord),
		}
		m.nodes[key] = n
	}
	return n
}

func (m *Memory) ToggleInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.node(entity, kind)
	if _, ok := n.actors[actorID]; ok {
		delete(n.actors, actorID)
		if n.count > 0 {
			n.count--
		}
		return false, n.count, nil
	}
	n.actors[actorID] = time.Now()
	n.count++
	return true, n.count, nil
}

func (m *Memory) AppendChild(ctx context.Context, entity Entity, kind models.InteractionKind, rec ChildRecord) (string, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.node(entity, kind)
	id := uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	n.children[id] = rec
	n.count++
	return id, n.count, nil
}

func (m *Memory) RemoveChild(ctx context.Context, entity Entity, kind models.InteractionKind, childID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.node(entity, kind)
	if _, ok := n.children[childID]; ok {
		delete(n.children, childID)
		if n.count > 0 {
			n.count--
		}
	}
	return n.count, nil
}

func (m *Memory) IncrementCounter(ctx context.Context, entity Entity, kind models.InteractionKind, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.node(entity, kind)
	n.count += delta
	if n.count < 0 {
		n.count = 0
	}
	return n.count, nil
}

func (m *Memory) HasInteraction(ctx context.Context, entity Entity, kind models.InteractionKind, actorID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.node(entity, kind).actors[actorID]
	return ok, nil
}

func (m *Memory) Counter(ctx context.Context, entity Entity, kind models.InteractionKind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.node(entity, kind).count, nil
}

func (m *Memory) RemoveEntity(ctx context.Context, entity Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := entity.Path() + "/"
	for key := range m.nodes {
		if strings.HasPrefix(key, prefix) {
			delete(m.nodes, key)
		}
	}
	return nil
}
