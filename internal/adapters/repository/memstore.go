package repository

import (
	"cmp"
	"context"
	"fmt"
	"hash/fnv"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/okian/attrition/internal/domain/model"
)

// DriverMemory keeps the catalogue in process. Nothing survives a restart.
const DriverMemory = "memory"

// Treap-based, in-memory Store implementation.
//
// Ordering: accuracy DESC, created_at DESC, version DESC, id ASC. "less" means
// ranks earlier, so the leftmost node is always the Best model.

// accuracyScale fixes accuracy to 12 decimal places so equal scores compare equal.
const accuracyScale = 1_000_000_000_000

type accuracyFP int64

func toFixedPoint(x float64) accuracyFP {
	if math.IsNaN(x) {
		return 0
	}
	scaled := x * accuracyScale
	if scaled > float64(math.MaxInt64) {
		return accuracyFP(math.MaxInt64)
	}
	if scaled < float64(math.MinInt64) {
		return accuracyFP(math.MinInt64)
	}
	return accuracyFP(math.Round(scaled))
}

type key struct {
	accuracy accuracyFP
	created  int64
	version  int
	id       string
}

func keyOf(m *model.RegisteredModel) key {
	return key{
		accuracy: toFixedPoint(m.Accuracy),
		created:  m.CreatedAt.UnixNano(),
		version:  m.Version,
		id:       m.ID,
	}
}

// less reports whether a ranks before b.
func less(a, b key) bool {
	if a.accuracy != b.accuracy {
		return a.accuracy > b.accuracy
	}
	if a.created != b.created {
		return a.created > b.created
	}
	if a.version != b.version {
		return a.version > b.version
	}
	return a.id < b.id
}

// treap node
type node struct {
	key   key
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// priority hashes the id so the tree shape does not depend on insert order.
func priority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, k key) *node {
	if n == nil {
		return &node{key: k, prio: priority(k.id), size: 1}
	}
	if less(k, n.key) {
		n.left = insert(n.left, k)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func first(n *node) *node {
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

// MemoryStore is a Store held entirely in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	root     *node
	byID     map[string]*model.RegisteredModel
	versions map[string]int
	activeID string
	now      func() time.Time
}

// NewMemoryStore returns an empty in-memory catalogue.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		byID:     make(map[string]*model.RegisteredModel),
		versions: make(map[string]int),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Driver reports the backing driver name.
func (s *MemoryStore) Driver() string { return DriverMemory }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Insert(ctx context.Context, m *model.RegisteredModel, activate bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[m.ID]; ok {
		return fmt.Errorf("insert model: duplicate id %s", m.ID)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	m.CreatedAt = m.CreatedAt.UTC()
	s.versions[m.Name]++
	m.Version = s.versions[m.Name]
	m.IsActive = activate

	stored := clone(m)
	stored.IsActive = false
	s.byID[m.ID] = stored
	s.root = insert(s.root, keyOf(stored))
	if activate {
		s.activeID = m.ID
	}
	return nil
}

func (s *MemoryStore) Activate(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("%w: %s", model.ErrModelNotFound, id)
	}
	s.activeID = id
	return nil
}

func (s *MemoryStore) Active(ctx context.Context) (*model.RegisteredModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" {
		return nil, nil
	}
	return s.view(s.byID[s.activeID]), nil
}

func (s *MemoryStore) Best(ctx context.Context) (*model.RegisteredModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := first(s.root)
	if n == nil {
		return nil, nil
	}
	return s.view(s.byID[n.key.id]), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*model.RegisteredModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrModelNotFound, id)
	}
	return s.view(m), nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]model.RegisteredModel, error) {
	s.mu.RLock()
	out := make([]model.RegisteredModel, 0, len(s.byID))
	for _, m := range s.byID {
		out = append(out, *s.view(m))
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.RegisteredModel) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Version, a.Version)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nsize(s.root), nil
}

// view copies m and stamps the active flag. Callers hold s.mu.
func (s *MemoryStore) view(m *model.RegisteredModel) *model.RegisteredModel {
	out := clone(m)
	out.IsActive = m.ID == s.activeID
	return out
}

func clone(m *model.RegisteredModel) *model.RegisteredModel {
	out := *m
	out.Hyperparameters = maps.Clone(m.Hyperparameters)
	out.FeatureImportance = maps.Clone(m.FeatureImportance)
	return &out
}

// OpenStore returns the Store for driver. The memory driver ignores dsn
// and opts.
func OpenStore(ctx context.Context, driver, dsn string, opts ...Option) (Store, error) {
	if driver == DriverMemory {
		return NewMemoryStore(), nil
	}
	s, err := Open(ctx, driver, dsn, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}
