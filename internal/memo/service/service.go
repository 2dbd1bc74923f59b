package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sidememo/sidememo/internal/memo"
	"github.com/sidememo/sidememo/internal/memo/repository"
	"github.com/sidememo/sidememo/pkg/logger"
	"github.com/sidememo/sidememo/pkg/metrics"
)

// DefaultKey is the reserved area key holding the whole memo collection.
const DefaultKey = "side-memo-notes"

var (
	ErrStorageRead  = errors.New("storage read failure")
	ErrStorageWrite = errors.New("storage write failure")
)

// Service defines the memo operations used by the panel controller and the REST handler.
// A false bool from Get, Update or Delete means "not found" and is not an error.
type Service interface {
	ListAll(ctx context.Context) ([]memo.Memo, error)
	Get(ctx context.Context, id string) (memo.Memo, bool, error)
	Create(ctx context.Context, title, content string) (memo.Memo, error)
	Update(ctx context.Context, id string, f memo.Fields) (memo.Memo, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type Option func(*Store)

// WithKey overrides the reserved collection key.
func WithKey(key string) Option { return func(s *Store) { s.key = key } }

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithIDGenerator sets the id source. Defaults to random UUIDs.
func WithIDGenerator(gen func() string) Option { return func(s *Store) { s.newID = gen } }

func WithLogger(l *logger.Logger) Option { return func(s *Store) { s.log = l } }

// Store keeps every memo as one serialized collection under a single key.
// Each operation reads, modifies and rewrites the whole collection.
type Store struct {
	area  repository.Area
	key   string
	now   func() time.Time
	newID func() string
	log   *logger.Logger

	// one logical writer per process
	mu sync.Mutex
}

func New(area repository.Area, opts ...Option) *Store {
	s := &Store{
		area:  area,
		key:   DefaultKey,
		now:   time.Now,
		newID: uuid.NewString,
		log:   logger.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewMemoryService returns a Store backed by the in-memory area.
func NewMemoryService(opts ...Option) *Store {
	return New(repository.NewMemoryRepo(), opts...)
}

func (s *Store) load(ctx context.Context) ([]memo.Memo, error) {
	vals, err := s.area.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	memos := []memo.Memo{}
	raw, ok := vals[s.key]
	if !ok || len(raw) == 0 {
		return memos, nil
	}
	if err := json.Unmarshal(raw, &memos); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrStorageRead, s.key, err)
	}
	if memos == nil {
		memos = []memo.Memo{}
	}
	return memos, nil
}

func (s *Store) save(ctx context.Context, memos []memo.Memo) error {
	b, err := json.Marshal(memos)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrStorageWrite, err)
	}
	if err := s.area.Set(ctx, map[string][]byte{s.key: b}); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	return nil
}

func record(op string, found bool, err error) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case !found:
		result = "not_found"
	}
	metrics.StoreOperations.WithLabelValues(op, result).Inc()
}

func (s *Store) ListAll(ctx context.Context) ([]memo.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memos, err := s.load(ctx)
	record("list", true, err)
	return memos, err
}

func (s *Store) Get(ctx context.Context, id string) (memo.Memo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memos, err := s.load(ctx)
	if err != nil {
		record("get", false, err)
		return memo.Memo{}, false, err
	}
	for _, m := range memos {
		if m.ID == id {
			record("get", true, nil)
			return m, true, nil
		}
	}
	record("get", false, nil)
	return memo.Memo{}, false, nil
}

func (s *Store) Create(ctx context.Context, title, content string) (memo.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memos, err := s.load(ctx)
	if err != nil {
		record("create", false, err)
		return memo.Memo{}, err
	}
	now := s.now().UTC()
	m := memo.Memo{ID: s.newID(), Title: title, Content: content, CreatedAt: now, UpdatedAt: now}
	if err := s.save(ctx, append(memos, m)); err != nil {
		record("create", false, err)
		return memo.Memo{}, err
	}
	record("create", true, nil)
	s.log.Debugf("memo created id=%s", m.ID)
	return m, nil
}

func (s *Store) Update(ctx context.Context, id string, f memo.Fields) (memo.Memo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memos, err := s.load(ctx)
	if err != nil {
		record("update", false, err)
		return memo.Memo{}, false, err
	}
	idx := -1
	for i := range memos {
		if memos[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		record("update", false, nil)
		return memo.Memo{}, false, nil
	}
	updated := f.Apply(memos[idx])
	now := s.now().UTC()
	// updatedAt must move forward even when the clock does not
	if !now.After(updated.UpdatedAt) {
		now = updated.UpdatedAt.Add(time.Nanosecond)
	}
	updated.UpdatedAt = now
	memos[idx] = updated
	if err := s.save(ctx, memos); err != nil {
		record("update", false, err)
		return memo.Memo{}, false, err
	}
	record("update", true, nil)
	s.log.Debugf("memo updated id=%s", id)
	return updated, true, nil
}

func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memos, err := s.load(ctx)
	if err != nil {
		record("delete", false, err)
		return false, err
	}
	kept := make([]memo.Memo, 0, len(memos))
	for _, m := range memos {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(memos) {
		record("delete", false, nil)
		return false, nil
	}
	if err := s.save(ctx, kept); err != nil {
		record("delete", false, err)
		return false, err
	}
	record("delete", true, nil)
	s.log.Debugf("memo deleted id=%s", id)
	return true, nil
}
