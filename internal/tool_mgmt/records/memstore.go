package records

import (
	"context"
	"sort"
	"sync"
)

// MemStore: 上流未設定時のモックストア。プロセス内のみ、永続化なし
type MemStore struct {
	mu    sync.RWMutex
	items map[int64]Record
}

func NewMemStore(seed ...Record) *MemStore {
	s := &MemStore{items: make(map[int64]Record, len(seed))}
	for _, r := range seed {
		s.items[r.ID] = r.Clone()
	}
	return s
}

func (s *MemStore) Get(_ context.Context, id int64) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	out := r.Clone()
	return &out, nil
}

func (s *MemStore) List(_ context.Context, f Filter, p Page) ([]Record, int64, error) {
	s.mu.RLock()
	matched := make([]Record, 0, len(s.items))
	for _, r := range s.items {
		if f.Match(&r) {
			matched = append(matched, r.Clone())
		}
	}
	s.mu.RUnlock()

	// 新しい貸出が先頭
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].LendAt.Equal(matched[j].LendAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].LendAt.After(matched[j].LendAt)
	})

	lo, hi := p.Bounds(len(matched))
	return matched[lo:hi], int64(len(matched)), nil
}

func (s *MemStore) Update(_ context.Context, r *Record, expect Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[r.ID]
	if !ok {
		return ErrRecordNotFound
	}
	if cur.Status != expect {
		return ErrStatusChanged
	}
	s.items[r.ID] = r.Clone()
	return nil
}
