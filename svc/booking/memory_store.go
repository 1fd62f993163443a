package booking

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Partitions are separate maps guarded
// by one lock, so a relocation is a single critical section.
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[Partition]map[string]*Booking
	location   map[string]Partition
	now        func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock overrides the time source.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		partitions: make(map[Partition]map[string]*Booking, len(Partitions)),
		location:   make(map[string]Partition),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, p := range Partitions {
		s.partitions[p] = make(map[string]*Booking)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, b *Booking) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewError(ErrStorageUnavailable, "create", "", err)
	}
	rec, err := PrepareCreate(b, s.now())
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.location[rec.ID]; exists {
		return "", NewError(ErrDuplicateID, "create", rec.ID, nil)
	}
	if rec.Lineage != "" {
		if _, exists := s.location[rec.Lineage]; !exists {
			return "", Errorf(ErrValidation, "create", rec.ID, "lineage %s does not exist", rec.Lineage)
		}
	}

	s.partitions[PartitionActive][rec.ID] = rec
	s.location[rec.ID] = PartitionActive
	return rec.ID, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(ErrStorageUnavailable, "get", id, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.lookup(id)
	if !ok {
		return nil, NewError(ErrNotFound, "get", id, nil)
	}
	return b.Clone(), nil
}

func (s *MemoryStore) ConditionalUpdate(ctx context.Context, id string, expected Status, mutate func(*Booking) error) (*Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(ErrStorageUnavailable, "conditional update", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lookup(id)
	if !ok {
		return nil, NewError(ErrNotFound, "conditional update", id, nil)
	}
	next, err := ApplyUpdate(current, expected, mutate)
	if err != nil {
		return nil, err
	}
	s.put(current.Partition, next)
	return next.Clone(), nil
}

func (s *MemoryStore) MoveToPartition(ctx context.Context, id string, target Partition) (*Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewError(ErrStorageUnavailable, "move", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.lookup(id)
	if !ok {
		return nil, NewError(ErrNotFound, "move", id, nil)
	}
	next, changed, err := ApplyMove(current, target, s.now())
	if err != nil {
		return nil, err
	}
	if changed {
		s.put(current.Partition, next)
	}
	return next.Clone(), nil
}

func (s *MemoryStore) List(ctx context.Context, filter Filter) iter.Seq2[*Booking, error] {
	return func(yield func(*Booking, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, NewError(ErrStorageUnavailable, "list", "", err))
			return
		}

		s.mu.RLock()
		var snapshot []*Booking
		for _, b := range s.partitions[filter.PartitionOrDefault()] {
			if filter.Matches(b) {
				snapshot = append(snapshot, b.Clone())
			}
		}
		s.mu.RUnlock()

		slices.SortFunc(snapshot, func(a, b *Booking) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
		})
		for _, b := range snapshot {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// lookup must be called with the lock held.
func (s *MemoryStore) lookup(id string) (*Booking, bool) {
	p, ok := s.location[id]
	if !ok {
		return nil, false
	}
	b, ok := s.partitions[p][id]
	return b, ok
}

// put stores next, relocating it out of from when its partition changed.
// The target is written before the source entry is removed.
func (s *MemoryStore) put(from Partition, next *Booking) {
	s.partitions[next.Partition][next.ID] = next
	if from != next.Partition {
		delete(s.partitions[from], next.ID)
	}
	s.location[next.ID] = next.Partition
}
