package bracket

import (
	"fmt"
	"sync"

	"github.com/dom/bracket-sync/internal/domain"
)

// Store holds the sets of the loaded event. Every read returns a deep copy
// and every change goes through Edit or Apply, so callers never share
// memory with the store.
//
// Each set carries a request sequence number. Issue hands out a new number
// before a remote call and Apply only accepts the response if no newer
// number was issued since. Local edits advance the sequence too.
type Store struct {
	eventID  string
	order    []string
	sets     map[string]*domain.Set
	seq      map[string]uint64
	inFlight map[string]uint64
	loaded   map[string]bool

	mu sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		sets:     make(map[string]*domain.Set),
		seq:      make(map[string]uint64),
		inFlight: make(map[string]uint64),
		loaded:   make(map[string]bool),
	}
}

// Replace swaps in a freshly loaded event. Sequence numbers survive and are
// advanced, so responses to requests made before the reload are discarded.
func (s *Store) Replace(eventID string, sets []*domain.Set) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.eventID = eventID
	s.order = make([]string, 0, len(sets))
	s.sets = make(map[string]*domain.Set, len(sets))
	s.inFlight = make(map[string]uint64)
	s.loaded = make(map[string]bool)
	for _, set := range sets {
		if _, dup := s.sets[set.ID]; !dup {
			s.order = append(s.order, set.ID)
		}
		s.sets[set.ID] = set.Clone()
		s.seq[set.ID]++
	}
}

func (s *Store) EventID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventID
}

func (s *Store) Get(id string) (*domain.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[id]
	if !ok {
		return nil, fmt.Errorf("set %s: %w", id, domain.ErrSetNotFound)
	}
	return set.Clone(), nil
}

// List returns the sets in load order.
func (s *Store) List() []*domain.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Set, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sets[id].Clone())
	}
	return out
}

// Edit runs fn against a copy of the set and commits the copy only if fn
// succeeds. A committed edit advances the set's sequence.
func (s *Store) Edit(id string, fn func(*domain.Set) error) (*domain.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sets[id]
	if !ok {
		return nil, fmt.Errorf("set %s: %w", id, domain.ErrSetNotFound)
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.sets[id] = working
	s.seq[id]++
	return working.Clone(), nil
}

// Issue snapshots the set for a new remote request and advances its
// sequence. check, if given, vets the snapshot first; on error nothing
// changes. The snapshot and the returned number describe the same state.
func (s *Store) Issue(id string, check func(*domain.Set) error) (*domain.Set, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sets[id]
	if !ok {
		return nil, 0, fmt.Errorf("set %s: %w", id, domain.ErrSetNotFound)
	}
	snapshot := current.Clone()
	if check != nil {
		if err := check(snapshot); err != nil {
			return nil, 0, err
		}
	}
	s.seq[id]++
	return snapshot, s.seq[id], nil
}

// Apply commits fn for the response of request seq. It fails with
// domain.ErrStaleResponse when a newer request was issued or the set was
// edited locally in the meantime.
func (s *Store) Apply(id string, seq uint64, fn func(*domain.Set)) (*domain.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(id, seq, fn)
}

func (s *Store) applyLocked(id string, seq uint64, fn func(*domain.Set)) (*domain.Set, error) {
	current, ok := s.sets[id]
	if !ok {
		return nil, fmt.Errorf("set %s: %w", id, domain.ErrSetNotFound)
	}
	if s.seq[id] != seq {
		return current.Clone(), fmt.Errorf("set %s request %d superseded by %d: %w", id, seq, s.seq[id], domain.ErrStaleResponse)
	}
	working := current.Clone()
	fn(working)
	s.sets[id] = working
	return working.Clone(), nil
}

// Expand marks the set expanded. It reports whether the caller must fetch
// details: true only when they were never loaded and no fetch is running.
// The returned sequence belongs to that fetch.
func (s *Store) Expand(id string) (bool, uint64, *domain.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[id]
	if !ok {
		return false, 0, nil, fmt.Errorf("set %s: %w", id, domain.ErrSetNotFound)
	}
	set.IsExpanded = true
	if s.loaded[id] {
		return false, 0, set.Clone(), nil
	}
	if _, running := s.inFlight[id]; running {
		return false, 0, set.Clone(), nil
	}
	set.IsLoadingDetails = true
	s.seq[id]++
	s.inFlight[id] = s.seq[id]
	return true, s.seq[id], set.Clone(), nil
}

func (s *Store) Collapse(id string) (*domain.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[id]
	if !ok {
		return nil, fmt.Errorf("set %s: %w", id, domain.ErrSetNotFound)
	}
	set.IsExpanded = false
	return set.Clone(), nil
}

// BeginRefresh issues a detail fetch outside of expansion, used after writes.
// It does not consult the in-flight guard.
func (s *Store) BeginRefresh(id string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sets[id]; !ok {
		return 0, fmt.Errorf("set %s: %w", id, domain.ErrSetNotFound)
	}
	s.sets[id].IsLoadingDetails = true
	s.seq[id]++
	s.inFlight[id] = s.seq[id]
	return s.seq[id], nil
}

// FinishDetails ends the detail fetch issued as seq and clears its in-flight
// marker. fn runs only if seq is still current, and then the set counts as
// loaded. A nil fn records a failed fetch.
func (s *Store) FinishDetails(id string, seq uint64, fn func(*domain.Set)) (*domain.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[id]
	if !ok {
		return nil, fmt.Errorf("set %s: %w", id, domain.ErrSetNotFound)
	}
	// A newer fetch keeps its own marker.
	if s.inFlight[id] == seq {
		delete(s.inFlight, id)
		set.IsLoadingDetails = false
	}
	if fn == nil {
		return set.Clone(), nil
	}
	out, err := s.applyLocked(id, seq, fn)
	if err != nil {
		return out, err
	}
	s.loaded[id] = true
	return out, nil
}

// DetailsLoaded reports whether a detail fetch for id has completed.
func (s *Store) DetailsLoaded(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded[id]
}

func (s *Store) IsInFlight(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.inFlight[id]
	return ok
}

// Seq returns the latest sequence number issued for id.
func (s *Store) Seq(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq[id]
}

// ParticipantPlayerIDs collects the distinct player ids of every loaded set.
func (s *Store) ParticipantPlayerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var ids []string
	for _, id := range s.order {
		for _, slot := range s.sets[id].Slots {
			if slot.Entrant == nil {
				continue
			}
			for _, p := range slot.Entrant.Participants {
				if p.PlayerID == "" {
					continue
				}
				if _, dup := seen[p.PlayerID]; dup {
					continue
				}
				seen[p.PlayerID] = struct{}{}
				ids = append(ids, p.PlayerID)
			}
		}
	}
	return ids
}
