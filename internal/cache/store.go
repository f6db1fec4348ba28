package cache

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/desertthunder/ltx/internal/models"
)

const numShards = 32

// Result is a search hit together with the validator's decision, taken once at insertion time.
type Result struct {
	Record   models.Record `json:"record"`
	Accepted bool          `json:"accepted"`
}

// Pair is one serialized cache entry. A nil Entry records a search that found nothing.
type Pair struct {
	Track models.Track
	Entry *Result
}

// MarshalJSON encodes the pair as a two-element array: [track, entry].
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Track, p.Entry})
}

// UnmarshalJSON decodes a two-element array written by [Pair.MarshalJSON].
func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("cache pair: expected 2 elements, got %d", len(raw))
	}

	var pair Pair
	if err := json.Unmarshal(raw[0], &pair.Track); err != nil {
		return fmt.Errorf("cache pair track: %w", err)
	}
	if err := json.Unmarshal(raw[1], &pair.Entry); err != nil {
		return fmt.Errorf("cache pair entry: %w", err)
	}

	*p = pair
	return nil
}

type shard struct {
	mu      sync.RWMutex
	entries map[models.Track]*Result
}

// Store maps tracks to what searching for them produced.
//
// A track that is absent was never searched. A track mapped to nil was searched and nothing usable came back.
// Entries are spread over lock-striped shards, so inserts for different tracks rarely wait on each other.
// A Store is safe for concurrent use; [Store.Clone] returns a handle to the same entries.
type Store struct {
	shards *[numShards]*shard
}

// StoreStats summarizes the entries in a [Store].
type StoreStats struct {
	Entries  int
	Accepted int
	Rejected int
	NotFound int
}

// NewStore creates an empty [Store].
func NewStore() *Store {
	var shards [numShards]*shard
	for i := range shards {
		shards[i] = &shard{entries: make(map[models.Track]*Result)}
	}
	return &Store{shards: &shards}
}

// FromPairs builds a [Store] from serialized pairs. Later duplicates overwrite earlier ones.
func FromPairs(pairs []Pair) *Store {
	s := NewStore()
	for _, p := range pairs {
		s.Insert(p.Track, p.Entry)
	}
	return s
}

func (s *Store) shard(t models.Track) *shard {
	h := xxhash.New()
	h.WriteString(t.Artist)
	h.Write([]byte{0})
	h.WriteString(t.Title)
	return s.shards[h.Sum64()%numShards]
}

// Lookup returns the cached entry for t. ok is false when t was never searched.
func (s *Store) Lookup(t models.Track) (entry *Result, ok bool) {
	sh := s.shard(t)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	entry, ok = sh.entries[t]
	return entry, ok
}

// Insert records entry for t, replacing any previous value.
func (s *Store) Insert(t models.Track, entry *Result) {
	sh := s.shard(t)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.entries[t] = entry
}

// Prune removes every entry whose track is not in keep and returns how many were removed.
//
// Passing an empty keep list empties the store.
func (s *Store) Prune(keep []models.Track) int {
	retained := make(map[models.Track]struct{}, len(keep))
	for _, t := range keep {
		retained[t] = struct{}{}
	}

	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for t := range sh.entries {
			if _, ok := retained[t]; !ok {
				delete(sh.entries, t)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Clear removes every entry.
func (s *Store) Clear() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		clear(sh.entries)
		sh.mu.Unlock()
	}
}

// Len returns the number of tracks in the store.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Stats counts entries by outcome.
func (s *Store) Stats() StoreStats {
	var stats StoreStats
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, entry := range sh.entries {
			stats.Entries++
			switch {
			case entry == nil:
				stats.NotFound++
			case entry.Accepted:
				stats.Accepted++
			default:
				stats.Rejected++
			}
		}
		sh.mu.RUnlock()
	}
	return stats
}

// Pairs returns a snapshot of the store as a flat list sorted by track.
func (s *Store) Pairs() []Pair {
	var pairs []Pair
	for _, sh := range s.shards {
		sh.mu.RLock()
		for t, entry := range sh.entries {
			pairs = append(pairs, Pair{Track: t, Entry: entry})
		}
		sh.mu.RUnlock()
	}

	slices.SortFunc(pairs, func(a, b Pair) int {
		return models.CompareTracks(a.Track, b.Track)
	})
	return pairs
}

// Clone returns a handle that shares entries with s.
func (s *Store) Clone() *Store {
	return &Store{shards: s.shards}
}

// MarshalJSON encodes the store as a JSON array of [track, entry] pairs.
func (s *Store) MarshalJSON() ([]byte, error) {
	pairs := s.Pairs()
	if pairs == nil {
		pairs = []Pair{}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON replaces the entries of the receiver with those in data.
// Handles returned by [Store.Clone] keep sharing entries with the receiver.
func (s *Store) UnmarshalJSON(data []byte) error {
	var pairs []Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}

	if s.shards == nil {
		*s = *NewStore()
	} else {
		s.Clear()
	}
	for _, p := range pairs {
		s.Insert(p.Track, p.Entry)
	}
	return nil
}
