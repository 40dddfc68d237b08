package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

const defaultShardCount = 32

type shard[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

// shardedMap spreads keys over independently locked shards so writers of
// different terms rarely contend. All access to a value goes through update
// or read, which hold the owning shard's lock for the whole callback.
type shardedMap[V any] struct {
	shards []*shard[V]
}

func newShardedMap[V any](n int) *shardedMap[V] {
	if n <= 0 {
		n = defaultShardCount
	}
	sm := &shardedMap[V]{shards: make([]*shard[V], n)}
	for i := range sm.shards {
		sm.shards[i] = &shard[V]{m: make(map[string]V)}
	}
	return sm
}

func (sm *shardedMap[V]) shardFor(key string) *shard[V] {
	return sm.shards[xxhash.Sum64String(key)%uint64(len(sm.shards))]
}

// update runs fn with the current value for key (zero value and false when
// absent) under the shard's write lock and stores what fn returns.
func (sm *shardedMap[V]) update(key string, fn func(v V, ok bool) V) {
	s := sm.shardFor(key)
	s.mu.Lock()
	v, ok := s.m[key]
	s.m[key] = fn(v, ok)
	s.mu.Unlock()
}

// read runs fn under the shard's read lock. fn must not retain v.
func (sm *shardedMap[V]) read(key string, fn func(v V, ok bool)) {
	s := sm.shardFor(key)
	s.mu.RLock()
	v, ok := s.m[key]
	fn(v, ok)
	s.mu.RUnlock()
}

// each visits every entry shard by shard, holding one read lock at a time.
func (sm *shardedMap[V]) each(fn func(key string, v V)) {
	for _, s := range sm.shards {
		s.mu.RLock()
		for k, v := range s.m {
			fn(k, v)
		}
		s.mu.RUnlock()
	}
}

func (sm *shardedMap[V]) len() int {
	n := 0
	for _, s := range sm.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

func (sm *shardedMap[V]) sortedKeys() []string {
	keys := make([]string, 0, sm.len())
	sm.each(func(k string, _ V) {
		keys = append(keys, k)
	})
	sort.Strings(keys)
	return keys
}

// docRegistry is the universe of document ids a store has seen. Ids compare
// case-insensitively; the first spelling registered is the one stores keep.
type docRegistry struct {
	mu  sync.RWMutex
	ids map[string]string
}

func newDocRegistry() *docRegistry {
	return &docRegistry{ids: make(map[string]string)}
}

// intern registers id and returns its canonical spelling.
func (r *docRegistry) intern(id string) string {
	key := strings.ToLower(id)
	r.mu.RLock()
	canonical, ok := r.ids[key]
	r.mu.RUnlock()
	if ok {
		return canonical
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if canonical, ok := r.ids[key]; ok {
		return canonical
	}
	r.ids[key] = id
	return id
}

// lookup returns the canonical spelling of a registered id.
func (r *docRegistry) lookup(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.ids[strings.ToLower(id)]
	return canonical, ok
}

func (r *docRegistry) snapshot() DocSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(DocSet, len(r.ids))
	for _, id := range r.ids {
		out[id] = struct{}{}
	}
	return out
}

func (r *docRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}
