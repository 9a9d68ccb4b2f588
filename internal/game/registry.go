// SPDX-License-Identifier: MPL-2.0

package game

import (
	"cmp"
	"slices"
	"sync"

	"github.com/plugsort/plugsort/pkg/plugin"
)

// Registry holds the records of one load. Lanes insert concurrently under the
// write lock; after freeze the registry is read-only and its order is the
// discovery order.
type Registry struct {
	mu      sync.RWMutex
	records []*plugin.Record
	index   map[plugin.Key]int
	frozen  bool
}

func newRegistry(capacity int) *Registry {
	return &Registry{
		records: make([]*plugin.Record, 0, capacity),
		index:   make(map[plugin.Key]int, capacity),
	}
}

// insert adds a record. It reports false if the registry is frozen or already
// holds the key.
func (r *Registry) insert(rec *plugin.Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return false
	}
	if _, ok := r.index[rec.Key]; ok {
		return false
	}
	r.index[rec.Key] = len(r.records)
	r.records = append(r.records, rec)
	return true
}

// freeze orders records by discovery index and rejects further inserts.
func (r *Registry) freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	slices.SortFunc(r.records, func(a, b *plugin.Record) int {
		return cmp.Compare(a.Discovery, b.Discovery)
	})
	for i, rec := range r.records {
		r.index[rec.Key] = i
	}
	r.frozen = true
}

// Get returns the record for key.
func (r *Registry) Get(key plugin.Key) (*plugin.Record, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.records[i], true
}

// Records returns the records in registry order.
func (r *Registry) Records() []*plugin.Record {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records)
}

// Len returns the number of records.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
