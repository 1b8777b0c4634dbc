// Package catalog keeps the in-memory index of ingested images. It is an
// ephemeral index, not a system of record: it starts empty, lives for the
// process lifetime, and is only mutated by the image service.
package catalog

import (
	"fmt"
	"sync"

	"imagegate/internal/domain"
)

// Catalog is an insertion-ordered collection of image records keyed by the
// remote-store-assigned id. All methods are safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	records []domain.ImageRecord
	ids     map[string]struct{}
}

func New() *Catalog {
	return &Catalog{
		records: make([]domain.ImageRecord, 0),
		ids:     make(map[string]struct{}),
	}
}

// List returns a snapshot of all records in insertion order. The returned
// slice is a copy; callers may not mutate catalog state through it.
func (c *Catalog) List() []domain.ImageRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.ImageRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Find returns the record with the given id, if present.
func (c *Catalog) Find(id string) (domain.ImageRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, ok := c.ids[id]; !ok {
		return domain.ImageRecord{}, false
	}
	for _, rec := range c.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return domain.ImageRecord{}, false
}

// Insert appends a record. Ids are assigned by the remote store and unique,
// so a duplicate can only come from an orchestrator bug; Insert panics on one.
func (c *Catalog) Insert(rec domain.ImageRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.ids[rec.ID]; ok {
		panic(fmt.Sprintf("catalog: duplicate insert for id %q", rec.ID))
	}
	c.ids[rec.ID] = struct{}{}
	c.records = append(c.records, rec)
}

// Remove deletes the record with the given id and returns it.
func (c *Catalog) Remove(id string) (domain.ImageRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.ids[id]; !ok {
		return domain.ImageRecord{}, false
	}
	for i, rec := range c.records {
		if rec.ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			delete(c.ids, id)
			return rec, true
		}
	}
	return domain.ImageRecord{}, false
}

// Len returns the current number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
