// Package store provides a generic in-memory document collection with the
// persistence primitives the feed repositories are built on: insert,
// lookup by id, creation-ordered listing, per-document serialized
// mutation, and TTL-based expiry.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a document id is absent from a collection.
var ErrNotFound = errors.New("document not found")

// ErrDuplicateID is returned when inserting a document whose id is
// already present.
var ErrDuplicateID = errors.New("duplicate document id")

type entry[T any] struct {
	mu  sync.Mutex // serializes read-modify-write per document
	seq uint64
	doc T
}

// Collection stores documents of type T keyed by id. Mutations on the
// same document are serialized by a per-entry lock, so concurrent
// updates never lose writes; documents with distinct ids never contend.
//
// The clone function must return a copy that shares no mutable state
// with its argument. Every document handed out or taken in crosses
// through clone, so callers can never alias the stored state.
type Collection[T any] struct {
	id        func(*T) string
	createdAt func(*T) time.Time
	clone     func(T) T
	expiresAt func(*T) time.Time // nil when the collection has no TTL policy

	mu      sync.RWMutex
	entries map[string]*entry[T]
	seq     uint64
}

// NewCollection creates an empty collection.
func NewCollection[T any](id func(*T) string, createdAt func(*T) time.Time, clone func(T) T) *Collection[T] {
	return &Collection[T]{
		id:        id,
		createdAt: createdAt,
		clone:     clone,
		entries:   make(map[string]*entry[T]),
	}
}

// WithTTL attaches an expiry policy. Listings through ActiveAt apply the
// read-time filter now < expiresAt; ExpireOlderThan reclaims space.
func (c *Collection[T]) WithTTL(expiresAt func(*T) time.Time) *Collection[T] {
	c.expiresAt = expiresAt
	return c
}

// Insert adds a document. The id must be unique within the collection.
func (c *Collection[T]) Insert(doc T) error {
	doc = c.clone(doc)
	key := c.id(&doc)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return ErrDuplicateID
	}
	c.seq++
	c.entries[key] = &entry[T]{seq: c.seq, doc: doc}
	return nil
}

// Get returns a copy of the document with the given id.
func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return c.clone(e.doc), nil
}

// Update applies fn to the document with the given id under the entry
// lock and persists the result atomically. If fn returns an error the
// stored document is left exactly as it was.
func (c *Collection[T]) Update(id string, fn func(*T) error) (T, error) {
	c.mu.RLock()
	e, ok := c.entries[id]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	work := c.clone(e.doc)
	if err := fn(&work); err != nil {
		return zero, err
	}
	e.doc = work
	return c.clone(work), nil
}

// All returns copies of every document sorted by creation time, most
// recent first.
func (c *Collection[T]) All() []T {
	return c.list(func(*T) bool { return true })
}

// ActiveAt returns the unexpired documents as of the single instant now,
// sorted by creation time descending. Collections without a TTL policy
// return everything.
func (c *Collection[T]) ActiveAt(now time.Time) []T {
	if c.expiresAt == nil {
		return c.All()
	}
	return c.list(func(doc *T) bool { return now.Before(c.expiresAt(doc)) })
}

// ExpireOlderThan removes documents whose expiry instant has passed and
// reports how many were removed. It is a space-reclamation aid only;
// ActiveAt stays correct without it.
func (c *Collection[T]) ExpireOlderThan(now time.Time) int {
	if c.expiresAt == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		// The entry lock keeps the expiry read consistent with a
		// concurrent Update on the same document.
		e.mu.Lock()
		expired := !now.Before(c.expiresAt(&e.doc))
		e.mu.Unlock()
		if expired {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports how many documents the collection currently holds,
// including expired ones not yet reclaimed.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Collection[T]) list(keep func(*T) bool) []T {
	c.mu.RLock()
	type item struct {
		seq uint64
		doc T
	}
	items := make([]item, 0, len(c.entries))
	for _, e := range c.entries {
		e.mu.Lock()
		doc := c.clone(e.doc)
		e.mu.Unlock()
		if keep(&doc) {
			items = append(items, item{seq: e.seq, doc: doc})
		}
	}
	c.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		ti, tj := c.createdAt(&items[i].doc), c.createdAt(&items[j].doc)
		if ti.Equal(tj) {
			return items[i].seq > items[j].seq
		}
		return ti.After(tj)
	})

	docs := make([]T, len(items))
	for i := range items {
		docs[i] = items[i].doc
	}
	return docs
}
