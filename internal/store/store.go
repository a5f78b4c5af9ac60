// Package store owns the credential document: it loads it once, serves
// snapshots of the entries, and rewrites the whole document after every change.
package store

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pixievault/pixievault/internal/vault"
)

// maxIDAttempts bounds how often Add asks the generator for a fresh id.
const maxIDAttempts = 8

// Store is the entry repository. All reads of the current entries and all
// mutations go through it.
type Store struct {
	mu      sync.RWMutex
	doc     *vault.Document
	backend Backend
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides how entry ids are produced.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// Open loads the document from backend and returns a store over it.
func Open(backend Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend: backend,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}

	doc, err := backend.Load()
	if err != nil {
		return nil, err
	}
	if err := normalize(doc); err != nil {
		return nil, err
	}
	s.doc = doc
	return s, nil
}

// normalize fills in missing collections and rejects documents whose ids
// are empty or repeated.
func normalize(doc *vault.Document) error {
	if doc.Entries == nil {
		doc.Entries = []vault.Entry{}
	}
	seen := make(map[string]struct{}, len(doc.Entries))
	for i := range doc.Entries {
		e := &doc.Entries[i]
		if e.ID == "" {
			return fmt.Errorf("%w: entry %d has no id", ErrCorruptDocument, i)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrCorruptDocument, e.ID)
		}
		seen[e.ID] = struct{}{}
		if e.Custom == nil {
			e.Custom = map[string]string{}
		}
	}
	return nil
}

// Entries returns a copy of all entries in document order.
func (s *Store) Entries() []vault.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]vault.Entry, len(s.doc.Entries))
	for i, e := range s.doc.Entries {
		entries[i] = e.Clone()
	}
	return entries
}

// Get returns a copy of the entry with the given id.
func (s *Store) Get(id string) (vault.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.doc.Entries[i].Clone(), true
	}
	return vault.Entry{}, false
}

// Add appends a new entry built from base and custom and persists the document.
// Name, protocol, website, and username are trimmed; password and notes are
// stored verbatim. No field is required here.
func (s *Store) Add(base vault.BaseFields, custom map[string]string) (vault.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.allocateID()
	if err != nil {
		return vault.Entry{}, err
	}

	now := s.now().Unix()
	entry := vault.Entry{
		ID:        id,
		Custom:    copyCustom(custom),
		CreatedAt: now,
		UpdatedAt: now,
	}
	base.Trimmed().Apply(&entry)

	next := s.doc.Clone()
	next.Entries = append(next.Entries, entry)
	if err := s.commit(next); err != nil {
		return vault.Entry{}, err
	}
	return entry.Clone(), nil
}

// Update overwrites the supplied base fields of the entry, replaces its custom
// fields wholesale, and persists. It returns false, writing nothing, when no
// entry has that id.
func (s *Store) Update(id string, base vault.BaseFields, custom map[string]string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}

	next := s.doc.Clone()
	e := &next.Entries[i]
	base.Apply(e)
	e.Custom = copyCustom(custom)
	e.UpdatedAt = s.now().Unix()

	if err := s.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the entry with the given id, if any, and persists.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := &vault.Document{Entries: make([]vault.Entry, 0, len(s.doc.Entries))}
	for _, e := range s.doc.Entries {
		if e.ID != id {
			next.Entries = append(next.Entries, e.Clone())
		}
	}
	return s.commit(next)
}

// RecordAccess bumps the access counter and last access time of the entry and
// persists. It returns false, writing nothing, when no entry has that id.
func (s *Store) RecordAccess(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}

	next := s.doc.Clone()
	e := &next.Entries[i]
	now := s.now().Unix()
	e.AccessCount++
	e.LastAccessAt = &now

	if err := s.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

// commit persists next and makes it current. On failure the current document
// is left untouched. Caller must hold the write lock.
func (s *Store) commit(next *vault.Document) error {
	if err := s.backend.Save(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

// indexOf returns the position of id, or -1. Caller must hold a lock.
func (s *Store) indexOf(id string) int {
	for i := range s.doc.Entries {
		if s.doc.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

// allocateID asks the generator for an id not present in the document.
// Caller must hold the write lock.
func (s *Store) allocateID() (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

func copyCustom(custom map[string]string) map[string]string {
	out := make(map[string]string, len(custom))
	maps.Copy(out, custom)
	return out
}
