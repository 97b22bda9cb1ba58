// Package keyset holds the immutable key snapshots used for token
// verification and the Store that swaps them.
package keyset

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrDuplicateKeyID is returned when a key set contains the same kid twice.
	ErrDuplicateKeyID = errors.New("duplicate key id")

	// ErrMissingKeyID is returned when a record has no kid.
	ErrMissingKeyID = errors.New("key id cannot be empty")
)

// KeyRecord is one verification key.
type KeyRecord struct {
	ID        string
	Algorithm string

	// Material is the parsed public key, e.g. *rsa.PublicKey.
	Material any

	// NotBefore is the activation instant. The zero value means the key is
	// active immediately.
	NotBefore time.Time
}

// ActiveAt reports whether the key may be used at now.
func (r KeyRecord) ActiveAt(now time.Time) bool {
	return r.NotBefore.IsZero() || !now.Before(r.NotBefore)
}

// Snapshot is a point-in-time set of keys. It is never mutated after
// construction; refreshing builds a new Snapshot.
type Snapshot struct {
	keys      map[string]KeyRecord
	fetchedAt time.Time
}

var empty = &Snapshot{keys: map[string]KeyRecord{}}

// Empty returns the snapshot of a client that has never fetched.
func Empty() *Snapshot {
	return empty
}

// NewSnapshot builds a Snapshot from records fetched at fetchedAt.
func NewSnapshot(records []KeyRecord, fetchedAt time.Time) (*Snapshot, error) {
	keys := make(map[string]KeyRecord, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrMissingKeyID)
		}
		if _, ok := keys[r.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKeyID, r.ID)
		}
		keys[r.ID] = r
	}

	return &Snapshot{keys: keys, fetchedAt: fetchedAt}, nil
}

// FetchedAt is the instant the snapshot was fetched. Zero for Empty.
func (s *Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Len returns the number of keys.
func (s *Snapshot) Len() int {
	return len(s.keys)
}

// Lookup returns the record for id, if any.
func (s *Snapshot) Lookup(id string) (KeyRecord, bool) {
	r, ok := s.keys[id]
	return r, ok
}

// IDs returns the key ids in sorted order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.keys))
	for id := range s.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Records returns a copy of the records ordered by id.
func (s *Snapshot) Records() []KeyRecord {
	records := make([]KeyRecord, 0, len(s.keys))
	for _, id := range s.IDs() {
		records = append(records, s.keys[id])
	}
	return records
}
