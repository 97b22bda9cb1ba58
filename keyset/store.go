package keyset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds a single shared fetch.
const DefaultFetchTimeout = 30 * time.Second

// errNilSnapshot is returned when a FetchFunc reports success without a snapshot.
var errNilSnapshot = errors.New("fetch returned no snapshot")

// FetchFunc retrieves a fresh Snapshot.
type FetchFunc func(ctx context.Context) (*Snapshot, error)

// Store owns the current Snapshot. Reads are lock-free; installs go through
// ReplaceIfNewer and fetches through Refresh, which allows only one fetch in
// flight at a time.
type Store struct {
	current atomic.Pointer[Snapshot]

	// installMu serializes the compare-and-install in ReplaceIfNewer.
	installMu sync.Mutex

	group        singleflight.Group
	fetchTimeout time.Duration

	fetches atomic.Int64
}

// NewStore returns a Store holding the Empty snapshot. A fetchTimeout of
// zero selects DefaultFetchTimeout.
func NewStore(fetchTimeout time.Duration) *Store {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	s := &Store{fetchTimeout: fetchTimeout}
	s.current.Store(Empty())
	return s
}

// Current returns the installed snapshot. It never blocks on a fetch.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// ReplaceIfNewer installs candidate unless it was fetched before the
// installed snapshot. It reports whether candidate was installed.
func (s *Store) ReplaceIfNewer(candidate *Snapshot) bool {
	if candidate == nil {
		return false
	}

	s.installMu.Lock()
	defer s.installMu.Unlock()

	if candidate.FetchedAt().Before(s.current.Load().FetchedAt()) {
		return false
	}
	s.current.Store(candidate)
	return true
}

// Refresh runs fetch and installs its result. Callers that arrive while a
// fetch is in flight wait for that fetch instead of starting another one.
//
// The fetch itself is detached from ctx: cancelling one waiting caller stops
// its wait but not the shared fetch, whose result is still installed.
func (s *Store) Refresh(ctx context.Context, fetch FetchFunc) (*Snapshot, error) {
	ch := s.group.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		s.fetches.Add(1)
		snapshot, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if snapshot == nil {
			return nil, errNilSnapshot
		}

		s.ReplaceIfNewer(snapshot)
		return s.Current(), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fetches returns how many fetches Refresh has started.
func (s *Store) Fetches() int64 {
	return s.fetches.Load()
}
