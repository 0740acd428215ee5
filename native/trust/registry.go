package trust

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound marks lookups for peers that never initialised a trust
	// record.
	ErrNotFound = errors.New("trust: peer record not found")
	// ErrExists marks duplicate initialisation attempts.
	ErrExists = errors.New("trust: peer record already initialised")
	// ErrStorageUnavailable marks a registry without a storage backend.
	ErrStorageUnavailable = errors.New("trust: storage unavailable")
)

// kvStore abstracts the subset of state manager functionality required by the
// trust registry.
type kvStore interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var peerPrefix = []byte("trust/peer/")

func peerKey(peer [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", peerPrefix, peer))
}

// PeerState is the lifetime delivery record of a hosting peer. TrustScore is
// monotonically non-decreasing.
type PeerState struct {
	Peer                  [20]byte
	TotalSuccessfulServes uint64
	TrustScore            uint64
	LastActive            int64
}

type storedPeerState struct {
	Peer                  [20]byte
	TotalSuccessfulServes uint64
	TrustScore            uint64
	LastActive            uint64
}

// Registry persists peer trust records. Peers opt in by initialising their
// own record; escrow releases naming an uninitialised peer skip the trust
// update rather than failing.
type Registry struct {
	store kvStore
	nowFn func() int64
}

// NewRegistry constructs a registry bound to the provided storage backend.
func NewRegistry(store kvStore) *Registry {
	return &Registry{
		store: store,
		nowFn: func() int64 { return time.Now().Unix() },
	}
}

// SetNowFunc overrides the wall clock, primarily for deterministic tests.
func (r *Registry) SetNowFunc(now func() int64) {
	if r == nil {
		return
	}
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

func (r *Registry) now() int64 {
	if r == nil || r.nowFn == nil {
		return time.Now().Unix()
	}
	return r.nowFn()
}

// Init creates a zeroed trust record for the peer. A peer must initialise its
// record before escrow releases can grow its score.
func (r *Registry) Init(peer [20]byte) (*PeerState, error) {
	if r == nil || r.store == nil {
		return nil, ErrStorageUnavailable
	}
	exists, err := r.store.KVGet(peerKey(peer), nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrExists
	}
	state := &PeerState{Peer: peer, LastActive: r.now()}
	if err := r.put(state); err != nil {
		return nil, err
	}
	return state, nil
}

// Get fetches the trust record for a peer.
func (r *Registry) Get(peer [20]byte) (*PeerState, bool, error) {
	if r == nil || r.store == nil {
		return nil, false, ErrStorageUnavailable
	}
	var stored storedPeerState
	ok, err := r.store.KVGet(peerKey(peer), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &PeerState{
		Peer:                  stored.Peer,
		TotalSuccessfulServes: stored.TotalSuccessfulServes,
		TrustScore:            stored.TrustScore,
		LastActive:            int64(stored.LastActive),
	}, true, nil
}

// RecordServe credits one successful delivery weighted by the buyer-assigned
// trust weight. The boolean result reports whether a record existed; callers
// treat a missing record as a skip, not an error.
func (r *Registry) RecordServe(peer [20]byte, weight uint64, now int64) (bool, error) {
	if r == nil || r.store == nil {
		return false, ErrStorageUnavailable
	}
	state, ok, err := r.Get(peer)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	serves, carry := addUint64(state.TotalSuccessfulServes, 1)
	if carry {
		return false, fmt.Errorf("trust: serve counter overflow for %x", peer)
	}
	score, carry := addUint64(state.TrustScore, weight)
	if carry {
		return false, fmt.Errorf("trust: trust score overflow for %x", peer)
	}
	state.TotalSuccessfulServes = serves
	state.TrustScore = score
	state.LastActive = now
	if err := r.put(state); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Registry) put(state *PeerState) error {
	return r.store.KVPut(peerKey(state.Peer), &storedPeerState{
		Peer:                  state.Peer,
		TotalSuccessfulServes: state.TotalSuccessfulServes,
		TrustScore:            state.TrustScore,
		LastActive:            uint64(state.LastActive),
	})
}

func addUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}
