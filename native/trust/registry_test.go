package trust

import (
	"errors"
	"testing"

	"swarmpay/core/state"
	"swarmpay/storage"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(state.NewManager(storage.NewMemDB()))
	reg.SetNowFunc(func() int64 { return 1_000 })
	return reg
}

func TestInitAndGet(t *testing.T) {
	reg := newRegistry(t)
	peer := [20]byte{0xaa}

	created, err := reg.Init(peer)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if created.TrustScore != 0 || created.TotalSuccessfulServes != 0 {
		t.Fatalf("fresh record = %+v", created)
	}
	if created.LastActive != 1_000 {
		t.Fatalf("last active = %d, want 1000", created.LastActive)
	}
	if _, err := reg.Init(peer); !errors.Is(err, ErrExists) {
		t.Fatalf("duplicate init err = %v, want ErrExists", err)
	}

	got, ok, err := reg.Get(peer)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Peer != peer {
		t.Fatalf("peer = %x", got.Peer)
	}
	if _, ok, _ := reg.Get([20]byte{0xbb}); ok {
		t.Fatal("unknown peer found")
	}
}

func TestRecordServeAccumulates(t *testing.T) {
	reg := newRegistry(t)
	peer := [20]byte{0xaa}
	if _, err := reg.Init(peer); err != nil {
		t.Fatalf("init: %v", err)
	}

	for i, weight := range []uint64{5, 0, 3} {
		ok, err := reg.RecordServe(peer, weight, int64(2_000+i))
		if err != nil || !ok {
			t.Fatalf("serve %d: ok=%v err=%v", i, ok, err)
		}
	}

	got, _, _ := reg.Get(peer)
	if got.TotalSuccessfulServes != 3 {
		t.Fatalf("serves = %d, want 3", got.TotalSuccessfulServes)
	}
	if got.TrustScore != 8 {
		t.Fatalf("score = %d, want 8", got.TrustScore)
	}
	if got.LastActive != 2_002 {
		t.Fatalf("last active = %d, want 2002", got.LastActive)
	}
}

func TestRecordServeSkipsUnknownPeer(t *testing.T) {
	reg := newRegistry(t)
	ok, err := reg.RecordServe([20]byte{0xcc}, 7, 2_000)
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if ok {
		t.Fatal("serve against uninitialised peer reported as recorded")
	}
}

func TestRecordServeOverflowGuard(t *testing.T) {
	reg := newRegistry(t)
	peer := [20]byte{0xaa}
	if _, err := reg.Init(peer); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := reg.RecordServe(peer, ^uint64(0), 2_000); err != nil {
		t.Fatalf("first serve: %v", err)
	}
	if _, err := reg.RecordServe(peer, 1, 2_001); err == nil {
		t.Fatal("trust score overflow not detected")
	}
	// Failed updates leave the record untouched.
	got, _, _ := reg.Get(peer)
	if got.TrustScore != ^uint64(0) || got.TotalSuccessfulServes != 1 {
		t.Fatalf("record after failed serve = %+v", got)
	}
}
