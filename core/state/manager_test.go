package state

import (
	"errors"
	"math/big"
	"testing"

	"swarmpay/storage"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func mustMint(t *testing.T, m *Manager, to [20]byte, token string, amount int64) {
	t.Helper()
	if err := m.Mint(to, token, big.NewInt(amount)); err != nil {
		t.Fatalf("mint: %v", err)
	}
}

func balance(t *testing.T, m *Manager, owner [20]byte, token string) *big.Int {
	t.Helper()
	got, err := m.Balance(owner, token)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return got
}

func TestNormalizeToken(t *testing.T) {
	got, err := NormalizeToken("  swp ")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "SWP" {
		t.Fatalf("normalized = %q, want SWP", got)
	}
	if _, err := NormalizeToken("   "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("blank token err = %v", err)
	}
	if _, err := NormalizeToken("ALONGTOKENSYMBOLXX"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("long token err = %v", err)
	}
}

func TestMintTransferBurn(t *testing.T) {
	m := newManager(t)
	alice := [20]byte{0x01}
	bob := [20]byte{0x02}

	mustMint(t, m, alice, "SWP", 1_000)
	if got := balance(t, m, alice, "SWP"); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("alice = %s", got)
	}
	supply, _ := m.Supply("SWP")
	if supply.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("supply = %s", supply)
	}

	if err := m.Transfer(alice, bob, "swp", big.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := balance(t, m, alice, "SWP"); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("alice = %s", got)
	}
	if got := balance(t, m, bob, "SWP"); got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("bob = %s", got)
	}

	if err := m.Burn(bob, "SWP", big.NewInt(150)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := balance(t, m, bob, "SWP"); got.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("bob = %s", got)
	}
	supply, _ = m.Supply("SWP")
	if supply.Cmp(big.NewInt(850)) != 0 {
		t.Fatalf("supply after burn = %s", supply)
	}
}

func TestTransferGuards(t *testing.T) {
	m := newManager(t)
	alice := [20]byte{0x01}
	bob := [20]byte{0x02}
	mustMint(t, m, alice, "SWP", 100)

	if err := m.Transfer(alice, bob, "SWP", big.NewInt(101)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft err = %v", err)
	}
	if err := m.Transfer(alice, bob, "SWP", big.NewInt(-5)); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("negative err = %v", err)
	}
	if err := m.Transfer(alice, bob, "SWP", nil); err != nil {
		t.Fatalf("nil amount: %v", err)
	}
	if err := m.Transfer(alice, bob, "SWP", big.NewInt(0)); err != nil {
		t.Fatalf("zero amount: %v", err)
	}
	// Guards leave balances untouched.
	if got := balance(t, m, alice, "SWP"); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("alice = %s", got)
	}
	if got := balance(t, m, bob, "SWP"); got.Sign() != 0 {
		t.Fatalf("bob = %s", got)
	}
}

func TestBurnCannotExceedBalance(t *testing.T) {
	m := newManager(t)
	alice := [20]byte{0x01}
	mustMint(t, m, alice, "SWP", 50)
	if err := m.Burn(alice, "SWP", big.NewInt(51)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("burn err = %v", err)
	}
}

func TestMintOverflowGuard(t *testing.T) {
	m := newManager(t)
	alice := [20]byte{0x01}
	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	if err := m.Mint(alice, "SWP", huge); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	if err := m.Mint(alice, "SWP", huge); !errors.Is(err, ErrBalanceOverflow) {
		t.Fatalf("overflow err = %v", err)
	}
}

func TestVaultAddressDeterminism(t *testing.T) {
	a := VaultAddress("fee", "col-1")
	b := VaultAddress("fee", "col-1")
	if a != b {
		t.Fatal("vault derivation not deterministic")
	}
	if a == VaultAddress("fee", "col-2") {
		t.Fatal("vault addresses collide across collections")
	}
	if a == VaultAddress("staking-pool", "col-1") {
		t.Fatal("vault addresses collide across kinds")
	}
	if a == ([20]byte{}) {
		t.Fatal("vault address is zero")
	}
}

func TestKVRoundTrip(t *testing.T) {
	m := newManager(t)
	type record struct {
		Name  string
		Count uint64
	}
	key := []byte("test/record/1")

	ok, err := m.KVGet(key, nil)
	if err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := m.KVPut(key, &record{Name: "x", Count: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}
	// Existence probe without decoding.
	ok, err = m.KVGet(key, nil)
	if err != nil || !ok {
		t.Fatalf("probe: ok=%v err=%v", ok, err)
	}
	var got record
	ok, err = m.KVGet(key, &got)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Name != "x" || got.Count != 7 {
		t.Fatalf("record = %+v", got)
	}
	if err := m.KVDelete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := m.KVGet(key, nil); ok {
		t.Fatal("key survived delete")
	}
	if _, err := m.KVGet(nil, nil); err == nil {
		t.Fatal("empty key accepted")
	}
}
