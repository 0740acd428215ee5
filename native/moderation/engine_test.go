package moderation

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"

	"swarmpay/native/registry"
)

type mockState struct {
	kv       map[string][]byte
	balances map[[20]byte]map[string]*big.Int
}

func newMockState() *mockState {
	return &mockState{
		kv:       make(map[string][]byte),
		balances: make(map[[20]byte]map[string]*big.Int),
	}
}

func (m *mockState) KVGet(key []byte, out interface{}) (bool, error) {
	raw, ok := m.kv[string(key)]
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *mockState) KVPut(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.kv[string(key)] = raw
	return nil
}

func (m *mockState) balance(owner [20]byte, token string) *big.Int {
	tokens, ok := m.balances[owner]
	if !ok {
		return big.NewInt(0)
	}
	bal, ok := tokens[token]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

func (m *mockState) set(owner [20]byte, token string, amount *big.Int) {
	tokens, ok := m.balances[owner]
	if !ok {
		tokens = make(map[string]*big.Int)
		m.balances[owner] = tokens
	}
	tokens[token] = amount
}

func (m *mockState) Transfer(from, to [20]byte, token string, amount *big.Int) error {
	fromBal := m.balance(from, token)
	if fromBal.Cmp(amount) < 0 {
		return errors.New("mock: insufficient balance")
	}
	toBal := m.balance(to, token)
	m.set(from, token, fromBal.Sub(fromBal, amount))
	m.set(to, token, toBal.Add(toBal, amount))
	return nil
}

type mockCollections struct {
	collections map[string]*registry.Collection
}

func (m *mockCollections) Get(id string) (*registry.Collection, bool, error) {
	col, ok := m.collections[id]
	if !ok {
		return nil, false, nil
	}
	return col.Clone(), true, nil
}

func (m *mockCollections) Put(col *registry.Collection) error {
	m.collections[col.ID] = col.Clone()
	return nil
}

func addr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

type fixture struct {
	engine *Engine
	state  *mockState
	cols   *mockCollections
	now    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	state := newMockState()
	cols := &mockCollections{collections: map[string]*registry.Collection{
		"col-1": {
			ID:                      "col-1",
			Owner:                   addr(0x01),
			Token:                   "SWP",
			TotalVideos:             10,
			ClaimDeadline:           2_000_000,
			TokensMinted:            true,
			ClaimVaultInitialAmount: big.NewInt(1000),
			ClaimedBitmap:           make([]byte, registry.BitmapLength(10)),
			CensoredBitmap:          make([]byte, registry.BitmapLength(10)),
		},
	}}
	f := &fixture{state: state, cols: cols, now: 1_000_000}

	engine := NewEngine()
	engine.SetState(state)
	engine.SetCollections(cols)
	engine.SetAdmin(addr(0x0f))
	engine.SetTreasury(addr(0x0e))
	engine.SetStakeToken("SWP")
	engine.SetStakeMinimum(big.NewInt(1000))
	engine.SetNowFunc(func() int64 { return f.now })
	f.engine = engine
	return f
}

func (f *fixture) stakeModerator(t *testing.T, moderator [20]byte) {
	t.Helper()
	f.state.set(moderator, "SWP", big.NewInt(1000))
	if err := f.engine.StakeModerator(moderator, big.NewInt(1000)); err != nil {
		t.Fatalf("stake moderator: %v", err)
	}
}

func TestModeratorStakeAndSlash(t *testing.T) {
	f := newFixture(t)
	mod := addr(0x20)
	f.state.set(mod, "SWP", big.NewInt(5000))

	if err := f.engine.StakeModerator(mod, big.NewInt(500)); !errors.Is(err, ErrStakeBelowMinimum) {
		t.Fatalf("below-minimum err = %v, want ErrStakeBelowMinimum", err)
	}
	if err := f.engine.StakeModerator(mod, big.NewInt(2000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	stake, ok, err := f.engine.ModeratorState(mod)
	if err != nil || !ok {
		t.Fatalf("state: ok=%v err=%v", ok, err)
	}
	if !stake.Active || stake.Amount.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("stake = %+v", stake)
	}

	if err := f.engine.SlashModerator(addr(0x42), mod); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger slash err = %v, want ErrUnauthorized", err)
	}
	if err := f.engine.SlashModerator(addr(0x0f), mod); err != nil {
		t.Fatalf("slash: %v", err)
	}
	stake, _, _ = f.engine.ModeratorState(mod)
	if stake.Active || stake.Amount.Sign() != 0 || stake.SlashCount != 1 {
		t.Fatalf("stake after slash = %+v", stake)
	}
	if got := f.state.balance(addr(0x0e), "SWP"); got.Cmp(big.NewInt(2000)) != 0 {
		t.Fatalf("treasury = %s, want 2000", got)
	}
}

func TestContentReportBlacklistsCollection(t *testing.T) {
	f := newFixture(t)
	mod := addr(0x20)
	f.stakeModerator(t, mod)

	ticket, err := f.engine.CreateTicket(addr(0x30), ContentReportTarget("col-1"), "stolen footage")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.engine.ResolveTicket(addr(0x99), ticket.ID, true); !errors.Is(err, ErrNotModerator) {
		t.Fatalf("unstaked resolver err = %v, want ErrNotModerator", err)
	}
	if err := f.engine.ResolveTicket(mod, ticket.ID, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	col, _, _ := f.cols.Get("col-1")
	if !col.Blacklisted {
		t.Fatal("collection not blacklisted")
	}
	if err := f.engine.ResolveTicket(mod, ticket.ID, false); !errors.Is(err, ErrTicketResolved) {
		t.Fatalf("re-resolve err = %v, want ErrTicketResolved", err)
	}
}

func TestCopyrightClaimPayout(t *testing.T) {
	f := newFixture(t)
	mod := addr(0x20)
	claimant := addr(0x30)
	f.stakeModerator(t, mod)
	f.state.set(ClaimVault("col-1"), "SWP", big.NewInt(1000))

	ticket, err := f.engine.CreateTicket(claimant, CopyrightClaimTarget("col-1", []uint16{0, 1}), "my videos")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.engine.ResolveTicket(mod, ticket.ID, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// floor(1000/10) * 2 = 200.
	if got := f.state.balance(claimant, "SWP"); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("claimant = %s, want 200", got)
	}
	col, _, _ := f.cols.Get("col-1")
	for _, idx := range []uint16{0, 1} {
		claimed, err := col.ClaimedBit(idx)
		if err != nil || !claimed {
			t.Fatalf("bit %d claimed=%v err=%v", idx, claimed, err)
		}
	}

	// Re-claiming index 0 must fail and leave the vault untouched.
	second, err := f.engine.CreateTicket(claimant, CopyrightClaimTarget("col-1", []uint16{0}), "again")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if err := f.engine.ResolveTicket(mod, second.ID, true); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("double claim err = %v, want ErrAlreadyClaimed", err)
	}
	if got := f.state.balance(ClaimVault("col-1"), "SWP"); got.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("vault = %s, want 800", got)
	}
}

func TestCopyrightClaimFailedTransferSetsNoBits(t *testing.T) {
	f := newFixture(t)
	mod := addr(0x20)
	f.stakeModerator(t, mod)
	// Claim vault deliberately unfunded.

	ticket, err := f.engine.CreateTicket(addr(0x30), CopyrightClaimTarget("col-1", []uint16{3}), "unfunded")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.engine.ResolveTicket(mod, ticket.ID, true); err == nil {
		t.Fatal("resolve succeeded with unfunded vault")
	}
	col, _, _ := f.cols.Get("col-1")
	claimed, err := col.ClaimedBit(3)
	if err != nil {
		t.Fatalf("bit: %v", err)
	}
	if claimed {
		t.Fatal("bit set despite failed transfer")
	}
	// A failed resolution leaves the ticket open for a retry.
	stored, ok, err := f.engine.GetTicket(ticket.ID)
	if err != nil || !ok {
		t.Fatalf("get ticket: ok=%v err=%v", ok, err)
	}
	if stored.Resolved {
		t.Fatal("ticket marked resolved despite failed payout")
	}
}

func TestCopyrightClaimValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.CreateTicket(addr(0x30), CopyrightClaimTarget("col-1", []uint16{10}), "oob"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("oob err = %v, want ErrIndexOutOfRange", err)
	}
	f.now = 2_000_000
	if _, err := f.engine.CreateTicket(addr(0x30), CopyrightClaimTarget("col-1", []uint16{1}), "late"); !errors.Is(err, ErrDeadlinePassed) {
		t.Fatalf("late err = %v, want ErrDeadlinePassed", err)
	}
	f.now = 1_000_000
	long := make([]byte, 201)
	if _, err := f.engine.CreateTicket(addr(0x30), ContentReportTarget("col-1"), string(long)); !errors.Is(err, ErrReasonTooLong) {
		t.Fatalf("long reason err = %v, want ErrReasonTooLong", err)
	}
}

func TestCidCensorshipToggle(t *testing.T) {
	f := newFixture(t)
	mod := addr(0x20)
	f.stakeModerator(t, mod)

	ticket, err := f.engine.CreateTicket(addr(0x30), CidCensorshipTarget("col-1", 4), "illegal cid")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.engine.ResolveTicket(mod, ticket.ID, true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	col, _, _ := f.cols.Get("col-1")
	censored, _ := col.CensoredBit(4)
	if !censored {
		t.Fatal("bit not censored")
	}

	// A rejected follow-up ticket clears the flag again.
	second, err := f.engine.CreateTicket(addr(0x30), CidCensorshipTarget("col-1", 4), "appeal")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if err := f.engine.ResolveTicket(mod, second.ID, false); err != nil {
		t.Fatalf("resolve second: %v", err)
	}
	col, _, _ = f.cols.Get("col-1")
	censored, _ = col.CensoredBit(4)
	if censored {
		t.Fatal("bit still censored after reversal")
	}
}
