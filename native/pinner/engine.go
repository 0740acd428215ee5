package pinner

import (
	"fmt"
	"math/big"

	"swarmpay/core/events"
	"swarmpay/core/state"
	"swarmpay/native/registry"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	Balance(owner [20]byte, token string) (*big.Int, error)
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

type collectionDirectory interface {
	Get(id string) (*registry.Collection, bool, error)
}

// Engine keeps the hosting-peer reward ledger. Fee harvests deposit into a
// collection's fee vault and credit the ledger accumulator; registered peers
// claim their pro-rata share out of the vault.
type Engine struct {
	state       engineState
	collections collectionDirectory
	emitter     events.Emitter
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetCollections(dir collectionDirectory) { e.collections = dir }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// FeeVault derives the module-owned address holding a collection's harvested
// hosting-peer rewards.
func FeeVault(collection string) [20]byte {
	return state.VaultAddress("fee", collection)
}

var (
	ledgerPrefix = "pinner/ledger/"
	entryPrefix  = "pinner/entry/"
)

func ledgerKey(collection string) []byte {
	return []byte(ledgerPrefix + collection)
}

func entryKey(collection string, peer [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%s/%x", entryPrefix, collection, peer))
}

type storedLedger struct {
	Collection         string
	TotalShares        uint64
	AccRewardPerUnit   *big.Int
	RewardPoolBalance  *big.Int
	UnattributedCredit *big.Int
}

type storedEntry struct {
	Peer       [20]byte
	Collection string
	Shares     uint64
	RewardDebt *big.Int
	Active     bool
}

func (e *Engine) loadLedger(collection string) (*Ledger, bool, error) {
	var stored storedLedger
	ok, err := e.state.KVGet(ledgerKey(collection), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	ledger := newLedger(stored.Collection)
	ledger.TotalShares = stored.TotalShares
	if stored.AccRewardPerUnit != nil {
		ledger.Acc.AccPerUnit = new(big.Int).Set(stored.AccRewardPerUnit)
	}
	if stored.RewardPoolBalance != nil {
		ledger.RewardPoolBalance.Set(stored.RewardPoolBalance)
	}
	if stored.UnattributedCredit != nil {
		ledger.UnattributedCredit.Set(stored.UnattributedCredit)
	}
	return ledger, true, nil
}

func (e *Engine) storeLedger(ledger *Ledger) error {
	return e.state.KVPut(ledgerKey(ledger.Collection), &storedLedger{
		Collection:         ledger.Collection,
		TotalShares:        ledger.TotalShares,
		AccRewardPerUnit:   ledger.Acc.AccPerUnit,
		RewardPoolBalance:  ledger.RewardPoolBalance,
		UnattributedCredit: ledger.UnattributedCredit,
	})
}

func (e *Engine) loadEntry(collection string, peer [20]byte) (*Entry, bool, error) {
	var stored storedEntry
	ok, err := e.state.KVGet(entryKey(collection, peer), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	entry := &Entry{
		Peer:       stored.Peer,
		Collection: stored.Collection,
		Shares:     stored.Shares,
		Active:     stored.Active,
		RewardDebt: big.NewInt(0),
	}
	if stored.RewardDebt != nil {
		entry.RewardDebt.Set(stored.RewardDebt)
	}
	return entry, true, nil
}

func (e *Engine) storeEntry(entry *Entry) error {
	return e.state.KVPut(entryKey(entry.Collection, entry.Peer), &storedEntry{
		Peer:       entry.Peer,
		Collection: entry.Collection,
		Shares:     entry.Shares,
		RewardDebt: entry.RewardDebt,
		Active:     entry.Active,
	})
}

func (e *Engine) lookupCollection(id string) (*registry.Collection, error) {
	if e.state == nil || e.collections == nil {
		return nil, ErrNilState
	}
	col, ok, err := e.collections.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return col, nil
}

// Register enrols a hosting peer against a collection with a fixed share
// weight. The reward debt checkpoint ensures the peer cannot claim credits
// that predate its registration, except for credit parked while the ledger
// had no hosts at all.
func (e *Engine) Register(peer [20]byte, collectionID string) error {
	if _, err := e.lookupCollection(collectionID); err != nil {
		return err
	}
	ledger, ok, err := e.loadLedger(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		ledger = newLedger(collectionID)
	}
	if _, ok, err := e.loadEntry(collectionID, peer); err != nil {
		return err
	} else if ok {
		return ErrAlreadyRegistered
	}
	if ledger.TotalShares > ^uint64(0)-sharesPerRegistration {
		return ErrShareOverflow
	}
	ledger.TotalShares += sharesPerRegistration
	entry := &Entry{
		Peer:       peer,
		Collection: collectionID,
		Shares:     sharesPerRegistration,
		Active:     true,
		RewardDebt: ledgerDebt(ledger, sharesPerRegistration),
	}
	if ledger.UnattributedCredit.Sign() > 0 {
		totalShares := new(big.Int).SetUint64(ledger.TotalShares)
		if err := ledger.Acc.Credit(ledger.UnattributedCredit, totalShares); err != nil {
			return err
		}
		e.emitter.Emit(NewCreditedEvent(collectionID, ledger.UnattributedCredit))
		ledger.UnattributedCredit = big.NewInt(0)
	}
	if err := e.storeLedger(ledger); err != nil {
		return err
	}
	if err := e.storeEntry(entry); err != nil {
		return err
	}
	e.emitter.Emit(NewHostRegisteredEvent(collectionID, peer, entry.Shares))
	return nil
}

func ledgerDebt(ledger *Ledger, shares uint64) *big.Int {
	return ledger.Acc.Debt(new(big.Int).SetUint64(shares))
}

// Claim pays out the peer's accrued share of harvested fees from the
// collection's fee vault. A fractional reward that floors to zero tokens is
// an error, not a silent no-op; the scaled remainder stays pending.
func (e *Engine) Claim(peer [20]byte, collectionID string) (*big.Int, error) {
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return nil, err
	}
	ledger, ok, err := e.loadLedger(collectionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotRegistered
	}
	entry, ok, err := e.loadEntry(collectionID, peer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotRegistered
	}
	if !entry.Active {
		return nil, ErrInactive
	}
	shares := new(big.Int).SetUint64(entry.Shares)
	pending := ledger.Acc.Pending(shares, entry.RewardDebt)
	if pending.Sign() <= 0 {
		return nil, ErrNoPendingReward
	}
	vault := FeeVault(collectionID)
	balance, err := e.state.Balance(vault, col.Token)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(pending) < 0 {
		return nil, ErrInsufficientVault
	}
	// State is updated before the transfer, matching the ledger-side
	// bookkeeping the vault balance is reconciled against.
	ledger.RewardPoolBalance.Sub(ledger.RewardPoolBalance, pending)
	entry.RewardDebt = ledger.Acc.Debt(shares)
	if err := e.storeLedger(ledger); err != nil {
		return nil, err
	}
	if err := e.storeEntry(entry); err != nil {
		return nil, err
	}
	if err := e.state.Transfer(vault, peer, col.Token, pending); err != nil {
		return nil, err
	}
	e.emitter.Emit(NewRewardsClaimedEvent(collectionID, peer, pending))
	return pending, nil
}

// Credit attributes a fee-harvest amount to the ledger. The tokens are
// expected to already sit in the collection's fee vault; this only updates
// the accumulator bookkeeping. Empty ledgers park the credit for the first
// registered host.
func (e *Engine) Credit(collectionID string, amount *big.Int) error {
	if e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	ledger, ok, err := e.loadLedger(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		ledger = newLedger(collectionID)
	}
	ledger.RewardPoolBalance.Add(ledger.RewardPoolBalance, amount)
	if ledger.TotalShares > 0 {
		totalShares := new(big.Int).SetUint64(ledger.TotalShares)
		if err := ledger.Acc.Credit(amount, totalShares); err != nil {
			return err
		}
		e.emitter.Emit(NewCreditedEvent(collectionID, amount))
	} else {
		ledger.UnattributedCredit.Add(ledger.UnattributedCredit, amount)
		e.emitter.Emit(NewCreditParkedEvent(collectionID, amount))
	}
	return e.storeLedger(ledger)
}

// AccountedBalance reports the harvested funds already attributed to the
// ledger that still sit in the collection's fee vault, parked credit
// included. Harvesters subtract it so attributed funds are never split a
// second time.
func (e *Engine) AccountedBalance(collectionID string) (*big.Int, error) {
	if e.state == nil {
		return nil, ErrNilState
	}
	ledger, ok, err := e.loadLedger(collectionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(ledger.RewardPoolBalance), nil
}

// PendingReward reports the peer's currently claimable reward.
func (e *Engine) PendingReward(peer [20]byte, collectionID string) (*big.Int, error) {
	ledger, ok, err := e.loadLedger(collectionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotRegistered
	}
	entry, ok, err := e.loadEntry(collectionID, peer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotRegistered
	}
	return ledger.Acc.Pending(new(big.Int).SetUint64(entry.Shares), entry.RewardDebt), nil
}
