package access

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"swarmpay/core/events"
	"swarmpay/core/state"
	"swarmpay/native/registry"
)

const basisPointsDenominator = 10_000

// DefaultMaxPeerListLength bounds the release loop so worst-case cost stays
// constant.
const DefaultMaxPeerListLength = 16

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	Balance(owner [20]byte, token string) (*big.Int, error)
	Transfer(from, to [20]byte, token string, amount *big.Int) error
	Burn(from [20]byte, token string, amount *big.Int) error
}

type collectionDirectory interface {
	Get(id string) (*registry.Collection, bool, error)
	Put(col *registry.Collection) error
}

type stakingPool interface {
	Credit(collection string, purchaser [20]byte, amount *big.Int) error
}

type trustRegistry interface {
	RecordServe(peer [20]byte, weight uint64, now int64) (bool, error)
}

// Engine owns the purchase escrow lifecycle: fee and split computation at
// purchase time, buyer-weighted release to delivering peers, and the
// permissionless expiry burn.
type Engine struct {
	state       engineState
	collections collectionDirectory
	staking     stakingPool
	trust       trustRegistry
	emitter     events.Emitter
	nowFn       func() int64

	feeBasisPoints    uint16
	treasury          [20]byte
	maxPeerListLength int
	expirySeconds     int64
	maxReferenceSize  int
}

func NewEngine() *Engine {
	return &Engine{
		emitter:           events.NoopEmitter{},
		nowFn:             func() int64 { return time.Now().Unix() },
		maxPeerListLength: DefaultMaxPeerListLength,
		expirySeconds:     EscrowExpirySeconds,
		maxReferenceSize:  200,
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetCollections(dir collectionDirectory) { e.collections = dir }

func (e *Engine) SetStakingPool(pool stakingPool) { e.staking = pool }

func (e *Engine) SetTrustRegistry(reg trustRegistry) { e.trust = reg }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetNowFunc overrides the engine's time source. Primarily intended for
// tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) SetFeeBasisPoints(bps uint16) { e.feeBasisPoints = bps }

func (e *Engine) SetTreasury(addr [20]byte) { e.treasury = addr }

func (e *Engine) SetMaxPeerListLength(n int) {
	if n <= 0 {
		n = DefaultMaxPeerListLength
	}
	e.maxPeerListLength = n
}

func (e *Engine) SetExpirySeconds(seconds int64) {
	if seconds <= 0 {
		seconds = EscrowExpirySeconds
	}
	e.expirySeconds = seconds
}

func (e *Engine) SetMaxReferenceSize(n int) {
	if n > 0 {
		e.maxReferenceSize = n
	}
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// EscrowVault derives the module-owned holding address for one escrow.
func EscrowVault(id [32]byte) [20]byte {
	return state.VaultAddress("access-escrow", hex.EncodeToString(id[:]))
}

const (
	escrowPrefix = "access/escrow/"
	revealPrefix = "access/reveal/"
)

func escrowKey(id [32]byte) []byte {
	return []byte(escrowPrefix + hex.EncodeToString(id[:]))
}

func revealKey(id [32]byte, peer [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x/%x", revealPrefix, id, peer))
}

type storedEscrow struct {
	ID           [32]byte
	Purchaser    [20]byte
	Collection   string
	CidHash      [32]byte
	LockedAmount *big.Int
	CreatedAt    uint64
	CidRevealed  bool
}

type storedReveal struct {
	Peer         [20]byte
	EncryptedCid string
}

func (e *Engine) loadEscrow(id [32]byte) (*Escrow, bool, error) {
	var stored storedEscrow
	ok, err := e.state.KVGet(escrowKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	esc := &Escrow{
		ID:           stored.ID,
		Purchaser:    stored.Purchaser,
		Collection:   stored.Collection,
		CidHash:      stored.CidHash,
		LockedAmount: big.NewInt(0),
		CreatedAt:    int64(stored.CreatedAt),
		CidRevealed:  stored.CidRevealed,
	}
	if stored.LockedAmount != nil {
		esc.LockedAmount.Set(stored.LockedAmount)
	}
	return esc, true, nil
}

func (e *Engine) storeEscrow(esc *Escrow) error {
	return e.state.KVPut(escrowKey(esc.ID), &storedEscrow{
		ID:           esc.ID,
		Purchaser:    esc.Purchaser,
		Collection:   esc.Collection,
		CidHash:      esc.CidHash,
		LockedAmount: esc.LockedAmount,
		CreatedAt:    uint64(esc.CreatedAt),
		CidRevealed:  esc.CidRevealed,
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

// Purchase locks a buyer's payment for a collection. The protocol fee is
// rounded up in the treasury's favour; the rest splits 50/50 between the
// staking pool and the escrow, with odd dust going to the pool so no unit is
// ever lost.
func (e *Engine) Purchase(purchaser [20]byte, collectionID string, totalAmount *big.Int, cidHash [32]byte) (*Escrow, error) {
	if totalAmount == nil || totalAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return nil, err
	}
	if col.Blacklisted {
		return nil, ErrCollectionBlacklisted
	}
	if cidHash != col.CidHash {
		return nil, ErrCidMismatch
	}
	id := EscrowID(purchaser, collectionID)
	if _, ok, err := e.loadEscrow(id); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrEscrowExists
	}
	// The split moves value in three transfers with no rollback, so the
	// whole purchase amount must be covered before the first one.
	balance, err := e.state.Balance(purchaser, col.Token)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(totalAmount) < 0 {
		return nil, ErrInsufficientBalance
	}

	fee := new(big.Int).Mul(totalAmount, big.NewInt(int64(e.feeBasisPoints)))
	fee.Add(fee, big.NewInt(basisPointsDenominator-1))
	fee.Div(fee, big.NewInt(basisPointsDenominator))
	afterFee := new(big.Int).Sub(totalAmount, fee)
	toStakers := new(big.Int).Rsh(afterFee, 1)
	toEscrow := new(big.Int).Rsh(afterFee, 1)
	dust := new(big.Int).Sub(afterFee, new(big.Int).Add(toStakers, toEscrow))
	toStakers.Add(toStakers, dust)

	if fee.Sign() > 0 {
		if err := e.state.Transfer(purchaser, e.treasury, col.Token, fee); err != nil {
			return nil, err
		}
	}
	if e.staking != nil && toStakers.Sign() > 0 {
		if err := e.staking.Credit(collectionID, purchaser, toStakers); err != nil {
			return nil, err
		}
	}
	if toEscrow.Sign() > 0 {
		if err := e.state.Transfer(purchaser, EscrowVault(id), col.Token, toEscrow); err != nil {
			return nil, err
		}
	}

	esc := &Escrow{
		ID:           id,
		Purchaser:    purchaser,
		Collection:   collectionID,
		CidHash:      cidHash,
		LockedAmount: toEscrow,
		CreatedAt:    e.now(),
	}
	if err := e.storeEscrow(esc); err != nil {
		return nil, err
	}
	e.emitter.Emit(NewPurchasedEvent(esc, fee, toStakers))
	return esc.Clone(), nil
}

// Release pays the escrow out to the listed peers in proportion to the
// buyer-assigned weights. Only the purchaser can release, and only within the
// expiry window. Per-peer shares floor-divide and are clamped so rounding can
// never overpay the locked balance; leftover dust stays in the escrow holding
// for a later burn.
func (e *Engine) Release(purchaser [20]byte, collectionID string, peers []PeerWeight) error {
	if len(peers) == 0 {
		return ErrEmptyPeerList
	}
	if len(peers) > e.maxPeerListLength {
		return ErrPeerListTooLong
	}
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return err
	}
	id := EscrowID(purchaser, collectionID)
	esc, ok, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEscrowNotFound
	}
	var totalWeight uint64
	for _, pw := range peers {
		if pw.Weight > ^uint64(0)-totalWeight {
			return ErrWeightOverflow
		}
		totalWeight += pw.Weight
	}
	if totalWeight == 0 {
		return ErrZeroTotalWeight
	}
	now := e.now()
	if now-esc.CreatedAt > e.expirySeconds {
		return ErrEscrowExpired
	}
	if esc.LockedAmount.Sign() <= 0 {
		return ErrNothingLocked
	}
	// The aggregate update happens after the payout loop; checking the
	// carry here keeps the failure ahead of any transfer.
	if col.TotalTrustScore > ^uint64(0)-totalWeight {
		return ErrTrustScoreOverflow
	}

	vault := EscrowVault(id)
	locked := new(big.Int).Set(esc.LockedAmount)
	remaining := new(big.Int).Set(locked)
	totalPaid := big.NewInt(0)
	weightBig := new(big.Int).SetUint64(totalWeight)
	for _, pw := range peers {
		share := new(big.Int).Mul(locked, new(big.Int).SetUint64(pw.Weight))
		share.Div(share, weightBig)
		if share.Cmp(remaining) > 0 {
			share.Set(remaining)
		}
		if share.Sign() <= 0 {
			continue
		}
		if err := e.state.Transfer(vault, pw.Peer, col.Token, share); err != nil {
			return err
		}
		remaining.Sub(remaining, share)
		totalPaid.Add(totalPaid, share)
		if e.trust != nil {
			updated, err := e.trust.RecordServe(pw.Peer, pw.Weight, now)
			if err != nil {
				return err
			}
			if !updated {
				e.emitter.Emit(NewTrustSkippedEvent(esc, pw.Peer))
			}
		}
	}

	esc.LockedAmount = big.NewInt(0)
	if err := e.storeEscrow(esc); err != nil {
		return err
	}
	col.TotalTrustScore += totalWeight
	if err := e.collections.Put(col); err != nil {
		return err
	}
	e.emitter.Emit(NewReleasedEvent(esc, len(peers), totalWeight, totalPaid))
	return nil
}

// Burn destroys an expired escrow's remaining holding and deletes the record.
// Anyone may call it once the window has closed; the caller is named in the
// emitted event so off-chain accounting can reward the cleanup.
func (e *Engine) Burn(caller, purchaser [20]byte, collectionID string) (*big.Int, error) {
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return nil, err
	}
	id := EscrowID(purchaser, collectionID)
	esc, ok, err := e.loadEscrow(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEscrowNotFound
	}
	if e.now()-esc.CreatedAt <= e.expirySeconds {
		return nil, ErrEscrowNotExpired
	}
	// The recorded LockedAmount can be stale after release-time rounding;
	// the actual holding balance drives the burn.
	vault := EscrowVault(id)
	balance, err := e.state.Balance(vault, col.Token)
	if err != nil {
		return nil, err
	}
	if balance.Sign() > 0 {
		if err := e.state.Burn(vault, col.Token, balance); err != nil {
			return nil, err
		}
	}
	if err := e.state.KVDelete(escrowKey(id)); err != nil {
		return nil, err
	}
	e.emitter.Emit(NewBurnedEvent(esc, caller, balance))
	return balance, nil
}

// RevealCid records a hosting peer's encrypted content reference for a
// purchase so the buyer can fetch and decrypt it off-band. Each peer reveals
// at most once per escrow.
func (e *Engine) RevealCid(peer, purchaser [20]byte, collectionID, encryptedCid string) error {
	if encryptedCid == "" {
		return ErrEmptyReference
	}
	if len(encryptedCid) > e.maxReferenceSize {
		return ErrReferenceTooLong
	}
	if _, err := e.lookupCollection(collectionID); err != nil {
		return err
	}
	id := EscrowID(purchaser, collectionID)
	esc, ok, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrEscrowNotFound
	}
	key := revealKey(id, peer)
	var existing storedReveal
	if ok, err := e.state.KVGet(key, &existing); err != nil {
		return err
	} else if ok {
		return ErrAlreadyRevealed
	}
	if err := e.state.KVPut(key, &storedReveal{Peer: peer, EncryptedCid: encryptedCid}); err != nil {
		return err
	}
	if !esc.CidRevealed {
		esc.CidRevealed = true
		if err := e.storeEscrow(esc); err != nil {
			return err
		}
	}
	e.emitter.Emit(NewCidRevealedEvent(esc, peer))
	return nil
}

// Get returns the live escrow for a purchaser and collection.
func (e *Engine) Get(purchaser [20]byte, collectionID string) (*Escrow, bool, error) {
	if e.state == nil {
		return nil, false, ErrNilState
	}
	esc, ok, err := e.loadEscrow(EscrowID(purchaser, collectionID))
	if err != nil || !ok {
		return nil, false, err
	}
	return esc.Clone(), true, nil
}
