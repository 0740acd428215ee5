package fees

import (
	"math/big"

	"swarmpay/core/events"
	"swarmpay/core/state"
	"swarmpay/native/pinner"
	"swarmpay/native/registry"
)

// Harvest split percentages. The buckets floor-divide independently; any
// rounding remainder goes to the hosting-peer bucket.
const (
	SplitPinnerPercent    = 50
	SplitOwnerPercent     = 20
	SplitPerformerPercent = 20
	SplitStakerPercent    = 10
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	Balance(owner [20]byte, token string) (*big.Int, error)
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

type collectionDirectory interface {
	Get(id string) (*registry.Collection, bool, error)
	Put(col *registry.Collection) error
}

type pinnerLedger interface {
	Credit(collection string, amount *big.Int) error
	AccountedBalance(collection string) (*big.Int, error)
}

// Engine harvests accumulated protocol fees out of a collection's fee vault
// and splits them across hosting peers, the collection owner, the performer
// escrow and the staker treasury.
type Engine struct {
	state          engineState
	collections    collectionDirectory
	pinners        pinnerLedger
	emitter        events.Emitter
	admin          [20]byte
	stakerTreasury [20]byte
}

func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetCollections(dir collectionDirectory) { e.collections = dir }

func (e *Engine) SetPinnerLedger(ledger pinnerLedger) { e.pinners = ledger }

func (e *Engine) SetAdmin(admin [20]byte) { e.admin = admin }

func (e *Engine) SetStakerTreasury(addr [20]byte) { e.stakerTreasury = addr }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// PerformerVault derives the module-owned address holding a collection's
// performer escrow funds.
func PerformerVault(collection string) [20]byte {
	return state.VaultAddress("performer-escrow", collection)
}

const performerPrefix = "fees/performer/"

func performerKey(collection string) []byte {
	return []byte(performerPrefix + collection)
}

// PerformerEscrow accrues the performer bucket of every harvest until the
// bound performer wallet claims it.
type PerformerEscrow struct {
	Collection string
	Performer  [20]byte
	Balance    *big.Int
}

type storedPerformerEscrow struct {
	Collection string
	Performer  [20]byte
	Balance    *big.Int
}

func (e *Engine) loadPerformerEscrow(collection string) (*PerformerEscrow, bool, error) {
	var stored storedPerformerEscrow
	ok, err := e.state.KVGet(performerKey(collection), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	esc := &PerformerEscrow{
		Collection: stored.Collection,
		Performer:  stored.Performer,
		Balance:    big.NewInt(0),
	}
	if stored.Balance != nil {
		esc.Balance.Set(stored.Balance)
	}
	return esc, true, nil
}

func (e *Engine) storePerformerEscrow(esc *PerformerEscrow) error {
	return e.state.KVPut(performerKey(esc.Collection), &storedPerformerEscrow{
		Collection: esc.Collection,
		Performer:  esc.Performer,
		Balance:    esc.Balance,
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

func (e *Engine) authorize(caller [20]byte, col *registry.Collection) error {
	if caller != col.Owner && caller != e.admin {
		return ErrUnauthorized
	}
	return nil
}

func percentShare(amount *big.Int, percent int64) *big.Int {
	share := new(big.Int).Mul(amount, big.NewInt(percent))
	return share.Div(share, big.NewInt(100))
}

// Harvest reads the collection fee vault's actual balance and splits it
// 50/20/20/10 across hosting peers, owner, performer escrow and the staker
// treasury. The hosting-peer bucket stays in the fee vault and is credited to
// the pinner ledger; the other buckets are transferred out. Transfers happen
// before any balance bookkeeping so a failed transfer cannot leave phantom
// reward claims behind.
func (e *Engine) Harvest(caller [20]byte, collectionID string) error {
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return err
	}
	if err := e.authorize(caller, col); err != nil {
		return err
	}
	feeVault := pinner.FeeVault(collectionID)
	harvested, err := e.state.Balance(feeVault, col.Token)
	if err != nil {
		return err
	}
	// The pinner bucket of earlier harvests stays in the fee vault but is
	// already attributed to the ledger; only the excess is harvestable.
	if e.pinners != nil {
		accounted, err := e.pinners.AccountedBalance(collectionID)
		if err != nil {
			return err
		}
		harvested = new(big.Int).Sub(harvested, accounted)
	}
	if harvested.Sign() <= 0 {
		return ErrNothingToHarvest
	}

	pinnerShare := percentShare(harvested, SplitPinnerPercent)
	ownerShare := percentShare(harvested, SplitOwnerPercent)
	performerShare := percentShare(harvested, SplitPerformerPercent)
	stakerShare := percentShare(harvested, SplitStakerPercent)

	total := new(big.Int).Add(pinnerShare, ownerShare)
	total.Add(total, performerShare)
	total.Add(total, stakerShare)
	remainder := new(big.Int).Sub(harvested, total)
	pinnerShare.Add(pinnerShare, remainder)

	// The performer bucket needs an initialised escrow record to be
	// attributable, so the check happens before any transfer moves funds.
	var esc *PerformerEscrow
	if performerShare.Sign() > 0 {
		loaded, ok, err := e.loadPerformerEscrow(collectionID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrEscrowNotFound
		}
		esc = loaded
	}

	if ownerShare.Sign() > 0 {
		if err := e.state.Transfer(feeVault, col.Owner, col.Token, ownerShare); err != nil {
			return err
		}
	}
	if performerShare.Sign() > 0 {
		if err := e.state.Transfer(feeVault, PerformerVault(collectionID), col.Token, performerShare); err != nil {
			return err
		}
	}
	if stakerShare.Sign() > 0 {
		if err := e.state.Transfer(feeVault, e.stakerTreasury, col.Token, stakerShare); err != nil {
			return err
		}
	}

	if e.pinners != nil && pinnerShare.Sign() > 0 {
		if err := e.pinners.Credit(collectionID, pinnerShare); err != nil {
			return err
		}
	}
	col.OwnerRewardBalance.Add(col.OwnerRewardBalance, ownerShare)
	col.StakerRewardBalance.Add(col.StakerRewardBalance, stakerShare)
	if err := e.collections.Put(col); err != nil {
		return err
	}
	if esc != nil {
		esc.Balance.Add(esc.Balance, performerShare)
		if err := e.storePerformerEscrow(esc); err != nil {
			return err
		}
	}
	e.emitter.Emit(NewHarvestedEvent(collectionID, harvested, pinnerShare, ownerShare, performerShare, stakerShare))
	return nil
}

// InitPerformerEscrow binds a performer wallet to the collection's escrow.
// One escrow per collection.
func (e *Engine) InitPerformerEscrow(caller [20]byte, collectionID string, performer [20]byte) error {
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return err
	}
	if err := e.authorize(caller, col); err != nil {
		return err
	}
	if _, ok, err := e.loadPerformerEscrow(collectionID); err != nil {
		return err
	} else if ok {
		return ErrEscrowExists
	}
	esc := &PerformerEscrow{Collection: collectionID, Performer: performer, Balance: big.NewInt(0)}
	if err := e.storePerformerEscrow(esc); err != nil {
		return err
	}
	e.emitter.Emit(NewPerformerEscrowCreatedEvent(collectionID, performer))
	return nil
}

// ClaimPerformerEscrow pays the full accrued balance to the bound performer
// wallet and resets the record.
func (e *Engine) ClaimPerformerEscrow(caller [20]byte, collectionID string) (*big.Int, error) {
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return nil, err
	}
	esc, ok, err := e.loadPerformerEscrow(collectionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrEscrowNotFound
	}
	if caller != esc.Performer {
		return nil, ErrUnauthorized
	}
	if esc.Balance.Sign() <= 0 {
		return nil, ErrNoEscrowBalance
	}
	amount := new(big.Int).Set(esc.Balance)
	if err := e.state.Transfer(PerformerVault(collectionID), esc.Performer, col.Token, amount); err != nil {
		return nil, err
	}
	esc.Balance = big.NewInt(0)
	if err := e.storePerformerEscrow(esc); err != nil {
		return nil, err
	}
	e.emitter.Emit(NewPerformerEscrowClaimedEvent(collectionID, esc.Performer, amount))
	return amount, nil
}
