package staking

import (
	"math/big"

	"swarmpay/core/events"
	"swarmpay/core/state"
	"swarmpay/native/registry"
)

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

type collectionDirectory interface {
	Get(id string) (*registry.Collection, bool, error)
}

// Engine manages per-collection staking pools. Purchase credits flow into a
// pool's vault and are distributed to stakers proportionally to their stake.
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

// PoolVault derives the module-owned address holding a pool's staked tokens
// and undistributed rewards.
func PoolVault(collection string) [20]byte {
	return state.VaultAddress("staking-pool", collection)
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

// Stake locks amount of the collection's token into the pool vault. Any
// reward already pending for the staker is paid out in the same operation so
// the reward debt checkpoint stays consistent with the enlarged position.
func (e *Engine) Stake(staker [20]byte, collectionID string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return err
	}
	pool, ok, err := e.loadPool(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		pool = newPool(collectionID)
	}
	pos, ok, err := e.loadPosition(collectionID, staker)
	if err != nil {
		return err
	}
	if !ok {
		pos = newPosition(staker, collectionID)
	}
	vault := PoolVault(collectionID)
	reward := pool.Acc.Pending(pos.Amount, pos.RewardDebt)
	if reward.Sign() > 0 {
		if err := e.state.Transfer(vault, staker, col.Token, reward); err != nil {
			return err
		}
	}
	if err := e.state.Transfer(staker, vault, col.Token, amount); err != nil {
		return err
	}
	pool.TotalStaked.Add(pool.TotalStaked, amount)
	pos.Amount.Add(pos.Amount, amount)
	// Checkpoint against the accumulator before absorbing parked credit so
	// the credit becomes pending for the stakers now in the pool.
	pos.RewardDebt = pool.Acc.Debt(pos.Amount)
	if pool.UnattributedCredit.Sign() > 0 {
		if err := pool.Acc.Credit(pool.UnattributedCredit, pool.TotalStaked); err != nil {
			return err
		}
		e.emitter.Emit(NewCreditedEvent(collectionID, pool.UnattributedCredit))
		pool.UnattributedCredit = big.NewInt(0)
	}
	if err := e.storePool(pool); err != nil {
		return err
	}
	if err := e.storePosition(pos); err != nil {
		return err
	}
	e.emitter.Emit(NewStakedEvent(collectionID, staker, amount, reward))
	return nil
}

// ClaimRewards pays out the staker's accrued share of pool credits without
// touching the staked principal.
func (e *Engine) ClaimRewards(staker [20]byte, collectionID string) (*big.Int, error) {
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return nil, err
	}
	pool, ok, err := e.loadPool(collectionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCollectionNotFound
	}
	pos, ok, err := e.loadPosition(collectionID, staker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPositionNotFound
	}
	reward := pool.Acc.Pending(pos.Amount, pos.RewardDebt)
	if reward.Sign() <= 0 {
		return nil, ErrNoPendingReward
	}
	if err := e.state.Transfer(PoolVault(collectionID), staker, col.Token, reward); err != nil {
		return nil, err
	}
	pos.RewardDebt = pool.Acc.Debt(pos.Amount)
	if err := e.storePosition(pos); err != nil {
		return nil, err
	}
	e.emitter.Emit(NewRewardsClaimedEvent(collectionID, staker, reward))
	return reward, nil
}

// Unstake returns amount of staked principal plus any pending reward in a
// single transfer from the pool vault.
func (e *Engine) Unstake(staker [20]byte, collectionID string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return err
	}
	pool, ok, err := e.loadPool(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCollectionNotFound
	}
	pos, ok, err := e.loadPosition(collectionID, staker)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPositionNotFound
	}
	if pos.Amount.Cmp(amount) < 0 {
		return ErrInsufficientStake
	}
	reward := pool.Acc.Pending(pos.Amount, pos.RewardDebt)
	payout := new(big.Int).Add(amount, reward)
	if err := e.state.Transfer(PoolVault(collectionID), staker, col.Token, payout); err != nil {
		return err
	}
	pool.TotalStaked.Sub(pool.TotalStaked, amount)
	pos.Amount.Sub(pos.Amount, amount)
	pos.RewardDebt = pool.Acc.Debt(pos.Amount)
	if err := e.storePool(pool); err != nil {
		return err
	}
	if err := e.storePosition(pos); err != nil {
		return err
	}
	e.emitter.Emit(NewUnstakedEvent(collectionID, staker, amount, reward))
	return nil
}

// Credit moves a purchase split from the purchaser into the pool vault and
// folds it into the accumulator. When the pool is empty the amount is parked
// and absorbed by the next stake.
func (e *Engine) Credit(collectionID string, purchaser [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return err
	}
	pool, ok, err := e.loadPool(collectionID)
	if err != nil {
		return err
	}
	if !ok {
		pool = newPool(collectionID)
	}
	if err := e.state.Transfer(purchaser, PoolVault(collectionID), col.Token, amount); err != nil {
		return err
	}
	if pool.TotalStaked.Sign() > 0 {
		if err := pool.Acc.Credit(amount, pool.TotalStaked); err != nil {
			return err
		}
		e.emitter.Emit(NewCreditedEvent(collectionID, amount))
	} else {
		pool.UnattributedCredit.Add(pool.UnattributedCredit, amount)
		e.emitter.Emit(NewCreditParkedEvent(collectionID, amount))
	}
	return e.storePool(pool)
}

// PendingReward reports the staker's currently claimable reward.
func (e *Engine) PendingReward(staker [20]byte, collectionID string) (*big.Int, error) {
	pool, ok, err := e.loadPool(collectionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCollectionNotFound
	}
	pos, ok, err := e.loadPosition(collectionID, staker)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPositionNotFound
	}
	return pool.Acc.Pending(pos.Amount, pos.RewardDebt), nil
}
