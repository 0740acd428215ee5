package staking

import (
	"math/big"

	"swarmpay/native/rewards"
)

// Pool aggregates every live staker position for one collection. The
// accumulator grows on every purchase credit; UnattributedCredit parks
// credits that arrived while the pool was empty until a first staker exists
// to absorb them.
type Pool struct {
	Collection         string
	TotalStaked        *big.Int
	Acc                *rewards.Accumulator
	UnattributedCredit *big.Int
}

// Position is one staker's stake in one collection pool. Positions are never
// deleted; a fully unstaked position sits at zero.
type Position struct {
	Staker     [20]byte
	Collection string
	Amount     *big.Int
	RewardDebt *big.Int
}

func newPool(collection string) *Pool {
	return &Pool{
		Collection:         collection,
		TotalStaked:        big.NewInt(0),
		Acc:                rewards.NewAccumulator(),
		UnattributedCredit: big.NewInt(0),
	}
}

func newPosition(staker [20]byte, collection string) *Position {
	return &Position{
		Staker:     staker,
		Collection: collection,
		Amount:     big.NewInt(0),
		RewardDebt: big.NewInt(0),
	}
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := newPool(p.Collection)
	if p.TotalStaked != nil {
		clone.TotalStaked.Set(p.TotalStaked)
	}
	if p.Acc != nil && p.Acc.AccPerUnit != nil {
		clone.Acc.AccPerUnit = new(big.Int).Set(p.Acc.AccPerUnit)
	}
	if p.UnattributedCredit != nil {
		clone.UnattributedCredit.Set(p.UnattributedCredit)
	}
	return clone
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := newPosition(p.Staker, p.Collection)
	if p.Amount != nil {
		clone.Amount.Set(p.Amount)
	}
	if p.RewardDebt != nil {
		clone.RewardDebt.Set(p.RewardDebt)
	}
	return clone
}
