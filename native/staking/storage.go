package staking

import (
	"fmt"
	"math/big"

	"swarmpay/native/rewards"
)

var (
	poolPrefix     = []byte("staking/pool/")
	positionPrefix = []byte("staking/position/")
)

func poolKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s%s", poolPrefix, collection))
}

func positionKey(collection string, staker [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%s/%x", positionPrefix, collection, staker))
}

type storedPool struct {
	Collection         string
	TotalStaked        *big.Int
	AccRewardPerUnit   *big.Int
	UnattributedCredit *big.Int
}

type storedPosition struct {
	Staker     [20]byte
	Collection string
	Amount     *big.Int
	RewardDebt *big.Int
}

func (e *Engine) loadPool(collection string) (*Pool, bool, error) {
	var stored storedPool
	ok, err := e.state.KVGet(poolKey(collection), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	pool := newPool(stored.Collection)
	if stored.TotalStaked != nil {
		pool.TotalStaked.Set(stored.TotalStaked)
	}
	if stored.AccRewardPerUnit != nil {
		pool.Acc = &rewards.Accumulator{AccPerUnit: new(big.Int).Set(stored.AccRewardPerUnit)}
	}
	if stored.UnattributedCredit != nil {
		pool.UnattributedCredit.Set(stored.UnattributedCredit)
	}
	return pool, true, nil
}

func (e *Engine) storePool(pool *Pool) error {
	return e.state.KVPut(poolKey(pool.Collection), &storedPool{
		Collection:         pool.Collection,
		TotalStaked:        pool.TotalStaked,
		AccRewardPerUnit:   pool.Acc.AccPerUnit,
		UnattributedCredit: pool.UnattributedCredit,
	})
}

func (e *Engine) loadPosition(collection string, staker [20]byte) (*Position, bool, error) {
	var stored storedPosition
	ok, err := e.state.KVGet(positionKey(collection, staker), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	pos := newPosition(stored.Staker, stored.Collection)
	if stored.Amount != nil {
		pos.Amount.Set(stored.Amount)
	}
	if stored.RewardDebt != nil {
		pos.RewardDebt.Set(stored.RewardDebt)
	}
	return pos, true, nil
}

func (e *Engine) storePosition(pos *Position) error {
	return e.state.KVPut(positionKey(pos.Collection, pos.Staker), &storedPosition{
		Staker:     pos.Staker,
		Collection: pos.Collection,
		Amount:     pos.Amount,
		RewardDebt: pos.RewardDebt,
	})
}
