package pinner

import (
	"math/big"

	"swarmpay/native/rewards"
)

// Ledger tracks the hosting-peer share accounting for one collection. Shares
// are fixed at registration time, so the ledger only ever grows.
type Ledger struct {
	Collection         string
	TotalShares        uint64
	Acc                *rewards.Accumulator
	RewardPoolBalance  *big.Int
	UnattributedCredit *big.Int
}

// Entry is one hosting peer's registration against a collection ledger.
type Entry struct {
	Peer       [20]byte
	Collection string
	Shares     uint64
	RewardDebt *big.Int
	Active     bool
}

// sharesPerRegistration is the fixed share weight granted to every hosting
// peer. It could later scale with pledged storage size.
const sharesPerRegistration uint64 = 1

func newLedger(collection string) *Ledger {
	return &Ledger{
		Collection:         collection,
		Acc:                rewards.NewAccumulator(),
		RewardPoolBalance:  big.NewInt(0),
		UnattributedCredit: big.NewInt(0),
	}
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	clone := newLedger(l.Collection)
	clone.TotalShares = l.TotalShares
	if l.Acc != nil && l.Acc.AccPerUnit != nil {
		clone.Acc.AccPerUnit = new(big.Int).Set(l.Acc.AccPerUnit)
	}
	if l.RewardPoolBalance != nil {
		clone.RewardPoolBalance.Set(l.RewardPoolBalance)
	}
	if l.UnattributedCredit != nil {
		clone.UnattributedCredit.Set(l.UnattributedCredit)
	}
	return clone
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := &Entry{
		Peer:       e.Peer,
		Collection: e.Collection,
		Shares:     e.Shares,
		Active:     e.Active,
		RewardDebt: big.NewInt(0),
	}
	if e.RewardDebt != nil {
		clone.RewardDebt.Set(e.RewardDebt)
	}
	return clone
}
