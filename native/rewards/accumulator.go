package rewards

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrNoUnits marks credits against a pool with no units outstanding; the
	// amount would be unattributable to any holder.
	ErrNoUnits = errors.New("rewards: no units to attribute credit to")
	// ErrOverflow marks accumulator updates that leave the unsigned 128-bit
	// range the scaled value is persisted in.
	ErrOverflow = errors.New("rewards: accumulator overflow")
)

// Precision is the fixed-point scale applied to the accumulated
// reward-per-unit value.
var Precision = big.NewInt(1_000_000_000_000) // 1e12

// maxUint128 bounds the persisted scaled values.
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Accumulator implements the reward-per-unit pattern shared by the staking
// pool, the pinner ledger and the fee splitter: every credit raises a
// monotonically non-decreasing scaled value, and each holder's pending reward
// is the growth of that value since their last checkpoint, weighted by the
// units they hold.
type Accumulator struct {
	AccPerUnit *big.Int
}

// NewAccumulator returns a zeroed accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{AccPerUnit: big.NewInt(0)}
}

func (a *Accumulator) value() *big.Int {
	if a == nil || a.AccPerUnit == nil {
		return big.NewInt(0)
	}
	return a.AccPerUnit
}

// Credit attributes amount across totalUnits, raising the accumulator by
// floor(amount * Precision / totalUnits). Crediting an empty pool is refused
// rather than silently absorbed.
func (a *Accumulator) Credit(amount, totalUnits *big.Int) error {
	if a == nil {
		return errors.New("rewards: nil accumulator")
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	if totalUnits == nil || totalUnits.Sign() <= 0 {
		return ErrNoUnits
	}
	increment := new(big.Int).Mul(amount, Precision)
	increment.Div(increment, totalUnits)
	next := new(big.Int).Add(a.value(), increment)
	if _, overflow := uint256.FromBig(next); overflow || next.Cmp(maxUint128) > 0 {
		return ErrOverflow
	}
	a.AccPerUnit = next
	return nil
}

// Debt returns the checkpoint value for a holder with the given units:
// units * accPerUnit, still scaled by Precision.
func (a *Accumulator) Debt(units *big.Int) *big.Int {
	if units == nil || units.Sign() <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(units, a.value())
}

// PendingScaled returns the holder's accrued reward since their checkpoint,
// still scaled by Precision. Negative intermediate values (which would imply a
// rewound accumulator) saturate at zero.
func (a *Accumulator) PendingScaled(units, debt *big.Int) *big.Int {
	accrued := a.Debt(units)
	if debt != nil {
		accrued.Sub(accrued, debt)
	}
	if accrued.Sign() < 0 {
		return big.NewInt(0)
	}
	return accrued
}

// Pending returns the holder's claimable token amount: the scaled pending
// value floor-divided by Precision. A nonzero fractional reward can floor to
// zero; callers decide whether that is an error.
func (a *Accumulator) Pending(units, debt *big.Int) *big.Int {
	return new(big.Int).Div(a.PendingScaled(units, debt), Precision)
}
