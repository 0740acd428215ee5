package rewards

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreditAndPending(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Credit(big.NewInt(100), big.NewInt(4)))

	// Each unit accrued 25.
	require.Equal(t, int64(25), acc.Pending(big.NewInt(1), big.NewInt(0)).Int64())
	require.Equal(t, int64(75), acc.Pending(big.NewInt(3), big.NewInt(0)).Int64())

	// A holder checkpointed after the credit has nothing pending.
	debt := acc.Debt(big.NewInt(3))
	require.Equal(t, int64(0), acc.Pending(big.NewInt(3), debt).Int64())

	require.NoError(t, acc.Credit(big.NewInt(40), big.NewInt(4)))
	require.Equal(t, int64(30), acc.Pending(big.NewInt(3), debt).Int64())
}

func TestCreditRefusesEmptyPool(t *testing.T) {
	acc := NewAccumulator()
	require.ErrorIs(t, acc.Credit(big.NewInt(100), big.NewInt(0)), ErrNoUnits)
	require.ErrorIs(t, acc.Credit(big.NewInt(100), nil), ErrNoUnits)
	// Zero and negative credits are no-ops.
	require.NoError(t, acc.Credit(big.NewInt(0), big.NewInt(0)))
	require.Equal(t, int64(0), acc.AccPerUnit.Int64())
}

func TestCreditFloorsPerUnit(t *testing.T) {
	acc := NewAccumulator()
	// 10 across 3 units: floor(10 * 1e12 / 3) per unit.
	require.NoError(t, acc.Credit(big.NewInt(10), big.NewInt(3)))
	want := new(big.Int).Div(new(big.Int).Mul(big.NewInt(10), Precision), big.NewInt(3))
	require.Equal(t, 0, acc.AccPerUnit.Cmp(want))
	// Three units together floor to 9; the scaled remainder stays pending.
	require.Equal(t, int64(9), acc.Pending(big.NewInt(3), big.NewInt(0)).Int64())
}

func TestMonotonicity(t *testing.T) {
	acc := NewAccumulator()
	prev := new(big.Int)
	for _, credit := range []int64{1, 1000, 3, 999999, 7} {
		require.NoError(t, acc.Credit(big.NewInt(credit), big.NewInt(13)))
		require.True(t, acc.AccPerUnit.Cmp(prev) >= 0, "accumulator decreased")
		prev.Set(acc.AccPerUnit)
	}
}

func TestNoOverDistribution(t *testing.T) {
	acc := NewAccumulator()
	units := []*big.Int{big.NewInt(3), big.NewInt(5), big.NewInt(11)}
	totalUnits := big.NewInt(19)
	credited := big.NewInt(0)
	for _, amount := range []int64{100, 57, 9999, 1} {
		require.NoError(t, acc.Credit(big.NewInt(amount), totalUnits))
		credited.Add(credited, big.NewInt(amount))
	}
	claimed := big.NewInt(0)
	for _, u := range units {
		claimed.Add(claimed, acc.Pending(u, big.NewInt(0)))
	}
	require.True(t, claimed.Cmp(credited) <= 0, "claimed %s > credited %s", claimed, credited)
}

func TestOverflowGuard(t *testing.T) {
	acc := NewAccumulator()
	// Scaled by 1e12 these land near 2^120 and 2^130: the first fits the
	// unsigned 128-bit bound, the second breaks it.
	within := new(big.Int).Lsh(big.NewInt(1), 80)
	beyond := new(big.Int).Lsh(big.NewInt(1), 90)
	require.NoError(t, acc.Credit(within, big.NewInt(1)))
	before := new(big.Int).Set(acc.AccPerUnit)
	require.ErrorIs(t, acc.Credit(beyond, big.NewInt(1)), ErrOverflow)
	// The refused credit must leave the accumulator untouched.
	require.Equal(t, 0, acc.AccPerUnit.Cmp(before))
}

func TestPendingSaturatesAtZero(t *testing.T) {
	acc := NewAccumulator()
	require.NoError(t, acc.Credit(big.NewInt(10), big.NewInt(2)))
	// A debt above the accrued value must not go negative.
	inflated := new(big.Int).Mul(acc.Debt(big.NewInt(1)), big.NewInt(2))
	require.Equal(t, int64(0), acc.Pending(big.NewInt(1), inflated).Int64())
}
