package staking

import (
	"encoding/hex"
	"math/big"

	"swarmpay/core/types"
)

const (
	EventTypeStaked         = "staking.staked"
	EventTypeUnstaked       = "staking.unstaked"
	EventTypeRewardsClaimed = "staking.rewards_claimed"
	EventTypeCredited       = "staking.credited"
	EventTypeCreditParked   = "staking.credit_parked"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newStakeEvent(eventType, collection string, staker [20]byte, amount, reward *big.Int) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			"collection": collection,
			"staker":     hex.EncodeToString(staker[:]),
			"amount":     amountString(amount),
			"reward":     amountString(reward),
		},
	}
}

// NewStakedEvent reports a stake increase, including any auto-claimed reward.
func NewStakedEvent(collection string, staker [20]byte, amount, reward *big.Int) *types.Event {
	return newStakeEvent(EventTypeStaked, collection, staker, amount, reward)
}

// NewUnstakedEvent reports a stake decrease and the reward settled with it.
func NewUnstakedEvent(collection string, staker [20]byte, amount, reward *big.Int) *types.Event {
	return newStakeEvent(EventTypeUnstaked, collection, staker, amount, reward)
}

// NewRewardsClaimedEvent reports a standalone reward claim.
func NewRewardsClaimedEvent(collection string, staker [20]byte, reward *big.Int) *types.Event {
	return newStakeEvent(EventTypeRewardsClaimed, collection, staker, big.NewInt(0), reward)
}

// NewCreditedEvent reports a purchase credit attributed to the pool.
func NewCreditedEvent(collection string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeCredited,
		Attributes: map[string]string{
			"collection": collection,
			"amount":     amountString(amount),
		},
	}
}

// NewCreditParkedEvent reports a credit that arrived while the pool had no
// stakers and was parked for the first one.
func NewCreditParkedEvent(collection string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeCreditParked,
		Attributes: map[string]string{
			"collection": collection,
			"amount":     amountString(amount),
		},
	}
}
