package pinner

import (
	"encoding/hex"
	"math/big"

	"swarmpay/core/types"
)

const (
	EventTypeHostRegistered = "pinner.host_registered"
	EventTypeRewardsClaimed = "pinner.rewards_claimed"
	EventTypeCredited       = "pinner.credited"
	EventTypeCreditParked   = "pinner.credit_parked"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewHostRegisteredEvent reports a new hosting-peer registration.
func NewHostRegisteredEvent(collection string, peer [20]byte, shares uint64) *types.Event {
	return &types.Event{
		Type: EventTypeHostRegistered,
		Attributes: map[string]string{
			"collection": collection,
			"peer":       hex.EncodeToString(peer[:]),
			"shares":     new(big.Int).SetUint64(shares).String(),
		},
	}
}

// NewRewardsClaimedEvent reports a hosting-peer reward payout.
func NewRewardsClaimedEvent(collection string, peer [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeRewardsClaimed,
		Attributes: map[string]string{
			"collection": collection,
			"peer":       hex.EncodeToString(peer[:]),
			"amount":     amountString(amount),
		},
	}
}

// NewCreditedEvent reports a fee-harvest credit attributed to the ledger.
func NewCreditedEvent(collection string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeCredited,
		Attributes: map[string]string{
			"collection": collection,
			"amount":     amountString(amount),
		},
	}
}

// NewCreditParkedEvent reports a credit that arrived while the ledger had no
// registered hosts and was parked for the first one.
func NewCreditParkedEvent(collection string, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeCreditParked,
		Attributes: map[string]string{
			"collection": collection,
			"amount":     amountString(amount),
		},
	}
}
