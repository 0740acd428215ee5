package fees

import (
	"encoding/hex"
	"math/big"

	"swarmpay/core/types"
)

const (
	EventTypeHarvested              = "fees.harvested"
	EventTypePerformerEscrowCreated = "fees.performer_escrow_created"
	EventTypePerformerEscrowClaimed = "fees.performer_escrow_claimed"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewHarvestedEvent reports one fee harvest and its split.
func NewHarvestedEvent(collection string, harvested, pinnerShare, ownerShare, performerShare, stakerShare *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeHarvested,
		Attributes: map[string]string{
			"collection":     collection,
			"harvested":      amountString(harvested),
			"pinnerShare":    amountString(pinnerShare),
			"ownerShare":     amountString(ownerShare),
			"performerShare": amountString(performerShare),
			"stakerShare":    amountString(stakerShare),
		},
	}
}

// NewPerformerEscrowCreatedEvent reports a new performer escrow binding.
func NewPerformerEscrowCreatedEvent(collection string, performer [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypePerformerEscrowCreated,
		Attributes: map[string]string{
			"collection": collection,
			"performer":  hex.EncodeToString(performer[:]),
		},
	}
}

// NewPerformerEscrowClaimedEvent reports a performer escrow payout.
func NewPerformerEscrowClaimedEvent(collection string, performer [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePerformerEscrowClaimed,
		Attributes: map[string]string{
			"collection": collection,
			"performer":  hex.EncodeToString(performer[:]),
			"amount":     amountString(amount),
		},
	}
}
