package access

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"swarmpay/core/types"
)

const (
	EventTypePurchased    = "access.purchased"
	EventTypeReleased     = "access.released"
	EventTypeBurned       = "access.burned"
	EventTypeTrustSkipped = "access.trust_skipped"
	EventTypeCidRevealed  = "access.cid_revealed"
)

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// NewPurchasedEvent reports a new purchase escrow and its split.
func NewPurchasedEvent(esc *Escrow, fee, toStakers *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypePurchased,
		Attributes: map[string]string{
			"escrowId":   hex.EncodeToString(esc.ID[:]),
			"collection": esc.Collection,
			"purchaser":  hex.EncodeToString(esc.Purchaser[:]),
			"fee":        amountString(fee),
			"toStakers":  amountString(toStakers),
			"toEscrow":   amountString(esc.LockedAmount),
		},
	}
}

// NewReleasedEvent reports a buyer-driven escrow release.
func NewReleasedEvent(esc *Escrow, peers int, totalWeight uint64, totalPaid *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeReleased,
		Attributes: map[string]string{
			"escrowId":    hex.EncodeToString(esc.ID[:]),
			"collection":  esc.Collection,
			"purchaser":   hex.EncodeToString(esc.Purchaser[:]),
			"peers":       strconv.Itoa(peers),
			"totalWeight": strconv.FormatUint(totalWeight, 10),
			"totalPaid":   amountString(totalPaid),
		},
	}
}

// NewBurnedEvent reports a permissionless expiry burn, naming the caller that
// performed the cleanup.
func NewBurnedEvent(esc *Escrow, caller [20]byte, burned *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeBurned,
		Attributes: map[string]string{
			"escrowId":   hex.EncodeToString(esc.ID[:]),
			"collection": esc.Collection,
			"purchaser":  hex.EncodeToString(esc.Purchaser[:]),
			"caller":     hex.EncodeToString(caller[:]),
			"burned":     amountString(burned),
		},
	}
}

// NewTrustSkippedEvent reports a paid peer whose trust record was missing and
// therefore not updated.
func NewTrustSkippedEvent(esc *Escrow, peer [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeTrustSkipped,
		Attributes: map[string]string{
			"escrowId":   hex.EncodeToString(esc.ID[:]),
			"collection": esc.Collection,
			"peer":       hex.EncodeToString(peer[:]),
		},
	}
}

// NewCidRevealedEvent reports a hosting peer posting the encrypted content
// reference for a purchase.
func NewCidRevealedEvent(esc *Escrow, peer [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeCidRevealed,
		Attributes: map[string]string{
			"escrowId":   hex.EncodeToString(esc.ID[:]),
			"collection": esc.Collection,
			"peer":       hex.EncodeToString(peer[:]),
		},
	}
}
