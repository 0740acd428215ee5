package moderation

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"swarmpay/core/types"
)

const (
	EventTypeModeratorStaked  = "moderation.moderator_staked"
	EventTypeModeratorSlashed = "moderation.moderator_slashed"
	EventTypeTicketCreated    = "moderation.ticket_created"
	EventTypeTicketResolved   = "moderation.ticket_resolved"
	EventTypeClaimPaid        = "moderation.copyright_claim_paid"
	EventTypeCidCensorship    = "moderation.cid_censorship"
)

// NewModeratorStakedEvent reports a moderator bond increase.
func NewModeratorStakedEvent(moderator [20]byte, amount *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeModeratorStaked,
		Attributes: map[string]string{
			"moderator": hex.EncodeToString(moderator[:]),
			"amount":    amount.String(),
		},
	}
}

// NewModeratorSlashedEvent reports a slashed moderator bond.
func NewModeratorSlashedEvent(moderator [20]byte, slashed *big.Int, slashCount uint32) *types.Event {
	return &types.Event{
		Type: EventTypeModeratorSlashed,
		Attributes: map[string]string{
			"moderator":  hex.EncodeToString(moderator[:]),
			"slashed":    slashed.String(),
			"slashCount": strconv.FormatUint(uint64(slashCount), 10),
		},
	}
}

// NewTicketCreatedEvent reports a new moderation ticket.
func NewTicketCreatedEvent(t *Ticket) *types.Event {
	return &types.Event{
		Type: EventTypeTicketCreated,
		Attributes: map[string]string{
			"ticketId":   t.ID,
			"kind":       t.Target.Kind.String(),
			"collection": t.Target.Collection,
			"reporter":   hex.EncodeToString(t.Reporter[:]),
		},
	}
}

// NewTicketResolvedEvent reports a ticket resolution and its verdict.
func NewTicketResolvedEvent(t *Ticket) *types.Event {
	return &types.Event{
		Type: EventTypeTicketResolved,
		Attributes: map[string]string{
			"ticketId":   t.ID,
			"kind":       t.Target.Kind.String(),
			"collection": t.Target.Collection,
			"verdict":    strconv.FormatBool(t.Verdict),
			"resolver":   hex.EncodeToString(t.Resolver[:]),
		},
	}
}

// NewClaimPaidEvent reports a copyright-claim payout from the claim vault.
func NewClaimPaidEvent(t *Ticket, payout *big.Int, indices int) *types.Event {
	return &types.Event{
		Type: EventTypeClaimPaid,
		Attributes: map[string]string{
			"ticketId":   t.ID,
			"collection": t.Target.Collection,
			"claimant":   hex.EncodeToString(t.Reporter[:]),
			"payout":     payout.String(),
			"indices":    strconv.Itoa(indices),
		},
	}
}

// NewCidCensorshipEvent reports a censorship bitmap update, approved or not.
func NewCidCensorshipEvent(t *Ticket, censored bool) *types.Event {
	return &types.Event{
		Type: EventTypeCidCensorship,
		Attributes: map[string]string{
			"ticketId":   t.ID,
			"collection": t.Target.Collection,
			"videoIndex": strconv.FormatUint(uint64(t.Target.VideoIndex), 10),
			"censored":   strconv.FormatBool(censored),
		},
	}
}
