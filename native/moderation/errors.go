package moderation

import "errors"

var (
	ErrNilState           = errors.New("moderation: state not configured")
	ErrCollectionNotFound = errors.New("moderation: collection not found")
	ErrInvalidTarget      = errors.New("moderation: invalid ticket target")
	ErrReasonTooLong      = errors.New("moderation: reason exceeds maximum length")
	ErrDeadlinePassed     = errors.New("moderation: claim deadline has passed")
	ErrIndexOutOfRange    = errors.New("moderation: video index out of range")
	ErrTicketNotFound     = errors.New("moderation: ticket not found")
	ErrTicketResolved     = errors.New("moderation: ticket already resolved")
	ErrNotModerator       = errors.New("moderation: caller has no active moderator stake")
	ErrUnauthorized       = errors.New("moderation: caller is not the protocol admin")
	ErrStakeBelowMinimum  = errors.New("moderation: stake below required minimum")
	ErrStakeNotFound      = errors.New("moderation: moderator stake not found")
	ErrAlreadyClaimed     = errors.New("moderation: video index already claimed")
	ErrNotMinted          = errors.New("moderation: collection has not completed its mint")
	ErrNoClaimIndices     = errors.New("moderation: copyright claim lists no indices")
	ErrZeroPayout         = errors.New("moderation: computed payout is zero")
)
