package access

import "errors"

var (
	ErrNilState              = errors.New("access: state not configured")
	ErrInvalidAmount         = errors.New("access: amount must be positive")
	ErrCollectionNotFound    = errors.New("access: collection not found")
	ErrCollectionBlacklisted = errors.New("access: collection is blacklisted")
	ErrCidMismatch           = errors.New("access: content reference hash mismatch")
	ErrInsufficientBalance   = errors.New("access: purchaser balance below purchase amount")
	ErrEscrowExists          = errors.New("access: escrow already exists for purchaser and collection")
	ErrEscrowNotFound        = errors.New("access: escrow not found")
	ErrEmptyPeerList         = errors.New("access: peer list is empty")
	ErrPeerListTooLong       = errors.New("access: peer list exceeds maximum length")
	ErrZeroTotalWeight       = errors.New("access: total peer weight must be positive")
	ErrWeightOverflow        = errors.New("access: peer weight sum overflow")
	ErrTrustScoreOverflow    = errors.New("access: collection trust score overflow")
	ErrEscrowExpired         = errors.New("access: escrow expired")
	ErrEscrowNotExpired      = errors.New("access: escrow not yet expired")
	ErrNothingLocked         = errors.New("access: escrow has no locked balance")
	ErrEmptyReference        = errors.New("access: encrypted content reference is empty")
	ErrReferenceTooLong      = errors.New("access: encrypted content reference too long")
	ErrAlreadyRevealed       = errors.New("access: reference already revealed by this peer")
)
