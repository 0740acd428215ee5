package staking

import "errors"

var (
	ErrNilState           = errors.New("staking: state not configured")
	ErrCollectionNotFound = errors.New("staking: collection not found")
	ErrInvalidAmount      = errors.New("staking: amount must be positive")
	ErrInsufficientStake  = errors.New("staking: unstake exceeds position")
	ErrPositionNotFound   = errors.New("staking: position not found")
	ErrNoPendingReward    = errors.New("staking: no pending reward")
)
