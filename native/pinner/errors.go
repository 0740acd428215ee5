package pinner

import "errors"

var (
	ErrNilState           = errors.New("pinner: state not configured")
	ErrCollectionNotFound = errors.New("pinner: collection not found")
	ErrAlreadyRegistered  = errors.New("pinner: peer already registered")
	ErrNotRegistered      = errors.New("pinner: peer not registered")
	ErrInactive           = errors.New("pinner: registration inactive")
	ErrNoPendingReward    = errors.New("pinner: no pending reward")
	ErrInsufficientVault  = errors.New("pinner: fee vault balance below pending reward")
	ErrShareOverflow      = errors.New("pinner: total shares overflow")
)
