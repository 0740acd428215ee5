package fees

import "errors"

var (
	ErrNilState           = errors.New("fees: state not configured")
	ErrCollectionNotFound = errors.New("fees: collection not found")
	ErrUnauthorized       = errors.New("fees: caller is not collection owner or admin")
	ErrNothingToHarvest   = errors.New("fees: fee vault is empty")
	ErrEscrowExists       = errors.New("fees: performer escrow already initialised")
	ErrEscrowNotFound     = errors.New("fees: performer escrow not found")
	ErrNoEscrowBalance    = errors.New("fees: performer escrow has no balance")
)
