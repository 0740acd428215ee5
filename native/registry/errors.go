package registry

import "errors"

var (
	ErrInvalidID         = errors.New("registry: collection id required")
	ErrIDTooLong         = errors.New("registry: collection id too long")
	ErrNotFound          = errors.New("registry: collection not found")
	ErrExists            = errors.New("registry: collection already registered")
	ErrAlreadyMinted     = errors.New("registry: collection tokens already minted")
	ErrNotMinted         = errors.New("registry: collection tokens not minted")
	ErrIndexOutOfRange   = errors.New("registry: video index out of range")
	ErrNoVideos          = errors.New("registry: collection has no videos")
	ErrStorageUnavailable = errors.New("registry: storage unavailable")
)
