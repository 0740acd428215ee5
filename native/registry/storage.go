package registry

import (
	"fmt"
	"math/big"
)

// kvStore abstracts the subset of state manager functionality required by the
// collection directory.
type kvStore interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var collectionPrefix = []byte("registry/collection/")

func collectionKey(id string) []byte {
	return []byte(fmt.Sprintf("%s%s", collectionPrefix, id))
}

// storedCollection mirrors Collection with RLP-friendly field types.
type storedCollection struct {
	ID                      string
	Owner                   [20]byte
	Token                   string
	CidHash                 [32]byte
	TotalVideos             uint16
	ClaimDeadline           uint64
	TokensMinted            bool
	ClaimVaultInitialAmount *big.Int
	Blacklisted             bool
	TotalTrustScore         uint64
	ClaimedBitmap           []byte
	CensoredBitmap          []byte
	OwnerRewardBalance      *big.Int
	StakerRewardBalance     *big.Int
}

func toStored(c *Collection) *storedCollection {
	return &storedCollection{
		ID:                      c.ID,
		Owner:                   c.Owner,
		Token:                   c.Token,
		CidHash:                 c.CidHash,
		TotalVideos:             c.TotalVideos,
		ClaimDeadline:           uint64(c.ClaimDeadline),
		TokensMinted:            c.TokensMinted,
		ClaimVaultInitialAmount: copyBigInt(c.ClaimVaultInitialAmount),
		Blacklisted:             c.Blacklisted,
		TotalTrustScore:         c.TotalTrustScore,
		ClaimedBitmap:           append([]byte(nil), c.ClaimedBitmap...),
		CensoredBitmap:          append([]byte(nil), c.CensoredBitmap...),
		OwnerRewardBalance:      copyBigInt(c.OwnerRewardBalance),
		StakerRewardBalance:     copyBigInt(c.StakerRewardBalance),
	}
}

func fromStored(s *storedCollection) *Collection {
	return &Collection{
		ID:                      s.ID,
		Owner:                   s.Owner,
		Token:                   s.Token,
		CidHash:                 s.CidHash,
		TotalVideos:             s.TotalVideos,
		ClaimDeadline:           int64(s.ClaimDeadline),
		TokensMinted:            s.TokensMinted,
		ClaimVaultInitialAmount: copyBigInt(s.ClaimVaultInitialAmount),
		Blacklisted:             s.Blacklisted,
		TotalTrustScore:         s.TotalTrustScore,
		ClaimedBitmap:           append([]byte(nil), s.ClaimedBitmap...),
		CensoredBitmap:          append([]byte(nil), s.CensoredBitmap...),
		OwnerRewardBalance:      copyBigInt(s.OwnerRewardBalance),
		StakerRewardBalance:     copyBigInt(s.StakerRewardBalance),
	}
}

// Directory provides collection lookups and the narrow set of mutations the
// settlement engines own (trust aggregates, blacklist flag, claim bitmaps).
type Directory struct {
	store kvStore
}

// NewDirectory constructs a directory bound to the provided storage backend.
func NewDirectory(store kvStore) *Directory {
	return &Directory{store: store}
}

// Register persists a new collection record, initialising its bitmaps.
func (d *Directory) Register(c *Collection) (*Collection, error) {
	if d == nil || d.store == nil {
		return nil, ErrStorageUnavailable
	}
	if c == nil {
		return nil, ErrInvalidID
	}
	id, err := NormalizeID(c.ID)
	if err != nil {
		return nil, err
	}
	exists, err := d.store.KVGet(collectionKey(id), nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrExists
	}
	clone := c.Clone()
	clone.ID = id
	size := BitmapLength(clone.TotalVideos)
	if len(clone.ClaimedBitmap) != size {
		clone.ClaimedBitmap = make([]byte, size)
	}
	if len(clone.CensoredBitmap) != size {
		clone.CensoredBitmap = make([]byte, size)
	}
	clone.TokensMinted = false
	clone.ClaimVaultInitialAmount = big.NewInt(0)
	if err := d.store.KVPut(collectionKey(id), toStored(clone)); err != nil {
		return nil, err
	}
	return clone, nil
}

// Get fetches a collection by slug.
func (d *Directory) Get(id string) (*Collection, bool, error) {
	if d == nil || d.store == nil {
		return nil, false, ErrStorageUnavailable
	}
	normalized, err := NormalizeID(id)
	if err != nil {
		return nil, false, err
	}
	var stored storedCollection
	ok, err := d.store.KVGet(collectionKey(normalized), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return fromStored(&stored), true, nil
}

// Put persists an updated collection record.
func (d *Directory) Put(c *Collection) error {
	if d == nil || d.store == nil {
		return ErrStorageUnavailable
	}
	if c == nil {
		return ErrInvalidID
	}
	id, err := NormalizeID(c.ID)
	if err != nil {
		return err
	}
	return d.store.KVPut(collectionKey(id), toStored(c))
}

// MarkMinted records the one-time mint outcome: the claim vault snapshot that
// anchors every future proportional claim payout. The flag is irreversible.
func (d *Directory) MarkMinted(id string, claimVaultAmount *big.Int) (*Collection, error) {
	col, ok, err := d.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if col.TokensMinted {
		return nil, ErrAlreadyMinted
	}
	if claimVaultAmount == nil || claimVaultAmount.Sign() <= 0 {
		return nil, fmt.Errorf("registry: claim vault snapshot must be positive")
	}
	col.TokensMinted = true
	col.ClaimVaultInitialAmount = new(big.Int).Set(claimVaultAmount)
	if err := d.Put(col); err != nil {
		return nil, err
	}
	return col, nil
}
