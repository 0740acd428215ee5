package registry

import (
	"fmt"
	"math/big"
	"strings"
)

// Collection captures the settlement-relevant configuration and mutable
// aggregates of a single content collection. Creation and the one-time token
// mint happen outside this engine; the directory only records their outcome.
type Collection struct {
	ID      string
	Owner   [20]byte
	Token   string
	CidHash [32]byte

	TotalVideos   uint16
	ClaimDeadline int64

	// TokensMinted and ClaimVaultInitialAmount are set exactly once when the
	// collection completes its mint; the snapshot keeps the per-video claim
	// value stable regardless of later vault balance changes.
	TokensMinted            bool
	ClaimVaultInitialAmount *big.Int

	Blacklisted     bool
	TotalTrustScore uint64

	ClaimedBitmap  []byte
	CensoredBitmap []byte

	OwnerRewardBalance  *big.Int
	StakerRewardBalance *big.Int
}

// Clone returns a deep copy so callers can mutate without aliasing the stored
// instance.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	clone := *c
	clone.ClaimVaultInitialAmount = copyBigInt(c.ClaimVaultInitialAmount)
	clone.OwnerRewardBalance = copyBigInt(c.OwnerRewardBalance)
	clone.StakerRewardBalance = copyBigInt(c.StakerRewardBalance)
	clone.ClaimedBitmap = append([]byte(nil), c.ClaimedBitmap...)
	clone.CensoredBitmap = append([]byte(nil), c.CensoredBitmap...)
	return &clone
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// NormalizeID canonicalises a collection slug.
func NormalizeID(id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", ErrInvalidID
	}
	if len(trimmed) > 32 {
		return "", ErrIDTooLong
	}
	return trimmed, nil
}

// BitmapLength returns the byte length required to track the given number of
// indexed units.
func BitmapLength(totalVideos uint16) int {
	return (int(totalVideos) + 7) / 8
}

func (c *Collection) bit(bitmap []byte, index uint16) (bool, error) {
	if index >= c.TotalVideos {
		return false, fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, index, c.TotalVideos)
	}
	byteIdx := int(index / 8)
	if byteIdx >= len(bitmap) {
		return false, fmt.Errorf("%w: bitmap too short for index %d", ErrIndexOutOfRange, index)
	}
	return (bitmap[byteIdx]>>(index%8))&1 == 1, nil
}

// ClaimedBit reports whether the indexed video has already been paid out from
// the claim vault.
func (c *Collection) ClaimedBit(index uint16) (bool, error) {
	return c.bit(c.ClaimedBitmap, index)
}

// SetClaimedBit marks the indexed video as claimed. Claimed bits are never
// cleared.
func (c *Collection) SetClaimedBit(index uint16) error {
	if _, err := c.bit(c.ClaimedBitmap, index); err != nil {
		return err
	}
	c.ClaimedBitmap[index/8] |= 1 << (index % 8)
	return nil
}

// CensoredBit reports whether the indexed video is censored.
func (c *Collection) CensoredBit(index uint16) (bool, error) {
	return c.bit(c.CensoredBitmap, index)
}

// SetCensoredBit updates the censorship flag for the indexed video. Unlike
// claim bits, censorship verdicts can be reversed.
func (c *Collection) SetCensoredBit(index uint16, censored bool) error {
	if _, err := c.bit(c.CensoredBitmap, index); err != nil {
		return err
	}
	if censored {
		c.CensoredBitmap[index/8] |= 1 << (index % 8)
	} else {
		c.CensoredBitmap[index/8] &^= 1 << (index % 8)
	}
	return nil
}
