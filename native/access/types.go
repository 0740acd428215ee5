package access

import (
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// EscrowExpirySeconds is the window after purchase within which the buyer can
// release the escrow. Once it passes, the escrow can only be burned.
const EscrowExpirySeconds int64 = 24 * 60 * 60

// Escrow is a per-purchase value lock. LockedAmount only ever decreases; a
// zero balance is terminal.
type Escrow struct {
	ID           [32]byte
	Purchaser    [20]byte
	Collection   string
	CidHash      [32]byte
	LockedAmount *big.Int
	CreatedAt    int64
	CidRevealed  bool
}

// PeerWeight pairs a delivering peer with the buyer-assigned trust weight
// used to proportion the release.
type PeerWeight struct {
	Peer   [20]byte
	Weight uint64
}

// EscrowID derives the deterministic identity of the single escrow a
// purchaser may hold against a collection.
func EscrowID(purchaser [20]byte, collection string) [32]byte {
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256(purchaser[:], []byte(collection)))
	return id
}

// Clone returns a deep copy of the escrow.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	clone.LockedAmount = big.NewInt(0)
	if e.LockedAmount != nil {
		clone.LockedAmount.Set(e.LockedAmount)
	}
	return &clone
}
