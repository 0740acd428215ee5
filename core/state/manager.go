package state

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"swarmpay/storage"
)

var (
	// ErrInsufficientBalance marks transfers and burns that exceed the source
	// holding's balance.
	ErrInsufficientBalance = errors.New("state: insufficient balance")
	// ErrBalanceOverflow marks credits that would push a holding or supply
	// counter past the unsigned 128-bit range.
	ErrBalanceOverflow = errors.New("state: balance overflow")
	// ErrNegativeAmount marks operations invoked with a negative amount.
	ErrNegativeAmount = errors.New("state: negative amount")
	// ErrInvalidToken marks operations naming an empty or malformed token.
	ErrInvalidToken = errors.New("state: invalid token symbol")
)

var (
	holdingPrefix = []byte("state/holding/")
	supplyPrefix  = []byte("state/supply/")
)

// Manager is the ledger collaborator consumed by the settlement engines: a
// holdings store keyed by (owner, token) with atomic-per-operation transfer,
// mint and burn primitives, plus a generic RLP-encoded KV store for engine
// records. Serialization of concurrent operations touching the same entity is
// the responsibility of the surrounding host; the manager performs no
// operation-level locking of its own.
type Manager struct {
	db storage.Database
}

// NewManager binds a state manager to the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// NormalizeToken canonicalises a collection token symbol.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" || len(trimmed) > 16 {
		return "", ErrInvalidToken
	}
	return trimmed, nil
}

// VaultAddress derives the deterministic address of a module-owned vault. The
// derived address has no corresponding key; only engine code can name it as a
// transfer source, which is what makes it a capability.
func VaultAddress(kind, collectionID string) [20]byte {
	digest := ethcrypto.Keccak256([]byte("swarmpay/vault/"), []byte(kind), []byte("/"), []byte(collectionID))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

type holdingRecord struct {
	Balance *big.Int
}

func holdingKey(owner [20]byte, token string) []byte {
	return []byte(fmt.Sprintf("%s%s/%x", holdingPrefix, token, owner))
}

func supplyKey(token string) []byte {
	return []byte(fmt.Sprintf("%s%s", supplyPrefix, token))
}

// Balance returns the current balance of the (owner, token) holding. Missing
// holdings read as zero.
func (m *Manager) Balance(owner [20]byte, token string) (*big.Int, error) {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	var rec holdingRecord
	ok, err := m.KVGet(holdingKey(owner, normalized), &rec)
	if err != nil {
		return nil, err
	}
	if !ok || rec.Balance == nil {
		return big.NewInt(0), nil
	}
	return rec.Balance, nil
}

// Supply returns the outstanding minted supply for a token.
func (m *Manager) Supply(token string) (*big.Int, error) {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	var rec holdingRecord
	ok, err := m.KVGet(supplyKey(normalized), &rec)
	if err != nil {
		return nil, err
	}
	if !ok || rec.Balance == nil {
		return big.NewInt(0), nil
	}
	return rec.Balance, nil
}

func (m *Manager) setBalance(key []byte, balance *big.Int) error {
	if _, overflow := uint256.FromBig(balance); overflow {
		return ErrBalanceOverflow
	}
	return m.KVPut(key, &holdingRecord{Balance: balance})
}

// Transfer debits the (from, token) holding and credits (to, token). A zero
// amount is a no-op; the operation either fully applies or fails with no
// partial effect.
func (m *Manager) Transfer(from, to [20]byte, token string, amount *big.Int) error {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	fromBalance, err := m.Balance(from, normalized)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance, err := m.Balance(to, normalized)
	if err != nil {
		return err
	}
	newTo := new(big.Int).Add(toBalance, amount)
	if _, overflow := uint256.FromBig(newTo); overflow {
		return ErrBalanceOverflow
	}
	if err := m.setBalance(holdingKey(from, normalized), new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return m.setBalance(holdingKey(to, normalized), newTo)
}

// Mint credits a holding and grows the token supply.
func (m *Manager) Mint(to [20]byte, token string, amount *big.Int) error {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	supply, err := m.Supply(normalized)
	if err != nil {
		return err
	}
	newSupply := new(big.Int).Add(supply, amount)
	if _, overflow := uint256.FromBig(newSupply); overflow {
		return ErrBalanceOverflow
	}
	balance, err := m.Balance(to, normalized)
	if err != nil {
		return err
	}
	if err := m.setBalance(holdingKey(to, normalized), new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return m.KVPut(supplyKey(normalized), &holdingRecord{Balance: newSupply})
}

// Burn debits a holding and shrinks the token supply irreversibly.
func (m *Manager) Burn(from [20]byte, token string, amount *big.Int) error {
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	balance, err := m.Balance(from, normalized)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	supply, err := m.Supply(normalized)
	if err != nil {
		return err
	}
	if supply.Cmp(amount) < 0 {
		return fmt.Errorf("state: burn exceeds recorded supply for %s", normalized)
	}
	if err := m.setBalance(holdingKey(from, normalized), new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	return m.KVPut(supplyKey(normalized), &holdingRecord{Balance: new(big.Int).Sub(supply, amount)})
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the record stored under the supplied key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Delete(key)
}
