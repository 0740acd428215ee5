package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// FeeDenominator is the fixed basis-point denominator applied to purchase fees.
const FeeDenominator = 10_000

// Default protocol values applied when a field is absent from the config file.
const (
	DefaultFeeBasisPoints     = 200
	DefaultEscrowExpirySecs   = 24 * 3600
	DefaultMaxPeerListLength  = 16
	DefaultModeratorStakeMin  = 1_000
	DefaultStakeToken         = "SWP"
	DefaultMetricsListen      = ":9464"
	DefaultDataDir            = "./swarmpayd-data"
	maxReasonLen              = 200
	maxCollectionIDLen        = 32
	maxEncryptedReferenceSize = 200
)

// Protocol is the versioned settlement configuration shared by every engine.
// A locked record refuses further updates; the flag is one-way.
type Protocol struct {
	Version               uint64 `toml:"Version"`
	FeeBasisPoints        uint16 `toml:"FeeBasisPoints"`
	Admin                 string `toml:"Admin"`
	Treasury              string `toml:"Treasury"`
	StakerTreasury        string `toml:"StakerTreasury"`
	ModeratorStakeMinimum uint64 `toml:"ModeratorStakeMinimum"`
	StakeToken            string `toml:"StakeToken"`
	EscrowExpirySeconds   int64  `toml:"EscrowExpirySeconds"`
	MaxPeerListLength     int    `toml:"MaxPeerListLength"`
	Locked                bool   `toml:"Locked"`
}

// Node carries the daemon-level settings that sit outside the protocol record.
type Node struct {
	DataDir        string   `toml:"DataDir"`
	MetricsListen  string   `toml:"MetricsListen"`
	LogFile        string   `toml:"LogFile"`
	Environment    string   `toml:"Environment"`
	OTLPEndpoint   string   `toml:"OTLPEndpoint"`
	OTLPInsecure   bool     `toml:"OTLPInsecure"`
	OTLPHeaders    string   `toml:"OTLPHeaders"`
	Protocol       Protocol `toml:"Protocol"`
}

// Load reads the node configuration from the given path, creating a default
// file when none exists.
func Load(path string) (*Node, error) {
	cfg := &Node{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Protocol.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Node, error) {
	cfg := &Node{}
	applyDefaults(cfg)
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Node) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	if strings.TrimSpace(cfg.MetricsListen) == "" {
		cfg.MetricsListen = DefaultMetricsListen
	}
	p := &cfg.Protocol
	if p.Version == 0 {
		p.Version = 1
	}
	if p.FeeBasisPoints == 0 {
		p.FeeBasisPoints = DefaultFeeBasisPoints
	}
	if p.EscrowExpirySeconds == 0 {
		p.EscrowExpirySeconds = DefaultEscrowExpirySecs
	}
	if p.MaxPeerListLength == 0 {
		p.MaxPeerListLength = DefaultMaxPeerListLength
	}
	if p.ModeratorStakeMinimum == 0 {
		p.ModeratorStakeMinimum = DefaultModeratorStakeMin
	}
	if strings.TrimSpace(p.StakeToken) == "" {
		p.StakeToken = DefaultStakeToken
	}
}

// Validate ensures the protocol record holds values every engine can accept.
func (p Protocol) Validate() error {
	if p.FeeBasisPoints > FeeDenominator {
		return fmt.Errorf("config: fee basis points out of range: %d", p.FeeBasisPoints)
	}
	if p.EscrowExpirySeconds <= 0 {
		return fmt.Errorf("config: escrow expiry must be positive")
	}
	if p.MaxPeerListLength <= 0 {
		return fmt.Errorf("config: max peer list length must be positive")
	}
	if p.Treasury != "" {
		if _, err := p.TreasuryAddress(); err != nil {
			return err
		}
	}
	if p.StakerTreasury != "" {
		if _, err := p.StakerTreasuryAddress(); err != nil {
			return err
		}
	}
	if p.Admin != "" {
		if _, err := p.AdminAddress(); err != nil {
			return err
		}
	}
	return nil
}

// AdminAddress decodes the configured protocol admin into a raw address.
func (p Protocol) AdminAddress() ([20]byte, error) {
	return decodeAddress("Admin", p.Admin)
}

// TreasuryAddress decodes the configured treasury into a raw address.
func (p Protocol) TreasuryAddress() ([20]byte, error) {
	return decodeAddress("Treasury", p.Treasury)
}

// StakerTreasuryAddress decodes the configured staker treasury address.
func (p Protocol) StakerTreasuryAddress() ([20]byte, error) {
	return decodeAddress("StakerTreasury", p.StakerTreasury)
}

func decodeAddress(field, value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("config: invalid %s address: %w", field, err)
	}
	if len(raw) != len(addr) {
		return addr, fmt.Errorf("config: invalid %s address length: %d", field, len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}

// MaxReasonLength bounds free-form moderation reason strings.
func MaxReasonLength() int { return maxReasonLen }

// MaxCollectionIDLength bounds collection identifier slugs.
func MaxCollectionIDLength() int { return maxCollectionIDLen }

// MaxEncryptedReferenceSize bounds the encrypted content reference payload a
// hosting peer may publish during a reveal.
func MaxEncryptedReferenceSize() int { return maxEncryptedReferenceSize }
