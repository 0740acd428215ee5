package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swarmpayd.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)

	require.Equal(t, uint64(1), cfg.Protocol.Version)
	require.Equal(t, uint16(DefaultFeeBasisPoints), cfg.Protocol.FeeBasisPoints)
	require.Equal(t, int64(DefaultEscrowExpirySecs), cfg.Protocol.EscrowExpirySeconds)
	require.Equal(t, DefaultMaxPeerListLength, cfg.Protocol.MaxPeerListLength)
	require.Equal(t, uint64(DefaultModeratorStakeMin), cfg.Protocol.ModeratorStakeMinimum)
	require.Equal(t, DefaultStakeToken, cfg.Protocol.StakeToken)
	require.Equal(t, DefaultDataDir, cfg.DataDir)
	require.Equal(t, DefaultMetricsListen, cfg.MetricsListen)

	// A second load reads the file it just wrote.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Protocol, again.Protocol)
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swarmpayd.toml")
	content := `
DataDir = "/var/lib/swarmpay"
LogFile = "/var/log/swarmpayd.log"

[Protocol]
Version = 3
FeeBasisPoints = 150
Admin = "0x0102030405060708090a0b0c0d0e0f1011121314"
StakeToken = "abc"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/swarmpay", cfg.DataDir)
	require.Equal(t, "/var/log/swarmpayd.log", cfg.LogFile)
	require.Equal(t, uint64(3), cfg.Protocol.Version)
	require.Equal(t, uint16(150), cfg.Protocol.FeeBasisPoints)
	require.Equal(t, "abc", cfg.Protocol.StakeToken)
	// Unset fields still pick up defaults.
	require.Equal(t, int64(DefaultEscrowExpirySecs), cfg.Protocol.EscrowExpirySeconds)

	addr, err := cfg.Protocol.AdminAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0x01), addr[0])
	require.Equal(t, byte(0x14), addr[19])
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Protocol{
		FeeBasisPoints:      200,
		EscrowExpirySeconds: 3600,
		MaxPeerListLength:   16,
	}
	require.NoError(t, base.Validate())

	fee := base
	fee.FeeBasisPoints = FeeDenominator + 1
	require.Error(t, fee.Validate())

	expiry := base
	expiry.EscrowExpirySeconds = -1
	require.Error(t, expiry.Validate())

	peers := base
	peers.MaxPeerListLength = 0
	require.Error(t, peers.Validate())

	treasury := base
	treasury.Treasury = "not-hex"
	require.Error(t, treasury.Validate())
}

func TestDecodeAddress(t *testing.T) {
	p := Protocol{Treasury: "0102030405060708090a0b0c0d0e0f1011121314"}
	addr, err := p.TreasuryAddress()
	require.NoError(t, err)
	require.Equal(t, byte(0x14), addr[19])

	p.Treasury = "0x01020304"
	_, err = p.TreasuryAddress()
	require.Error(t, err)

	p.Treasury = "zz02030405060708090a0b0c0d0e0f1011121314"
	_, err = p.TreasuryAddress()
	require.Error(t, err)
}
