package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swarmpay/config"
	"swarmpay/core/state"
	"swarmpay/storage"
)

func testProtocol() config.Protocol {
	return config.Protocol{
		Version:             1,
		FeeBasisPoints:      200,
		StakeToken:          "SWP",
		EscrowExpirySeconds: 3600,
		MaxPeerListLength:   64,
	}
}

func TestEnsureProtocolPersistsRecord(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	require.NoError(t, ensureProtocol(manager, testProtocol()))

	var stored storedProtocol
	found, err := manager.KVGet(protocolKey, &stored)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, mirrorProtocol(testProtocol()), stored)
}

func TestEnsureProtocolLockedRefusesChange(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	locked := testProtocol()
	locked.Locked = true
	require.NoError(t, ensureProtocol(manager, locked))

	// An identical record restarts cleanly.
	require.NoError(t, ensureProtocol(manager, locked))

	changed := locked
	changed.FeeBasisPoints = 500
	require.ErrorIs(t, ensureProtocol(manager, changed), ErrProtocolLocked)

	// Clearing the flag is itself a change; the lock is one-way.
	unlocked := locked
	unlocked.Locked = false
	require.ErrorIs(t, ensureProtocol(manager, unlocked), ErrProtocolLocked)

	var stored storedProtocol
	found, err := manager.KVGet(protocolKey, &stored)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, mirrorProtocol(locked), stored)
}

func TestEnsureProtocolUnlockedAdoptsNewRecord(t *testing.T) {
	manager := state.NewManager(storage.NewMemDB())
	require.NoError(t, ensureProtocol(manager, testProtocol()))

	next := testProtocol()
	next.Version = 2
	next.Locked = true
	require.NoError(t, ensureProtocol(manager, next))

	var stored storedProtocol
	found, err := manager.KVGet(protocolKey, &stored)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, stored.Locked)
	require.Equal(t, uint64(2), stored.Version)
}
