package main

import (
	"errors"
	"fmt"

	"swarmpay/config"
	"swarmpay/core/state"
)

// ErrProtocolLocked marks startup attempts that would apply a protocol record
// differing from a locked persisted one.
var ErrProtocolLocked = errors.New("swarmpayd: persisted protocol record is locked")

var protocolKey = []byte("node/protocol")

// storedProtocol is the persisted mirror of the configured protocol record.
// RLP only carries unsigned integers, so the signed fields are widened.
type storedProtocol struct {
	Version               uint64
	FeeBasisPoints        uint64
	Admin                 string
	Treasury              string
	StakerTreasury        string
	ModeratorStakeMinimum uint64
	StakeToken            string
	EscrowExpirySeconds   uint64
	MaxPeerListLength     uint64
	Locked                bool
}

func mirrorProtocol(p config.Protocol) storedProtocol {
	return storedProtocol{
		Version:               p.Version,
		FeeBasisPoints:        uint64(p.FeeBasisPoints),
		Admin:                 p.Admin,
		Treasury:              p.Treasury,
		StakerTreasury:        p.StakerTreasury,
		ModeratorStakeMinimum: p.ModeratorStakeMinimum,
		StakeToken:            p.StakeToken,
		EscrowExpirySeconds:   uint64(p.EscrowExpirySeconds),
		MaxPeerListLength:     uint64(p.MaxPeerListLength),
		Locked:                p.Locked,
	}
}

// ensureProtocol reconciles the configured protocol record with the persisted
// one. A locked persisted record only accepts an identical configuration; the
// lock itself is one-way, so an unlocked record may adopt any new record,
// locking included.
func ensureProtocol(manager *state.Manager, p config.Protocol) error {
	incoming := mirrorProtocol(p)
	var stored storedProtocol
	found, err := manager.KVGet(protocolKey, &stored)
	if err != nil {
		return fmt.Errorf("load protocol record: %w", err)
	}
	if found && stored.Locked && stored != incoming {
		return ErrProtocolLocked
	}
	if err := manager.KVPut(protocolKey, &incoming); err != nil {
		return fmt.Errorf("persist protocol record: %w", err)
	}
	return nil
}
