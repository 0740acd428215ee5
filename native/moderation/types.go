package moderation

import "math/big"

// TargetKind discriminates what a moderation ticket is about.
type TargetKind uint8

const (
	// TargetContentReport flags illegal or TOS-violating content; approval
	// blacklists the collection.
	TargetContentReport TargetKind = iota + 1
	// TargetCopyrightClaim disputes ownership of listed video indices;
	// approval pays the claimant proportionally out of the claim vault.
	TargetCopyrightClaim
	// TargetCidCensorship censors (or un-censors) a single video index.
	TargetCidCensorship
)

func (k TargetKind) String() string {
	switch k {
	case TargetContentReport:
		return "content_report"
	case TargetCopyrightClaim:
		return "copyright_claim"
	case TargetCidCensorship:
		return "cid_censorship"
	default:
		return "unknown"
	}
}

// TicketTarget is the tagged target of a ticket. Only the fields relevant to
// the kind are meaningful.
type TicketTarget struct {
	Kind         TargetKind
	Collection   string
	ClaimIndices []uint16
	VideoIndex   uint16
}

// ContentReportTarget builds a content-report target.
func ContentReportTarget(collection string) TicketTarget {
	return TicketTarget{Kind: TargetContentReport, Collection: collection}
}

// CopyrightClaimTarget builds a copyright-claim target over the listed video
// indices.
func CopyrightClaimTarget(collection string, indices []uint16) TicketTarget {
	return TicketTarget{
		Kind:         TargetCopyrightClaim,
		Collection:   collection,
		ClaimIndices: append([]uint16(nil), indices...),
	}
}

// CidCensorshipTarget builds a censorship target for one video index.
func CidCensorshipTarget(collection string, videoIndex uint16) TicketTarget {
	return TicketTarget{Kind: TargetCidCensorship, Collection: collection, VideoIndex: videoIndex}
}

// Ticket is one moderation case. Resolution is one-shot; the verdict and
// resolver are recorded permanently.
type Ticket struct {
	ID          string
	Reporter    [20]byte
	Target      TicketTarget
	Reason      string
	CreatedAt   int64
	Resolved    bool
	Verdict     bool
	Resolver    [20]byte
	HasResolver bool
}

// Clone returns a deep copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Target.ClaimIndices = append([]uint16(nil), t.Target.ClaimIndices...)
	return &clone
}

// ModeratorStake is a moderator's protocol-token bond. Slashing zeroes the
// bond and deactivates the moderator.
type ModeratorStake struct {
	Moderator  [20]byte
	Amount     *big.Int
	Active     bool
	SlashCount uint32
}

// Clone returns a deep copy of the stake record.
func (s *ModeratorStake) Clone() *ModeratorStake {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Amount = big.NewInt(0)
	if s.Amount != nil {
		clone.Amount.Set(s.Amount)
	}
	return &clone
}
