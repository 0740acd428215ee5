package moderation

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"swarmpay/core/events"
	"swarmpay/core/state"
	"swarmpay/native/registry"
)

const defaultMaxReasonLength = 200

type engineState interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	Transfer(from, to [20]byte, token string, amount *big.Int) error
}

type collectionDirectory interface {
	Get(id string) (*registry.Collection, bool, error)
	Put(col *registry.Collection) error
}

// Engine runs the moderation workflow: moderator bonds, ticket intake and
// one-shot resolution, including the proportional copyright-claim payout.
type Engine struct {
	state       engineState
	collections collectionDirectory
	emitter     events.Emitter
	nowFn       func() int64

	admin           [20]byte
	stakeToken      string
	stakeMinimum    *big.Int
	treasury        [20]byte
	maxReasonLength int
}

func NewEngine() *Engine {
	return &Engine{
		emitter:         events.NoopEmitter{},
		nowFn:           func() int64 { return time.Now().Unix() },
		stakeMinimum:    big.NewInt(0),
		maxReasonLength: defaultMaxReasonLength,
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetCollections(dir collectionDirectory) { e.collections = dir }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetNowFunc overrides the engine's time source, primarily for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) SetAdmin(admin [20]byte) { e.admin = admin }

func (e *Engine) SetTreasury(addr [20]byte) { e.treasury = addr }

func (e *Engine) SetStakeToken(token string) { e.stakeToken = token }

func (e *Engine) SetStakeMinimum(min *big.Int) {
	if min == nil {
		min = big.NewInt(0)
	}
	e.stakeMinimum = new(big.Int).Set(min)
}

func (e *Engine) SetMaxReasonLength(n int) {
	if n > 0 {
		e.maxReasonLength = n
	}
}

// ModeratorVault derives the module-owned address holding all moderator
// bonds.
func ModeratorVault() [20]byte {
	return state.VaultAddress("moderator-stake", "global")
}

// ClaimVault derives the module-owned address holding a collection's
// copyright-claim reserve.
func ClaimVault(collection string) [20]byte {
	return state.VaultAddress("claim", collection)
}

const (
	ticketPrefix = "moderation/ticket/"
	stakePrefix  = "moderation/stake/"
)

func ticketKey(id string) []byte {
	return []byte(ticketPrefix + id)
}

func stakeKey(moderator [20]byte) []byte {
	return append([]byte(stakePrefix), moderator[:]...)
}

type storedTicket struct {
	ID           string
	Reporter     [20]byte
	Kind         uint8
	Collection   string
	ClaimIndices []uint16
	VideoIndex   uint16
	Reason       string
	CreatedAt    uint64
	Resolved     bool
	Verdict      bool
	Resolver     [20]byte
	HasResolver  bool
}

type storedStake struct {
	Moderator  [20]byte
	Amount     *big.Int
	Active     bool
	SlashCount uint32
}

func (e *Engine) loadTicket(id string) (*Ticket, bool, error) {
	var stored storedTicket
	ok, err := e.state.KVGet(ticketKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &Ticket{
		ID:       stored.ID,
		Reporter: stored.Reporter,
		Target: TicketTarget{
			Kind:         TargetKind(stored.Kind),
			Collection:   stored.Collection,
			ClaimIndices: stored.ClaimIndices,
			VideoIndex:   stored.VideoIndex,
		},
		Reason:      stored.Reason,
		CreatedAt:   int64(stored.CreatedAt),
		Resolved:    stored.Resolved,
		Verdict:     stored.Verdict,
		Resolver:    stored.Resolver,
		HasResolver: stored.HasResolver,
	}, true, nil
}

func (e *Engine) storeTicket(t *Ticket) error {
	return e.state.KVPut(ticketKey(t.ID), &storedTicket{
		ID:           t.ID,
		Reporter:     t.Reporter,
		Kind:         uint8(t.Target.Kind),
		Collection:   t.Target.Collection,
		ClaimIndices: t.Target.ClaimIndices,
		VideoIndex:   t.Target.VideoIndex,
		Reason:       t.Reason,
		CreatedAt:    uint64(t.CreatedAt),
		Resolved:     t.Resolved,
		Verdict:      t.Verdict,
		Resolver:     t.Resolver,
		HasResolver:  t.HasResolver,
	})
}

func (e *Engine) loadStake(moderator [20]byte) (*ModeratorStake, bool, error) {
	var stored storedStake
	ok, err := e.state.KVGet(stakeKey(moderator), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	stake := &ModeratorStake{
		Moderator:  stored.Moderator,
		Active:     stored.Active,
		SlashCount: stored.SlashCount,
		Amount:     big.NewInt(0),
	}
	if stored.Amount != nil {
		stake.Amount.Set(stored.Amount)
	}
	return stake, true, nil
}

func (e *Engine) storeStake(stake *ModeratorStake) error {
	return e.state.KVPut(stakeKey(stake.Moderator), &storedStake{
		Moderator:  stake.Moderator,
		Amount:     stake.Amount,
		Active:     stake.Active,
		SlashCount: stake.SlashCount,
	})
}

func (e *Engine) lookupCollection(id string) (*registry.Collection, error) {
	if e.state == nil || e.collections == nil {
		return nil, ErrNilState
	}
	col, ok, err := e.collections.Get(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCollectionNotFound
	}
	return col, nil
}

// StakeModerator bonds amount of the protocol token. Each individual stake
// must meet the configured minimum; repeat stakes add up and reactivate a
// previously slashed moderator.
func (e *Engine) StakeModerator(moderator [20]byte, amount *big.Int) error {
	if e.state == nil {
		return ErrNilState
	}
	if amount == nil || amount.Cmp(e.stakeMinimum) < 0 {
		return ErrStakeBelowMinimum
	}
	stake, ok, err := e.loadStake(moderator)
	if err != nil {
		return err
	}
	if !ok {
		stake = &ModeratorStake{Moderator: moderator, Amount: big.NewInt(0)}
	}
	if err := e.state.Transfer(moderator, ModeratorVault(), e.stakeToken, amount); err != nil {
		return err
	}
	stake.Amount.Add(stake.Amount, amount)
	stake.Active = true
	if err := e.storeStake(stake); err != nil {
		return err
	}
	e.emitter.Emit(NewModeratorStakedEvent(moderator, amount))
	return nil
}

// SlashModerator zeroes a moderator's bond and deactivates them. Admin only;
// the slashed tokens go to the treasury.
func (e *Engine) SlashModerator(caller, moderator [20]byte) error {
	if e.state == nil {
		return ErrNilState
	}
	if caller != e.admin {
		return ErrUnauthorized
	}
	stake, ok, err := e.loadStake(moderator)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStakeNotFound
	}
	slashed := new(big.Int).Set(stake.Amount)
	if slashed.Sign() > 0 {
		if err := e.state.Transfer(ModeratorVault(), e.treasury, e.stakeToken, slashed); err != nil {
			return err
		}
	}
	stake.Amount = big.NewInt(0)
	stake.Active = false
	stake.SlashCount++
	if err := e.storeStake(stake); err != nil {
		return err
	}
	e.emitter.Emit(NewModeratorSlashedEvent(moderator, slashed, stake.SlashCount))
	return nil
}

// ModeratorState returns a moderator's bond record.
func (e *Engine) ModeratorState(moderator [20]byte) (*ModeratorStake, bool, error) {
	if e.state == nil {
		return nil, false, ErrNilState
	}
	stake, ok, err := e.loadStake(moderator)
	if err != nil || !ok {
		return nil, false, err
	}
	return stake.Clone(), true, nil
}

func (e *Engine) requireModerator(moderator [20]byte) error {
	stake, ok, err := e.loadStake(moderator)
	if err != nil {
		return err
	}
	if !ok || !stake.Active || stake.Amount.Cmp(e.stakeMinimum) < 0 {
		return ErrNotModerator
	}
	return nil
}

// CreateTicket opens a moderation case. Copyright claims are only accepted
// before the collection's claim deadline and with in-range video indices; the
// deadline is not re-checked at resolution time, so a ticket filed in time
// stays resolvable through moderator deliberation.
func (e *Engine) CreateTicket(reporter [20]byte, target TicketTarget, reason string) (*Ticket, error) {
	if len(reason) > e.maxReasonLength {
		return nil, ErrReasonTooLong
	}
	collectionID, err := registry.NormalizeID(target.Collection)
	if err != nil {
		return nil, err
	}
	target.Collection = collectionID
	col, err := e.lookupCollection(collectionID)
	if err != nil {
		return nil, err
	}
	now := e.nowFn()
	switch target.Kind {
	case TargetContentReport:
	case TargetCopyrightClaim:
		if now >= col.ClaimDeadline {
			return nil, ErrDeadlinePassed
		}
		for _, idx := range target.ClaimIndices {
			if idx >= col.TotalVideos {
				return nil, ErrIndexOutOfRange
			}
		}
	case TargetCidCensorship:
		if target.VideoIndex >= col.TotalVideos {
			return nil, ErrIndexOutOfRange
		}
	default:
		return nil, ErrInvalidTarget
	}

	ticket := &Ticket{
		ID:        uuid.NewString(),
		Reporter:  reporter,
		Target:    target,
		Reason:    reason,
		CreatedAt: now,
	}
	if err := e.storeTicket(ticket); err != nil {
		return nil, err
	}
	e.emitter.Emit(NewTicketCreatedEvent(ticket))
	return ticket.Clone(), nil
}

// GetTicket returns a ticket by ID.
func (e *Engine) GetTicket(id string) (*Ticket, bool, error) {
	if e.state == nil {
		return nil, false, ErrNilState
	}
	ticket, ok, err := e.loadTicket(id)
	if err != nil || !ok {
		return nil, false, err
	}
	return ticket.Clone(), true, nil
}

// ResolveTicket records the moderator's verdict and applies the effect the
// target kind calls for. Resolution is one-shot; a resolved ticket can never
// be reopened.
func (e *Engine) ResolveTicket(moderator [20]byte, ticketID string, verdict bool) error {
	if e.state == nil {
		return ErrNilState
	}
	if err := e.requireModerator(moderator); err != nil {
		return err
	}
	ticket, ok, err := e.loadTicket(ticketID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTicketNotFound
	}
	if ticket.Resolved {
		return ErrTicketResolved
	}
	col, err := e.lookupCollection(ticket.Target.Collection)
	if err != nil {
		return err
	}

	ticket.Resolved = true
	ticket.Verdict = verdict
	ticket.Resolver = moderator
	ticket.HasResolver = true

	switch ticket.Target.Kind {
	case TargetContentReport:
		if verdict {
			col.Blacklisted = true
			if err := e.collections.Put(col); err != nil {
				return err
			}
		}
	case TargetCopyrightClaim:
		if verdict {
			if err := e.payClaim(ticket, col); err != nil {
				return err
			}
		}
	case TargetCidCensorship:
		if err := col.SetCensoredBit(ticket.Target.VideoIndex, verdict); err != nil {
			return err
		}
		if err := e.collections.Put(col); err != nil {
			return err
		}
		e.emitter.Emit(NewCidCensorshipEvent(ticket, verdict))
	default:
		return ErrInvalidTarget
	}

	if err := e.storeTicket(ticket); err != nil {
		return err
	}
	e.emitter.Emit(NewTicketResolvedEvent(ticket))
	return nil
}

// payClaim settles an approved copyright claim: every listed index must be
// unclaimed, the payout derives from the mint-time vault snapshot, and the
// bitmap only persists once the transfer has gone through.
func (e *Engine) payClaim(ticket *Ticket, col *registry.Collection) error {
	if !col.TokensMinted || col.ClaimVaultInitialAmount.Sign() <= 0 {
		return ErrNotMinted
	}
	indices := ticket.Target.ClaimIndices
	if len(indices) == 0 {
		return ErrNoClaimIndices
	}
	for _, idx := range indices {
		claimed, err := col.ClaimedBit(idx)
		if err != nil {
			return err
		}
		if claimed {
			return ErrAlreadyClaimed
		}
	}
	if col.TotalVideos == 0 {
		return registry.ErrNoVideos
	}
	perVideo := new(big.Int).Div(col.ClaimVaultInitialAmount, big.NewInt(int64(col.TotalVideos)))
	payout := new(big.Int).Mul(perVideo, big.NewInt(int64(len(indices))))
	if payout.Sign() <= 0 {
		return ErrZeroPayout
	}
	for _, idx := range indices {
		if err := col.SetClaimedBit(idx); err != nil {
			return err
		}
	}
	// The transfer precedes the directory write so a failed payout leaves no
	// bits set.
	if err := e.state.Transfer(ClaimVault(col.ID), ticket.Reporter, col.Token, payout); err != nil {
		return err
	}
	if err := e.collections.Put(col); err != nil {
		return err
	}
	e.emitter.Emit(NewClaimPaidEvent(ticket, payout, len(indices)))
	return nil
}
