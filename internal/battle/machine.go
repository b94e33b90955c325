package battle

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tdmalone/slackemon-sub000/internal/catch"
	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/moves"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/random"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

// PlayerStore is the machine's view of player persistence. SavePlayer
// must reject a write whose Version does not follow the stored record
// with a conflict error.
type PlayerStore interface {
	GetPlayer(id string) (*player.Player, error)
	SavePlayer(p *player.Player) error
}

// BattleStore persists active battles and the completed-battle archive.
// SaveBattle must compare-and-swap on Version; ArchiveBattle removes the
// record from the active set and appends it to the archive, and must
// fail if the record is no longer active.
type BattleStore interface {
	GetBattle(hash string) (*Battle, error)
	SaveBattle(b *Battle) error
	ArchiveBattle(b *Battle) error
	ListActiveBattles() ([]*Battle, error)
}

// InviteStore persists outstanding challenges.
type InviteStore interface {
	GetInvite(hash string) (*Invite, error)
	SaveInvite(i *Invite) error
	DeleteInvite(hash string) error
	ListInvites() ([]*Invite, error)
}

// SpawnStore persists wild-encounter records. SaveSpawn must merge the
// Views map rather than overwrite it whole.
type SpawnStore interface {
	GetSpawn(id string) (*spawn.Spawn, error)
	SaveSpawn(s *spawn.Spawn) error
	DeleteSpawn(id string) error
}

const lockStripes = 64

// Machine orchestrates the battle lifecycle. All mutation of battle,
// player, and spawn records flows through here; the engines it calls
// stay pure. Within a process, operations on the same battle serialize
// on a striped lock keyed by battle hash; across processes the stores'
// version checks reject the loser of a race.
type Machine struct {
	Players PlayerStore
	Battles BattleStore
	Invites InviteStore
	Spawns  SpawnStore
	Loader  *data.Loader
	Notify  Notifier
	Log     zerolog.Logger

	// AIDelay paces the wild opponent's replies so turns read like a
	// conversation. Zero means reply immediately.
	AIDelay time.Duration

	Now func() time.Time

	locks [lockStripes]sync.Mutex
}

// NewMachine wires a machine over the given stores.
func NewMachine(players PlayerStore, battles BattleStore, invites InviteStore, spawns SpawnStore, loader *data.Loader, notify Notifier, log zerolog.Logger) *Machine {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Machine{
		Players: players,
		Battles: battles,
		Invites: invites,
		Spawns:  spawns,
		Loader:  loader,
		Notify:  notify,
		Log:     log,
		Now:     time.Now,
	}
}

func (m *Machine) lock(hash string) func() {
	h := fnv.New32a()
	h.Write([]byte(hash))
	mu := &m.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// Invite creates a challenge from one human to another. Each user may
// hold at most one outstanding invite, in either direction.
func (m *Machine) Invite(inviterID, inviteeID string) (*Invite, error) {
	if inviterID == inviteeID {
		return nil, fmt.Errorf("cannot challenge yourself")
	}
	inviter, err := m.Players.GetPlayer(inviterID)
	if err != nil {
		return nil, err
	}
	if _, err := m.Players.GetPlayer(inviteeID); err != nil {
		return nil, err
	}
	if len(inviter.HealthyTeam()) == 0 {
		return nil, ErrIneligibleRoster
	}

	now := m.Now()
	existing, err := m.Invites.ListInvites()
	if err != nil {
		return nil, err
	}
	for _, inv := range existing {
		if inv.ExpiredAt(now) {
			continue
		}
		for _, id := range []string{inv.InviterID, inv.InviteeID} {
			if id == inviterID || id == inviteeID {
				return nil, ErrInviteExists
			}
		}
	}

	invite := &Invite{
		Hash:      uuid.NewString(),
		InviterID: inviterID,
		InviteeID: inviteeID,
		CreatedAt: now.Unix(),
	}
	if err := m.Invites.SaveInvite(invite); err != nil {
		return nil, err
	}
	m.Log.Info().Str("invite", invite.Hash).Str("from", inviterID).Str("to", inviteeID).Msg("battle invite sent")
	m.Notify.Notify(inviteeID, &InviteSentEvent{Invite: invite})
	return invite, nil
}

// CancelInvite withdraws a challenge. Only the inviter may cancel.
func (m *Machine) CancelInvite(hash, actorID string) error {
	invite, err := m.Invites.GetInvite(hash)
	if err != nil {
		return ErrNotFound
	}
	if invite.InviterID != actorID {
		return fmt.Errorf("only the challenger can withdraw invite %s", hash)
	}
	if err := m.Invites.DeleteInvite(hash); err != nil {
		return err
	}
	m.Notify.Notify(invite.InviteeID, &InviteCancelledEvent{Invite: invite})
	return nil
}

// DeclineInvite turns a challenge down. Only the invitee may decline.
func (m *Machine) DeclineInvite(hash, actorID string) error {
	invite, err := m.Invites.GetInvite(hash)
	if err != nil {
		return ErrNotFound
	}
	if invite.InviteeID != actorID {
		return fmt.Errorf("only the challenged user can decline invite %s", hash)
	}
	if err := m.Invites.DeleteInvite(hash); err != nil {
		return err
	}
	m.Notify.Notify(invite.InviterID, &InviteDeclinedEvent{Invite: invite})
	return nil
}

// AcceptInvite starts a player-versus-player battle from a challenge.
// The accepter moves first. Both rosters are re-checked at accept time;
// a side that can no longer field a healthy team aborts the battle
// before any state is created.
func (m *Machine) AcceptInvite(hash, actorID string) (*Battle, error) {
	invite, err := m.Invites.GetInvite(hash)
	if err != nil {
		return nil, ErrNotFound
	}
	if invite.InviteeID != actorID {
		return nil, fmt.Errorf("invite %s is not addressed to %s", hash, actorID)
	}
	now := m.Now()
	if invite.ExpiredAt(now) {
		_ = m.Invites.DeleteInvite(hash)
		m.Notify.Notify(invite.InviterID, &InviteExpiredEvent{Invite: invite})
		return nil, ErrNotFound
	}

	inviter, err := m.Players.GetPlayer(invite.InviterID)
	if err != nil {
		return nil, err
	}
	invitee, err := m.Players.GetPlayer(invite.InviteeID)
	if err != nil {
		return nil, err
	}
	for _, p := range []*player.Player{inviter, invitee} {
		if len(p.HealthyTeam()) == 0 {
			_ = m.Invites.DeleteInvite(hash)
			m.Log.Warn().Str("invite", hash).Str("player", p.ID).Msg("battle aborted: ineligible roster")
			return nil, fmt.Errorf("%w: %s", ErrIneligibleRoster, p.ID)
		}
	}

	b := &Battle{
		Hash:      uuid.NewString(),
		Type:      TypeP2P,
		CreatedAt: now.Unix(),
		LastMove:  now.Unix(),
	}
	b.Sides[0] = newSide(Participant{Kind: KindHuman, UserID: inviter.ID}, inviter.HealthyTeam(), inviter.LeaderTs, b.CreatedAt)
	b.Sides[1] = newSide(Participant{Kind: KindHuman, UserID: invitee.ID}, invitee.HealthyTeam(), invitee.LeaderTs, b.CreatedAt)
	b.Turn = invitee.ID

	if err := m.Invites.DeleteInvite(hash); err != nil {
		return nil, err
	}
	for _, p := range []*player.Player{inviter, invitee} {
		p.Status = player.StatusInBattle
		p.Version++
		if err := m.Players.SavePlayer(p); err != nil {
			return nil, err
		}
	}
	b.Version++
	if err := m.Battles.SaveBattle(b); err != nil {
		return nil, err
	}

	m.Log.Info().Str("battle", b.Hash).Str("inviter", inviter.ID).Str("invitee", invitee.ID).Msg("p2p battle started")
	m.Notify.Notify(inviter.ID, &InviteAcceptedEvent{Invite: invite, Battle: b})
	m.Notify.Notify(inviter.ID, &BattleStartedEvent{Battle: b, Opponent: invitee.ID})
	m.Notify.Notify(invitee.ID, &BattleStartedEvent{Battle: b, Opponent: inviter.ID})
	return b, nil
}

// StartWild opens a battle between a user's team and a spawn. The wild
// side acts first, so the opening AI move resolves before this returns.
func (m *Machine) StartWild(userID, spawnID string) (*Battle, error) {
	p, err := m.Players.GetPlayer(userID)
	if err != nil {
		return nil, err
	}
	if len(p.HealthyTeam()) == 0 {
		return nil, ErrIneligibleRoster
	}
	sp, err := m.Spawns.GetSpawn(spawnID)
	if err != nil {
		return nil, ErrNotFound
	}
	now := m.Now()
	if sp.Expired(now) {
		return nil, ErrNotFound
	}
	species, err := m.Loader.Species(sp.Species)
	if err != nil {
		return nil, err
	}
	view, err := sp.ViewFor(p, species, m.Loader)
	if err != nil {
		return nil, err
	}

	b := &Battle{
		Hash:      uuid.NewString(),
		Type:      TypeWild,
		CreatedAt: now.Unix(),
		LastMove:  now.Unix(),
	}
	b.Sides[0] = newSide(Participant{Kind: KindHuman, UserID: p.ID}, p.HealthyTeam(), p.LeaderTs, b.CreatedAt)

	wild := view.Clone()
	wild.Ts = "wild-" + sp.ID
	wild.LastBattle = b.CreatedAt
	b.Sides[1] = &Side{
		Participant: Participant{Kind: KindWild, SpawnID: sp.ID},
		Roster:      []*player.Pokemon{wild},
		ActiveTs:    wild.Ts,
		SwapsLeft:   0,
	}
	b.Turn = sp.ID

	p.Status = player.StatusInBattle
	p.Version++
	if err := m.Players.SavePlayer(p); err != nil {
		return nil, err
	}
	sp.Version++
	if err := m.Spawns.SaveSpawn(sp); err != nil {
		return nil, err
	}
	// Persist before the opening AI turn: settlement archives the active
	// record, so a wild that bolts straight away needs one to exist.
	b.Version++
	if err := m.Battles.SaveBattle(b); err != nil {
		return nil, err
	}

	m.Log.Info().Str("battle", b.Hash).Str("user", userID).Str("spawn", spawnID).Msg("wild battle started")
	m.Notify.Notify(p.ID, &BattleStartedEvent{Battle: b, Opponent: wild.Species})

	// Opening move belongs to the wild side.
	if err := m.aiAct(b); err != nil {
		return nil, err
	}
	// The opening turn can end the battle outright (the wild fled).
	if _, err := m.Battles.GetBattle(b.Hash); err != nil {
		return b, nil
	}
	b.Version++
	if err := m.Battles.SaveBattle(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Move applies one named move by the given participant. A request out of
// turn returns ErrInvalidTurn with the battle record untouched; callers
// drop it without a visible reply.
func (m *Machine) Move(hash, actorKey, moveName string) error {
	unlock := m.lock(hash)
	defer unlock()

	b, err := m.Battles.GetBattle(hash)
	if err != nil {
		return ErrNotFound
	}
	if b.Turn != actorKey {
		m.Log.Debug().Str("battle", hash).Str("actor", actorKey).Msg("move out of turn, dropped")
		return ErrInvalidTurn
	}
	side := b.SideFor(actorKey)
	if side == nil {
		return ErrInvalidTurn
	}
	if active := side.Active(); active == nil || active.Fainted() {
		return fmt.Errorf("active Pokémon has fainted; swap before moving")
	}

	if err := m.applyMove(b, side, moveName); err != nil {
		return err
	}

	// A wiped human side in any battle settles immediately. A wiped wild
	// side waits for the user's completion action (catch or end).
	if opp := b.Opponent(actorKey); opp.Wiped() && opp.Participant.Human() {
		return m.complete(b, actorKey, false)
	}

	// The wild side answers in the same call unless it has already lost.
	if b.Type == TypeWild && b.SideFor(b.Turn) != nil && !b.SideFor(b.Turn).Participant.Human() && !b.SideFor(b.Turn).Wiped() {
		if m.AIDelay > 0 {
			time.Sleep(m.AIDelay)
		}
		if err := m.aiAct(b); err != nil {
			return err
		}
		// aiAct may have ended the battle (wild fled).
		if _, err := m.Battles.GetBattle(hash); err != nil {
			return nil
		}
		if humanSide := b.SideFor(actorKey); humanSide.Wiped() {
			return m.complete(b, b.Opponent(actorKey).Participant.Key(), false)
		}
	}

	b.Version++
	return m.Battles.SaveBattle(b)
}

// Swap changes a side's active combatant. A voluntary swap spends one
// unit of the swap budget and does not hand the turn over; a forced swap
// after a faint is free but consumes the turn.
func (m *Machine) Swap(hash, actorKey, ts string) error {
	unlock := m.lock(hash)
	defer unlock()

	b, err := m.Battles.GetBattle(hash)
	if err != nil {
		return ErrNotFound
	}
	if b.Turn != actorKey {
		return ErrInvalidTurn
	}
	side := b.SideFor(actorKey)
	if side == nil {
		return ErrInvalidTurn
	}

	var target *player.Pokemon
	for _, pk := range side.Roster {
		if pk.Ts == ts {
			target = pk
		}
	}
	if target == nil || target.Fainted() || target.Ts == side.ActiveTs {
		return fmt.Errorf("cannot swap to %s", ts)
	}

	forced := side.Active() == nil || side.Active().Fainted()
	if !forced {
		if side.SwapsLeft <= 0 {
			return fmt.Errorf("no swaps remaining")
		}
		side.SwapsLeft--
	}

	side.ActiveTs = target.Ts
	target.LastBattle = b.CreatedAt
	now := m.Now()
	b.LastMove = now.Unix()
	if forced {
		b.Turn = b.Opponent(actorKey).Participant.Key()
	}

	evt := &SwappedEvent{Battle: b, ByUser: actorKey, In: target.Species, Forced: forced}
	for _, s := range b.Sides {
		if s.Participant.Human() {
			m.Notify.Notify(s.Participant.UserID, evt)
		}
	}

	// A forced swap hands the turn to the wild side, which replies now.
	if forced && b.Type == TypeWild {
		if m.AIDelay > 0 {
			time.Sleep(m.AIDelay)
		}
		if err := m.aiAct(b); err != nil {
			return err
		}
		if _, err := m.Battles.GetBattle(hash); err != nil {
			return nil
		}
		if side.Wiped() {
			return m.complete(b, b.Opponent(actorKey).Participant.Key(), false)
		}
	}

	b.Version++
	return m.Battles.SaveBattle(b)
}

// Flee abandons a wild battle. It settles as a loss; the spawn survives.
func (m *Machine) Flee(hash, userID string) error {
	unlock := m.lock(hash)
	defer unlock()

	b, err := m.Battles.GetBattle(hash)
	if err != nil {
		return ErrNotFound
	}
	if b.Type != TypeWild {
		return fmt.Errorf("cannot flee a trainer battle")
	}
	side := b.SideFor(userID)
	if side == nil || !side.Participant.Human() {
		return ErrNotFound
	}
	return m.complete(b, b.Opponent(userID).Participant.Key(), false)
}

// Complete acknowledges a decided battle and runs settlement. For a wild
// battle the user has won, the defeated spawn is caught with a forced
// success and the catch outcome is returned.
func (m *Machine) Complete(hash, userID string) (*catch.Outcome, error) {
	unlock := m.lock(hash)
	defer unlock()

	b, err := m.Battles.GetBattle(hash)
	if err != nil {
		return nil, ErrNotFound
	}
	side := b.SideFor(userID)
	if side == nil {
		return nil, ErrNotFound
	}
	opp := b.Opponent(userID)

	switch {
	case opp.Wiped():
		var outcome *catch.Outcome
		if b.Type == TypeWild {
			outcome, err = m.catchDefeated(b, userID, opp)
			if err != nil {
				return nil, err
			}
		}
		if err := m.complete(b, userID, false); err != nil {
			return nil, err
		}
		return outcome, nil
	case side.Wiped():
		return nil, m.complete(b, opp.Participant.Key(), false)
	default:
		return nil, fmt.Errorf("battle %s is still in progress", hash)
	}
}

// catchDefeated throws at the beaten wild Pokémon with the outcome
// forced by the win.
func (m *Machine) catchDefeated(b *Battle, userID string, wildSide *Side) (*catch.Outcome, error) {
	sp, err := m.Spawns.GetSpawn(wildSide.Participant.SpawnID)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := m.Players.GetPlayer(userID)
	if err != nil {
		return nil, err
	}

	// Carry the battle damage onto the spawn view so the caught instance
	// keeps it.
	wild := wildSide.Active()
	if wild == nil {
		wild = wildSide.Roster[0]
	}
	merged := wild.Clone()
	merged.Ts = ""
	sp.Views[userID] = merged

	forced := true
	outcome, err := catch.Resolve(catch.Attempt{
		Spawn:      sp,
		At:         m.Now(),
		InBattle:   true,
		HPFraction: hpFraction(wild),
		Forced:     &forced,
	}, p)
	if err != nil {
		return nil, err
	}
	p.Version++
	if err := m.Players.SavePlayer(p); err != nil {
		return nil, err
	}
	sp.Version++
	if err := m.Spawns.SaveSpawn(sp); err != nil {
		return nil, err
	}
	return outcome, nil
}

// Throw resolves a mid-battle catch attempt against the wild side's
// remaining HP. A successful throw ends the battle in the user's favor.
func (m *Machine) Throw(hash, userID string) (*catch.Outcome, error) {
	unlock := m.lock(hash)
	defer unlock()

	b, err := m.Battles.GetBattle(hash)
	if err != nil {
		return nil, ErrNotFound
	}
	if b.Type != TypeWild {
		return nil, fmt.Errorf("can only throw at wild Pokémon")
	}
	if b.Turn != userID {
		return nil, ErrInvalidTurn
	}
	wildSide := b.Opponent(userID)
	wild := wildSide.Active()
	if wild == nil {
		return nil, ErrNotFound
	}

	sp, err := m.Spawns.GetSpawn(wildSide.Participant.SpawnID)
	if err != nil {
		return nil, ErrNotFound
	}
	p, err := m.Players.GetPlayer(userID)
	if err != nil {
		return nil, err
	}

	merged := wild.Clone()
	merged.Ts = ""
	sp.Views[userID] = merged

	outcome, err := catch.Resolve(catch.Attempt{
		Spawn:      sp,
		At:         m.Now(),
		InBattle:   true,
		HPFraction: hpFraction(wild),
	}, p)
	if err != nil {
		return nil, err
	}
	p.Version++
	if err := m.Players.SavePlayer(p); err != nil {
		return nil, err
	}
	sp.Version++
	if err := m.Spawns.SaveSpawn(sp); err != nil {
		return nil, err
	}

	if outcome.Success {
		return outcome, m.complete(b, userID, false)
	}

	// A failed throw spends the turn; the wild side replies.
	b.Turn = wildSide.Participant.Key()
	b.LastMove = m.Now().Unix()
	if m.AIDelay > 0 {
		time.Sleep(m.AIDelay)
	}
	if err := m.aiAct(b); err != nil {
		return outcome, err
	}
	if _, err := m.Battles.GetBattle(hash); err != nil {
		return outcome, nil
	}
	if b.SideFor(userID).Wiped() {
		return outcome, m.complete(b, wildSide.Participant.Key(), false)
	}
	b.Version++
	return outcome, m.Battles.SaveBattle(b)
}

// Sweep times out stale battles and expired invites. A battle whose turn
// holder has been silent past TurnTimeout counts as that side's loss.
// Settlement archives the record, so repeated sweeps are no-ops.
func (m *Machine) Sweep(now time.Time) error {
	active, err := m.Battles.ListActiveBattles()
	if err != nil {
		return err
	}
	for _, b := range active {
		if now.Sub(time.Unix(b.LastMove, 0)) <= TurnTimeout {
			continue
		}
		unlock := m.lock(b.Hash)
		fresh, err := m.Battles.GetBattle(b.Hash)
		if err != nil {
			unlock()
			continue // already settled elsewhere
		}
		loser := fresh.SideFor(fresh.Turn)
		winner := fresh.Opponent(fresh.Turn)
		// Only a human sitting on their own turn times out. A wild side
		// still holding the turn past the window means it was wiped and
		// the user walked away without claiming the win; that settles in
		// the human's favor. Anything else waits for the AI reply path.
		if !loser.Participant.Human() && !loser.Wiped() {
			unlock()
			continue
		}
		m.Log.Info().Str("battle", fresh.Hash).Str("loser", loser.Participant.Key()).Msg("battle timed out")
		if err := m.completeTimedOut(fresh, winner.Participant.Key()); err != nil {
			unlock()
			return err
		}
		unlock()
	}

	invites, err := m.Invites.ListInvites()
	if err != nil {
		return err
	}
	for _, inv := range invites {
		if !inv.ExpiredAt(now) {
			continue
		}
		if err := m.Invites.DeleteInvite(inv.Hash); err != nil {
			continue
		}
		m.Notify.Notify(inv.InviterID, &InviteExpiredEvent{Invite: inv})
		m.Notify.Notify(inv.InviteeID, &InviteExpiredEvent{Invite: inv})
	}
	return nil
}

// applyMove resolves one move and mutates the battle copies: damage, PP,
// drain or heal, faint penalty, and the turn flip.
func (m *Machine) applyMove(b *Battle, side *Side, moveName string) error {
	attacker := side.Active()
	oppSide := b.Opponent(side.Participant.Key())
	defender := oppSide.Active()
	if defender == nil {
		return fmt.Errorf("opponent has no active Pokémon")
	}

	known, pp := m.knownMoves(attacker)
	move, consume := moves.Pick(moveName, known, pp)

	attackerSpecies, err := m.Loader.Species(attacker.Species)
	if err != nil {
		return err
	}
	defenderSpecies, err := m.Loader.Species(defender.Species)
	if err != nil {
		return err
	}

	var relations *data.TypeRelations
	if move.Type != "" {
		relations, err = m.Loader.Type(move.Type)
		if err != nil {
			return err
		}
	}

	attackStat, defenseStat := "attack", "defense"
	if move.DamageClass == "special" {
		attackStat, defenseStat = "special-attack", "special-defense"
	}

	res := moves.Resolve(move, moves.Context{
		Level:         attacker.Level,
		AttackStat:    attacker.Stats[attackStat],
		DefenseStat:   defender.Stats[defenseStat],
		UserTypes:     attackerSpecies.Types,
		UserMaxHP:     attacker.MaxHP(),
		DefenderTypes: defenderSpecies.Types,
		DefenderMaxHP: defender.MaxHP(),
		Relations:     relations,
		Inverse:       b.Inverse,
	})

	defender.SetHP(defender.HP - res.Damage)
	if res.UserHPDelta != 0 {
		attacker.SetHP(attacker.HP + res.UserHPDelta)
	}
	if consume {
		if slot := attacker.Move(move.Name); slot != nil && slot.PP > 0 {
			slot.PP--
		}
	}
	if defender.Fainted() {
		defender.AddHappiness(-5)
	}

	b.Turn = oppSide.Participant.Key()
	b.LastMove = m.Now().Unix()

	evt := &TurnChangedEvent{
		Battle:   b,
		Attacker: attacker.Species,
		Defender: defender.Species,
		Move:     move.Name,
		Damage:   res.Damage,
		Percent:  float64(res.Percent),
		Verdict:  effectivenessVerdict(res.Effectiveness),
		Fainted:  defender.Fainted(),
		NextTurn: b.Turn,
	}
	for _, s := range b.Sides {
		if s.Participant.Human() {
			m.Notify.Notify(s.Participant.UserID, evt)
		}
	}
	return nil
}

// knownMoves resolves a combatant's move slots against reference data.
// Slots whose move the dataset no longer carries are skipped rather than
// failing the whole turn.
func (m *Machine) knownMoves(pk *player.Pokemon) ([]*data.Move, map[string]int) {
	known := make([]*data.Move, 0, len(pk.Moves))
	pp := make(map[string]int, len(pk.Moves))
	for _, slot := range pk.Moves {
		mv, err := m.Loader.Move(slot.Name)
		if err != nil {
			continue
		}
		known = append(known, mv)
		pp[mv.Name] = slot.PP
	}
	return known, pp
}

// newSide snapshots a roster into a battle side. The designated leader
// opens when one is set and healthy; otherwise the opener is drawn at
// random from the snapshot. The opener is marked as a participant
// straight away; bench members earn it when they are swapped in.
func newSide(p Participant, roster []*player.Pokemon, leaderTs string, battleTs int64) *Side {
	copies := make([]*player.Pokemon, 0, len(roster))
	for _, pk := range roster {
		copies = append(copies, pk.Clone())
	}
	side := &Side{
		Participant: p,
		Roster:      copies,
		SwapsLeft:   MaxSwaps,
	}
	if len(copies) > 0 {
		idx := 0
		if len(copies) > 1 && (leaderTs == "" || copies[0].Ts != leaderTs) {
			idx = random.Int(1, len(copies)) - 1
		}
		side.ActiveTs = copies[idx].Ts
		copies[idx].LastBattle = battleTs
	}
	return side
}

func hpFraction(pk *player.Pokemon) float64 {
	max := pk.MaxHP()
	if max <= 0 {
		return 1
	}
	return float64(pk.HP) / float64(max)
}
