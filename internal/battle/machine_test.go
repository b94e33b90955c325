package battle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/random"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
	"github.com/tdmalone/slackemon-sub000/internal/stats"
)

// memStore backs all four store interfaces for tests.
type memStore struct {
	players  map[string]*player.Player
	battles  map[string]*Battle
	archived []*Battle
	invites  map[string]*Invite
	spawns   map[string]*spawn.Spawn
}

func newMemStore() *memStore {
	return &memStore{
		players: make(map[string]*player.Player),
		battles: make(map[string]*Battle),
		invites: make(map[string]*Invite),
		spawns:  make(map[string]*spawn.Spawn),
	}
}

func (s *memStore) GetPlayer(id string) (*player.Player, error) {
	p, ok := s.players[id]
	if !ok {
		return nil, fmt.Errorf("player %s: %w", id, ErrNotFound)
	}
	return p, nil
}
func (s *memStore) SavePlayer(p *player.Player) error { s.players[p.ID] = p; return nil }

func (s *memStore) GetBattle(hash string) (*Battle, error) {
	b, ok := s.battles[hash]
	if !ok {
		return nil, fmt.Errorf("battle %s: %w", hash, ErrNotFound)
	}
	return b, nil
}
func (s *memStore) SaveBattle(b *Battle) error { s.battles[b.Hash] = b; return nil }
func (s *memStore) ArchiveBattle(b *Battle) error {
	if _, ok := s.battles[b.Hash]; !ok {
		return fmt.Errorf("battle %s: %w", b.Hash, ErrNotFound)
	}
	delete(s.battles, b.Hash)
	s.archived = append(s.archived, b)
	return nil
}
func (s *memStore) ListActiveBattles() ([]*Battle, error) {
	out := make([]*Battle, 0, len(s.battles))
	for _, b := range s.battles {
		out = append(out, b)
	}
	return out, nil
}

func (s *memStore) GetInvite(hash string) (*Invite, error) {
	i, ok := s.invites[hash]
	if !ok {
		return nil, fmt.Errorf("invite %s: %w", hash, ErrNotFound)
	}
	return i, nil
}
func (s *memStore) SaveInvite(i *Invite) error   { s.invites[i.Hash] = i; return nil }
func (s *memStore) DeleteInvite(hash string) error {
	delete(s.invites, hash)
	return nil
}
func (s *memStore) ListInvites() ([]*Invite, error) {
	out := make([]*Invite, 0, len(s.invites))
	for _, i := range s.invites {
		out = append(out, i)
	}
	return out, nil
}

func (s *memStore) GetSpawn(id string) (*spawn.Spawn, error) {
	sp, ok := s.spawns[id]
	if !ok {
		return nil, fmt.Errorf("spawn %s: %w", id, ErrNotFound)
	}
	return sp, nil
}
func (s *memStore) SaveSpawn(sp *spawn.Spawn) error { s.spawns[sp.ID] = sp; return nil }
func (s *memStore) DeleteSpawn(id string) error     { delete(s.spawns, id); return nil }

// recorder captures outbound events per recipient.
type recorder struct {
	events map[string][]Event
}

func newRecorder() *recorder { return &recorder{events: make(map[string][]Event)} }

func (r *recorder) Notify(userID string, evt Event) {
	r.events[userID] = append(r.events[userID], evt)
}

func (r *recorder) ofType(userID string, t EventType) []Event {
	var out []Event
	for _, e := range r.events[userID] {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

func writeFixture(t *testing.T, dir, ref, content string) {
	t.Helper()
	path := filepath.Join(dir, ref)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func fixtureLoader(t *testing.T) *data.Loader {
	t.Helper()
	dir := t.TempDir()

	writeFixture(t, dir, "species/pidgey.yaml", `
id: 16
index: pidgey
name: Pidgey
types: [normal, flying]
base_experience: 64
growth_rate: medium
stats:
  - {name: hp, base: 40}
  - {name: attack, base: 45}
  - {name: defense, base: 40}
  - {name: special-attack, base: 35}
  - {name: special-defense, base: 35}
  - {name: speed, base: 56, effort: 1}
moves: [tackle, gust]
`)
	writeFixture(t, dir, "species/machop.yaml", `
id: 66
index: machop
name: Machop
types: [fighting]
base_experience: 61
growth_rate: medium
stats:
  - {name: hp, base: 70}
  - {name: attack, base: 80, effort: 1}
  - {name: defense, base: 50}
  - {name: special-attack, base: 35}
  - {name: special-defense, base: 35}
  - {name: speed, base: 35}
moves: [tackle, karate-chop]
`)
	writeFixture(t, dir, "moves/tackle.yaml", `
id: 33
index: tackle
name: Tackle
power: 40
pp: 35
type: normal
damage_class: physical
`)
	writeFixture(t, dir, "moves/karate-chop.yaml", `
id: 2
index: karate-chop
name: Karate Chop
power: 50
pp: 25
type: fighting
damage_class: physical
`)
	writeFixture(t, dir, "moves/gust.yaml", `
id: 16
index: gust
name: Gust
power: 40
pp: 35
type: flying
damage_class: special
`)
	writeFixture(t, dir, "types/normal.yaml", "no_damage_to: [ghost]\n")
	writeFixture(t, dir, "types/fighting.yaml", "double_damage_to: [normal]\n")
	writeFixture(t, dir, "types/flying.yaml", "half_damage_to: [rock]\n")
	return data.NewLoader([]string{dir})
}

func trainer(t *testing.T, loader *data.Loader, id string, level float64) *player.Player {
	t.Helper()
	species, err := loader.Species("machop")
	require.NoError(t, err)

	pk := &player.Pokemon{
		Ts: id + "-1", SpeciesID: 66, Species: "machop",
		Level: level, Nature: "hardy",
		XP:  stats.XPForLevel("medium", level),
		IVs: player.EVSpread{}, EVs: player.EVSpread{},
		OnTeam: true, Happiness: 70,
		Moves: []player.MoveSlot{
			{Name: "Tackle", PP: 35, MaxPP: 35},
			{Name: "Karate Chop", PP: 25, MaxPP: 25},
		},
	}
	pk.Recompute(species)

	p := player.New(id, "kanto")
	p.Pokemon = []*player.Pokemon{pk}
	return p
}

func wildPidgey(t *testing.T, loader *data.Loader, level float64) *player.Pokemon {
	t.Helper()
	species, err := loader.Species("pidgey")
	require.NoError(t, err)

	pk := &player.Pokemon{
		SpeciesID: 16, Species: "pidgey",
		Level: level, Nature: "hardy",
		XP:  stats.XPForLevel("medium", level),
		IVs: player.EVSpread{}, EVs: player.EVSpread{},
		Happiness: 70,
		Moves: []player.MoveSlot{
			{Name: "Tackle", PP: 35, MaxPP: 35},
			{Name: "Gust", PP: 35, MaxPP: 35},
		},
	}
	pk.Recompute(species)
	return pk
}

func newTestMachine(t *testing.T) (*Machine, *memStore, *recorder) {
	t.Helper()
	ms := newMemStore()
	rec := newRecorder()
	m := NewMachine(ms, ms, ms, ms, fixtureLoader(t), rec, zerolog.Nop())
	return m, ms, rec
}

// wildBattle assembles an in-progress wild battle directly, bypassing
// StartWild so tests control the opening state.
func wildBattle(t *testing.T, m *Machine, ms *memStore, human *player.Player, wild *player.Pokemon, turn string) (*Battle, *spawn.Spawn) {
	t.Helper()
	now := m.Now()
	sp := &spawn.Spawn{
		ID: "321-kanto", SpeciesID: 16, Species: "pidgey", Region: "kanto",
		CreatedAt: now.Add(-2 * time.Minute).Unix(),
		Trigger:   spawn.Trigger{Type: "timed"},
		Views:     map[string]*player.Pokemon{human.ID: wild.Clone()},
	}
	ms.spawns[sp.ID] = sp

	b := &Battle{
		Hash: "battle-1", Type: TypeWild,
		CreatedAt: now.Unix(), LastMove: now.Unix(),
	}
	b.Sides[0] = newSide(Participant{Kind: KindHuman, UserID: human.ID}, human.HealthyTeam(), human.LeaderTs, b.CreatedAt)
	wc := wild.Clone()
	wc.Ts = "wild-" + sp.ID
	wc.LastBattle = b.CreatedAt
	b.Sides[1] = &Side{
		Participant: Participant{Kind: KindWild, SpawnID: sp.ID},
		Roster:      []*player.Pokemon{wc},
		ActiveTs:    wc.Ts,
	}
	b.Turn = turn
	ms.battles[b.Hash] = b
	human.Status = player.StatusInBattle
	return b, sp
}

func TestInviteLifecycle(t *testing.T) {
	m, ms, rec := newTestMachine(t)
	ms.players["U1"] = trainer(t, m.Loader, "U1", 10)
	ms.players["U2"] = trainer(t, m.Loader, "U2", 10)
	ms.players["U3"] = trainer(t, m.Loader, "U3", 10)

	inv, err := m.Invite("U1", "U2")
	require.NoError(t, err)
	assert.Len(t, rec.ofType("U2", EventInviteSent), 1)

	// One outstanding invite per user, in either direction.
	_, err = m.Invite("U3", "U1")
	assert.ErrorIs(t, err, ErrInviteExists)
	_, err = m.Invite("U2", "U3")
	assert.ErrorIs(t, err, ErrInviteExists)

	require.NoError(t, m.DeclineInvite(inv.Hash, "U2"))
	assert.Empty(t, ms.invites)
	assert.Len(t, rec.ofType("U1", EventInviteDeclined), 1)

	inv, err = m.Invite("U1", "U2")
	require.NoError(t, err)
	assert.Error(t, m.CancelInvite(inv.Hash, "U2")) // only the challenger
	require.NoError(t, m.CancelInvite(inv.Hash, "U1"))
	assert.Len(t, rec.ofType("U2", EventInviteCancelled), 1)
}

func TestAcceptStartsBattle(t *testing.T) {
	m, ms, rec := newTestMachine(t)
	ms.players["U1"] = trainer(t, m.Loader, "U1", 10)
	ms.players["U2"] = trainer(t, m.Loader, "U2", 10)

	inv, err := m.Invite("U1", "U2")
	require.NoError(t, err)

	b, err := m.AcceptInvite(inv.Hash, "U2")
	require.NoError(t, err)

	assert.Equal(t, "U2", b.Turn, "the accepter moves first")
	assert.Equal(t, TypeP2P, b.Type)
	assert.Empty(t, ms.invites)
	assert.Equal(t, player.StatusInBattle, ms.players["U1"].Status)
	assert.Equal(t, player.StatusInBattle, ms.players["U2"].Status)
	assert.Len(t, rec.ofType("U1", EventInviteAccepted), 1)

	// Rosters are snapshots: damaging the live instance does not reach
	// the battle copy.
	ms.players["U1"].Pokemon[0].SetHP(1)
	assert.Equal(t, b.SideFor("U1").Active().MaxHP(), b.SideFor("U1").Active().HP)
}

func TestAcceptRejectsIneligibleRoster(t *testing.T) {
	m, ms, _ := newTestMachine(t)
	ms.players["U1"] = trainer(t, m.Loader, "U1", 10)
	ms.players["U2"] = trainer(t, m.Loader, "U2", 10)

	inv, err := m.Invite("U1", "U2")
	require.NoError(t, err)

	ms.players["U2"].Pokemon[0].HP = 0
	_, err = m.AcceptInvite(inv.Hash, "U2")
	assert.ErrorIs(t, err, ErrIneligibleRoster)
	assert.Empty(t, ms.invites)
	assert.Empty(t, ms.battles)
}

func TestOutOfTurnMoveLeavesRecordUntouched(t *testing.T) {
	m, ms, rec := newTestMachine(t)
	ms.players["U1"] = trainer(t, m.Loader, "U1", 10)
	ms.players["U2"] = trainer(t, m.Loader, "U2", 10)

	inv, err := m.Invite("U1", "U2")
	require.NoError(t, err)
	b, err := m.AcceptInvite(inv.Hash, "U2")
	require.NoError(t, err)

	before, err := json.Marshal(b)
	require.NoError(t, err)
	turns := len(rec.ofType("U1", EventTurnChanged))

	err = m.Move(b.Hash, "U1", "Tackle") // U2's turn
	assert.ErrorIs(t, err, ErrInvalidTurn)

	after, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "rejected turn must not mutate the record")
	assert.Len(t, rec.ofType("U1", EventTurnChanged), turns, "rejected turn must not notify")
}

func TestMoveResolvesDamageAndFlipsTurn(t *testing.T) {
	random.Mock([]int{100})
	defer random.ResetMock()

	m, ms, rec := newTestMachine(t)
	ms.players["U1"] = trainer(t, m.Loader, "U1", 10)
	ms.players["U2"] = trainer(t, m.Loader, "U2", 10)

	inv, err := m.Invite("U1", "U2")
	require.NoError(t, err)
	b, err := m.AcceptInvite(inv.Hash, "U2")
	require.NoError(t, err)

	defenderBefore := b.SideFor("U1").Active().HP
	require.NoError(t, m.Move(b.Hash, "U2", "Tackle"))

	assert.Less(t, b.SideFor("U1").Active().HP, defenderBefore)
	assert.Equal(t, "U1", b.Turn)
	assert.Equal(t, 34, b.SideFor("U2").Active().Move("Tackle").PP)
	assert.NotEmpty(t, rec.ofType("U1", EventTurnChanged))
	assert.NotEmpty(t, rec.ofType("U2", EventTurnChanged))
}

func TestWildOpponentReplies(t *testing.T) {
	// Human damage roll, AI flee roll (stays), AI damage roll.
	random.Mock([]int{100, 2, 100})
	defer random.ResetMock()

	m, ms, _ := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 10)
	ms.players["U1"] = human
	b, _ := wildBattle(t, m, ms, human, wildPidgey(t, m.Loader, 10), "U1")

	humanBefore := b.SideFor("U1").Active().HP
	require.NoError(t, m.Move(b.Hash, "U1", "Karate Chop"))

	assert.Less(t, b.SideFor("U1").Active().HP, humanBefore, "wild side should have answered")
	assert.Equal(t, "U1", b.Turn, "turn returns to the human after the reply")
}

func TestWildFleesMidBattle(t *testing.T) {
	// Human damage roll, then AI flee roll of 1.
	random.Mock([]int{100, 1})
	defer random.ResetMock()

	m, ms, rec := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 10)
	ms.players["U1"] = human
	b, sp := wildBattle(t, m, ms, human, wildPidgey(t, m.Loader, 10), "U1")

	require.NoError(t, m.Move(b.Hash, "U1", "Karate Chop"))

	assert.NotContains(t, ms.spawns, sp.ID, "fled spawn is gone")
	assert.NotContains(t, ms.battles, b.Hash)
	assert.Len(t, ms.archived, 1)
	assert.Len(t, rec.ofType("U1", EventWildFled), 1)
	assert.Equal(t, player.StatusActive, human.Status)
	assert.Equal(t, LossXP, human.XP, "no win bonus when the wild escapes")
}

func TestWinSettlementAwardsYield(t *testing.T) {
	random.Mock([]int{4})
	defer random.ResetMock()

	m, ms, rec := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 20)
	ms.players["U1"] = human
	machop := human.Pokemon[0]
	xpBefore := machop.XP

	wild := wildPidgey(t, m.Loader, 10)
	b, _ := wildBattle(t, m, ms, human, wild, "U1")
	b.Sides[1].Roster[0].HP = 0 // knocked out

	outcome, err := m.Complete(b.Hash, "U1")
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.True(t, outcome.Success, "a won wild battle forces the catch")

	// Defeating a base-64 species at level 10 yields floor(64*10/7) = 91.
	assert.Equal(t, xpBefore+91, machop.XP)
	assert.Equal(t, 1, machop.EVs["speed"], "effort yield from the defeated species")
	assert.Equal(t, 1, machop.Battles)
	assert.Equal(t, 1, machop.BattlesWon)

	// Catch XP (100 base + 500 first of species) plus battle XP
	// (91 yield + 175 wild win).
	assert.Equal(t, 600+91+WildWinXP, human.XP)
	require.Len(t, human.Pokemon, 2)
	assert.Equal(t, "pidgey", human.Pokemon[1].Species)
	assert.Equal(t, player.StatusActive, human.Status)

	// The completion event itemizes the winner's per-Pokémon gains.
	done := rec.ofType("U1", EventBattleCompleted)
	require.Len(t, done, 1)
	evt := done[0].(*BattleCompletedEvent)
	require.Len(t, evt.Deltas, 1)
	assert.Equal(t, "machop", evt.Deltas[0].Species)
	assert.Equal(t, 91, evt.Deltas[0].XP)
	assert.Equal(t, map[string]int{"speed": 1}, evt.Deltas[0].EVs)
	assert.GreaterOrEqual(t, evt.Deltas[0].LevelTo, evt.Deltas[0].LevelFrom)
	assert.Contains(t, evt.Message(), "machop: +91 XP, +1 speed EV")

	// Settlement is idempotent: the archived battle cannot settle twice.
	_, err = m.Complete(b.Hash, "U1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 600+91+WildWinXP, human.XP)
}

func TestSweepTimesOutStaleBattles(t *testing.T) {
	m, ms, rec := newTestMachine(t)
	ms.players["U1"] = trainer(t, m.Loader, "U1", 10)
	ms.players["U2"] = trainer(t, m.Loader, "U2", 10)

	inv, err := m.Invite("U1", "U2")
	require.NoError(t, err)
	b, err := m.AcceptInvite(inv.Hash, "U2")
	require.NoError(t, err)

	// U2 holds the turn and has gone quiet.
	now := time.Now()
	b.LastMove = now.Add(-TurnTimeout - time.Minute).Unix()

	require.NoError(t, m.Sweep(now))

	assert.Empty(t, ms.battles)
	assert.Len(t, ms.archived, 1)
	assert.Equal(t, LossXP, ms.players["U2"].XP)
	assert.Equal(t, P2PWinXP, ms.players["U1"].XP)
	assert.Equal(t, player.StatusActive, ms.players["U1"].Status)
	assert.Equal(t, player.StatusActive, ms.players["U2"].Status)

	timedOut := rec.ofType("U2", EventBattleCompleted)
	require.Len(t, timedOut, 1)
	assert.True(t, timedOut[0].(*BattleCompletedEvent).TimedOut)

	// A second sweep finds nothing to settle.
	require.NoError(t, m.Sweep(now))
	assert.Equal(t, LossXP, ms.players["U2"].XP)
	assert.Len(t, ms.archived, 1)
}

func TestSwapSemantics(t *testing.T) {
	m, ms, _ := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 10)

	// Second team member to swap to.
	species, err := m.Loader.Species("machop")
	require.NoError(t, err)
	second := human.Pokemon[0].Clone()
	second.Ts = "U1-2"
	second.Recompute(species)
	human.Pokemon = append(human.Pokemon, second)
	second.OnTeam = true
	human.LeaderTs = "U1-1"
	ms.players["U1"] = human

	b, _ := wildBattle(t, m, ms, human, wildPidgey(t, m.Loader, 10), "U1")
	side := b.SideFor("U1")
	side.SwapsLeft = MaxSwaps

	// Voluntary swap: budget spent, turn retained.
	require.NoError(t, m.Swap(b.Hash, "U1", "U1-2"))
	assert.Equal(t, "U1-2", side.ActiveTs)
	assert.Equal(t, MaxSwaps-1, side.SwapsLeft)
	assert.Equal(t, "U1", b.Turn)
	assert.Equal(t, b.CreatedAt, side.Active().LastBattle, "swap-in becomes a participant")

	// Swapping to a fainted or unknown member fails.
	side.Roster[0].HP = 0
	assert.Error(t, m.Swap(b.Hash, "U1", "U1-1"))
	assert.Error(t, m.Swap(b.Hash, "U1", "nope"))

	// Out of turn swaps are silently rejected.
	b.Turn = b.Sides[1].Participant.Key()
	assert.ErrorIs(t, m.Swap(b.Hash, "U1", "U1-1"), ErrInvalidTurn)
}

func TestChooseMove(t *testing.T) {
	tackle := &data.Move{Index: "tackle", Name: "Tackle", Power: 40}
	chop := &data.Move{Index: "karate-chop", Name: "Karate Chop", Power: 50}
	slam := &data.Move{Index: "slam", Name: "Slam", Power: 50}

	known := []*data.Move{tackle, chop, slam}

	name := chooseMove(known, map[string]int{"Tackle": 10, "Karate Chop": 10, "Slam": 10})
	assert.Equal(t, "Karate Chop", name, "ties break by declaration order")

	name = chooseMove(known, map[string]int{"Tackle": 10})
	assert.Equal(t, "Tackle", name, "PP gates selection")

	name = chooseMove(known, map[string]int{})
	assert.Equal(t, "Struggle", name, "fallback when nothing is usable")
}

func TestStartWildSettlesWhenWildBoltsAtOnce(t *testing.T) {
	defer random.ResetMock()
	m, ms, rec := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 10)
	ms.players["U1"] = human

	// A view already carrying damage from an earlier failed throw: the
	// wild's opening turn runs the flee check.
	view := wildPidgey(t, m.Loader, 10)
	view.SetHP(view.MaxHP() / 2)
	sp := &spawn.Spawn{
		ID: "321-kanto", SpeciesID: 16, Species: "pidgey", Region: "kanto",
		CreatedAt: time.Now().Add(-2 * time.Minute).Unix(),
		Trigger:   spawn.Trigger{Type: "timed"},
		Views:     map[string]*player.Pokemon{"U1": view},
	}
	ms.spawns[sp.ID] = sp

	random.Mock([]int{1}) // opening flee roll
	b, err := m.StartWild("U1", sp.ID)
	require.NoError(t, err)
	require.NotNil(t, b)

	assert.NotContains(t, ms.battles, b.Hash)
	assert.Len(t, ms.archived, 1, "the fled battle settles cleanly")
	assert.NotContains(t, ms.spawns, sp.ID)
	assert.Len(t, rec.ofType("U1", EventWildFled), 1)
	assert.Equal(t, LossXP, human.XP)
	assert.Equal(t, player.StatusActive, human.Status)
}

func TestOpeningActiveFollowsLeaderElseRandom(t *testing.T) {
	defer random.ResetMock()
	m, _, _ := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 10)
	species, err := m.Loader.Species("machop")
	require.NoError(t, err)
	second := human.Pokemon[0].Clone()
	second.Ts = "U1-2"
	second.OnTeam = true
	second.Recompute(species)
	human.Pokemon = append(human.Pokemon, second)

	// No designated leader: the opener is drawn at random.
	random.Mock([]int{2})
	side := newSide(Participant{Kind: KindHuman, UserID: "U1"}, human.HealthyTeam(), human.LeaderTs, 42)
	assert.Equal(t, "U1-2", side.ActiveTs)
	assert.Equal(t, int64(42), side.Active().LastBattle, "the opener is a participant")

	// A designated leader opens without spending a roll.
	human.LeaderTs = "U1-2"
	random.Mock([]int{1})
	side = newSide(Participant{Kind: KindHuman, UserID: "U1"}, human.HealthyTeam(), human.LeaderTs, 42)
	assert.Equal(t, "U1-2", side.ActiveTs)
	assert.Equal(t, 1, random.Int(7, 7), "leader pick must not consume the queue")
}

func TestSweepSettlesUnclaimedWildWin(t *testing.T) {
	m, ms, rec := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 10)
	ms.players["U1"] = human
	b, _ := wildBattle(t, m, ms, human, wildPidgey(t, m.Loader, 10), "321-kanto")
	b.Sides[1].Roster[0].HP = 0 // wiped, but the user never claimed the win

	now := time.Now()
	b.LastMove = now.Add(-TurnTimeout - time.Minute).Unix()
	require.NoError(t, m.Sweep(now))

	assert.Empty(t, ms.battles)
	assert.Len(t, ms.archived, 1)
	assert.Equal(t, 91+WildWinXP, human.XP)
	done := rec.ofType("U1", EventBattleCompleted)
	require.Len(t, done, 1)
	assert.True(t, done[0].(*BattleCompletedEvent).Won)
}

func TestSweepLeavesWildTurnMidBattle(t *testing.T) {
	m, ms, _ := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 10)
	ms.players["U1"] = human
	b, _ := wildBattle(t, m, ms, human, wildPidgey(t, m.Loader, 10), "321-kanto")

	now := time.Now()
	b.LastMove = now.Add(-TurnTimeout - time.Minute).Unix()
	require.NoError(t, m.Sweep(now))

	assert.Contains(t, ms.battles, b.Hash, "a healthy wild holding the turn is not a human timeout")
	assert.Empty(t, ms.archived)
}

func TestFleeAbandonsWildBattle(t *testing.T) {
	m, ms, rec := newTestMachine(t)
	human := trainer(t, m.Loader, "U1", 10)
	ms.players["U1"] = human
	b, sp := wildBattle(t, m, ms, human, wildPidgey(t, m.Loader, 10), "U1")

	require.NoError(t, m.Flee(b.Hash, "U1"))

	assert.Contains(t, ms.spawns, sp.ID, "the spawn survives a player flee")
	assert.Empty(t, ms.battles)
	assert.Equal(t, LossXP, human.XP)
	assert.Equal(t, player.StatusActive, human.Status)
	assert.Len(t, rec.ofType("U1", EventBattleCompleted), 1)
}
