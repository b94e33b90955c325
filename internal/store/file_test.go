package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

func TestPlayerRoundTripAndVersionCheck(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	p := player.New("U100", "kanto")
	p.XP = 500
	p.Version = 1
	require.NoError(t, s.SavePlayer(p))

	got, err := s.GetPlayer("U100")
	require.NoError(t, err)
	assert.Equal(t, 500, got.XP)
	assert.Equal(t, "kanto", got.Region)

	// A write that does not advance the version is a lost-update race.
	stale := player.New("U100", "kanto")
	stale.Version = 1
	assert.ErrorIs(t, s.SavePlayer(stale), ErrConflict)

	got.XP = 600
	got.Version++
	require.NoError(t, s.SavePlayer(got))

	_, err = s.GetPlayer("U404")
	assert.ErrorIs(t, err, battle.ErrNotFound)
}

func TestBattleArchiveIsIdempotent(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	b := &battle.Battle{Hash: "b1", Type: battle.TypeWild, Version: 1}
	b.Sides[0] = &battle.Side{Participant: battle.Participant{Kind: battle.KindHuman, UserID: "U1"}}
	b.Sides[1] = &battle.Side{Participant: battle.Participant{Kind: battle.KindWild, SpawnID: "s1"}}
	require.NoError(t, s.SaveBattle(b))

	active, err := s.ListActiveBattles()
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, s.ArchiveBattle(b))
	assert.ErrorIs(t, s.ArchiveBattle(b), battle.ErrNotFound)

	active, err = s.ListActiveBattles()
	require.NoError(t, err)
	assert.Empty(t, active)

	archived, err := s.LoadArchive()
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "b1", archived[0].Hash)
	assert.Equal(t, battle.KindWild, archived[0].Sides[1].Participant.Kind)
}

func TestSpawnViewsMergeOnConflict(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	base := &spawn.Spawn{
		ID: "123-kanto", SpeciesID: 16, Species: "pidgey", Region: "kanto",
		Views:   map[string]*player.Pokemon{"U1": {Species: "pidgey", Level: 5}},
		Version: 1,
	}
	require.NoError(t, s.SaveSpawn(base))

	// A second process viewed the same spawn from the same version; its
	// write must not erase U1's view.
	other := &spawn.Spawn{
		ID: "123-kanto", SpeciesID: 16, Species: "pidgey", Region: "kanto",
		Views:   map[string]*player.Pokemon{"U2": {Species: "pidgey", Level: 7}},
		Version: 1,
	}
	require.NoError(t, s.SaveSpawn(other))

	got, err := s.GetSpawn("123-kanto")
	require.NoError(t, err)
	assert.Len(t, got.Views, 2)
	assert.Contains(t, got.Views, "U1")
	assert.Contains(t, got.Views, "U2")

	spawns, err := s.ListSpawns("kanto")
	require.NoError(t, err)
	assert.Len(t, spawns, 1)
	spawns, err = s.ListSpawns("johto")
	require.NoError(t, err)
	assert.Empty(t, spawns)

	require.NoError(t, s.DeleteSpawn("123-kanto"))
	_, err = s.GetSpawn("123-kanto")
	assert.ErrorIs(t, err, battle.ErrNotFound)
}

func TestInviteLifecycle(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	inv := &battle.Invite{Hash: "i1", InviterID: "U1", InviteeID: "U2", CreatedAt: 100}
	require.NoError(t, s.SaveInvite(inv))

	got, err := s.GetInvite("i1")
	require.NoError(t, err)
	assert.Equal(t, "U2", got.InviteeID)

	list, err := s.ListInvites()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteInvite("i1"))
	require.NoError(t, s.DeleteInvite("i1")) // deleting twice is fine
	_, err = s.GetInvite("i1")
	assert.ErrorIs(t, err, battle.ErrNotFound)
}
