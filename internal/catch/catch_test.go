package catch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/random"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

func testSpawn(t0 time.Time, viewerID string) *spawn.Spawn {
	s := &spawn.Spawn{
		ID:        "123-kanto",
		SpeciesID: 16,
		Species:   "pidgey",
		Region:    "kanto",
		CreatedAt: t0.Unix(),
		Trigger:   spawn.Trigger{Type: "timed"},
		Views:     make(map[string]*player.Pokemon),
	}
	s.Views[viewerID] = &player.Pokemon{
		SpeciesID: 16, Species: "pidgey",
		Level: 4, Nature: "hardy",
		IVs: player.EVSpread{}, EVs: player.EVSpread{},
		Stats: map[string]int{"hp": 30}, HP: 30, CP: 80,
		Happiness: 70,
		Moves:     []player.MoveSlot{{Name: "Tackle", PP: 35, MaxPP: 35}},
	}
	return s
}

func TestStraightforwardCatch(t *testing.T) {
	random.Mock([]int{4}) // roll the top of the 1..4 band
	defer random.ResetMock()

	t0 := time.Unix(time.Now().Unix(), 0)
	p := player.New("U100", "kanto")
	s := testSpawn(t0, p.ID)

	out, err := Resolve(Attempt{Spawn: s, At: t0.Add(60 * time.Second)}, p)
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, 1, p.Dex(16).Caught)
	// 100 base + 500 first-of-species + 50 quick catch.
	assert.GreaterOrEqual(t, out.XP, 650)
	assert.Equal(t, out.XP, p.XP)
	require.NotNil(t, out.Caught)
	assert.NotEmpty(t, out.Caught.Ts)
	require.Len(t, p.Pokemon, 1)
	assert.False(t, p.Pokemon[0].StatsHidden)
	assert.Empty(t, s.Views)
}

func TestLateCatchAlwaysFails(t *testing.T) {
	random.Mock([]int{4, 4, 4}) // would succeed if the roll were consulted
	defer random.ResetMock()

	t0 := time.Now()
	p := player.New("U100", "kanto")
	s := testSpawn(t0, p.ID)

	out, err := Resolve(Attempt{Spawn: s, At: t0.Add(301 * time.Second)}, p)
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Equal(t, 1, p.Dex(16).Fled)
	assert.Equal(t, AttemptXP, p.XP)
	assert.Empty(t, p.Pokemon)
}

func TestFailedRollAwardsAttemptXP(t *testing.T) {
	random.Mock([]int{1}) // bottom of the band always fails
	defer random.ResetMock()

	t0 := time.Now()
	p := player.New("U100", "kanto")
	s := testSpawn(t0, p.ID)

	out, err := Resolve(Attempt{Spawn: s, At: t0.Add(10 * time.Second)}, p)
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, map[string]int{"attempted_catch": AttemptXP}, out.XPBreakdown)
}

func TestOnboardingGuarantee(t *testing.T) {
	random.Mock([]int{1}) // would fail if rolled
	defer random.ResetMock()

	t0 := time.Now()
	p := player.New("U100", "kanto")
	s := testSpawn(t0, p.ID)
	s.Trigger = spawn.Trigger{Type: "onboarding", UserID: p.ID}

	out, err := Resolve(Attempt{Spawn: s, At: t0.Add(time.Second)}, p)
	require.NoError(t, err)
	assert.True(t, out.Success)
}

func TestForcedOutcome(t *testing.T) {
	random.Mock([]int{4})
	defer random.ResetMock()

	t0 := time.Now()
	p := player.New("U100", "kanto")
	s := testSpawn(t0, p.ID)

	forced := false
	out, err := Resolve(Attempt{
		Spawn: s, At: t0.Add(time.Second),
		InBattle: true, HPFraction: 0.1, Forced: &forced,
	}, p)
	require.NoError(t, err)
	assert.False(t, out.Success)
}

func TestBattleCeilingMonotonicity(t *testing.T) {
	prev := 0
	for _, fraction := range []float64{1, 0.8, 0.5, 0.25, 0.1, 0.01} {
		ceiling := BattleCeiling(fraction)
		assert.GreaterOrEqual(t, ceiling, prev, "fraction %v", fraction)
		prev = ceiling
	}

	// Degenerate fractions stay in-band rather than dividing by zero.
	assert.Equal(t, BattleCeiling(0.01), BattleCeiling(0))
	assert.Equal(t, BattleCeiling(1), BattleCeiling(2))
}

func TestTenthCatchBonus(t *testing.T) {
	random.Mock([]int{4})
	defer random.ResetMock()

	t0 := time.Now()
	p := player.New("U100", "kanto")
	p.Dex(16).Caught = 9
	s := testSpawn(t0, p.ID)

	out, err := Resolve(Attempt{Spawn: s, At: t0.Add(200 * time.Second)}, p)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, Every10thBonus, out.XPBreakdown["tenth_of_species"])
	assert.Zero(t, out.XPBreakdown["first_of_species"])
	assert.Zero(t, out.XPBreakdown["quick_catch"]) // 200s is past the window
}

func TestCatchRaisesMaxSeenCP(t *testing.T) {
	random.Mock([]int{4})
	defer random.ResetMock()

	t0 := time.Now()
	p := player.New("U100", "kanto")
	p.MaxSeenCP = 50
	s := testSpawn(t0, p.ID)
	s.Views[p.ID].StatsHidden = true

	out, err := Resolve(Attempt{Spawn: s, At: t0.Add(time.Second)}, p)
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 80, p.MaxSeenCP)
	assert.False(t, out.Caught.StatsHidden)
}
