package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateIsDeterministic(t *testing.T) {
	nature := NatureByName("adamant")
	first := Calculate(StatAttack, 49, 20, 16, 10, nature)
	for i := 0; i < 5; i++ {
		if got := Calculate(StatAttack, 49, 20, 16, 10, nature); got != first {
			t.Fatalf("expected stable result %d, got %d on call %d", first, got, i)
		}
	}
}

func TestCalculateKeepsAdditiveBaseBonus(t *testing.T) {
	// base 50, iv 0, ev 0, level 100, neutral nature:
	// core = floor((100+0+0)*100/100) = 100, stat = 50 + floor(105*1) = 155.
	// The mainline formula (without the flat base bonus) would give 105.
	got := Calculate(StatAttack, 50, 0, 0, 100, NatureByName("hardy"))
	assert.Equal(t, 155, got)
}

func TestCalculateHPIgnoresNature(t *testing.T) {
	// HP must not pick up any nature multiplier, even from natures that
	// would touch the same position in the formula.
	for _, name := range []string{"hardy", "adamant", "modest", "bold"} {
		got := Calculate(StatHP, 45, 31, 0, 50, NatureByName(name))
		// core = floor((90+31)*50/100) = 60; 45 + floor(60+50+10) = 165.
		assert.Equal(t, 165, got, "nature %s leaked into hp", name)
	}
}

func TestCalculateNatureMultiplier(t *testing.T) {
	neutral := Calculate(StatAttack, 80, 10, 0, 50, NatureByName("hardy"))
	boosted := Calculate(StatAttack, 80, 10, 0, 50, NatureByName("adamant"))
	reduced := Calculate(StatAttack, 80, 10, 0, 50, NatureByName("modest"))

	assert.Greater(t, boosted, neutral)
	assert.Less(t, reduced, neutral)
}

func TestNatureTableShape(t *testing.T) {
	assert.Len(t, Natures, 25)

	neutral := 0
	for _, n := range Natures {
		if n.Increases == "" && n.Decreases == "" {
			neutral++
			continue
		}
		assert.NotEqual(t, n.Increases, n.Decreases, "nature %s", n.Name)
		assert.NotEqual(t, StatHP, n.Increases, "nature %s boosts hp", n.Name)
		assert.NotEqual(t, StatHP, n.Decreases, "nature %s reduces hp", n.Name)
	}
	assert.Equal(t, 5, neutral)
}

func TestCPDeterministic(t *testing.T) {
	a := CP(120, 80, 150, 90, 100, 85)
	b := CP(120, 80, 150, 90, 100, 85)
	assert.Equal(t, a, b)

	// Offensive stats should move CP more than the trailing terms.
	higherAttack := CP(140, 80, 150, 90, 100, 85)
	higherSpeed := CP(120, 80, 150, 110, 100, 85)
	assert.Greater(t, higherAttack-a, higherSpeed-a)
}

func TestIVPercentBounds(t *testing.T) {
	zero := map[string]int{}
	for _, s := range StatNames {
		zero[s] = 0
	}
	assert.Equal(t, 0, IVPercent(zero))

	perfect := map[string]int{}
	for _, s := range StatNames {
		perfect[s] = MaxIV
	}
	assert.Equal(t, 100, IVPercent(perfect))

	mixed := map[string]int{}
	for _, s := range StatNames {
		mixed[s] = 15
	}
	pct := IVPercent(mixed)
	assert.GreaterOrEqual(t, pct, 0)
	assert.LessOrEqual(t, pct, 100)
}

func TestApplyEVsRespectsCaps(t *testing.T) {
	evs := map[string]int{StatAttack: 250}

	ApplyEVs(evs, map[string]int{StatAttack: 10})
	assert.Equal(t, MaxEVPerStat, evs[StatAttack])

	// Fill close to the combined cap, then apply an oversized batch.
	evs = map[string]int{StatAttack: 252, StatDefense: 252}
	ApplyEVs(evs, map[string]int{StatSpeed: 100})
	assert.LessOrEqual(t, EVTotal(evs), MaxEVTotal)
	// 504 spent, 6 remaining: the 100-point batch truncates to 6.
	assert.Equal(t, 6, evs[StatSpeed])
}

func TestApplyEVsProportionalTruncation(t *testing.T) {
	evs := map[string]int{StatAttack: 500}
	ApplyEVs(evs, map[string]int{StatDefense: 4, StatSpeed: 4})

	// 10 remaining of 510; the batch of 8 fits untouched... so force the
	// overflow case instead.
	evs = map[string]int{StatAttack: 252, StatDefense: 252, StatSpeed: 2}
	ApplyEVs(evs, map[string]int{StatHP: 8, StatSpecialAttack: 8})
	// 4 remaining, batch 16, scale 0.25: each gain floors to 2.
	assert.Equal(t, 2, evs[StatHP])
	assert.Equal(t, 2, evs[StatSpecialAttack])
	assert.Equal(t, MaxEVTotal, EVTotal(evs))
}

func TestApplyEVsAtCombinedCapIsNoop(t *testing.T) {
	evs := map[string]int{StatAttack: 252, StatDefense: 252, StatSpeed: 6}
	before := EVTotal(evs)
	ApplyEVs(evs, map[string]int{StatHP: 50})
	assert.Equal(t, before, EVTotal(evs))
	assert.Equal(t, 0, evs[StatHP])
}

func TestApplyEVsSequenceNeverExceedsCaps(t *testing.T) {
	evs := map[string]int{}
	for i := 0; i < 200; i++ {
		ApplyEVs(evs, map[string]int{StatAttack: 3, StatSpeed: 2})
		assert.LessOrEqual(t, EVTotal(evs), MaxEVTotal)
		for _, s := range StatNames {
			assert.LessOrEqual(t, evs[s], MaxEVPerStat)
		}
	}
}
