// Package catch resolves catch attempts against spawns, both plain
// encounters and post-battle throws, and applies the XP and Pokédex
// bookkeeping that goes with each outcome.
package catch

import (
	"fmt"
	"time"

	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/random"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

// Catch odds and XP awards.
const (
	BaseFleeChance       = 4
	BattleFleeMultiplier = 2

	AttemptXP           = 25  // consolation for a failed throw
	BaseCatchXP         = 100 // every successful catch
	FirstOfSpeciesBonus = 500
	Every10thBonus      = 250
	Every100thBonus     = 1000
	QuickCatchBonus     = 50
)

// QuickCatchWindow is the fraction of the flee window inside which the
// quick-catch bonus applies.
const QuickCatchWindow = 5

// Attempt describes one throw at a spawn.
type Attempt struct {
	Spawn *spawn.Spawn
	At    time.Time

	// InBattle marks a post-battle throw; HPFraction is the defender's
	// remaining HP fraction at that point (0 < f <= 1).
	InBattle   bool
	HPFraction float64

	// Forced carries an outcome already decided by battle win/flee
	// logic; nil means roll normally.
	Forced *bool
}

// Outcome reports how an attempt resolved. XPBreakdown keys feed the
// presentation layer's catch-resolved rendering.
type Outcome struct {
	Success     bool
	Caught      *player.Pokemon
	XP          int
	XPBreakdown map[string]int
}

// Resolve decides an attempt and applies all player-side bookkeeping:
// collection insert, Pokédex counters, XP awards, and the max-seen-CP
// watermark. The caller persists the mutated player record.
func Resolve(a Attempt, p *player.Player) (*Outcome, error) {
	view := a.Spawn.Views[p.ID]
	if view == nil {
		return nil, fmt.Errorf("player %s has no view of spawn %s", p.ID, a.Spawn.ID)
	}

	success := decide(a, p)
	if !success {
		p.Dex(a.Spawn.SpeciesID).Fled++
		p.XP += AttemptXP
		return &Outcome{
			Success:     false,
			XP:          AttemptXP,
			XPBreakdown: map[string]int{"attempted_catch": AttemptXP},
		}, nil
	}

	// The view becomes the owned instance, keeping any HP/PP and
	// participation deltas accrued during a pre-catch battle.
	view.Ts = player.NewTs(a.At)
	p.Pokemon = append(p.Pokemon, view)
	delete(a.Spawn.Views, p.ID)

	dex := p.Dex(a.Spawn.SpeciesID)
	dex.Caught++

	breakdown := map[string]int{"catch": BaseCatchXP}
	if dex.Caught == 1 {
		breakdown["first_of_species"] = FirstOfSpeciesBonus
	}
	if dex.Caught%100 == 0 {
		breakdown["hundredth_of_species"] = Every100thBonus
	} else if dex.Caught%10 == 0 {
		breakdown["tenth_of_species"] = Every10thBonus
	}

	elapsed := a.At.Sub(time.Unix(a.Spawn.CreatedAt, 0))
	if elapsed <= spawn.FleeTime/QuickCatchWindow {
		breakdown["quick_catch"] = QuickCatchBonus
	}

	total := 0
	for _, xp := range breakdown {
		total += xp
	}
	p.XP += total

	if view.CP > p.MaxSeenCP {
		p.MaxSeenCP = view.CP
	}
	view.StatsHidden = false

	return &Outcome{
		Success:     true,
		Caught:      view,
		XP:          total,
		XPBreakdown: breakdown,
	}, nil
}

// decide walks the outcome ladder: onboarding guarantee, flee window,
// forced outcome, then the probabilistic rolls.
func decide(a Attempt, p *player.Player) bool {
	if a.Spawn.GuaranteedFor(p.ID) {
		return true
	}
	if !a.InBattle && a.Spawn.Expired(a.At) {
		return false
	}
	if a.Forced != nil {
		return *a.Forced
	}
	if a.InBattle {
		return random.Int(1, BattleCeiling(a.HPFraction)) > 1
	}
	return random.Int(1, BaseFleeChance) > 1
}

// BattleCeiling is the upper bound of the in-battle catch roll for a
// defender at the given HP fraction. A weaker defender widens the roll,
// so catch probability is non-decreasing as HP drops.
func BattleCeiling(hpFraction float64) int {
	if hpFraction <= 0 {
		hpFraction = 0.01
	} else if hpFraction > 1 {
		hpFraction = 1
	}
	return int(BaseFleeChance * BattleFleeMultiplier / hpFraction)
}
