// Package stats holds the pure numeric core of the game: derived stat and
// CP calculation, IV quality, EV training caps, natures, and the XP growth
// curves. Nothing here performs I/O; callers inject species base data.
package stats

import "math"

// Canonical stat names, matching the reference dataset's naming.
const (
	StatHP             = "hp"
	StatAttack         = "attack"
	StatDefense        = "defense"
	StatSpecialAttack  = "special-attack"
	StatSpecialDefense = "special-defense"
	StatSpeed          = "speed"
)

// StatNames lists the six stats in display order.
var StatNames = []string{
	StatHP, StatAttack, StatDefense,
	StatSpecialAttack, StatSpecialDefense, StatSpeed,
}

// IV bounds. Weather-boosted spawns roll in the narrower high band.
const (
	MinIV        = 0
	MaxIV        = 31
	BoostedMinIV = 20
)

// EV caps: per stat and combined across all six.
const (
	MaxEVPerStat = 252
	MaxEVTotal   = 510
)

// Calculate computes a single derived stat from base data, level, IVs,
// EVs, and nature. The raw base stat is re-added as a flat bonus on top
// of the level-scaled core; this additive term is a deliberate balance
// tweak and must not be "corrected" to the mainline formula.
func Calculate(stat string, base, iv, ev int, level float64, nature Nature) int {
	core := math.Floor((float64(2*base) + float64(iv) + math.Floor(float64(ev)/4)) * level / 100)
	if stat == StatHP {
		// HP takes level+10 instead of +5 and ignores nature.
		return base + int(math.Floor(core+level+10))
	}
	return base + int(math.Floor((core+5)*nature.Multiplier(stat)))
}

// CP folds the six derived stats into a single combat power scalar.
// Offense dominates, defense counts half, HP and speed trail.
func CP(attack, defense, hp, speed, spAttack, spDefense int) int {
	offense := float64(attack)*0.54 + float64(spAttack)*0.46
	guard := float64(defense)*0.54 + float64(spDefense)*0.46
	return int(math.Floor(offense + guard*0.5 + float64(hp)*0.5/10 + float64(speed)*0.25/10))
}

// IVPercent grades a full IV spread on a 0-100 scale.
func IVPercent(ivs map[string]int) int {
	sum := 0
	for _, v := range ivs {
		sum += v
	}
	return int(math.Floor(float64(sum) / float64(6*MaxIV) * 100))
}

// EVTotal sums the six effort values.
func EVTotal(evs map[string]int) int {
	sum := 0
	for _, v := range evs {
		sum += v
	}
	return sum
}

// ApplyEVs merges a batch of EV gains into an existing spread. If the
// batch would push the combined total past MaxEVTotal, every gain in the
// batch is proportionally truncated first; each stat is then clamped to
// MaxEVPerStat individually. The input map is mutated and returned.
func ApplyEVs(evs map[string]int, gains map[string]int) map[string]int {
	if evs == nil {
		evs = make(map[string]int)
	}

	batch := 0
	for _, g := range gains {
		batch += g
	}
	if batch <= 0 {
		return evs
	}

	remaining := MaxEVTotal - EVTotal(evs)
	if remaining <= 0 {
		return evs
	}

	scale := 1.0
	if batch > remaining {
		scale = float64(remaining) / float64(batch)
	}

	for stat, g := range gains {
		if g <= 0 {
			continue
		}
		gain := int(math.Floor(float64(g) * scale))
		evs[stat] += gain
		if evs[stat] > MaxEVPerStat {
			evs[stat] = MaxEVPerStat
		}
	}
	return evs
}
