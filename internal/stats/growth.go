package stats

import (
	"math"
	"sync"
)

// Growth curve names as delivered by the reference dataset. Unknown
// curves fall back to medium.
const (
	GrowthFast       = "fast"
	GrowthMedium     = "medium"
	GrowthMediumSlow = "medium-slow"
	GrowthSlow       = "slow"
)

const maxLevel = 100

var (
	curveOnce sync.Once
	curves    map[string][maxLevel + 1]int
)

// curveTable returns the cumulative XP table for a growth curve, indexed
// by whole level (1..100). Tables are generated once and cached.
func curveTable(curve string) [maxLevel + 1]int {
	curveOnce.Do(buildCurves)
	if t, ok := curves[curve]; ok {
		return t
	}
	return curves[GrowthMedium]
}

func buildCurves() {
	curves = make(map[string][maxLevel + 1]int)
	formulas := map[string]func(n float64) float64{
		GrowthFast:   func(n float64) float64 { return 4 * n * n * n / 5 },
		GrowthMedium: func(n float64) float64 { return n * n * n },
		GrowthMediumSlow: func(n float64) float64 {
			return 6*n*n*n/5 - 15*n*n + 100*n - 140
		},
		GrowthSlow: func(n float64) float64 { return 5 * n * n * n / 4 },
	}

	for name, f := range formulas {
		var table [maxLevel + 1]int
		prev := 0
		for n := 1; n <= maxLevel; n++ {
			xp := int(math.Floor(f(float64(n))))
			if n == 1 || xp < 0 {
				xp = 0
			}
			// The medium-slow polynomial dips below earlier entries at
			// very low levels; force the table monotonic.
			if xp < prev {
				xp = prev
			}
			table[n] = xp
			prev = xp
		}
		curves[name] = table
	}
}

// XPForLevel returns the cumulative XP required to reach a (possibly
// fractional) level on the given curve. Fractional levels interpolate
// linearly between adjacent table entries.
func XPForLevel(curve string, level float64) int {
	table := curveTable(curve)

	if level <= 1 {
		return 0
	}
	if level >= maxLevel {
		return table[maxLevel]
	}

	whole := int(math.Floor(level))
	frac := level - float64(whole)
	base := table[whole]
	next := table[whole+1]
	return base + int(math.Floor(frac*float64(next-base)))
}

// LevelForXP converts cumulative XP into a level with 1 decimal of
// partial progress, rounded down. Results are clamped to [1, 100].
func LevelForXP(curve string, xp int) float64 {
	table := curveTable(curve)

	if xp <= 0 {
		return 1
	}
	if xp >= table[maxLevel] {
		return maxLevel
	}

	// Find the highest whole level whose threshold is within xp.
	whole := 1
	for n := 2; n <= maxLevel; n++ {
		if table[n] <= xp {
			whole = n
		} else {
			break
		}
	}

	span := table[whole+1] - table[whole]
	frac := 0.0
	if span > 0 {
		frac = float64(xp-table[whole]) / float64(span)
	}

	level := float64(whole) + frac
	return math.Floor(level*10) / 10
}
