// Package moves implements move resolution: menu/AI ordering, STAB and
// type-effectiveness multipliers, the damage formula, and drain/heal
// effects. Functions here are pure; the battle machine owns all record
// mutation.
package moves

import (
	"math"
	"sort"

	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/random"
)

// Backup is the fallback move substituted whenever the chosen move has no
// PP left or is not known. It has no elemental type and unlimited PP, so
// move resolution can never fail from PP exhaustion.
var Backup = data.Move{
	Index:       "struggle",
	Name:        "Struggle",
	Power:       20,
	DamageClass: "physical",
}

// Stab returns the same-type-attack-bonus multiplier for a move used by a
// Pokémon with the given types.
func Stab(move *data.Move, userTypes []string) float64 {
	if move.Overrides.IgnoreStab || move.Type == "" {
		return 1
	}
	for _, t := range userTypes {
		if t == move.Type {
			return 1.5
		}
	}
	return 1
}

// Effectiveness compounds the attacking type's relations against each of
// the defender's types. Under inverse rules immunities are skipped and
// half/double are swapped. A per-move override forces exactly 1.
func Effectiveness(move *data.Move, relations *data.TypeRelations, defenderTypes []string, inverse bool) float64 {
	if move.Overrides.IgnoreEffectiveness || relations == nil || move.Type == "" {
		return 1
	}

	multiplier := 1.0
	for _, defender := range defenderTypes {
		m := relations.Against(defender)
		if inverse {
			switch m {
			case 0:
				m = 1 // immunities do not exist in inverse battles
			case 0.5:
				m = 2
			case 2:
				m = 0.5
			}
		}
		multiplier *= m
	}
	return multiplier
}

// SortForMenu orders moves for menus and AI scanning: base power
// ascending, ties broken by power x STAB ascending, remaining ties by
// declaration order. The input slice is sorted in place and returned.
func SortForMenu(list []*data.Move, userTypes []string) []*data.Move {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Power != list[j].Power {
			return list[i].Power < list[j].Power
		}
		si := float64(list[i].Power) * Stab(list[i], userTypes)
		sj := float64(list[j].Power) * Stab(list[j], userTypes)
		return si < sj
	})
	return list
}

// Context carries everything a single move application needs to know
// about the two combatants.
type Context struct {
	Level         float64
	AttackStat    int
	DefenseStat   int
	UserTypes     []string
	UserMaxHP     int
	DefenderTypes []string
	DefenderMaxHP int
	Relations     *data.TypeRelations // attacking type's chart row, nil for typeless moves
	Inverse       bool
}

// Result is the structured outcome of one move application. UserHPDelta
// is the net drain/heal/recoil on the user (positive restores HP).
type Result struct {
	Damage        int
	Percent       int
	Stab          float64
	Effectiveness float64
	UserHPDelta   int
}

// Resolve computes the damage and side effects of a move without
// mutating anything. Status moves (power 0) deal no damage but still
// apply heal effects.
func Resolve(move *data.Move, ctx Context) Result {
	res := Result{
		Stab:          Stab(move, ctx.UserTypes),
		Effectiveness: Effectiveness(move, ctx.Relations, ctx.DefenderTypes, ctx.Inverse),
	}

	if move.Power > 0 && move.DamageClass != "status" {
		// target, weather, badge, crit, burn, and other multipliers are
		// reserved at 1 in the current feature set.
		inner := math.Floor(2*ctx.Level/5+2) * float64(move.Power) * float64(ctx.AttackStat) / float64(ctx.DefenseStat)
		raw := math.Floor(inner/50) + 2

		rnd := random.Float(0.85, 1.00)
		damage := int(math.Floor(raw * rnd * res.Stab * res.Effectiveness))
		if damage < 1 && res.Effectiveness > 0 {
			damage = 1
		}
		res.Damage = damage

		if ctx.DefenderMaxHP > 0 {
			res.Percent = int(math.Floor(float64(res.Damage) / float64(ctx.DefenderMaxHP) * 100))
		}

		if move.Meta.Drain != 0 {
			res.UserHPDelta += int(math.Floor(float64(res.Damage) * float64(move.Meta.Drain) / 100))
		}
	}

	if move.Meta.Healing != 0 {
		res.UserHPDelta += int(math.Floor(float64(ctx.UserMaxHP) * float64(move.Meta.Healing) / 100))
	}

	return res
}

// Pick selects the move to use for a named request against the user's
// known moves, enforcing PP. An unknown name or an empty PP pool falls
// back to Backup. The returned bool reports whether a real slot was
// consumed (and its PP should be decremented).
func Pick(name string, known []*data.Move, pp map[string]int) (*data.Move, bool) {
	for _, m := range known {
		if m.Name == name || m.Index == name {
			if pp[m.Name] > 0 {
				return m, true
			}
			return &Backup, false
		}
	}
	return &Backup, false
}
