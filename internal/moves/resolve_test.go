package moves

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/random"
)

var waterRelations = &data.TypeRelations{
	Index:          "water",
	HalfDamageTo:   []string{"water", "grass", "dragon"},
	DoubleDamageTo: []string{"fire", "ground", "rock"},
}

var normalRelations = &data.TypeRelations{
	Index:      "normal",
	NoDamageTo: []string{"ghost"},
}

func TestStab(t *testing.T) {
	surf := &data.Move{Name: "Surf", Type: "water", Power: 90}
	assert.Equal(t, 1.5, Stab(surf, []string{"water", "ground"}))
	assert.Equal(t, 1.0, Stab(surf, []string{"fire"}))

	ignored := &data.Move{Name: "Weird", Type: "water", Overrides: data.MoveOverrides{IgnoreStab: true}}
	assert.Equal(t, 1.0, Stab(ignored, []string{"water"}))

	assert.Equal(t, 1.0, Stab(&Backup, []string{"water"}))
}

func TestEffectivenessBounds(t *testing.T) {
	move := &data.Move{Name: "Surf", Type: "water"}

	cases := map[float64][]string{
		4:    {"fire", "rock"},
		2:    {"fire"},
		1:    {"electric"},
		0.5:  {"grass"},
		0.25: {"grass", "dragon"},
	}
	for want, defenders := range cases {
		assert.Equal(t, want, Effectiveness(move, waterRelations, defenders, false), "defenders %v", defenders)
	}

	tackle := &data.Move{Name: "Tackle", Type: "normal"}
	assert.Equal(t, 0.0, Effectiveness(tackle, normalRelations, []string{"ghost"}, false))
}

func TestEffectivenessInverse(t *testing.T) {
	move := &data.Move{Name: "Surf", Type: "water"}
	// Halves and doubles swap.
	assert.Equal(t, 0.5, Effectiveness(move, waterRelations, []string{"fire"}, true))
	assert.Equal(t, 2.0, Effectiveness(move, waterRelations, []string{"grass"}, true))

	// Immunities never occur under inverse rules.
	tackle := &data.Move{Name: "Tackle", Type: "normal"}
	assert.Equal(t, 1.0, Effectiveness(tackle, normalRelations, []string{"ghost"}, true))
}

func TestEffectivenessOverride(t *testing.T) {
	move := &data.Move{
		Name: "Surf", Type: "water",
		Overrides: data.MoveOverrides{IgnoreEffectiveness: true},
	}
	assert.Equal(t, 1.0, Effectiveness(move, waterRelations, []string{"fire", "rock"}, false))
}

func TestSortForMenu(t *testing.T) {
	ember := &data.Move{Name: "Ember", Type: "fire", Power: 40}
	tackle := &data.Move{Name: "Tackle", Type: "normal", Power: 40}
	flame := &data.Move{Name: "Flamethrower", Type: "fire", Power: 90}
	growl := &data.Move{Name: "Growl", Type: "normal", Power: 0}

	// User is fire-typed: Ember gets STAB, so among the power-40 pair
	// Tackle (40x1) sorts before Ember (40x1.5).
	sorted := SortForMenu([]*data.Move{ember, tackle, flame, growl}, []string{"fire"})
	assert.Equal(t, []*data.Move{growl, tackle, ember, flame}, sorted)
}

func TestSortForMenuDeclarationOrderTieBreak(t *testing.T) {
	a := &data.Move{Name: "A", Type: "normal", Power: 40}
	b := &data.Move{Name: "B", Type: "normal", Power: 40}
	sorted := SortForMenu([]*data.Move{a, b}, nil)
	assert.Equal(t, []*data.Move{a, b}, sorted)
}

func TestResolveDamageFormula(t *testing.T) {
	random.Mock([]int{100}) // random factor pinned to 1.00
	defer random.ResetMock()

	move := &data.Move{Name: "Water Gun", Type: "water", Power: 40, DamageClass: "special"}
	ctx := Context{
		Level: 10, AttackStat: 50, DefenseStat: 40,
		UserTypes: []string{"water"}, DefenderTypes: []string{"electric"},
		DefenderMaxHP: 60, Relations: waterRelations,
	}

	res := Resolve(move, ctx)
	// inner = floor(6 * 40 * 50 / 40 / 50) + 2 = 8, x1.5 STAB = 12.
	assert.Equal(t, 12, res.Damage)
	assert.Equal(t, 20, res.Percent) // floor(12/60*100)
	assert.Equal(t, 1.5, res.Stab)
	assert.Equal(t, 1.0, res.Effectiveness)
}

func TestResolveMinimumDamage(t *testing.T) {
	random.Mock([]int{0})
	defer random.ResetMock()

	weak := &data.Move{Name: "Splashish", Type: "water", Power: 1, DamageClass: "physical"}
	ctx := Context{
		Level: 1, AttackStat: 5, DefenseStat: 500,
		DefenderTypes: []string{"grass", "dragon"},
		DefenderMaxHP: 100, Relations: waterRelations,
	}
	res := Resolve(weak, ctx)
	assert.Equal(t, 1, res.Damage)
}

func TestResolveImmunityDealsZero(t *testing.T) {
	random.Mock([]int{100})
	defer random.ResetMock()

	tackle := &data.Move{Name: "Tackle", Type: "normal", Power: 40, DamageClass: "physical"}
	ctx := Context{
		Level: 10, AttackStat: 50, DefenseStat: 40,
		DefenderTypes: []string{"ghost"},
		DefenderMaxHP: 60, Relations: normalRelations,
	}
	res := Resolve(tackle, ctx)
	assert.Equal(t, 0, res.Damage)
}

func TestResolveDrainAndHeal(t *testing.T) {
	random.Mock([]int{100})
	defer random.ResetMock()

	drain := &data.Move{
		Name: "Mega Drain", Type: "grass", Power: 40, DamageClass: "special",
		Meta: data.MoveMeta{Drain: 50},
	}
	ctx := Context{
		Level: 10, AttackStat: 50, DefenseStat: 40,
		UserMaxHP: 80, DefenderMaxHP: 60, DefenderTypes: []string{"normal"},
	}
	res := Resolve(drain, ctx)
	assert.Equal(t, res.Damage/2, res.UserHPDelta)

	recoil := &data.Move{
		Name: "Take Down", Type: "normal", Power: 90, DamageClass: "physical",
		Meta: data.MoveMeta{Drain: -25},
	}
	res = Resolve(recoil, ctx)
	assert.Negative(t, res.UserHPDelta)

	rest := &data.Move{
		Name: "Recover", Type: "normal", Power: 0, DamageClass: "status",
		Meta: data.MoveMeta{Healing: 50},
	}
	res = Resolve(rest, ctx)
	assert.Equal(t, 0, res.Damage)
	assert.Equal(t, 40, res.UserHPDelta)
}

func TestPickFallsBackToBackup(t *testing.T) {
	surf := &data.Move{Name: "Surf", Type: "water", Power: 90}
	known := []*data.Move{surf}

	m, consumes := Pick("Surf", known, map[string]int{"Surf": 3})
	assert.Equal(t, surf, m)
	assert.True(t, consumes)

	m, consumes = Pick("Surf", known, map[string]int{"Surf": 0})
	assert.Equal(t, &Backup, m)
	assert.False(t, consumes)

	m, consumes = Pick("Fly", known, map[string]int{"Surf": 3})
	assert.Equal(t, &Backup, m)
	assert.False(t, consumes)
}
