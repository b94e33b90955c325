package stats

// Nature is one of the 25 fixed personality archetypes. A non-neutral
// nature boosts one stat by 10% and reduces another by 10%. HP is never
// affected by nature.
type Nature struct {
	Name      string `json:"name"`
	Increases string `json:"increases"`
	Decreases string `json:"decreases"`
}

// Natures is the full fixed archetype table. Entries with empty
// Increases/Decreases are neutral.
var Natures = []Nature{
	{Name: "hardy"},
	{Name: "lonely", Increases: StatAttack, Decreases: StatDefense},
	{Name: "brave", Increases: StatAttack, Decreases: StatSpeed},
	{Name: "adamant", Increases: StatAttack, Decreases: StatSpecialAttack},
	{Name: "naughty", Increases: StatAttack, Decreases: StatSpecialDefense},
	{Name: "bold", Increases: StatDefense, Decreases: StatAttack},
	{Name: "docile"},
	{Name: "relaxed", Increases: StatDefense, Decreases: StatSpeed},
	{Name: "impish", Increases: StatDefense, Decreases: StatSpecialAttack},
	{Name: "lax", Increases: StatDefense, Decreases: StatSpecialDefense},
	{Name: "timid", Increases: StatSpeed, Decreases: StatAttack},
	{Name: "hasty", Increases: StatSpeed, Decreases: StatDefense},
	{Name: "serious"},
	{Name: "jolly", Increases: StatSpeed, Decreases: StatSpecialAttack},
	{Name: "naive", Increases: StatSpeed, Decreases: StatSpecialDefense},
	{Name: "modest", Increases: StatSpecialAttack, Decreases: StatAttack},
	{Name: "mild", Increases: StatSpecialAttack, Decreases: StatDefense},
	{Name: "quiet", Increases: StatSpecialAttack, Decreases: StatSpeed},
	{Name: "bashful"},
	{Name: "rash", Increases: StatSpecialAttack, Decreases: StatSpecialDefense},
	{Name: "calm", Increases: StatSpecialDefense, Decreases: StatAttack},
	{Name: "gentle", Increases: StatSpecialDefense, Decreases: StatDefense},
	{Name: "sassy", Increases: StatSpecialDefense, Decreases: StatSpeed},
	{Name: "careful", Increases: StatSpecialDefense, Decreases: StatSpecialAttack},
	{Name: "quirky"},
}

// NatureByName looks up a nature archetype; unknown names resolve to a
// neutral nature so stale records never break stat math.
func NatureByName(name string) Nature {
	for _, n := range Natures {
		if n.Name == name {
			return n
		}
	}
	return Nature{Name: name}
}

// Multiplier returns the nature's effect on a stat: 1.1 boosted, 0.9
// reduced, 1 otherwise.
func (n Nature) Multiplier(stat string) float64 {
	switch stat {
	case n.Increases:
		return 1.1
	case n.Decreases:
		return 0.9
	}
	return 1
}
