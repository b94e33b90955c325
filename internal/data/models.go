package data

// StatLine is one entry of a species' base stat table. Order matters: EV
// yield on defeat credits the first line with a nonzero Effort value.
type StatLine struct {
	Name   string `json:"name" yaml:"name"`
	Base   int    `json:"base" yaml:"base"`
	Effort int    `json:"effort" yaml:"effort"`
}

// Evolution points at a species this one can evolve into and the level
// that triggers it. MinLevel is zero for non-level triggers (trade, stone).
type Evolution struct {
	To       string `json:"to" yaml:"to"`
	ToID     int    `json:"to_id" yaml:"to_id"`
	MinLevel int    `json:"min_level" yaml:"min_level"`
}

// Species is the read-only reference record for one Pokémon species.
type Species struct {
	ID             int         `json:"id" yaml:"id"`
	Index          string      `json:"index" yaml:"index"`
	Name           string      `json:"name" yaml:"name"`
	Types          []string    `json:"types" yaml:"types"`
	Stats          []StatLine  `json:"stats" yaml:"stats"`
	BaseExperience int         `json:"base_experience" yaml:"base_experience"`
	GrowthRate     string      `json:"growth_rate" yaml:"growth_rate"`
	Moves          []string    `json:"moves" yaml:"moves"`
	Evolutions     []Evolution `json:"evolutions" yaml:"evolutions"`
}

// BaseStat returns the base value for a stat name, zero if the species
// table does not carry it.
func (s *Species) BaseStat(name string) int {
	for _, line := range s.Stats {
		if line.Name == name {
			return line.Base
		}
	}
	return 0
}

// FirstEffortYield returns the first stat line with a nonzero effort value.
// Some species canonically yield EVs in two stats; only the first is
// credited here, matching the live game's behavior.
func (s *Species) FirstEffortYield() (string, int) {
	for _, line := range s.Stats {
		if line.Effort > 0 {
			return line.Name, line.Effort
		}
	}
	return "", 0
}

// MoveMeta carries the secondary effects of a move. Drain is a percentage
// of damage dealt recovered by the user (negative for recoil); Healing is
// a percentage of the user's own max HP restored.
type MoveMeta struct {
	Drain   int `json:"drain" yaml:"drain"`
	Healing int `json:"healing" yaml:"healing"`
}

// MoveOverrides are per-move data flags that bypass the standard damage
// multipliers.
type MoveOverrides struct {
	IgnoreStab          bool `json:"ignore_stab" yaml:"ignore_stab"`
	IgnoreEffectiveness bool `json:"ignore_effectiveness" yaml:"ignore_effectiveness"`
}

// Move is the read-only reference record for one move.
type Move struct {
	ID          int           `json:"id" yaml:"id"`
	Index       string        `json:"index" yaml:"index"`
	Name        string        `json:"name" yaml:"name"`
	Power       int           `json:"power" yaml:"power"`
	PP          int           `json:"pp" yaml:"pp"`
	Type        string        `json:"type" yaml:"type"`
	DamageClass string        `json:"damage_class" yaml:"damage_class"` // "physical", "special", "status"
	Meta        MoveMeta      `json:"meta" yaml:"meta"`
	Overrides   MoveOverrides `json:"overrides" yaml:"overrides"`
}

// TypeRelations lists how an attacking type fares against defending types.
type TypeRelations struct {
	Index          string   `json:"index" yaml:"index"`
	NoDamageTo     []string `json:"no_damage_to" yaml:"no_damage_to"`
	HalfDamageTo   []string `json:"half_damage_to" yaml:"half_damage_to"`
	DoubleDamageTo []string `json:"double_damage_to" yaml:"double_damage_to"`
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Against returns this attacking type's multiplier versus one defending
// type under normal rules: 0, 0.5, 2, or 1 for no relation.
func (r *TypeRelations) Against(defender string) float64 {
	switch {
	case contains(r.NoDamageTo, defender):
		return 0
	case contains(r.HalfDamageTo, defender):
		return 0.5
	case contains(r.DoubleDamageTo, defender):
		return 2
	}
	return 1
}
