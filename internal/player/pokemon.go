// Package player defines the durable records owned by a player: the
// player record itself, its Pokémon collection, and the Pokédex. Records
// are plain JSON-shaped structs; all derived numbers are recomputed from
// reference data, never trusted from storage.
package player

import (
	"fmt"
	"time"

	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/stats"
)

// MaxMoves is the moveset size limit for a single Pokémon.
const MaxMoves = 4

// Regeneration pacing for Pokémon that are out of battle.
const (
	FullHealAfter = 60 * time.Minute
	PPRegenEvery  = 5 * time.Minute
)

// MoveSlot is one known move with its PP bookkeeping.
type MoveSlot struct {
	Name  string `json:"name"`
	PP    int    `json:"pp"`
	MaxPP int    `json:"pp_max"`
}

// Pokemon is a single owned (or transiently battle-held) instance.
// Ts is the catch-timestamp id and is immutable for the instance's
// lifetime; it is the only join key used to reconcile battle copies
// back into a player's collection.
type Pokemon struct {
	Ts        string `json:"ts"`
	SpeciesID int    `json:"species_id"`
	Species   string `json:"species"`
	Variety   string `json:"variety,omitempty"`

	Level  float64 `json:"level"`
	XP     int     `json:"xp"`
	Nature string  `json:"nature"`

	IVs EVSpread `json:"ivs"`
	EVs EVSpread `json:"evs"`

	// Derived stats, keyed by stat name; "hp" holds the maximum.
	Stats map[string]int `json:"stats"`
	HP    int            `json:"hp"`
	CP    int            `json:"cp"`

	Happiness int        `json:"happiness"`
	Moves     []MoveSlot `json:"moves"`

	Battles    int   `json:"battles"`
	BattlesWon int   `json:"battles_won"`
	LastBattle int64 `json:"last_battle_ts"`
	LastWin    int64 `json:"last_win_ts"`

	Favorite    bool   `json:"favorite"`
	OnTeam      bool   `json:"on_team"`
	StatsHidden bool   `json:"stats_hidden"`
	HeldItem    string `json:"held_item,omitempty"`
}

// Fainted reports whether the instance is at 0 HP and unable to act.
func (p *Pokemon) Fainted() bool {
	return p.HP <= 0
}

// MaxHP returns the derived HP ceiling.
func (p *Pokemon) MaxHP() int {
	return p.Stats[stats.StatHP]
}

// SetHP clamps and stores current HP. The [0, max] invariant holds after
// every damage, heal, or drain application.
func (p *Pokemon) SetHP(hp int) {
	if hp < 0 {
		hp = 0
	}
	if max := p.MaxHP(); hp > max {
		hp = max
	}
	p.HP = hp
}

// Move returns the named move slot, or nil if unknown.
func (p *Pokemon) Move(name string) *MoveSlot {
	for i := range p.Moves {
		if p.Moves[i].Name == name {
			return &p.Moves[i]
		}
	}
	return nil
}

// Recompute refreshes the six derived stats and CP from reference data at
// the instance's current level. Current HP is scaled to preserve the
// damage fraction across a max-HP change.
func (p *Pokemon) Recompute(species *data.Species) {
	nature := stats.NatureByName(p.Nature)

	oldMax := p.MaxHP()
	if p.Stats == nil {
		p.Stats = make(map[string]int)
	}
	for _, name := range stats.StatNames {
		p.Stats[name] = stats.Calculate(name, species.BaseStat(name), p.IVs[name], p.EVs[name], p.Level, nature)
	}
	p.CP = stats.CP(
		p.Stats[stats.StatAttack], p.Stats[stats.StatDefense],
		p.Stats[stats.StatHP], p.Stats[stats.StatSpeed],
		p.Stats[stats.StatSpecialAttack], p.Stats[stats.StatSpecialDefense],
	)

	if oldMax > 0 && p.MaxHP() != oldMax {
		p.SetHP(p.HP * p.MaxHP() / oldMax)
	} else if oldMax == 0 {
		p.HP = p.MaxHP()
	}
}

// AddHappiness applies a happiness delta within the 0-255 band. Favorites
// resist decay and never drop below 70.
func (p *Pokemon) AddHappiness(delta int) {
	p.Happiness += delta
	if p.Happiness > 255 {
		p.Happiness = 255
	}
	floor := 0
	if p.Favorite {
		floor = 70
	}
	if p.Happiness < floor {
		p.Happiness = floor
	}
}

// Regenerate applies lazy time-based recovery for instances that are out
// of battle: HP returns linearly over FullHealAfter since the last
// battle, and each move regains 1 PP per PPRegenEvery elapsed.
func (p *Pokemon) Regenerate(now time.Time) {
	if p.LastBattle == 0 {
		return
	}
	elapsed := now.Sub(time.Unix(p.LastBattle, 0))
	if elapsed <= 0 {
		return
	}

	if p.HP < p.MaxHP() {
		if elapsed >= FullHealAfter {
			p.SetHP(p.MaxHP())
		} else {
			recovered := int(float64(p.MaxHP()) * elapsed.Seconds() / FullHealAfter.Seconds())
			p.SetHP(p.HP + recovered)
		}
	}

	ticks := int(elapsed / PPRegenEvery)
	if ticks <= 0 {
		return
	}
	for i := range p.Moves {
		slot := &p.Moves[i]
		slot.PP += ticks
		if slot.PP > slot.MaxPP {
			slot.PP = slot.MaxPP
		}
	}
}

// Clone returns a deep copy, used for battle roster snapshots so that
// in-battle mutation never touches the live collection.
func (p *Pokemon) Clone() *Pokemon {
	c := *p
	c.IVs = make(EVSpread, len(p.IVs))
	for k, v := range p.IVs {
		c.IVs[k] = v
	}
	c.EVs = make(EVSpread, len(p.EVs))
	for k, v := range p.EVs {
		c.EVs[k] = v
	}
	c.Stats = make(map[string]int, len(p.Stats))
	for k, v := range p.Stats {
		c.Stats[k] = v
	}
	c.Moves = append([]MoveSlot(nil), p.Moves...)
	return &c
}

// NewTs mints a catch-timestamp id. Ids only need to be unique within a
// player's collection; sub-second precision covers multi-catch bursts.
func NewTs(now time.Time) string {
	return fmt.Sprintf("%d.%06d", now.Unix(), now.Nanosecond()/1000)
}
