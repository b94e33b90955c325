package player

import "time"

// Status is the player's coarse availability state.
type Status string

const (
	StatusActive   Status = "active"
	StatusMuted    Status = "muted"
	StatusInBattle Status = "in-battle"
)

// TeamSize is the fixed battle-team size a player fields in battle.
const TeamSize = 3

// DexEntry tracks per-species encounter counters.
type DexEntry struct {
	Seen   int `json:"seen"`
	Caught int `json:"caught"`
	Fled   int `json:"fled"`
}

// Item is an owned bag item. The core only carries the reference; item
// effects live behind the presentation layer.
type Item struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Player is the durable record for one chat user.
type Player struct {
	ID      string `json:"id"`
	Region  string `json:"region"`
	XP      int    `json:"xp"`
	Status  Status `json:"status"`
	Version int    `json:"version"` // optimistic-concurrency counter

	Pokemon []*Pokemon        `json:"pokemon"`
	Items   []Item            `json:"items"`
	Pokedex map[int]*DexEntry `json:"pokedex"`

	// LeaderTs designates the battle-team member sent out first.
	LeaderTs string `json:"leader_ts,omitempty"`

	// MaxSeenCP gates the "???" reveal on spawns stronger than anything
	// this player has personally seen.
	MaxSeenCP int `json:"max_seen_cp"`

	SchemaVersion int `json:"schema_version"`
}

// New creates an empty player record in the given region.
func New(id, region string) *Player {
	return &Player{
		ID:            id,
		Region:        region,
		Status:        StatusActive,
		Pokedex:       make(map[int]*DexEntry),
		SchemaVersion: CurrentSchemaVersion,
	}
}

// Dex returns the Pokédex entry for a species, creating it on first use.
func (p *Player) Dex(speciesID int) *DexEntry {
	if p.Pokedex == nil {
		p.Pokedex = make(map[int]*DexEntry)
	}
	entry, ok := p.Pokedex[speciesID]
	if !ok {
		entry = &DexEntry{}
		p.Pokedex[speciesID] = entry
	}
	return entry
}

// Find locates an owned Pokémon by its immutable catch id.
func (p *Player) Find(ts string) *Pokemon {
	for _, pk := range p.Pokemon {
		if pk.Ts == ts {
			return pk
		}
	}
	return nil
}

// Remove deletes an owned Pokémon (transfer). It reports whether the id
// was present.
func (p *Player) Remove(ts string) bool {
	for i, pk := range p.Pokemon {
		if pk.Ts == ts {
			p.Pokemon = append(p.Pokemon[:i], p.Pokemon[i+1:]...)
			return true
		}
	}
	return false
}

// Team returns the designated battle team, leader first when one is set.
// The result is capped at TeamSize.
func (p *Player) Team() []*Pokemon {
	team := make([]*Pokemon, 0, TeamSize)
	if p.LeaderTs != "" {
		if leader := p.Find(p.LeaderTs); leader != nil && leader.OnTeam {
			team = append(team, leader)
		}
	}
	for _, pk := range p.Pokemon {
		if len(team) >= TeamSize {
			break
		}
		if pk.OnTeam && pk.Ts != p.LeaderTs {
			team = append(team, pk)
		}
	}
	return team
}

// HealthyTeam filters the battle team down to members able to fight.
func (p *Player) HealthyTeam() []*Pokemon {
	healthy := make([]*Pokemon, 0, TeamSize)
	for _, pk := range p.Team() {
		if !pk.Fainted() {
			healthy = append(healthy, pk)
		}
	}
	return healthy
}

// HighestTeamLevel returns the highest level on the battle team, falling
// back to the whole collection for players who have not built a team yet.
func (p *Player) HighestTeamLevel() float64 {
	pool := p.Team()
	if len(pool) == 0 {
		pool = p.Pokemon
	}
	highest := 1.0
	for _, pk := range pool {
		if pk.Level > highest {
			highest = pk.Level
		}
	}
	return highest
}

// Regenerate applies lazy out-of-battle recovery across the collection.
// Call once at load; in-battle copies are snapshots and are unaffected.
func (p *Player) Regenerate(now time.Time) {
	if p.Status == StatusInBattle {
		return
	}
	for _, pk := range p.Pokemon {
		pk.Regenerate(now)
	}
}
