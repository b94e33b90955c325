package player

import (
	"encoding/json"

	"github.com/tdmalone/slackemon-sub000/internal/stats"
)

// CurrentSchemaVersion marks the record layout this code writes. Older
// blobs are upgraded exactly once, at load time, by Migrate.
const CurrentSchemaVersion = 2

// EVSpread is a stat-keyed integer map that tolerates the legacy wire
// shapes the game accumulated over its lifetime: absent entirely, a bare
// 6-element array in stat order, or the modern keyed object.
type EVSpread map[string]int

// UnmarshalJSON accepts both the array-shaped legacy encoding and the
// keyed object encoding.
func (e *EVSpread) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		var arr []int
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		spread := make(EVSpread, len(stats.StatNames))
		for i, name := range stats.StatNames {
			if i < len(arr) {
				spread[name] = arr[i]
			}
		}
		*e = spread
		return nil
	}

	var m map[string]int
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*e = EVSpread(m)
	return nil
}

// Migrate upgrades a freshly loaded record to the current schema. It is
// idempotent; loading code calls it unconditionally.
func (p *Player) Migrate() {
	if p.Pokedex == nil {
		p.Pokedex = make(map[int]*DexEntry)
	}
	if p.Status == "" {
		p.Status = StatusActive
	}

	for _, pk := range p.Pokemon {
		if pk.IVs == nil {
			pk.IVs = make(EVSpread)
		}
		if pk.EVs == nil {
			pk.EVs = make(EVSpread)
		}
		if pk.Stats == nil {
			pk.Stats = make(map[string]int)
		}
		if pk.Nature == "" {
			pk.Nature = "hardy"
		}
		if pk.Level < 1 {
			pk.Level = 1
		}
		for i := range pk.Moves {
			if pk.Moves[i].MaxPP == 0 {
				pk.Moves[i].MaxPP = pk.Moves[i].PP
			}
		}
	}

	p.SchemaVersion = CurrentSchemaVersion
}
