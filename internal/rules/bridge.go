package rules

import (
	"time"

	"github.com/tdmalone/slackemon-sub000/internal/player"
)

// ContextFromPlayer converts a player record into a map suitable for CEL
// evaluation.
func ContextFromPlayer(p *player.Player) map[string]any {
	if p == nil {
		return nil
	}
	caught := 0
	for _, entry := range p.Pokedex {
		if entry.Caught > 0 {
			caught++
		}
	}
	return map[string]any{
		"id":          p.ID,
		"region":      p.Region,
		"xp":          p.XP,
		"status":      string(p.Status),
		"collection":  len(p.Pokemon),
		"dex_caught":  caught,
		"max_seen_cp": p.MaxSeenCP,
	}
}

// BuildEvalContext creates the standard spawn-rule context: the region,
// the triggering player (nil for timed spawns), and the wall clock.
func BuildEvalContext(region, trigger string, p *player.Player, now time.Time) map[string]any {
	res := map[string]any{
		"region": map[string]any{
			"name": region,
		},
		"trigger": trigger,
		"clock": map[string]any{
			"hour":    now.Hour(),
			"weekday": now.Weekday().String(),
		},
	}
	if ctx := ContextFromPlayer(p); ctx != nil {
		res["player"] = ctx
	} else {
		res["player"] = map[string]any{}
	}
	return res
}
