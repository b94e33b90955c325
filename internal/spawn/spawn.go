// Package spawn creates and levels wild-encounter records. A spawn is
// region-scoped and independent of any one player; what each player sees
// of it (level, IVs, moveset) is a per-viewer view rolled on first sight.
package spawn

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/random"
	"github.com/tdmalone/slackemon-sub000/internal/stats"
)

// FleeTime is how long a spawn stays catchable after creation.
const FleeTime = 300 * time.Second

// maxCandidateAttempts bounds the retry loop when the reference dataset
// rejects candidates (missing stats, zero base experience).
const maxCandidateAttempts = 10

// ErrNoCandidate is returned when no valid spawn candidate could be
// produced within the attempt budget.
var ErrNoCandidate = errors.New("no valid spawn candidate after bounded retries")

// Trigger records why a spawn appeared. Onboarding triggers guarantee a
// successful catch for their target user.
type Trigger struct {
	Type   string `json:"type"` // "timed", "onboarding", "item"
	UserID string `json:"user_id,omitempty"`
}

// Spawn is the durable wild-encounter record.
type Spawn struct {
	ID        string  `json:"id"`
	SpeciesID int     `json:"species_id"`
	Species   string  `json:"species"`
	Region    string  `json:"region"`
	CreatedAt int64   `json:"created_at"`
	Trigger   Trigger `json:"trigger"`
	Boosted   bool    `json:"boosted"` // weather-boosted: narrower, higher IV band

	// Views holds the per-viewing-user instance. Writers must merge this
	// map, never overwrite it whole, so concurrent first-viewings by
	// different users both survive.
	Views map[string]*player.Pokemon `json:"views"`

	Version int `json:"version"`
}

// New creates a spawn record for a species in a region.
func New(species *data.Species, region string, trigger Trigger, boosted bool, now time.Time) *Spawn {
	return &Spawn{
		ID:        fmt.Sprintf("%d-%s", now.UnixNano(), region),
		SpeciesID: species.ID,
		Species:   species.Index,
		Region:    region,
		CreatedAt: now.Unix(),
		Trigger:   trigger,
		Boosted:   boosted,
		Views:     make(map[string]*player.Pokemon),
	}
}

// Expired reports whether the flee window has closed.
func (s *Spawn) Expired(at time.Time) bool {
	return at.After(time.Unix(s.CreatedAt, 0).Add(FleeTime))
}

// GuaranteedFor reports whether this spawn is an onboarding trigger that
// always yields a catch for the given user.
func (s *Spawn) GuaranteedFor(userID string) bool {
	return s.Trigger.Type == "onboarding" && s.Trigger.UserID == userID
}

// Candidate picks a species from the region pool, retrying past entries
// the reference dataset cannot support. The retry loop is bounded; a
// pathological pool yields ErrNoCandidate instead of unbounded recursion.
func Candidate(loader *data.Loader, pool []string) (*data.Species, error) {
	if len(pool) == 0 {
		return nil, ErrNoCandidate
	}
	for attempt := 0; attempt < maxCandidateAttempts; attempt++ {
		name := pool[random.Int(1, len(pool))-1]
		species, err := loader.Species(name)
		if err != nil {
			continue
		}
		if len(species.Stats) == 0 || species.BaseExperience <= 0 {
			continue
		}
		return species, nil
	}
	return nil, ErrNoCandidate
}

// LevelFor rolls a wild level for one viewing player. The level is
// randomized up to just below the viewer's strongest team member, with a
// further ceiling that keeps a not-yet-caught evolution line from
// spawning trivially ready to evolve: half the trigger level if the
// evolved form is uncaught, three quarters once it has been caught.
func LevelFor(viewer *player.Player, species *data.Species) float64 {
	cap := viewer.HighestTeamLevel() - 1
	if cap < 1 {
		cap = 1
	}

	for _, evo := range species.Evolutions {
		if evo.MinLevel <= 0 {
			continue
		}
		ceiling := float64(evo.MinLevel) / 2
		if entry, ok := viewer.Pokedex[evo.ToID]; ok && entry.Caught > 0 {
			ceiling = float64(evo.MinLevel) * 3 / 4
		}
		if ceiling < cap {
			cap = ceiling
		}
	}
	if cap < 1 {
		cap = 1
	}

	level := random.Float(1, cap)
	return math.Floor(level*10) / 10
}

// ViewFor returns the viewer's instance of this spawn, rolling it on
// first sight. Level, IVs, nature, and moveset are fixed per viewer from
// then on. The Pokédex "seen" counter increments on the first view only.
func (s *Spawn) ViewFor(viewer *player.Player, species *data.Species, loader *data.Loader) (*player.Pokemon, error) {
	if view, ok := s.Views[viewer.ID]; ok {
		return view, nil
	}

	minIV := stats.MinIV
	if s.Boosted {
		minIV = stats.BoostedMinIV
	}
	ivs := make(player.EVSpread, len(stats.StatNames))
	for _, name := range stats.StatNames {
		ivs[name] = random.Int(minIV, stats.MaxIV)
	}

	nature := stats.Natures[random.Int(1, len(stats.Natures))-1]

	view := &player.Pokemon{
		SpeciesID: species.ID,
		Species:   species.Index,
		Level:     LevelFor(viewer, species),
		Nature:    nature.Name,
		IVs:       ivs,
		EVs:       make(player.EVSpread),
		Happiness: 70,
	}
	view.XP = stats.XPForLevel(species.GrowthRate, view.Level)

	moveset, err := rollMoveset(species, loader)
	if err != nil {
		return nil, err
	}
	view.Moves = moveset

	view.Recompute(species)

	// Hide level/CP from viewers who have never seen anything this
	// strong. MaxSeenCP only rises on a successful catch, so the surprise
	// survives repeated encounters.
	view.StatsHidden = view.CP > viewer.MaxSeenCP

	viewer.Dex(species.ID).Seen++
	s.Views[viewer.ID] = view
	return view, nil
}

func rollMoveset(species *data.Species, loader *data.Loader) ([]player.MoveSlot, error) {
	pool := append([]string(nil), species.Moves...)
	slots := make([]player.MoveSlot, 0, player.MaxMoves)

	for len(pool) > 0 && len(slots) < player.MaxMoves {
		i := random.Int(1, len(pool)) - 1
		name := pool[i]
		pool = append(pool[:i], pool[i+1:]...)

		move, err := loader.Move(name)
		if err != nil {
			// A gap for one move in the dataset is survivable; a species
			// with no resolvable moves at all is not.
			continue
		}
		slots = append(slots, player.MoveSlot{Name: move.Name, PP: move.PP, MaxPP: move.PP})
	}

	if len(slots) == 0 {
		return nil, fmt.Errorf("%w: species %s has no resolvable moves", data.ErrUnavailable, species.Index)
	}
	return slots, nil
}
