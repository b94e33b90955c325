package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/random"
	"github.com/tdmalone/slackemon-sub000/internal/rules"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

// Spawner drops wild encounters into a region. Each spawn is drawn from
// the first manifest rule whose condition holds, falling back to the
// region's default pool when no rule fires.
type Spawner struct {
	Registry *rules.Registry
	Manifest *rules.Manifest
	Spawns   SpawnIndex
	Loader   *data.Loader
	Region   string
	Pool     []string
	Log      zerolog.Logger
	Now      func() time.Time

	// Announce, when set, posts the "a wild X appeared" line to the game
	// channel. Onboarding spawns are not announced.
	Announce func(text string)
}

// NewSpawner wires a spawner for one region.
func NewSpawner(registry *rules.Registry, manifest *rules.Manifest, spawns SpawnIndex, loader *data.Loader, region string, pool []string, log zerolog.Logger) *Spawner {
	return &Spawner{
		Registry: registry,
		Manifest: manifest,
		Spawns:   spawns,
		Loader:   loader,
		Region:   region,
		Pool:     pool,
		Log:      log,
		Now:      time.Now,
	}
}

// Spawn creates one wild encounter for the given trigger. The triggering
// player is part of the rule context for onboarding and item triggers;
// timed spawns pass nil.
func (s *Spawner) Spawn(trigger spawn.Trigger, p *player.Player) (*spawn.Spawn, error) {
	now := s.Now()
	pool, boosted := s.Pool, false

	ctx := rules.BuildEvalContext(s.Region, trigger.Type, p, now)
	rule, err := s.Registry.Match(s.Manifest, ctx)
	if err != nil {
		// A broken rule must not stop the world from spawning.
		s.Log.Warn().Err(err).Str("region", s.Region).Msg("spawn rule evaluation failed, using default pool")
	} else if rule != nil && len(rule.Pool) > 0 {
		pool, boosted = rule.Pool, rule.Boosted
		s.Log.Debug().Str("rule", rule.Name).Bool("boosted", boosted).Msg("spawn rule matched")
	}

	species, err := spawn.Candidate(s.Loader, pool)
	if err != nil {
		return nil, err
	}

	sp := spawn.New(species, s.Region, trigger, boosted, now)
	sp.Version++
	if err := s.Spawns.SaveSpawn(sp); err != nil {
		return nil, err
	}

	s.Log.Info().Str("spawn", sp.ID).Str("species", sp.Species).Str("trigger", trigger.Type).Msg("spawn created")
	if s.Announce != nil && trigger.Type != "onboarding" {
		s.Announce(fmt.Sprintf("A wild %s appeared! You have %s to catch or battle it.", species.Name, spawn.FleeTime))
	}
	return sp, nil
}

// Run drops timed spawns until the context is cancelled. The interval is
// jittered by up to half its length so spawns don't land on a metronome.
func (s *Spawner) Run(ctx context.Context, interval time.Duration) {
	for {
		wait := interval + time.Duration(random.Int(0, int(interval/2/time.Second)))*time.Second
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if _, err := s.Spawn(spawn.Trigger{Type: "timed"}, nil); err != nil {
			s.Log.Error().Err(err).Str("region", s.Region).Msg("timed spawn failed")
		}
	}
}
