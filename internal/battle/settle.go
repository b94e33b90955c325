package battle

import (
	"math"

	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/stats"
)

// Player-level XP awards applied at settlement.
const (
	WildWinXP = 175
	P2PWinXP  = 500
	LossXP    = 25
)

type settleOpts struct {
	timedOut bool
	fled     bool // the wild side escaped; nobody wins
}

// complete settles a decided battle in the given winner's favor.
func (m *Machine) complete(b *Battle, winnerKey string, timedOut bool) error {
	return m.settle(b, winnerKey, settleOpts{timedOut: timedOut})
}

func (m *Machine) completeTimedOut(b *Battle, winnerKey string) error {
	return m.settle(b, winnerKey, settleOpts{timedOut: true})
}

// completeWildFled ends a wild battle because the opponent escaped. The
// spawn record goes with it; the player keeps participation deltas only.
func (m *Machine) completeWildFled(b *Battle, wildSide *Side) error {
	if err := m.Spawns.DeleteSpawn(wildSide.Participant.SpawnID); err != nil {
		m.Log.Warn().Err(err).Str("spawn", wildSide.Participant.SpawnID).Msg("could not delete fled spawn")
	}
	human := b.Opponent(wildSide.Participant.Key())
	if human.Participant.Human() {
		wild := wildSide.Active()
		if wild == nil {
			wild = wildSide.Roster[0]
		}
		m.Notify.Notify(human.Participant.UserID, &WildFledEvent{Battle: b, Species: wild.Species})
	}
	return m.settle(b, wildSide.Participant.Key(), settleOpts{fled: true})
}

// settle applies end-of-battle progression to every human side and
// archives the record. Archiving removes the battle from the active set,
// so a second settlement attempt fails on load and the award cannot
// double-apply.
func (m *Machine) settle(b *Battle, winnerKey string, opts settleOpts) error {
	now := m.Now().Unix()

	for _, side := range b.Sides {
		if !side.Participant.Human() {
			continue
		}
		p, err := m.Players.GetPlayer(side.Participant.UserID)
		if err != nil {
			return err
		}

		won := side.Participant.Key() == winnerKey && !opts.fled
		opp := b.Opponent(side.Participant.Key())
		yield, evGains := m.defeatYield(opp)
		var deltas []PokemonDelta

		for _, snap := range side.Roster {
			live := p.Find(snap.Ts)
			if live == nil {
				continue // transferred away mid-battle
			}
			participated := snap.LastBattle == b.CreatedAt

			// Battle deltas always come home: HP, PP, and any faint
			// penalty accrued on the snapshot.
			live.HP = snap.HP
			live.Moves = append([]player.MoveSlot(nil), snap.Moves...)
			live.Happiness = snap.Happiness

			if !participated {
				continue
			}
			live.Battles++
			live.LastBattle = now
			live.AddHappiness(1)

			if !won {
				continue
			}
			live.BattlesWon++
			live.LastWin = now
			if snap.Fainted() {
				continue // fainted on the winning side: no XP, no EVs
			}

			species, err := m.Loader.Species(live.Species)
			if err != nil {
				return err
			}
			before := int(live.Level)
			levelFrom := live.Level
			live.XP += yield
			live.EVs = stats.ApplyEVs(live.EVs, evGains)
			live.Level = stats.LevelForXP(species.GrowthRate, live.XP)
			if gained := int(live.Level) - before; gained > 0 {
				live.AddHappiness(gained * happinessPerLevel(live.Happiness))
			}
			live.Recompute(species)
			deltas = append(deltas, PokemonDelta{
				Species:   live.Species,
				XP:        yield,
				EVs:       evGains,
				LevelFrom: levelFrom,
				LevelTo:   live.Level,
			})
		}

		playerXP := LossXP
		if won {
			playerXP = yield
			if b.Type == TypeWild {
				playerXP += WildWinXP
			} else {
				playerXP += P2PWinXP
			}
		}
		p.XP += playerXP
		p.Status = player.StatusActive
		p.Version++
		if err := m.Players.SavePlayer(p); err != nil {
			return err
		}

		if !opts.fled {
			m.Notify.Notify(p.ID, &BattleCompletedEvent{
				Battle:   b,
				Won:      won,
				PlayerXP: playerXP,
				TimedOut: opts.timedOut,
				Deltas:   deltas,
			})
		}
	}

	b.Version++
	if err := m.Battles.ArchiveBattle(b); err != nil {
		return err
	}
	m.Log.Info().Str("battle", b.Hash).Str("winner", winnerKey).Bool("timed_out", opts.timedOut).Msg("battle settled")
	return nil
}

// defeatYield totals the XP and EV gains granted by the opposing side's
// fainted members. XP follows floor(baseExperience x level / 7) per
// defeated foe; EVs come from each foe's effort yield stat.
func (m *Machine) defeatYield(opp *Side) (int, map[string]int) {
	total := 0
	evGains := make(map[string]int)
	for _, pk := range opp.Roster {
		if !pk.Fainted() {
			continue
		}
		species, err := m.Loader.Species(pk.Species)
		if err != nil {
			continue
		}
		total += int(math.Floor(float64(species.BaseExperience) * pk.Level / 7))
		if stat, effort := species.FirstEffortYield(); effort > 0 {
			evGains[stat] += effort
		}
	}
	return total, evGains
}

// happinessPerLevel is the per-level happiness gain band: warming up a
// grumpy Pokémon is faster than delighting an already happy one.
func happinessPerLevel(current int) int {
	switch {
	case current < 100:
		return 5
	case current < 200:
		return 3
	default:
		return 2
	}
}
