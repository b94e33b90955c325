package battle

import (
	"fmt"

	"github.com/tdmalone/slackemon-sub000/internal/catch"
	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/moves"
	"github.com/tdmalone/slackemon-sub000/internal/random"
)

// aiAct plays the wild side's turn: a flee check first, then the
// strongest usable move. The caller holds the battle lock.
func (m *Machine) aiAct(b *Battle) error {
	side := b.SideFor(b.Turn)
	if side == nil || side.Participant.Human() {
		return fmt.Errorf("ai turn requested but turn belongs to %s", b.Turn)
	}
	wild := side.Active()
	if wild == nil || wild.Fainted() {
		return fmt.Errorf("wild side has no active Pokémon")
	}

	// A wild Pokémon that has taken damage may bolt. The roll ceiling
	// widens as its HP drops, so a weakened opponent is LESS likely to
	// run, mirroring how much easier it is to catch.
	if wild.HP < wild.MaxHP() {
		if random.Int(1, catch.BattleCeiling(hpFraction(wild))) == 1 {
			return m.completeWildFled(b, side)
		}
	}

	return m.applyMove(b, side, chooseMove(m.knownMoves(wild)))
}

// chooseMove picks the highest-power move that still has PP, ties broken
// by declaration order. With nothing usable the fallback move is used.
func chooseMove(known []*data.Move, pp map[string]int) string {
	var best *data.Move
	for _, mv := range known {
		if pp[mv.Name] <= 0 {
			continue
		}
		if best == nil || mv.Power > best.Power {
			best = mv
		}
	}
	if best == nil {
		return moves.Backup.Name
	}
	return best.Name
}
