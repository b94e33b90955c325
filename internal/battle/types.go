// Package battle owns the battle lifecycle: invites, the active turn
// machine, the AI opponent, timeout sweeps, and end-of-battle settlement.
// It is the only package that reads and writes durable records; the
// stat/move/catch engines it drives stay pure.
package battle

import (
	"errors"
	"time"

	"github.com/tdmalone/slackemon-sub000/internal/player"
)

// Battle pacing and limits.
const (
	TurnTimeout  = 25 * time.Minute
	InviteExpiry = 10 * time.Minute
	MaxSwaps     = 3
)

// Typed failures the orchestrator surfaces to callers. ErrInvalidTurn is
// deliberately silent: a stale button press must not change state or
// produce a visible error.
var (
	ErrNotFound         = errors.New("record not found or already archived")
	ErrInvalidTurn      = errors.New("silently ignored: not this participant's turn")
	ErrIneligibleRoster = errors.New("not enough healthy Pokémon to field a team")
	ErrConflict         = errors.New("concurrent write conflict")
	ErrInviteExists     = errors.New("an invite is already outstanding for this user")
)

// Type distinguishes wild encounters from player-versus-player battles.
type Type string

const (
	TypeWild Type = "wild"
	TypeP2P  Type = "p2p"
)

// ParticipantKind tags the Participant union.
type ParticipantKind string

const (
	KindHuman ParticipantKind = "human"
	KindWild  ParticipantKind = "wild"
)

// Participant identifies one side of a battle: a human chat user or a
// wild spawn standing in as an opponent. The explicit tag replaces the
// old id-prefix convention; only humans have a notification channel.
type Participant struct {
	Kind    ParticipantKind `json:"kind"`
	UserID  string          `json:"user_id,omitempty"`
	SpawnID string          `json:"spawn_id,omitempty"`
}

// Key returns the identity used for turn ownership checks.
func (p Participant) Key() string {
	if p.Kind == KindWild {
		return p.SpawnID
	}
	return p.UserID
}

// Human reports whether this side is a notifiable chat user.
func (p Participant) Human() bool {
	return p.Kind == KindHuman
}

// Side is one participant slot: the participant, a deep-copied roster
// snapshot, the currently active combatant, and the swap budget. Battle
// mutations apply to these copies and reach the player's live collection
// only at settlement.
type Side struct {
	Participant Participant       `json:"participant"`
	Roster      []*player.Pokemon `json:"roster"`
	ActiveTs    string            `json:"active_ts"`
	SwapsLeft   int               `json:"swaps_left"`
}

// Active returns the side's current combatant.
func (s *Side) Active() *player.Pokemon {
	for _, pk := range s.Roster {
		if pk.Ts == s.ActiveTs {
			return pk
		}
	}
	return nil
}

// Healthy counts roster members still able to fight.
func (s *Side) Healthy() []*player.Pokemon {
	out := make([]*player.Pokemon, 0, len(s.Roster))
	for _, pk := range s.Roster {
		if !pk.Fainted() {
			out = append(out, pk)
		}
	}
	return out
}

// Wiped reports whether the side has no combatant left standing.
func (s *Side) Wiped() bool {
	return len(s.Healthy()) == 0
}

// Battle is the durable record of one two-sided fight.
type Battle struct {
	Hash      string   `json:"hash"`
	Type      Type     `json:"type"`
	Sides     [2]*Side `json:"sides"`
	Turn      string   `json:"turn"` // Key() of the side whose turn it is
	Inverse   bool     `json:"inverse"`
	LastMove  int64    `json:"last_move_ts"`
	CreatedAt int64    `json:"created_at"`
	Version   int      `json:"version"` // optimistic-concurrency counter
}

// SideFor returns the side owned by the given participant key, or nil.
func (b *Battle) SideFor(key string) *Side {
	for _, s := range b.Sides {
		if s.Participant.Key() == key {
			return s
		}
	}
	return nil
}

// Opponent returns the other side relative to a participant key.
func (b *Battle) Opponent(key string) *Side {
	for _, s := range b.Sides {
		if s.Participant.Key() != key {
			return s
		}
	}
	return nil
}

// Invite is the ephemeral challenge record between two humans.
type Invite struct {
	Hash      string `json:"hash"`
	InviterID string `json:"inviter_id"`
	InviteeID string `json:"invitee_id"`
	CreatedAt int64  `json:"created_at"`
}

// ExpiredAt reports whether the invite has outlived its window.
func (i *Invite) ExpiredAt(now time.Time) bool {
	return now.After(time.Unix(i.CreatedAt, 0).Add(InviteExpiry))
}
