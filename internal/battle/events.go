package battle

import (
	"fmt"
	"sort"
	"strings"
)

type EventType string

const (
	EventInviteSent      EventType = "InviteSent"
	EventInviteAccepted  EventType = "InviteAccepted"
	EventInviteDeclined  EventType = "InviteDeclined"
	EventInviteCancelled EventType = "InviteCancelled"
	EventInviteExpired   EventType = "InviteExpired"
	EventBattleStarted   EventType = "BattleStarted"
	EventTurnChanged     EventType = "TurnChanged"
	EventSwapped         EventType = "Swapped"
	EventBattleCompleted EventType = "BattleCompleted"
	EventBattleAborted   EventType = "BattleAborted"
	EventWildFled        EventType = "WildFled"
)

// Event is one outbound chat notification produced by the machine. The
// transport layer renders Message() into the participant's channel.
type Event interface {
	Type() EventType
	Message() string
}

// Notifier delivers an event to one human participant. Delivery is fire
// and forget; a lost message never rolls back battle state.
type Notifier interface {
	Notify(userID string, evt Event)
}

// NopNotifier discards events. Useful for sweeps and tests.
type NopNotifier struct{}

func (NopNotifier) Notify(string, Event) {}

// InviteSentEvent announces a new challenge to the invitee.
type InviteSentEvent struct {
	Invite *Invite
}

func (e *InviteSentEvent) Type() EventType { return EventInviteSent }
func (e *InviteSentEvent) Message() string {
	return fmt.Sprintf("%s has challenged you to a battle! Invite %s expires in %s.",
		e.Invite.InviterID, e.Invite.Hash, InviteExpiry)
}

// InviteAcceptedEvent tells the inviter the battle is on.
type InviteAcceptedEvent struct {
	Invite *Invite
	Battle *Battle
}

func (e *InviteAcceptedEvent) Type() EventType { return EventInviteAccepted }
func (e *InviteAcceptedEvent) Message() string {
	return fmt.Sprintf("%s accepted your challenge. Battle %s has begun!",
		e.Invite.InviteeID, e.Battle.Hash)
}

// InviteDeclinedEvent tells the inviter the challenge was turned down.
type InviteDeclinedEvent struct {
	Invite *Invite
}

func (e *InviteDeclinedEvent) Type() EventType { return EventInviteDeclined }
func (e *InviteDeclinedEvent) Message() string {
	return fmt.Sprintf("%s declined your challenge.", e.Invite.InviteeID)
}

// InviteCancelledEvent tells the invitee the challenge was withdrawn.
type InviteCancelledEvent struct {
	Invite *Invite
}

func (e *InviteCancelledEvent) Type() EventType { return EventInviteCancelled }
func (e *InviteCancelledEvent) Message() string {
	return fmt.Sprintf("%s withdrew their challenge.", e.Invite.InviterID)
}

// InviteExpiredEvent is sent to both parties when the window closes.
type InviteExpiredEvent struct {
	Invite *Invite
}

func (e *InviteExpiredEvent) Type() EventType { return EventInviteExpired }
func (e *InviteExpiredEvent) Message() string {
	return fmt.Sprintf("Battle invite %s expired without a response.", e.Invite.Hash)
}

// BattleStartedEvent announces the opening state of a battle.
type BattleStartedEvent struct {
	Battle   *Battle
	Opponent string
}

func (e *BattleStartedEvent) Type() EventType { return EventBattleStarted }
func (e *BattleStartedEvent) Message() string {
	return fmt.Sprintf("Battle %s against %s has begun!", e.Battle.Hash, e.Opponent)
}

// TurnChangedEvent carries the result of one resolved move.
type TurnChangedEvent struct {
	Battle   *Battle
	Attacker string
	Defender string
	Move     string
	Damage   int
	Percent  float64
	Verdict  string // "super effective", "not very effective", "no effect", ""
	Fainted  bool
	NextTurn string
}

func (e *TurnChangedEvent) Type() EventType { return EventTurnChanged }
func (e *TurnChangedEvent) Message() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s used %s on %s for %d damage (%.0f%%).",
		e.Attacker, e.Move, e.Defender, e.Damage, e.Percent)
	if e.Verdict != "" {
		fmt.Fprintf(&sb, " It's %s!", e.Verdict)
	}
	if e.Fainted {
		fmt.Fprintf(&sb, " %s fainted!", e.Defender)
	}
	return sb.String()
}

// SwappedEvent announces an active-combatant change on one side.
type SwappedEvent struct {
	Battle *Battle
	ByUser string
	In     string
	Forced bool
}

func (e *SwappedEvent) Type() EventType { return EventSwapped }
func (e *SwappedEvent) Message() string {
	if e.Forced {
		return fmt.Sprintf("%s sent out %s!", e.ByUser, e.In)
	}
	return fmt.Sprintf("%s swapped to %s.", e.ByUser, e.In)
}

// PokemonDelta itemizes one surviving winner's settlement gains.
type PokemonDelta struct {
	Species   string
	XP        int
	EVs       map[string]int
	LevelFrom float64
	LevelTo   float64
}

// BattleCompletedEvent summarizes the final outcome for one recipient,
// with the per-Pokémon progression itemized for winners.
type BattleCompletedEvent struct {
	Battle   *Battle
	Won      bool
	PlayerXP int
	TimedOut bool
	Deltas   []PokemonDelta
}

func (e *BattleCompletedEvent) Type() EventType { return EventBattleCompleted }
func (e *BattleCompletedEvent) Message() string {
	var sb strings.Builder
	switch {
	case e.TimedOut && !e.Won:
		fmt.Fprintf(&sb, "Battle %s timed out; it counts as a loss. +%d XP.", e.Battle.Hash, e.PlayerXP)
	case e.Won:
		fmt.Fprintf(&sb, "You won battle %s! +%d XP.", e.Battle.Hash, e.PlayerXP)
	default:
		fmt.Fprintf(&sb, "You lost battle %s. +%d XP.", e.Battle.Hash, e.PlayerXP)
	}
	for _, d := range e.Deltas {
		fmt.Fprintf(&sb, "\n%s: +%d XP", d.Species, d.XP)
		keys := make([]string, 0, len(d.EVs))
		for k := range d.EVs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, ", +%d %s EV", d.EVs[k], k)
		}
		if d.LevelTo > d.LevelFrom {
			fmt.Fprintf(&sb, ", now L%.1f", d.LevelTo)
		}
	}
	return sb.String()
}

// BattleAbortedEvent reports a battle that could not start or continue.
type BattleAbortedEvent struct {
	Battle *Battle
	Reason string
}

func (e *BattleAbortedEvent) Type() EventType { return EventBattleAborted }
func (e *BattleAbortedEvent) Message() string {
	return fmt.Sprintf("Battle %s was called off: %s.", e.Battle.Hash, e.Reason)
}

// WildFledEvent tells the user their opponent escaped mid-battle.
type WildFledEvent struct {
	Battle  *Battle
	Species string
}

func (e *WildFledEvent) Type() EventType { return EventWildFled }
func (e *WildFledEvent) Message() string {
	return fmt.Sprintf("The wild %s fled!", e.Species)
}

// effectivenessVerdict maps a type-effectiveness multiplier onto the
// phrase shown to players.
func effectivenessVerdict(eff float64) string {
	switch {
	case eff == 0:
		return "no effect"
	case eff < 1:
		return "not very effective"
	case eff > 1:
		return "super effective"
	default:
		return ""
	}
}
