package parser

import (
	"strings"
)

// Command represents one top-level action typed into the chat channel.
type Command struct {
	Catch   *CatchCmd   `parser:"( @@"`
	Battle  *BattleCmd  `parser:"| @@"`
	Accept  *AcceptCmd  `parser:"| @@"`
	Decline *DeclineCmd `parser:"| @@"`
	Cancel  *CancelCmd  `parser:"| @@"`
	Move    *MoveCmd    `parser:"| @@"`
	Swap    *SwapCmd    `parser:"| @@"`
	Flee    *FleeCmd    `parser:"| @@"`
	Throw   *ThrowCmd   `parser:"| @@"`
	Team    *TeamCmd    `parser:"| @@"`
	Dex     *DexCmd     `parser:"| @@"`
	Help    *HelpCmd    `parser:"| @@ )"`
}

// CatchCmd throws at the current spawn in the user's region.
type CatchCmd struct {
	Keyword string `parser:"@(\"catch\"|\"Catch\"|\"CATCH\")"`
}

// BattleCmd starts a wild battle, or challenges another user.
type BattleCmd struct {
	Keyword string `parser:"@(\"battle\"|\"Battle\"|\"BATTLE\")"`
	Target  string `parser:"@(Ident|Mention|\"wild\")?"`
}

// Wild reports whether the battle targets the current spawn rather than
// another user.
func (b *BattleCmd) Wild() bool {
	return b.Target == "" || strings.EqualFold(b.Target, "wild")
}

// Opponent returns the challenged user id, stripped of chat mention
// decoration (<@U123> and @U123 both resolve to U123).
func (b *BattleCmd) Opponent() string {
	t := strings.TrimSuffix(strings.TrimPrefix(b.Target, "<"), ">")
	return strings.TrimPrefix(t, "@")
}

// AcceptCmd accepts a pending battle invite. The invite hash is optional
// when the user has exactly one.
type AcceptCmd struct {
	Keyword string `parser:"@(\"accept\"|\"Accept\"|\"ACCEPT\")"`
	Hash    string `parser:"@(Hash|Ident)?"`
}

// DeclineCmd turns a pending invite down.
type DeclineCmd struct {
	Keyword string `parser:"@(\"decline\"|\"Decline\"|\"DECLINE\")"`
	Hash    string `parser:"@(Hash|Ident)?"`
}

// CancelCmd withdraws the user's own outstanding invite.
type CancelCmd struct {
	Keyword string `parser:"@(\"cancel\"|\"Cancel\"|\"CANCEL\")"`
	Hash    string `parser:"@(Hash|Ident)?"`
}

// MoveCmd uses a named move on the user's turn. Move names can span
// several words ("karate chop").
type MoveCmd struct {
	Keyword string   `parser:"@(\"move\"|\"Move\"|\"MOVE\"|\"use\"|\"Use\"|\"USE\")"`
	Name    []string `parser:"@(Ident|Int)+"`
}

// MoveName joins the name words back into the form reference data uses.
func (m *MoveCmd) MoveName() string {
	return strings.Join(m.Name, " ")
}

// SwapCmd changes the active battle Pokémon, by team slot number or
// catch id.
type SwapCmd struct {
	Keyword string `parser:"@(\"swap\"|\"Swap\"|\"SWAP\")"`
	Target  string `parser:"@(Ts|Int|Ident)"`
}

// FleeCmd abandons the current wild battle.
type FleeCmd struct {
	Keyword string `parser:"@(\"flee\"|\"Flee\"|\"FLEE\"|\"run\"|\"Run\"|\"RUN\")"`
}

// ThrowCmd attempts an in-battle catch of the wild opponent.
type ThrowCmd struct {
	Keyword string `parser:"@(\"throw\"|\"Throw\"|\"THROW\")"`
}

// TeamCmd shows the user's battle team.
type TeamCmd struct {
	Keyword string `parser:"@(\"team\"|\"Team\"|\"TEAM\")"`
}

// DexCmd shows Pokédex progress.
type DexCmd struct {
	Keyword string `parser:"@(\"pokedex\"|\"Pokedex\"|\"POKEDEX\"|\"dex\"|\"Dex\"|\"DEX\")"`
}

// HelpCmd lists the available commands.
type HelpCmd struct {
	Keyword string `parser:"@(\"help\"|\"Help\"|\"HELP\")"`
	Command string `parser:"(@Ident|@Keyword)?"`
}
