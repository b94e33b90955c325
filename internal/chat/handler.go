package chat

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/rs/zerolog"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/catch"
	"github.com/tdmalone/slackemon-sub000/internal/data"
	"github.com/tdmalone/slackemon-sub000/internal/moves"
	"github.com/tdmalone/slackemon-sub000/internal/parser"
	"github.com/tdmalone/slackemon-sub000/internal/player"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

// SpawnIndex is the handler's view of spawn persistence: everything the
// battle machine needs, plus region listing for "what's around?".
type SpawnIndex interface {
	battle.SpawnStore
	ListSpawns(region string) ([]*spawn.Spawn, error)
}

// Handler turns parsed chat commands into game operations. One handler
// serves every user in a region; per-user state lives in the stores.
type Handler struct {
	Machine *battle.Machine
	Spawns  SpawnIndex
	Region  string
	Log     zerolog.Logger
	Now     func() time.Time

	// Spawner, when set, drops a guaranteed onboarding spawn for users the
	// bot has never seen before.
	Spawner *Spawner

	parser *participle.Parser[parser.Command]
}

// NewHandler wires a handler over a battle machine and its spawn store.
func NewHandler(m *battle.Machine, spawns SpawnIndex, region string, log zerolog.Logger) *Handler {
	return &Handler{
		Machine: m,
		Spawns:  spawns,
		Region:  region,
		Log:     log,
		Now:     time.Now,
		parser:  parser.Build(),
	}
}

// Execute parses and runs one chat command for a user. Parse failures
// come back as guidance messages, not errors; a nil message list means
// the command was deliberately dropped without a reply.
func (h *Handler) Execute(userID, text string) (*CommandResult, error) {
	cmd, err := h.parser.ParseString("", strings.TrimSpace(text))
	if err != nil {
		return &CommandResult{Messages: []string{parser.MapError(text, err).Error()}}, nil
	}

	p, err := h.loadPlayer(userID)
	if err != nil {
		return nil, err
	}

	switch {
	case cmd.Catch != nil:
		return h.catchCmd(p)
	case cmd.Battle != nil:
		if cmd.Battle.Wild() {
			return h.battleWildCmd(p)
		}
		return h.challengeCmd(p, cmd.Battle.Opponent())
	case cmd.Accept != nil:
		return h.acceptCmd(p, cmd.Accept.Hash)
	case cmd.Decline != nil:
		return h.declineCmd(p, cmd.Decline.Hash)
	case cmd.Cancel != nil:
		return h.cancelCmd(p, cmd.Cancel.Hash)
	case cmd.Move != nil:
		// Normalize to the reference index form: "Karate Chop" and
		// "karate chop" both resolve to karate-chop.
		return h.moveCmd(p, strings.ToLower(strings.ReplaceAll(cmd.Move.MoveName(), " ", "-")))
	case cmd.Swap != nil:
		return h.swapCmd(p, cmd.Swap.Target)
	case cmd.Flee != nil:
		return h.fleeCmd(p)
	case cmd.Throw != nil:
		return h.throwCmd(p)
	case cmd.Team != nil:
		return h.teamCmd(p)
	case cmd.Dex != nil:
		return h.dexCmd(p)
	case cmd.Help != nil:
		return helpResult(cmd.Help.Command), nil
	}
	return &CommandResult{Messages: []string{"I wasn't able to understand that command"}}, nil
}

// loadPlayer fetches the player record, creating it on first contact and
// applying lazy out-of-battle regeneration.
func (h *Handler) loadPlayer(userID string) (*player.Player, error) {
	p, err := h.Machine.Players.GetPlayer(userID)
	if errors.Is(err, battle.ErrNotFound) {
		p = player.New(userID, h.Region)
		p.Version++
		if err := h.Machine.Players.SavePlayer(p); err != nil {
			return nil, err
		}
		h.Log.Info().Str("player", userID).Str("region", h.Region).Msg("new player registered")
		if h.Spawner != nil {
			if _, err := h.Spawner.Spawn(spawn.Trigger{Type: "onboarding", UserID: userID}, p); err != nil {
				h.Log.Warn().Err(err).Str("player", userID).Msg("onboarding spawn failed")
			}
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	if p.Status != player.StatusInBattle {
		p.Regenerate(h.Now())
		p.Version++
		if err := h.Machine.Players.SavePlayer(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// currentSpawn returns the freshest catchable spawn in the region, the
// caller's onboarding spawns included.
func (h *Handler) currentSpawn(userID string) (*spawn.Spawn, error) {
	spawns, err := h.Spawns.ListSpawns(h.Region)
	if err != nil {
		return nil, err
	}
	now := h.Now()
	var best *spawn.Spawn
	for _, sp := range spawns {
		if sp.Expired(now) {
			continue
		}
		if sp.Trigger.Type == "onboarding" && sp.Trigger.UserID != userID {
			continue
		}
		if best == nil || sp.CreatedAt > best.CreatedAt {
			best = sp
		}
	}
	return best, nil
}

// activeBattle finds the battle the user is currently a side of, if any.
func (h *Handler) activeBattle(userID string) (*battle.Battle, error) {
	active, err := h.Machine.Battles.ListActiveBattles()
	if err != nil {
		return nil, err
	}
	for _, b := range active {
		if b.SideFor(userID) != nil {
			return b, nil
		}
	}
	return nil, nil
}

func (h *Handler) catchCmd(p *player.Player) (*CommandResult, error) {
	// Mid-battle, "catch" means a throw at the wild opponent.
	if b, err := h.activeBattle(p.ID); err != nil {
		return nil, err
	} else if b != nil {
		return h.throwAt(p, b)
	}

	sp, err := h.currentSpawn(p.ID)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return &CommandResult{Messages: []string{"There's nothing around to catch right now."}}, nil
	}

	species, err := h.Machine.Loader.Species(sp.Species)
	if err != nil {
		return nil, err
	}
	if _, err := sp.ViewFor(p, species, h.Machine.Loader); err != nil {
		return nil, err
	}

	outcome, err := catch.Resolve(catch.Attempt{Spawn: sp, At: h.Now()}, p)
	if err != nil {
		return nil, err
	}
	p.Version++
	if err := h.Machine.Players.SavePlayer(p); err != nil {
		return nil, err
	}
	sp.Version++
	if err := h.Spawns.SaveSpawn(sp); err != nil {
		return nil, err
	}
	return &CommandResult{Messages: []string{renderCatch(outcome, species.Name)}}, nil
}

func (h *Handler) battleWildCmd(p *player.Player) (*CommandResult, error) {
	sp, err := h.currentSpawn(p.ID)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return &CommandResult{Messages: []string{"There's nothing around to battle right now."}}, nil
	}
	b, err := h.Machine.StartWild(p.ID, sp.ID)
	if err != nil {
		if errors.Is(err, battle.ErrIneligibleRoster) {
			return &CommandResult{Messages: []string{"You need at least one healthy team member to battle. Try: team"}}, nil
		}
		return nil, err
	}
	// The wild can bolt on its opening turn; the notifier has already
	// narrated that, so there is no battle to announce.
	if _, err := h.Machine.Battles.GetBattle(b.Hash); err != nil {
		return &CommandResult{}, nil
	}
	return &CommandResult{Messages: []string{
		fmt.Sprintf("Battle %s is on! It's your move.", shortHash(b.Hash)),
	}}, nil
}

func (h *Handler) challengeCmd(p *player.Player, opponentID string) (*CommandResult, error) {
	if opponentID == "" {
		return &CommandResult{Messages: []string{"The command battle must be: battle [@user|wild]"}}, nil
	}
	inv, err := h.Machine.Invite(p.ID, opponentID)
	if err != nil {
		switch {
		case errors.Is(err, battle.ErrInviteExists):
			return &CommandResult{Messages: []string{"There's already an outstanding challenge involving one of you."}}, nil
		case errors.Is(err, battle.ErrIneligibleRoster):
			return &CommandResult{Messages: []string{"You need at least one healthy team member to battle. Try: team"}}, nil
		case errors.Is(err, battle.ErrNotFound):
			return &CommandResult{Messages: []string{fmt.Sprintf("I don't know a trainer called %s.", opponentID)}}, nil
		}
		return nil, err
	}
	// The full invite id: anything shorter would not survive the trip
	// back through the command grammar.
	return &CommandResult{Messages: []string{
		fmt.Sprintf("Challenge sent to @%s (invite %s). It expires in %s.", opponentID, inv.Hash, battle.InviteExpiry),
	}}, nil
}

// resolveInvite turns the typed invite id into a stored hash. An omitted
// id works when the user has exactly one invite in the given role, and a
// leading fragment of the id is enough when it is unambiguous.
func (h *Handler) resolveInvite(userID, hash string, asInvitee bool) (string, error) {
	invites, err := h.Machine.Invites.ListInvites()
	if err != nil {
		return "", err
	}
	var mine []*battle.Invite
	for _, inv := range invites {
		if asInvitee && inv.InviteeID == userID {
			mine = append(mine, inv)
		}
		if !asInvitee && inv.InviterID == userID {
			mine = append(mine, inv)
		}
	}
	if hash != "" {
		var matches []string
		for _, inv := range mine {
			if strings.HasPrefix(inv.Hash, hash) {
				matches = append(matches, inv.Hash)
			}
		}
		switch len(matches) {
		case 0:
			return "", battle.ErrNotFound
		case 1:
			return matches[0], nil
		default:
			return "", fmt.Errorf("that invite id matches more than one challenge; give more of it")
		}
	}
	switch len(mine) {
	case 0:
		return "", battle.ErrNotFound
	case 1:
		return mine[0].Hash, nil
	default:
		return "", fmt.Errorf("you have several pending invites; give the invite id")
	}
}

func (h *Handler) acceptCmd(p *player.Player, hash string) (*CommandResult, error) {
	hash, err := h.resolveInvite(p.ID, hash, true)
	if err != nil {
		return inviteErrResult(err)
	}
	b, err := h.Machine.AcceptInvite(hash, p.ID)
	if err != nil {
		if errors.Is(err, battle.ErrIneligibleRoster) {
			return &CommandResult{Messages: []string{"One side no longer has a healthy team; the battle was called off."}}, nil
		}
		return inviteErrResult(err)
	}
	return &CommandResult{Messages: []string{
		fmt.Sprintf("Battle %s is on! You move first.", shortHash(b.Hash)),
	}}, nil
}

func (h *Handler) declineCmd(p *player.Player, hash string) (*CommandResult, error) {
	hash, err := h.resolveInvite(p.ID, hash, true)
	if err != nil {
		return inviteErrResult(err)
	}
	if err := h.Machine.DeclineInvite(hash, p.ID); err != nil {
		return inviteErrResult(err)
	}
	return &CommandResult{Messages: []string{"Challenge declined."}}, nil
}

func (h *Handler) cancelCmd(p *player.Player, hash string) (*CommandResult, error) {
	hash, err := h.resolveInvite(p.ID, hash, false)
	if err != nil {
		return inviteErrResult(err)
	}
	if err := h.Machine.CancelInvite(hash, p.ID); err != nil {
		return inviteErrResult(err)
	}
	return &CommandResult{Messages: []string{"Challenge withdrawn."}}, nil
}

func (h *Handler) moveCmd(p *player.Player, moveName string) (*CommandResult, error) {
	b, err := h.activeBattle(p.ID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &CommandResult{Messages: []string{"You're not in a battle."}}, nil
	}
	err = h.Machine.Move(b.Hash, p.ID, moveName)
	switch {
	case errors.Is(err, battle.ErrInvalidTurn):
		// Out-of-turn requests are dropped without a reply.
		return &CommandResult{}, nil
	case err != nil:
		return &CommandResult{Messages: []string{err.Error()}}, nil
	}
	// Turn-by-turn narration goes out through the notifier.
	return &CommandResult{}, nil
}

func (h *Handler) swapCmd(p *player.Player, target string) (*CommandResult, error) {
	b, err := h.activeBattle(p.ID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &CommandResult{Messages: []string{"You're not in a battle."}}, nil
	}
	side := b.SideFor(p.ID)

	ts := target
	if slot, err := strconv.Atoi(target); err == nil {
		if slot < 1 || slot > len(side.Roster) {
			return &CommandResult{Messages: []string{fmt.Sprintf("Your team has no slot %d.", slot)}}, nil
		}
		ts = side.Roster[slot-1].Ts
	}

	err = h.Machine.Swap(b.Hash, p.ID, ts)
	switch {
	case errors.Is(err, battle.ErrInvalidTurn):
		return &CommandResult{}, nil
	case err != nil:
		return &CommandResult{Messages: []string{err.Error()}}, nil
	}
	return &CommandResult{}, nil
}

func (h *Handler) fleeCmd(p *player.Player) (*CommandResult, error) {
	b, err := h.activeBattle(p.ID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &CommandResult{Messages: []string{"You're not in a battle."}}, nil
	}
	if err := h.Machine.Flee(b.Hash, p.ID); err != nil {
		return &CommandResult{Messages: []string{err.Error()}}, nil
	}
	return &CommandResult{Messages: []string{"You got away safely."}}, nil
}

func (h *Handler) throwCmd(p *player.Player) (*CommandResult, error) {
	b, err := h.activeBattle(p.ID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return &CommandResult{Messages: []string{"You're not in a battle. To catch the current spawn, try: catch"}}, nil
	}
	return h.throwAt(p, b)
}

// throwAt resolves an in-battle catch. A beaten wild opponent is caught
// through battle completion; otherwise it's a live throw against its
// remaining HP.
func (h *Handler) throwAt(p *player.Player, b *battle.Battle) (*CommandResult, error) {
	if b.Type != battle.TypeWild {
		return &CommandResult{Messages: []string{"You can only throw at wild Pokémon."}}, nil
	}
	wildSide := b.Opponent(p.ID)
	speciesName := b.Hash
	if wild := wildSide.Active(); wild != nil {
		speciesName = wild.Species
	} else if len(wildSide.Roster) > 0 {
		speciesName = wildSide.Roster[0].Species
	}

	var outcome *catch.Outcome
	var err error
	if wildSide.Wiped() {
		outcome, err = h.Machine.Complete(b.Hash, p.ID)
	} else {
		outcome, err = h.Machine.Throw(b.Hash, p.ID)
	}
	switch {
	case errors.Is(err, battle.ErrInvalidTurn):
		return &CommandResult{}, nil
	case err != nil:
		return &CommandResult{Messages: []string{err.Error()}}, nil
	case outcome == nil:
		return &CommandResult{}, nil
	}
	return &CommandResult{Messages: []string{renderCatch(outcome, title(speciesName))}}, nil
}

// MoveSuggestions lists the usable moves of the user's active battle
// combatant in menu order, filtered to an input prefix. Interactive
// front ends use it for completion; outside a battle it returns nothing.
func (h *Handler) MoveSuggestions(userID, prefix string) []string {
	b, err := h.activeBattle(userID)
	if err != nil || b == nil {
		return nil
	}
	side := b.SideFor(userID)
	if side == nil {
		return nil
	}
	active := side.Active()
	if active == nil {
		return nil
	}

	usable := make([]*data.Move, 0, len(active.Moves))
	for _, slot := range active.Moves {
		if slot.PP <= 0 {
			continue
		}
		mv, err := h.Machine.Loader.Move(slot.Name)
		if err != nil {
			continue
		}
		usable = append(usable, mv)
	}
	var types []string
	if species, err := h.Machine.Loader.Species(active.Species); err == nil {
		types = species.Types
	}

	var out []string
	for _, mv := range moves.SortForMenu(usable, types) {
		if strings.HasPrefix(mv.Index, strings.ToLower(prefix)) {
			out = append(out, mv.Index)
		}
	}
	return out
}

func (h *Handler) teamCmd(p *player.Player) (*CommandResult, error) {
	team := p.Team()
	if len(team) == 0 {
		return &CommandResult{Messages: []string{"You haven't put a battle team together yet."}}, nil
	}
	lines := make([]string, 0, len(team)+1)
	lines = append(lines, "Your battle team:")
	for i, pk := range team {
		lines = append(lines, fmt.Sprintf("%d. %s  L%.1f  HP %d/%d  CP %d", i+1, title(pk.Species), pk.Level, pk.HP, pk.MaxHP(), pk.CP))
	}
	return &CommandResult{Messages: []string{strings.Join(lines, "\n")}}, nil
}

func (h *Handler) dexCmd(p *player.Player) (*CommandResult, error) {
	seen, caught := 0, 0
	for _, entry := range p.Pokedex {
		if entry.Seen > 0 || entry.Caught > 0 {
			seen++
		}
		if entry.Caught > 0 {
			caught++
		}
	}
	return &CommandResult{Messages: []string{
		fmt.Sprintf("Pokédex: %d seen, %d caught. Collection: %d. XP: %d.", seen, caught, len(p.Pokemon), p.XP),
	}}, nil
}

func inviteErrResult(err error) (*CommandResult, error) {
	if errors.Is(err, battle.ErrNotFound) {
		return &CommandResult{Messages: []string{"There's no such pending challenge."}}, nil
	}
	return &CommandResult{Messages: []string{err.Error()}}, nil
}

// renderCatch formats a catch outcome with its XP breakdown in a stable
// order.
func renderCatch(o *catch.Outcome, speciesName string) string {
	if !o.Success {
		return fmt.Sprintf("Oh no! The wild %s broke free! +%d XP", speciesName, o.XP)
	}
	keys := make([]string, 0, len(o.XPBreakdown))
	for k := range o.XPBreakdown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s +%d", strings.ReplaceAll(k, "_", " "), o.XPBreakdown[k]))
	}
	return fmt.Sprintf("Gotcha! %s was caught! +%d XP (%s)", speciesName, o.XP, strings.Join(parts, ", "))
}

func helpResult(command string) *CommandResult {
	topics := map[string]string{
		"catch":   "catch — throw at the current spawn (or at the wild Pokémon you're battling)",
		"battle":  "battle [@user|wild] — battle the current spawn, or challenge another trainer",
		"accept":  "accept [invite-id] — accept a pending challenge",
		"decline": "decline [invite-id] — turn a pending challenge down",
		"cancel":  "cancel [invite-id] — withdraw your own challenge",
		"move":    "move <move name> — use a move on your turn",
		"swap":    "swap <team slot|catch id> — change your active Pokémon",
		"flee":    "flee — abandon the current wild battle",
		"throw":   "throw — attempt a catch mid-battle",
		"team":    "team — show your battle team",
		"pokedex": "pokedex — show your Pokédex progress",
	}
	if command != "" {
		key := strings.ToLower(command)
		if key == "dex" {
			key = "pokedex"
		}
		if key == "use" {
			key = "move"
		}
		if key == "run" {
			key = "flee"
		}
		if topic, ok := topics[key]; ok {
			return &CommandResult{Messages: []string{topic}}
		}
	}
	keys := make([]string, 0, len(topics))
	for k := range topics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := []string{"Available commands:"}
	for _, k := range keys {
		lines = append(lines, topics[k])
	}
	return &CommandResult{Messages: []string{strings.Join(lines, "\n")}}
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
