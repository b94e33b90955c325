package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tdmalone/slackemon-sub000/internal/battle"
	"github.com/tdmalone/slackemon-sub000/internal/chat"
	"github.com/tdmalone/slackemon-sub000/internal/spawn"
)

// battleView wraps a battle record for display helpers.
type battleView struct {
	*battle.Battle
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#D93025")).
			Padding(0, 1).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999"))

	stateBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#D93025")).
			Padding(1, 2)

	logBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)

	autocompleteStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#F2C744"))
)

type suggestion string

func (s suggestion) Title() string       { return string(s) }
func (s suggestion) Description() string { return "" }
func (s suggestion) FilterValue() string { return string(s) }

type replModel struct {
	handler     *chat.Handler
	spawner     *chat.Spawner
	store       gameStore
	textInput   textinput.Model
	viewport    viewport.Model
	suggestions list.Model
	history     []string
	historyIdx  int
	logContent  string
	notices     <-chan string
	width       int
	height      int
	playerID    string
	region      string
	showList    bool
}

func newREPLModel(handler *chat.Handler, spawner *chat.Spawner, store gameStore, playerID, region string, notices <-chan string) replModel {
	ti := textinput.New()
	ti.Placeholder = "Enter command (e.g., battle wild)..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	vp := viewport.New(0, 0)
	vp.SetContent("Welcome to Slackemon!\nType 'exit' to quit.")

	// Configure a minimalist list for autocomplete
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	sugList := list.New([]list.Item{}, delegate, 50, 7) // Show up to 7 items
	sugList.SetShowTitle(false)
	sugList.SetShowStatusBar(false)
	sugList.SetFilteringEnabled(false) // We filter manually
	sugList.SetShowHelp(false)

	return replModel{
		handler:     handler,
		spawner:     spawner,
		store:       store,
		textInput:   ti,
		viewport:    vp,
		suggestions: sugList,
		history:     []string{},
		historyIdx:  -1,
		logContent:  "Welcome to Slackemon!\nType 'exit' to quit.",
		notices:     notices,
		playerID:    playerID,
		region:      region,
	}
}

func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *replModel) updateSuggestions() {
	val := m.textInput.Value()
	var items []list.Item

	defer func() {
		m.suggestions.SetItems(items)
		m.showList = len(items) > 0
		if m.showList {
			h := len(items)
			if h > 10 {
				h = 10
			}
			listHeight := h
			if listHeight > 0 && listHeight < 4 {
				listHeight = 4
			}
			m.suggestions.SetHeight(listHeight)
			m.suggestions.ResetSelected()
		}
	}()

	if val == "" {
		return
	}

	baseCmds := []string{
		"catch", "battle wild", "battle @", "accept ", "decline ", "cancel ",
		"move ", "swap ", "flee", "throw", "team", "pokedex", "help ",
		"spawn", "exit", "quit",
	}

	for _, c := range baseCmds {
		if strings.HasPrefix(strings.ToLower(c), strings.ToLower(val)) && len(val) < len(c) {
			items = append(items, suggestion(c))
		}
	}

	// Move completion from the active battle combatant's usable moves,
	// in the same order the battle menu shows them.
	if strings.HasPrefix(strings.ToLower(val), "move ") {
		prefix := strings.TrimPrefix(strings.ToLower(val), "move ")
		for _, name := range m.handler.MoveSuggestions(m.playerID, prefix) {
			items = append(items, suggestion("move "+name))
		}
	}
}

func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		lsCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyUp:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else {
				if len(m.history) > 0 {
					if m.historyIdx == -1 {
						m.historyIdx = len(m.history) - 1
					} else if m.historyIdx > 0 {
						m.historyIdx--
					}
					m.textInput.SetValue(m.history[m.historyIdx])
					m.updateSuggestions()
				}
			}

		case tea.KeyDown:
			if m.showList {
				m.suggestions, lsCmd = m.suggestions.Update(msg)
			} else {
				if len(m.history) > 0 && m.historyIdx != -1 {
					if m.historyIdx < len(m.history)-1 {
						m.historyIdx++
						m.textInput.SetValue(m.history[m.historyIdx])
					} else {
						m.historyIdx = -1
						m.textInput.SetValue("")
					}
					m.updateSuggestions()
				}
			}

		case tea.KeyTab:
			if m.showList {
				if i, ok := m.suggestions.SelectedItem().(suggestion); ok {
					m.textInput.SetValue(string(i))
					m.textInput.SetCursor(len(string(i)))
					m.updateSuggestions()
				}
			}

		case tea.KeyEnter:
			val := strings.TrimSpace(m.textInput.Value())
			if val == "exit" || val == "quit" {
				return m, tea.Quit
			}

			if val != "" {
				// Prevent duplicate history entries
				if len(m.history) == 0 || m.history[len(m.history)-1] != val {
					m.history = append(m.history, val)
				}
				m.historyIdx = -1
				m.textInput.SetValue("")
				m.updateSuggestions()

				m.logContent += fmt.Sprintf("\n\n> %s\n", val)
				m.runCommand(val)

				m.viewport.SetContent(m.logContent)
				m.viewport.GotoBottom()
			}
		default:
			// Normal typing
			m.textInput, tiCmd = m.textInput.Update(msg)
			m.updateSuggestions()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 30 // Initial conservative estimate
		if m.viewport.Height < 5 {
			m.viewport.Height = 5
		}
		m.suggestions.SetWidth(msg.Width - 6)
	}

	m.viewport, vpCmd = m.viewport.Update(msg)

	// Calculate accurate heights for dynamic components
	titleH := lipgloss.Height(titleStyle.Render("Dummy"))
	stateH := lipgloss.Height(m.renderState())
	inputH := 1

	listAreaHeight := 0
	if m.showList {
		listAreaHeight = m.suggestions.Height() + 2 // +2 for autocompleteStyle borders
	}

	infoH := lipgloss.Height(infoStyle.Render("Dummy"))
	paddingH := 7

	// Total fixed overhead: title + state + input + listArea + info + padding + spacing
	overhead := titleH + stateH + inputH + listAreaHeight + infoH + paddingH + 4

	m.viewport.Height = m.height - overhead
	if m.viewport.Height < 4 {
		m.viewport.Height = 4
	}

	return m, tea.Batch(tiCmd, vpCmd, lsCmd)
}

// runCommand dispatches one line: the REPL-only "spawn" escape goes to
// the spawner; everything else goes through the normal chat handler.
func (m *replModel) runCommand(val string) {
	if strings.EqualFold(val, "spawn") {
		if _, err := m.spawner.Spawn(spawn.Trigger{Type: "timed"}, nil); err != nil {
			m.logContent += fmt.Sprintf("Error: %v", err)
		}
		m.drainNotices()
		return
	}

	result, err := m.handler.Execute(m.playerID, val)
	if err != nil {
		m.logContent += fmt.Sprintf("Error: %v", err)
	} else {
		for _, out := range result.Messages {
			if out != "" {
				m.logContent += out + "\n"
			}
		}
	}
	m.drainNotices()
}

// drainNotices appends battle events and spawn announcements that the
// command just produced. The machine acts synchronously, so everything
// is already buffered by the time a command returns.
func (m *replModel) drainNotices() {
	for {
		select {
		case line := <-m.notices:
			m.logContent += line + "\n"
		default:
			return
		}
	}
}

func (m *replModel) activeBattle() *battleView {
	active, err := m.store.ListActiveBattles()
	if err != nil {
		return nil
	}
	for _, b := range active {
		if b.SideFor(m.playerID) != nil {
			return &battleView{b}
		}
	}
	return nil
}

func (m *replModel) renderState() string {
	stateView := "=== Trainer ===\n\n"

	p, err := m.store.GetPlayer(m.playerID)
	if err != nil {
		stateView += fmt.Sprintf("%s has not played yet.", m.playerID)
		return stateBoxStyle.Width(m.width - 4).Render(stateView)
	}

	caught := 0
	for _, entry := range p.Pokedex {
		if entry.Caught > 0 {
			caught++
		}
	}
	stateView += fmt.Sprintf("%s (%s): %d XP, %d Pokémon, %d species caught\n", p.ID, p.Region, p.XP, len(p.Pokemon), caught)

	for _, pk := range p.Team() {
		stateView += fmt.Sprintf(" - %s L%.1f: %d/%d HP, CP %d\n", pk.Species, pk.Level, pk.HP, pk.MaxHP(), pk.CP)
	}

	if b := m.activeBattle(); b != nil {
		stateView += "\n=== Battle ===\n\n"
		for _, side := range b.Sides {
			marker := " "
			if b.Turn == side.Participant.Key() {
				marker = "*"
			}
			if active := side.Active(); active != nil {
				stateView += fmt.Sprintf("%s %s: %s L%.1f %d/%d HP (swaps left: %d)\n",
					marker, side.Participant.Key(), active.Species, active.Level, active.HP, active.MaxHP(), side.SwapsLeft)
			} else {
				stateView += fmt.Sprintf("%s %s: no active Pokémon\n", marker, side.Participant.Key())
			}
		}
	}

	return stateBoxStyle.Width(m.width - 4).Render(stateView)
}

func (m *replModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	title := titleStyle.Render(fmt.Sprintf(" Slackemon | %s @ %s ", m.playerID, m.region))
	stateBox := m.renderState()
	logBox := logBoxStyle.Width(m.width - 4).Render(m.viewport.View())

	var inputArea string
	if m.showList {
		inputArea = fmt.Sprintf("%s\n%s", m.textInput.View(), autocompleteStyle.Render(m.suggestions.View()))
	} else {
		inputArea = m.textInput.View()
	}

	mainView := lipgloss.JoinVertical(lipgloss.Left,
		title,
		stateBox,
		logBox,
		"\n",
		inputArea,
		infoStyle.Render("(esc to quit, tab to complete, up/down history)"),
	)

	return mainView + strings.Repeat("\n", 7)
}

func RunTUI(handler *chat.Handler, spawner *chat.Spawner, store gameStore, playerID, region string, notices <-chan string) error {
	m := newREPLModel(handler, spawner, store, playerID, region, notices)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
