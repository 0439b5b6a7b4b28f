package app

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"mcsplit/internal/version"
)

type tuiField struct {
	label string
	def   string
}

type tuiAction struct {
	id     string
	label  string
	fields []tuiField
	build  func([]string) []string
	quit   bool
}

type tuiMode int

const (
	tuiModeMenu tuiMode = iota
	tuiModeInput
)

type commandFinishedMsg struct {
	err error
}

type tuiModel struct {
	actions       []tuiAction
	menuStack     [][]tuiAction
	rootMenu      []tuiAction
	steamMenu     []tuiAction
	cursor        int
	mode          tuiMode
	activeAction  int
	fieldIndex    int
	fieldValues   []string
	statusMessage string
}

func (a *App) runInteractiveTUI() {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		a.printHelp()
		return
	}
	program := tea.NewProgram(newTUIModel(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	if _, err := program.Run(); err != nil {
		a.log.Errorf("tui error: %v", err)
	}
}

func newTUIModel() tuiModel {
	steamMenu := []tuiAction{
		{id: "steam-add", label: "Add shortcut to Steam", build: func(_ []string) []string { return []string{"steam", "add"} }},
		{id: "steam-add-restart", label: "Add shortcut and restart Steam", build: func(_ []string) []string { return []string{"steam", "add", "--restart"} }},
		{id: "back", label: "Back", build: func(_ []string) []string { return nil }},
	}

	rootMenu := []tuiAction{
		{id: "install", label: "Install everything", build: func(_ []string) []string { return []string{"install"} }},
		{id: "launch", label: "Play splitscreen", fields: []tuiField{{label: "players (auto)", def: "auto"}}, build: func(v []string) []string {
			value := strings.TrimSpace(v[0])
			if value == "" || strings.EqualFold(value, "auto") {
				return []string{"launch"}
			}
			return []string{"launch", value}
		}},
		{id: "preview", label: "Preview session plan", build: func(_ []string) []string { return []string{"launch", "--dry-run"} }},
		{id: "stop", label: "Stop session", build: func(_ []string) []string { return []string{"stop"} }},
		{id: "status", label: "Status", build: func(_ []string) []string { return []string{"status"} }},
		{id: "resolve", label: "Show controllers", build: func(_ []string) []string { return []string{"resolve"} }},
		{id: "steam", label: "Steam integration", build: func(_ []string) []string { return nil }},
		{id: "version", label: "Version", build: func(_ []string) []string { return []string{"version"} }},
		{id: "quit", label: "Quit", quit: true, build: func(_ []string) []string { return nil }},
	}

	return tuiModel{
		actions:      rootMenu,
		menuStack:    [][]tuiAction{rootMenu},
		rootMenu:     rootMenu,
		steamMenu:    steamMenu,
		mode:         tuiModeMenu,
		activeAction: -1,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case tuiModeMenu:
			return m.updateMenu(msg)
		case tuiModeInput:
			return m.updateInput(msg)
		}
	case commandFinishedMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("command failed: %v", msg.err)
		} else {
			m.statusMessage = "command finished"
		}
	}
	return m, nil
}

func (m tuiModel) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		m = m.popMenu()
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.actions)-1 {
			m.cursor++
		}
	case "enter":
		action := m.actions[m.cursor]
		if action.quit {
			return m, tea.Quit
		}
		if action.id == "steam" {
			return m.pushMenu(m.steamMenu), nil
		}
		if action.id == "back" {
			return m.popMenu(), nil
		}
		if len(action.fields) == 0 {
			args := action.build(nil)
			return m, runCommandCmd(args)
		}
		m.mode = tuiModeInput
		m.activeAction = m.cursor
		m.fieldIndex = 0
		m.fieldValues = make([]string, len(action.fields))
		for i := range action.fields {
			m.fieldValues[i] = action.fields[i].def
		}
	}
	return m, nil
}

func (m tuiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.actions[m.activeAction]
	fieldValue := m.fieldValues[m.fieldIndex]

	switch msg.String() {
	case "esc":
		m.mode = tuiModeMenu
		m.activeAction = -1
		m.fieldValues = nil
		m.fieldIndex = 0
		return m, nil
	case "enter":
		if m.fieldIndex < len(action.fields)-1 {
			m.fieldIndex++
			return m, nil
		}
		args := action.build(m.fieldValues)
		m.mode = tuiModeMenu
		m.activeAction = -1
		m.fieldValues = nil
		m.fieldIndex = 0
		return m, runCommandCmd(args)
	case "backspace":
		if len(fieldValue) > 0 {
			m.fieldValues[m.fieldIndex] = fieldValue[:len(fieldValue)-1]
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		m.fieldValues[m.fieldIndex] += string(msg.Runes)
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(renderBanner())
	b.WriteString("Splitscreen Minecraft for the Steam Deck. Arrows move, enter selects, esc goes back, q quits.\n\n")

	if m.mode == tuiModeMenu {
		for i, action := range m.actions {
			cursor := " "
			if i == m.cursor {
				cursor = ">"
			}
			b.WriteString(fmt.Sprintf("%s %2d) %s\n", cursor, i+1, action.label))
		}
		b.WriteString("\n")
		b.WriteString("version: " + version.Version + "\n")
		if strings.TrimSpace(m.statusMessage) != "" {
			b.WriteString("status: " + m.statusMessage + "\n")
		}
		return b.String()
	}

	action := m.actions[m.activeAction]
	b.WriteString("action: " + action.label + "\n")
	b.WriteString("Type a value, enter to confirm, esc to cancel.\n\n")
	for i, field := range action.fields {
		marker := " "
		if i == m.fieldIndex {
			marker = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s: %s\n", marker, field.label, m.fieldValues[i]))
	}
	return b.String()
}

func (m tuiModel) pushMenu(actions []tuiAction) tuiModel {
	if len(actions) == 0 {
		return m
	}
	m.menuStack = append(m.menuStack, actions)
	m.actions = actions
	m.cursor = 0
	return m
}

func (m tuiModel) popMenu() tuiModel {
	if len(m.menuStack) <= 1 {
		m.actions = m.rootMenu
		m.cursor = 0
		m.menuStack = [][]tuiAction{m.rootMenu}
		return m
	}
	m.menuStack = m.menuStack[:len(m.menuStack)-1]
	m.actions = m.menuStack[len(m.menuStack)-1]
	m.cursor = 0
	return m
}

func runCommandCmd(args []string) tea.Cmd {
	return tea.ExecProcess(execCommand(args), func(err error) tea.Msg {
		return commandFinishedMsg{err: err}
	})
}

func execCommand(args []string) *exec.Cmd {
	exe, err := os.Executable()
	if err != nil {
		cmd := exec.Command("sh", "-c", "exit 1")
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		return cmd
	}
	cmd := exec.Command(exe, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}

func renderBanner() string {
	lines := []string{
		"                              _   _   _",
		" _ __ ___    ___  ___  _ __  | | (_) | |_",
		"| '_ ` _ \\  / __|/ __|| '_ \\ | | | | | __|",
		"| | | | | || (__ \\__ \\| |_) || | | | | |_",
		"|_| |_| |_| \\___||___/| .__/ |_| |_|  \\__|",
		"                      |_|",
	}
	return colorizeBanner(lines)
}

func colorizeBanner(lines []string) string {
	if !isTerminal(os.Stdout) {
		return strings.Join(lines, "\n") + "\n"
	}
	colors := []string{"34", "35", "36", "32", "33"}
	var out strings.Builder
	for i, line := range lines {
		code := colors[i%len(colors)]
		out.WriteString("\x1b[" + code + "m" + line + "\x1b[0m")
		out.WriteString("\n")
	}
	return out.String()
}
