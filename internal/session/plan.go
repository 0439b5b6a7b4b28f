package session

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"mcsplit/internal/instance"
)

// Command is one process a session start will spawn.
type Command struct {
	Slot    int // 0 marks the compositor wrapper
	Name    string
	Args    []string
	Env     []string
	LogPath string
}

// Plan is the full set of processes for one session.
type Plan struct {
	Players  int
	Nested   bool
	Commands []Command
}

// Planner turns a player count into launch commands.
type Planner struct {
	LauncherExe  string
	InstancesDir string
	Compositor   string
	SelfExe      string
}

// Plan builds the session. Direct mode starts one launcher per slot;
// nested mode starts a single compositor that re-invokes this binary,
// which then runs the direct plan inside the compositor and waits.
func (p *Planner) Plan(players int, nested bool) (Plan, error) {
	if players < 1 || players > instance.MaxSlots {
		return Plan{}, fmt.Errorf("player count %d outside 1..%d", players, instance.MaxSlots)
	}

	if nested {
		if p.Compositor == "" || p.SelfExe == "" {
			return Plan{}, fmt.Errorf("nested session needs a compositor and our own executable path")
		}
		wrapper := Command{
			Slot: 0,
			Name: p.Compositor,
			Args: []string{"--xwayland", p.SelfExe, "run-session", strconv.Itoa(players)},
		}
		return Plan{Players: players, Nested: true, Commands: []Command{wrapper}}, nil
	}

	if p.LauncherExe == "" {
		return Plan{}, fmt.Errorf("no launcher executable configured")
	}
	commands := make([]Command, 0, players)
	for slot := 1; slot <= players; slot++ {
		id := instance.SlotID(slot)
		commands = append(commands, Command{
			Slot:    slot,
			Name:    p.LauncherExe,
			Args:    []string{"-l", id},
			Env:     []string{"MCSPLIT_SLOT=" + strconv.Itoa(slot)},
			LogPath: filepath.Join(p.InstancesDir, id, "instance.log"),
		})
	}
	return Plan{Players: players, Commands: commands}, nil
}

// Describe renders the plan for dry runs.
func (pl Plan) Describe() []string {
	lines := make([]string, 0, len(pl.Commands))
	for _, c := range pl.Commands {
		label := fmt.Sprintf("slot %d", c.Slot)
		if c.Slot == 0 {
			label = "wrapper"
		}
		lines = append(lines, fmt.Sprintf("%s: %s %s", label, c.Name, strings.Join(c.Args, " ")))
	}
	return lines
}
