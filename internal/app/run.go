package app

import (
	"context"
	"fmt"
	"time"

	"mcsplit/internal/execx"
)

// runTimeout bounds dev commands so a forgotten interactive child does
// not hold the lock on the terminal forever.
const runTimeout = 10 * time.Minute

// runCommand is a developer escape hatch: run a tool from the data home
// with the environment the managed commands see, behind an optional
// confirmation gate and sudo wrapper.
func (a *App) runCommand(args []string, sensitive bool, sudo bool, prompt string) error {
	if len(args) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	runner := execx.NewRunner()
	err := runner.Run(ctx, args[0], args[1:], execx.Options{
		Sensitive:   sensitive,
		RequireSudo: sudo,
		Prompt:      prompt,
		Dir:         a.cfg.Install.DataHome,
		Env:         map[string]string{"MCSPLIT_HOME": a.cfg.Install.DataHome},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}
