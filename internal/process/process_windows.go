//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const pollInterval = 150 * time.Millisecond

func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	out, err := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/FO", "CSV", "/NH").Output()
	if err != nil {
		return false
	}
	text := strings.TrimSpace(strings.ToLower(string(out)))
	if text == "" || strings.Contains(text, "no tasks are running") {
		return false
	}
	return strings.Contains(text, fmt.Sprintf("\"%d\"", pid))
}

// Stop asks the process tree to exit, then forces it after grace. The
// soft taskkill maps to the close-window request, which the game
// treats like quitting from the menu.
func Stop(pid int, grace time.Duration) error {
	if pid <= 0 || !IsAlive(pid) {
		return nil
	}

	if err := exec.Command("taskkill", "/PID", fmt.Sprintf("%d", pid), "/T").Run(); err == nil {
		deadline := time.Now().Add(grace)
		for time.Now().Before(deadline) {
			if !IsAlive(pid) {
				return nil
			}
			time.Sleep(pollInterval)
		}
	}

	if err := exec.Command("taskkill", "/PID", fmt.Sprintf("%d", pid), "/T", "/F").Run(); err != nil {
		return fmt.Errorf("force stop pid %d: %w", pid, err)
	}
	return nil
}
