//go:build !windows

package process

import (
	"errors"
	"fmt"
	"syscall"
	"time"
)

const pollInterval = 150 * time.Millisecond

// IsAlive reports whether pid still exists. Signal 0 probes the pid
// without delivering anything to it.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil
}

// Stop ends pid gently: SIGTERM first so the game can flush its saves,
// SIGKILL once grace runs out. A pid that is already gone is a no-op.
func Stop(pid int, grace time.Duration) error {
	if pid <= 0 || !IsAlive(pid) {
		return nil
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return fmt.Errorf("SIGTERM pid %d: %w", pid, err)
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !IsAlive(pid) {
			return nil
		}
		time.Sleep(pollInterval)
	}

	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("SIGKILL pid %d: %w", pid, err)
	}
	return nil
}
