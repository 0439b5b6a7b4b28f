package splitscreen

import (
	"fmt"
	"os"
	"path/filepath"

	"mcsplit/internal/layout"
)

const fileName = "splitscreen.properties"

// gap is the pixel border between split windows. The mod treats it as
// mandatory, so it is always emitted even though it never changes.
const gap = 1

func PathFor(instanceRoot string, slot int) string {
	return filepath.Join(instanceRoot, fmt.Sprintf("player%d", slot), "config", fileName)
}

// Write renders the per-player window config and verifies it landed on
// disk intact. The game process reads this file on startup, so a torn
// write is worse than a failed launch.
func Write(instanceRoot string, slot int, mode layout.Mode) error {
	if slot < 1 {
		return fmt.Errorf("player slot %d is not positive", slot)
	}
	path := PathFor(instanceRoot, slot)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	content := fmt.Sprintf("gap=%d\nmode=%s\n", gap, mode)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	back, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if string(back) != content {
		return fmt.Errorf("verify %s: content mismatch", path)
	}
	return nil
}
