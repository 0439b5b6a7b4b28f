//go:build !windows

package process

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FindByName returns the lowest PID whose comm value matches name
// (case-insensitive), or 0 when no process does.
func FindByName(name string) int {
	return findByNameIn("/proc", name)
}

func findByNameIn(procRoot, name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return 0
	}
	entries, err := os.ReadDir(procRoot)
	if err != nil {
		return 0
	}
	best := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}
		data, err := os.ReadFile(filepath.Join(procRoot, e.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.ToLower(strings.TrimSpace(string(data))) != want {
			continue
		}
		if best == 0 || pid < best {
			best = pid
		}
	}
	return best
}
