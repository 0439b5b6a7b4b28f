//go:build windows

package process

import (
	"os/exec"
	"strconv"
	"strings"
)

// FindByName returns the PID of the first tasklist row whose image name
// matches name (case-insensitive, .exe optional), or 0 when none does.
func FindByName(name string) int {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return 0
	}
	out, err := exec.Command("tasklist", "/FO", "CSV", "/NH").Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Split(line, "\",\"")
		if len(fields) < 2 {
			continue
		}
		image := strings.ToLower(strings.Trim(fields[0], "\" \r\n"))
		image = strings.TrimSuffix(image, ".exe")
		if image != want {
			continue
		}
		pid, err := strconv.Atoi(strings.Trim(fields[1], "\" \r\n"))
		if err == nil && pid > 0 {
			return pid
		}
	}
	return 0
}
