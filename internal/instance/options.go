package instance

import (
	"errors"
	"os"
	"sort"
	"strings"
)

// defaultOptions are the client settings every slot needs. The game
// must keep rendering while another player's pane holds input focus,
// and the multiplayer warning screen would block an unattended start.
var defaultOptions = map[string]string{
	"pauseOnLostFocus":       "false",
	"skipMultiplayerWarning": "true",
}

// patchOptions rewrites options.txt, a colon separated key:value file.
// Managed keys are replaced in place, missing ones appended in sorted
// order, and every other line passes through untouched.
func patchOptions(path string, opts map[string]string) error {
	var lines []string
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if trimmed := strings.TrimRight(string(data), "\n"); trimmed != "" {
		lines = strings.Split(trimmed, "\n")
	}

	seen := make(map[string]bool, len(opts))
	for i, line := range lines {
		key, _, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if value, managed := opts[key]; managed {
			lines[i] = key + ":" + value
			seen[key] = true
		}
	}

	missing := make([]string, 0, len(opts))
	for key := range opts {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	for _, key := range missing {
		lines = append(lines, key+":"+opts[key])
	}

	return os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
}
