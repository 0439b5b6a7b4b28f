package session

import (
	"os"
	"strings"
)

const defaultDMIPath = "/sys/devices/virtual/dmi/id/product_name"

// Environment describes the machine the session will run on.
type Environment struct {
	SteamDeck  bool
	GamingMode bool
	Product    string
}

// Detector probes the host. The fields exist so tests can point it at
// fixture files and a fake environment.
type Detector struct {
	DMIPath string
	Getenv  func(string) string
}

func (d *Detector) Detect() Environment {
	env := Environment{}

	env.Product = readTrimmed(d.dmiPath())
	switch env.Product {
	case "Jupiter", "Galileo":
		env.SteamDeck = true
	}
	if d.getenv("SteamDeck") == "1" {
		env.SteamDeck = true
	}

	desktop := strings.ToLower(d.getenv("XDG_CURRENT_DESKTOP"))
	switch {
	case strings.Contains(desktop, "gamescope"):
		env.GamingMode = true
	case env.SteamDeck && desktop == "":
		// Gaming mode sometimes drops the desktop variable entirely;
		// desktop mode on the same hardware always sets KDE.
		env.GamingMode = true
	}
	return env
}

// NestedFor reports whether the slots need a nested compositor. The
// gaming mode compositor shows one window at a time, so anything past
// a single player must be wrapped.
func (e Environment) NestedFor(players int) bool {
	return e.GamingMode && players > 1
}

func (d *Detector) dmiPath() string {
	if d != nil && d.DMIPath != "" {
		return d.DMIPath
	}
	return defaultDMIPath
}

func (d *Detector) getenv(key string) string {
	if d != nil && d.Getenv != nil {
		return d.Getenv(key)
	}
	return os.Getenv(key)
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
