package instance

import "fmt"

const (
	StateCreated = "created"
	StateReady   = "ready"
	StateRunning = "running"
	StateStopped = "stopped"
	StateFailed  = "failed"
)

// allowedTransitions maps a slot's lifecycle. A created slot has its
// directory but no provisioned content yet; ready means config, mods
// and account are in place. Re-provisioning a stopped or failed slot
// goes back through ready, never straight to running.
var allowedTransitions = map[string]map[string]bool{
	"": {
		StateCreated: true,
	},
	StateCreated: {
		StateCreated: true,
		StateReady:   true,
		StateFailed:  true,
	},
	StateReady: {
		StateReady:   true,
		StateRunning: true,
		StateCreated: true,
		StateFailed:  true,
	},
	StateRunning: {
		StateRunning: true,
		StateStopped: true,
		StateFailed:  true,
	},
	StateStopped: {
		StateStopped: true,
		StateReady:   true,
		StateRunning: true,
		StateCreated: true,
		StateFailed:  true,
	},
	StateFailed: {
		StateFailed:  true,
		StateCreated: true,
		StateReady:   true,
		StateStopped: true,
	},
}

func ValidateTransition(from, to string) error {
	if to == "" {
		return fmt.Errorf("target state must not be empty")
	}
	next, ok := allowedTransitions[from]
	if !ok {
		return fmt.Errorf("unknown state: %q", from)
	}
	if !next[to] {
		return fmt.Errorf("invalid state transition: %q -> %q", from, to)
	}
	return nil
}
