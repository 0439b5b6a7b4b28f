package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

const stateFileName = "session.json"

// SlotProcess is one spawned pid the session tracks.
type SlotProcess struct {
	Slot int `json:"slot"`
	PID  int `json:"pid"`
}

// State is the on-disk record of a started session, read back by stop
// and status.
type State struct {
	Players   int           `json:"players"`
	Nested    bool          `json:"nested"`
	StartedAt time.Time     `json:"started_at"`
	Processes []SlotProcess `json:"processes"`
}

func StatePath(dataDir string) string {
	return filepath.Join(dataDir, stateFileName)
}

func ReadState(dataDir string) (State, error) {
	data, err := os.ReadFile(StatePath(dataDir))
	if err != nil {
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

func WriteState(dataDir string, st State) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	path := StatePath(dataDir)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func ClearState(dataDir string) error {
	err := os.Remove(StatePath(dataDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
