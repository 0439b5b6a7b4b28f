package instance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	metaVersion  = 1
	metaFileName = "instance.json"
)

// Meta is the per-slot bookkeeping file inside the instance dir.
type Meta struct {
	Version     int       `json:"version"`
	ID          string    `json:"id"`
	Slot        int       `json:"slot"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	PID         int       `json:"pid"`
	LayoutMode  string    `json:"layout_mode,omitempty"`
	GameVersion string    `json:"game_version,omitempty"`
	Loader      string    `json:"loader,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func MetaPath(dir string) string {
	return filepath.Join(dir, metaFileName)
}

func ReadMeta(dir string) (Meta, error) {
	data, err := os.ReadFile(MetaPath(dir))
	if err != nil {
		return Meta{}, err
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return Meta{}, err
	}
	return m, nil
}

func WriteMeta(dir string, m Meta) error {
	m.Version = metaVersion
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmpPath := MetaPath(dir) + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, MetaPath(dir)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
