package modpack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	SourceModrinth   = "modrinth"
	SourceCurseForge = "curseforge"
)

var knownLoaders = map[string]bool{
	"fabric":   true,
	"quilt":    true,
	"forge":    true,
	"neoforge": true,
}

// Entry names one mod to install. Project is a Modrinth slug or a
// numeric CurseForge id depending on Source. Required entries abort
// the install when they cannot be resolved; the rest degrade to a
// warning.
type Entry struct {
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
	Project  string `yaml:"project"`
	Required bool   `yaml:"required,omitempty"`
}

type Manifest struct {
	GameVersion string  `yaml:"game_version"`
	Loader      string  `yaml:"loader"`
	Mods        []Entry `yaml:"mods"`
}

// DefaultManifest is the pack seeded on first run: the window splitter
// and controller support as hard requirements, performance mods as
// optional extras.
func DefaultManifest(gameVersion, loader string) Manifest {
	return Manifest{
		GameVersion: gameVersion,
		Loader:      loader,
		Mods: []Entry{
			{Name: "fabric-api", Source: SourceModrinth, Project: "fabric-api", Required: true},
			{Name: "splitscreen", Source: SourceModrinth, Project: "splitscreen", Required: true},
			{Name: "controlify", Source: SourceModrinth, Project: "controlify", Required: true},
			{Name: "sodium", Source: SourceModrinth, Project: "sodium"},
			{Name: "lithium", Source: SourceModrinth, Project: "lithium"},
			{Name: "journeymap", Source: SourceCurseForge, Project: "32274"},
		},
	}
}

func (m Manifest) Validate() error {
	if strings.TrimSpace(m.GameVersion) == "" {
		return fmt.Errorf("manifest game_version is empty")
	}
	loader := strings.ToLower(strings.TrimSpace(m.Loader))
	if !knownLoaders[loader] {
		return fmt.Errorf("manifest loader %q is not supported", m.Loader)
	}
	seen := map[string]bool{}
	for i, e := range m.Mods {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		if name == "" {
			return fmt.Errorf("manifest mod %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("manifest mod %q listed twice", e.Name)
		}
		seen[name] = true
		if strings.TrimSpace(e.Project) == "" {
			return fmt.Errorf("manifest mod %q has no project", e.Name)
		}
		switch strings.ToLower(strings.TrimSpace(e.Source)) {
		case SourceModrinth, SourceCurseForge:
		default:
			return fmt.Errorf("manifest mod %q has unknown source %q", e.Name, e.Source)
		}
	}
	return nil
}

func ReadFile(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

func WriteFile(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
