package instance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"mcsplit/internal/logging"
	"mcsplit/internal/process"
)

// MaxSlots is the hard ceiling on player instances.
const MaxSlots = 4

func init() {
	// instance.cfg is read by a Qt launcher that expects bare
	// key=value lines without alignment padding.
	ini.PrettyFormat = false
}

// Manager provisions and refreshes the per-player instance dirs.
type Manager struct {
	instancesDir string
	sharedMods   string
	log          *logging.Logger
}

func NewManager(instancesDir, sharedModsDir string, logger *logging.Logger) *Manager {
	return &Manager{instancesDir: instancesDir, sharedMods: sharedModsDir, log: logger}
}

func SlotID(slot int) string {
	return fmt.Sprintf("player%d", slot)
}

func SlotDisplayName(slot int) string {
	return fmt.Sprintf("Player %d", slot)
}

func (m *Manager) Dir(slot int) string {
	return filepath.Join(m.instancesDir, SlotID(slot))
}

// EnsureSlot provisions one player dir: instance.cfg, config/, mods
// linked from the shared dir, options.txt. Safe to run repeatedly; a
// slot whose game is still alive is refused.
func (m *Manager) EnsureSlot(slot int, gameVersion, loader string) (Meta, error) {
	if slot < 1 || slot > MaxSlots {
		return Meta{}, fmt.Errorf("slot %d outside 1..%d", slot, MaxSlots)
	}
	dir := m.Dir(slot)
	now := time.Now().UTC()

	meta, err := ReadMeta(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		meta = Meta{
			ID:          SlotID(slot),
			Slot:        slot,
			DisplayName: SlotDisplayName(slot),
			Status:      StateCreated,
			CreatedAt:   now,
		}
		m.infof("creating instance slot=%d dir=%s", slot, dir)
	case err != nil:
		return Meta{}, err
	}

	if meta.Status == StateRunning {
		if meta.PID > 0 && process.IsAlive(meta.PID) {
			return Meta{}, fmt.Errorf("slot %d is running (pid %d), stop it first", slot, meta.PID)
		}
		meta.Status = StateStopped
		meta.PID = 0
	}

	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		return Meta{}, err
	}
	if err := writeInstanceCfg(dir, SlotDisplayName(slot)); err != nil {
		return Meta{}, err
	}
	if err := syncMods(m.sharedMods, filepath.Join(dir, "mods")); err != nil {
		return Meta{}, err
	}
	if err := patchOptions(filepath.Join(dir, "options.txt"), defaultOptions); err != nil {
		return Meta{}, err
	}

	if err := ValidateTransition(meta.Status, StateReady); err != nil {
		return Meta{}, err
	}
	meta.Status = StateReady
	meta.GameVersion = gameVersion
	meta.Loader = loader
	meta.UpdatedAt = now
	if err := WriteMeta(dir, meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// EnsureAll provisions every slot up to MaxSlots so a controller
// plugged in after install still has a ready instance.
func (m *Manager) EnsureAll(gameVersion, loader string) ([]Meta, error) {
	metas := make([]Meta, 0, MaxSlots)
	for slot := 1; slot <= MaxSlots; slot++ {
		meta, err := m.EnsureSlot(slot, gameVersion, loader)
		if err != nil {
			return metas, fmt.Errorf("slot %d: %w", slot, err)
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// Update applies mutate to the slot's meta and persists it. The mutate
// func owns any state transition checks.
func (m *Manager) Update(slot int, mutate func(*Meta) error) (Meta, error) {
	dir := m.Dir(slot)
	meta, err := ReadMeta(dir)
	if err != nil {
		return Meta{}, err
	}
	if err := mutate(&meta); err != nil {
		return Meta{}, err
	}
	meta.UpdatedAt = time.Now().UTC()
	if err := WriteMeta(dir, meta); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// Transition moves the slot's state with validation.
func (m *Manager) Transition(slot int, to string) (Meta, error) {
	return m.Update(slot, func(meta *Meta) error {
		if err := ValidateTransition(meta.Status, to); err != nil {
			return err
		}
		meta.Status = to
		return nil
	})
}

// writeInstanceCfg creates or refreshes instance.cfg, preserving keys
// the launcher added on its own (java paths, window geometry).
func writeInstanceCfg(dir, name string) error {
	path := filepath.Join(dir, "instance.cfg")
	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return err
	}
	cfg.Section("").Key("ConfigVersion").SetValue("1.2")
	general := cfg.Section("General")
	general.Key("InstanceType").SetValue("OneSix")
	general.Key("name").SetValue(name)
	general.Key("iconKey").SetValue("default")
	return cfg.SaveTo(path)
}

// syncMods links every jar from the shared mods dir into the slot's
// mods dir and drops links whose jar left the shared dir. Regular
// files a player copied in by hand are never touched.
func syncMods(sharedDir, modsDir string) error {
	if err := os.MkdirAll(modsDir, 0o755); err != nil {
		return err
	}
	absShared, err := filepath.Abs(sharedDir)
	if err != nil {
		return err
	}

	wanted := make(map[string]bool)
	entries, err := os.ReadDir(absShared)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".jar") {
			continue
		}
		wanted[entry.Name()] = true
		link := filepath.Join(modsDir, entry.Name())
		target := filepath.Join(absShared, entry.Name())

		if current, err := os.Readlink(link); err == nil {
			if current == target {
				continue
			}
			if err := os.Remove(link); err != nil {
				return err
			}
		} else if _, err := os.Lstat(link); err == nil {
			continue
		}
		if err := os.Symlink(target, link); err != nil {
			return err
		}
	}

	existing, err := os.ReadDir(modsDir)
	if err != nil {
		return err
	}
	for _, entry := range existing {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		link := filepath.Join(modsDir, entry.Name())
		target, err := os.Readlink(link)
		if err != nil || filepath.Dir(target) != absShared {
			continue
		}
		if !wanted[entry.Name()] {
			if err := os.Remove(link); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *Manager) infof(format string, args ...any) {
	if m.log != nil {
		m.log.Infof(format, args...)
	}
}
