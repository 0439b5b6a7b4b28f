package instance

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/ini.v1"
)

func newTestManager(t *testing.T) (*Manager, string, string) {
	t.Helper()
	base := t.TempDir()
	instances := filepath.Join(base, "instances")
	shared := filepath.Join(base, "mods")
	if err := os.MkdirAll(shared, 0o755); err != nil {
		t.Fatal(err)
	}
	return NewManager(instances, shared, nil), instances, shared
}

func TestEnsureSlotProvisionsDirectory(t *testing.T) {
	mgr, instances, shared := newTestManager(t)
	if err := os.WriteFile(filepath.Join(shared, "sodium.jar"), []byte("jar"), 0o644); err != nil {
		t.Fatal(err)
	}

	meta, err := mgr.EnsureSlot(2, "1.21.1", "fabric")
	if err != nil {
		t.Fatalf("EnsureSlot: %v", err)
	}
	if meta.ID != "player2" || meta.Slot != 2 || meta.Status != StateReady {
		t.Fatalf("meta = %+v", meta)
	}
	if meta.GameVersion != "1.21.1" || meta.Loader != "fabric" {
		t.Fatalf("meta versions = %q/%q", meta.GameVersion, meta.Loader)
	}

	dir := filepath.Join(instances, "player2")
	if _, err := os.Stat(filepath.Join(dir, "config")); err != nil {
		t.Fatalf("config dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "options.txt")); err != nil {
		t.Fatalf("options.txt: %v", err)
	}

	cfg, err := ini.Load(filepath.Join(dir, "instance.cfg"))
	if err != nil {
		t.Fatalf("instance.cfg: %v", err)
	}
	if got := cfg.Section("General").Key("name").String(); got != "Player 2" {
		t.Fatalf("instance name = %q", got)
	}
	if got := cfg.Section("General").Key("InstanceType").String(); got != "OneSix" {
		t.Fatalf("instance type = %q", got)
	}
	if got := cfg.Section("").Key("ConfigVersion").String(); got != "1.2" {
		t.Fatalf("config version = %q", got)
	}

	target, err := os.Readlink(filepath.Join(dir, "mods", "sodium.jar"))
	if err != nil {
		t.Fatalf("mod link: %v", err)
	}
	if filepath.Base(target) != "sodium.jar" {
		t.Fatalf("link target = %q", target)
	}
}

func TestEnsureSlotIsIdempotent(t *testing.T) {
	mgr, instances, _ := newTestManager(t)

	first, err := mgr.EnsureSlot(1, "1.21.1", "fabric")
	if err != nil {
		t.Fatalf("first EnsureSlot: %v", err)
	}

	// The launcher appends its own keys between runs.
	cfgPath := filepath.Join(instances, "player1", "instance.cfg")
	cfg, err := ini.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Section("General").Key("JavaPath").SetValue("/usr/bin/java")
	if err := cfg.SaveTo(cfgPath); err != nil {
		t.Fatal(err)
	}

	second, err := mgr.EnsureSlot(1, "1.21.1", "fabric")
	if err != nil {
		t.Fatalf("second EnsureSlot: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("CreatedAt changed: %v vs %v", second.CreatedAt, first.CreatedAt)
	}

	cfg, err = ini.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.Section("General").Key("JavaPath").String(); got != "/usr/bin/java" {
		t.Fatalf("launcher key lost, JavaPath = %q", got)
	}
}

func TestEnsureSlotRefusesLiveGame(t *testing.T) {
	mgr, instances, _ := newTestManager(t)
	if _, err := mgr.EnsureSlot(1, "1.21.1", "fabric"); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(instances, "player1")
	meta, err := ReadMeta(dir)
	if err != nil {
		t.Fatal(err)
	}
	meta.Status = StateRunning
	meta.PID = os.Getpid()
	if err := WriteMeta(dir, meta); err != nil {
		t.Fatal(err)
	}

	if _, err := mgr.EnsureSlot(1, "1.21.1", "fabric"); err == nil {
		t.Fatal("expected a refusal while the game is alive")
	}
}

func TestEnsureSlotRecoversDeadGame(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot spawn helper: %v", err)
	}

	mgr, instances, _ := newTestManager(t)
	if _, err := mgr.EnsureSlot(1, "1.21.1", "fabric"); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(instances, "player1")
	meta, err := ReadMeta(dir)
	if err != nil {
		t.Fatal(err)
	}
	meta.Status = StateRunning
	meta.PID = cmd.Process.Pid
	if err := WriteMeta(dir, meta); err != nil {
		t.Fatal(err)
	}

	got, err := mgr.EnsureSlot(1, "1.21.1", "fabric")
	if err != nil {
		t.Fatalf("EnsureSlot over a dead pid: %v", err)
	}
	if got.Status != StateReady || got.PID != 0 {
		t.Fatalf("meta = %+v, want ready with pid cleared", got)
	}
}

func TestEnsureSlotBounds(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	if _, err := mgr.EnsureSlot(0, "1.21.1", "fabric"); err == nil {
		t.Fatal("slot 0 accepted")
	}
	if _, err := mgr.EnsureSlot(5, "1.21.1", "fabric"); err == nil {
		t.Fatal("slot 5 accepted")
	}
}

func TestEnsureAllProvisionsEverySlot(t *testing.T) {
	mgr, instances, _ := newTestManager(t)
	metas, err := mgr.EnsureAll("1.21.1", "fabric")
	if err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	if len(metas) != MaxSlots {
		t.Fatalf("metas = %d, want %d", len(metas), MaxSlots)
	}
	for slot := 1; slot <= MaxSlots; slot++ {
		if _, err := os.Stat(filepath.Join(instances, SlotID(slot), "instance.cfg")); err != nil {
			t.Fatalf("slot %d missing: %v", slot, err)
		}
	}
}

func TestSyncModsDropsStaleLinks(t *testing.T) {
	mgr, instances, shared := newTestManager(t)
	for _, name := range []string{"a.jar", "b.jar", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(shared, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := mgr.EnsureSlot(1, "1.21.1", "fabric"); err != nil {
		t.Fatal(err)
	}

	modsDir := filepath.Join(instances, "player1", "mods")
	if _, err := os.Lstat(filepath.Join(modsDir, "notes.txt")); !os.IsNotExist(err) {
		t.Fatal("non jar file was linked")
	}

	// A jar the player dropped in by hand must survive syncs.
	handCopied := filepath.Join(modsDir, "custom.jar")
	if err := os.WriteFile(handCopied, []byte("mine"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(shared, "b.jar")); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.EnsureSlot(1, "1.21.1", "fabric"); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Lstat(filepath.Join(modsDir, "b.jar")); !os.IsNotExist(err) {
		t.Fatal("stale link kept after the jar left the shared dir")
	}
	if _, err := os.Lstat(filepath.Join(modsDir, "a.jar")); err != nil {
		t.Fatalf("a.jar link missing: %v", err)
	}
	if _, err := os.Stat(handCopied); err != nil {
		t.Fatalf("hand copied jar missing: %v", err)
	}
}

func TestTransitionValidates(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	if _, err := mgr.EnsureSlot(1, "1.21.1", "fabric"); err != nil {
		t.Fatal(err)
	}

	meta, err := mgr.Transition(1, StateRunning)
	if err != nil {
		t.Fatalf("ready -> running: %v", err)
	}
	if meta.Status != StateRunning {
		t.Fatalf("status = %q", meta.Status)
	}

	if _, err := mgr.Transition(1, StateReady); err == nil {
		t.Fatal("running -> ready accepted")
	}
}

func TestUpdateStampsUpdatedAt(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	first, err := mgr.EnsureSlot(1, "1.21.1", "fabric")
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)
	got, err := mgr.Update(1, func(meta *Meta) error {
		meta.LayoutMode = "TOP"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.LayoutMode != "TOP" {
		t.Fatalf("layout = %q", got.LayoutMode)
	}
	if !got.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("UpdatedAt not stamped: %v vs %v", got.UpdatedAt, first.UpdatedAt)
	}
}

func TestInstanceCfgUsesBareAssignments(t *testing.T) {
	mgr, instances, _ := newTestManager(t)
	if _, err := mgr.EnsureSlot(1, "1.21.1", "fabric"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(instances, "player1", "instance.cfg"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), " = ") {
		t.Fatalf("instance.cfg has padded assignments:\n%s", data)
	}
	if !strings.Contains(string(data), "name=Player 1") {
		t.Fatalf("instance.cfg missing name:\n%s", data)
	}
}
