package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateCreatesMcsplitConf(t *testing.T) {
	base := t.TempDir()
	t.Setenv("MCSPLIT_HOME", base)

	cfg, err := LoadOrCreate()
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	if cfg.Version != schemaVersion {
		t.Fatalf("version = %d, want %d", cfg.Version, schemaVersion)
	}
	if cfg.Launcher.Repo != "PrismLauncher/PrismLauncher" {
		t.Fatalf("launcher repo = %q, want PrismLauncher/PrismLauncher", cfg.Launcher.Repo)
	}
	if cfg.Controllers.BuiltinVendor != "28de" {
		t.Fatalf("builtin vendor = %q, want 28de", cfg.Controllers.BuiltinVendor)
	}

	path := filepath.Join(base, "mcsplit.conf")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected mcsplit.conf, stat error: %v", err)
	}
}

func TestLoadOrCreateMigratesLegacyConfig(t *testing.T) {
	base := t.TempDir()
	t.Setenv("MCSPLIT_HOME", base)

	legacy := []byte("{\n  \"version\": 1,\n  \"install\": {\n    \"data_home\": \"" + base + "\",\n    \"lock_timeout_seconds\": 4\n  },\n  \"logging\": {\n    \"file_path\": \"" + filepath.Join(base, "logs", "mcsplit.log") + "\",\n    \"max_size_mb\": 5,\n    \"retention_days\": 3,\n    \"max_backup_files\": 5\n  }\n}\n")
	legacyPath := filepath.Join(base, "config.json")
	if err := os.WriteFile(legacyPath, legacy, 0o644); err != nil {
		t.Fatalf("write legacy config error: %v", err)
	}

	cfg, err := LoadOrCreate()
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	if cfg.Version != schemaVersion {
		t.Fatalf("version = %d, want %d", cfg.Version, schemaVersion)
	}
	if cfg.Controllers.RemapperProcess != "steam" {
		t.Fatalf("remapper process = %q, want steam", cfg.Controllers.RemapperProcess)
	}

	if _, err := os.Stat(filepath.Join(base, "mcsplit.conf")); err != nil {
		t.Fatalf("expected mcsplit.conf, stat error: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(base, "config.backup.*.json"))
	if err != nil {
		t.Fatalf("glob error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("expected migration backup file")
	}
}

func TestEnvOverridesConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("MCSPLIT_HOME", base)
	t.Setenv("MCSPLIT_MODS__DOWNLOAD_THREADS", "8")
	t.Setenv("MCSPLIT_MODPACK__LOADER", "quilt")

	cfg, err := LoadOrCreate()
	if err != nil {
		t.Fatalf("LoadOrCreate error: %v", err)
	}
	if cfg.Mods.DownloadThreads != 8 {
		t.Fatalf("download threads = %d, want 8", cfg.Mods.DownloadThreads)
	}
	if cfg.Modpack.Loader != "quilt" {
		t.Fatalf("loader = %q, want quilt", cfg.Modpack.Loader)
	}
}

func TestApplyDefaultsFillsBlankSections(t *testing.T) {
	base := t.TempDir()
	out := applyDefaults(Config{}, base)
	if out.Install.DataHome != base {
		t.Fatalf("data home = %q, want %q", out.Install.DataHome, base)
	}
	if out.Modpack.ManifestPath != filepath.Join(base, "pack.yaml") {
		t.Fatalf("manifest path = %q", out.Modpack.ManifestPath)
	}
	if out.Session.NestedCompositor != "kwin_wayland" {
		t.Fatalf("nested compositor = %q, want kwin_wayland", out.Session.NestedCompositor)
	}
	if out.Mods.MaxDependencyDepth != 3 {
		t.Fatalf("max dependency depth = %d, want 3", out.Mods.MaxDependencyDepth)
	}
	if out.Logging.FilePath != filepath.Join(base, "logs", "mcsplit.log") {
		t.Fatalf("log path = %q", out.Logging.FilePath)
	}
}

func TestMigrateRejectsNewerConfig(t *testing.T) {
	base := t.TempDir()
	_, err := migrate(Config{Version: schemaVersion + 1}, base)
	if err == nil {
		t.Fatalf("expected error for newer config version")
	}
}
