package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	koanfjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const schemaVersion = 2

type Install struct {
	DataHome           string `json:"data_home"`
	LockTimeoutSeconds int    `json:"lock_timeout_seconds"`
}

type Launcher struct {
	Repo              string `json:"repo"`
	DataDir           string `json:"data_dir"`
	RequireSignature  bool   `json:"require_signature"`
	MiniSignPublicKey string `json:"minisign_public_key"`
}

type Modpack struct {
	GameVersion  string `json:"game_version"`
	Loader       string `json:"loader"`
	ManifestPath string `json:"manifest_path"`
	CatalogURL   string `json:"catalog_url"`
}

type Mods struct {
	DownloadThreads       int    `json:"download_threads"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	Retries               int    `json:"retries"`
	RetryBackoffSeconds   int    `json:"retry_backoff_seconds"`
	MaxDependencyDepth    int    `json:"max_dependency_depth"`
	CurseForgeAPIKey      string `json:"curseforge_api_key"`
}

type Controllers struct {
	BuiltinVendor   string `json:"builtin_vendor"`
	BuiltinProduct  string `json:"builtin_product"`
	BuiltinKeyword  string `json:"builtin_keyword"`
	RemapperProcess string `json:"remapper_process"`
}

type Session struct {
	NestedCompositor string `json:"nested_compositor"`
	StopGraceSeconds int    `json:"stop_grace_seconds"`
}

type Steam struct {
	UserdataDir string `json:"userdata_dir"`
	AppName     string `json:"app_name"`
}

type Mirrors struct {
	URLs         []string `json:"urls"`
	ProbeURL     string   `json:"probe_url"`
	ProbeSeconds int      `json:"probe_seconds"`
}

type Logging struct {
	FilePath       string `json:"file_path"`
	MaxSizeMB      int    `json:"max_size_mb"`
	RetentionDays  int    `json:"retention_days"`
	MaxBackupFiles int    `json:"max_backup_files"`
	Verbose        bool   `json:"verbose"`
}

type Config struct {
	Version     int         `json:"version"`
	Install     Install     `json:"install"`
	Launcher    Launcher    `json:"launcher"`
	Modpack     Modpack     `json:"modpack"`
	Mods        Mods        `json:"mods"`
	Controllers Controllers `json:"controllers"`
	Session     Session     `json:"session"`
	Steam       Steam       `json:"steam"`
	Mirrors     Mirrors     `json:"mirrors"`
	Logging     Logging     `json:"logging"`
}

func LoadOrCreate() (Config, error) {
	base, err := resolveBaseDir()
	if err != nil {
		return Config{}, err
	}
	path := filepath.Join(base, "mcsplit.conf")
	legacyPath := filepath.Join(base, "config.json")

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, legacyErr := os.Stat(legacyPath); legacyErr == nil {
			cfg, loadErr := loadFromPath(legacyPath)
			if loadErr != nil {
				return Config{}, loadErr
			}
			cfg, migrateErr := migrate(cfg, base)
			if migrateErr != nil {
				return Config{}, migrateErr
			}
			cfg = applyDefaults(cfg, base)
			if err := save(path, cfg); err != nil {
				return Config{}, err
			}
			return cfg, nil
		}
		cfg := defaults(base)
		if err := save(path, cfg); err != nil {
			return Config{}, err
		}
		return loadWithKoanf(path, base)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err = migrate(cfg, base)
	if err != nil {
		return Config{}, err
	}
	cfg = applyDefaults(cfg, base)
	if err := save(path, cfg); err != nil {
		return Config{}, err
	}
	return loadWithKoanf(path, base)
}

func resolveBaseDir() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("MCSPLIT_HOME")); explicit != "" {
		return explicit, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mcsplit"), nil
}

func resolveShareDir(base string) string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdg != "" {
		return xdg
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(base, "share")
	}
	return filepath.Join(home, ".local", "share")
}

func resolveSteamUserdata(base string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(base, "steam", "userdata")
	}
	return filepath.Join(home, ".steam", "steam", "userdata")
}

func loadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadWithKoanf(path, base string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), koanfjson.Parser()); err != nil {
		return Config{}, err
	}
	envPrefix := "MCSPLIT_"
	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		n := strings.TrimPrefix(key, envPrefix)
		n = strings.ToLower(n)
		n = strings.ReplaceAll(n, "__", ".")
		return n
	}), nil); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, err
	}
	cfg = applyDefaults(cfg, base)
	return cfg, nil
}

func defaults(base string) Config {
	return Config{
		Version: schemaVersion,
		Install: Install{
			DataHome:           base,
			LockTimeoutSeconds: 8,
		},
		Launcher: Launcher{
			Repo:              "PrismLauncher/PrismLauncher",
			DataDir:           resolveShareDir(base),
			RequireSignature:  false,
			MiniSignPublicKey: "",
		},
		Modpack: Modpack{
			GameVersion:  "1.21.1",
			Loader:       "fabric",
			ManifestPath: filepath.Join(base, "pack.yaml"),
			CatalogURL:   "",
		},
		Mods: Mods{
			DownloadThreads:       4,
			RequestTimeoutSeconds: 20,
			Retries:               3,
			RetryBackoffSeconds:   2,
			MaxDependencyDepth:    3,
			CurseForgeAPIKey:      "",
		},
		Controllers: Controllers{
			BuiltinVendor:   "28de",
			BuiltinProduct:  "1205",
			BuiltinKeyword:  "Steam Deck",
			RemapperProcess: "steam",
		},
		Session: Session{
			NestedCompositor: "kwin_wayland",
			StopGraceSeconds: 6,
		},
		Steam: Steam{
			UserdataDir: resolveSteamUserdata(base),
			AppName:     "Minecraft Splitscreen",
		},
		Mirrors: Mirrors{
			URLs:         []string{},
			ProbeURL:     "https://api.github.com",
			ProbeSeconds: 3,
		},
		Logging: Logging{
			FilePath:       filepath.Join(base, "logs", "mcsplit.log"),
			MaxSizeMB:      10,
			RetentionDays:  7,
			MaxBackupFiles: 20,
		},
	}
}

func applyDefaults(cfg Config, base string) Config {
	d := defaults(base)
	if cfg.Version == 0 {
		cfg.Version = d.Version
	}
	if strings.TrimSpace(cfg.Install.DataHome) == "" {
		cfg.Install.DataHome = d.Install.DataHome
	}
	if cfg.Install.LockTimeoutSeconds <= 0 {
		cfg.Install.LockTimeoutSeconds = d.Install.LockTimeoutSeconds
	}
	if strings.TrimSpace(cfg.Launcher.Repo) == "" {
		cfg.Launcher.Repo = d.Launcher.Repo
	}
	if strings.TrimSpace(cfg.Launcher.DataDir) == "" {
		cfg.Launcher.DataDir = d.Launcher.DataDir
	}
	if strings.TrimSpace(cfg.Modpack.GameVersion) == "" {
		cfg.Modpack.GameVersion = d.Modpack.GameVersion
	}
	if strings.TrimSpace(cfg.Modpack.Loader) == "" {
		cfg.Modpack.Loader = d.Modpack.Loader
	}
	if strings.TrimSpace(cfg.Modpack.ManifestPath) == "" {
		cfg.Modpack.ManifestPath = filepath.Join(cfg.Install.DataHome, "pack.yaml")
	}
	if cfg.Mods.DownloadThreads <= 0 {
		cfg.Mods.DownloadThreads = d.Mods.DownloadThreads
	}
	if cfg.Mods.RequestTimeoutSeconds <= 0 {
		cfg.Mods.RequestTimeoutSeconds = d.Mods.RequestTimeoutSeconds
	}
	if cfg.Mods.Retries <= 0 {
		cfg.Mods.Retries = d.Mods.Retries
	}
	if cfg.Mods.RetryBackoffSeconds < 0 {
		cfg.Mods.RetryBackoffSeconds = d.Mods.RetryBackoffSeconds
	}
	if cfg.Mods.MaxDependencyDepth <= 0 {
		cfg.Mods.MaxDependencyDepth = d.Mods.MaxDependencyDepth
	}
	if strings.TrimSpace(cfg.Controllers.BuiltinVendor) == "" {
		cfg.Controllers.BuiltinVendor = d.Controllers.BuiltinVendor
	}
	if strings.TrimSpace(cfg.Controllers.BuiltinProduct) == "" {
		cfg.Controllers.BuiltinProduct = d.Controllers.BuiltinProduct
	}
	if strings.TrimSpace(cfg.Controllers.BuiltinKeyword) == "" {
		cfg.Controllers.BuiltinKeyword = d.Controllers.BuiltinKeyword
	}
	if strings.TrimSpace(cfg.Controllers.RemapperProcess) == "" {
		cfg.Controllers.RemapperProcess = d.Controllers.RemapperProcess
	}
	if strings.TrimSpace(cfg.Session.NestedCompositor) == "" {
		cfg.Session.NestedCompositor = d.Session.NestedCompositor
	}
	if cfg.Session.StopGraceSeconds <= 0 {
		cfg.Session.StopGraceSeconds = d.Session.StopGraceSeconds
	}
	if strings.TrimSpace(cfg.Steam.UserdataDir) == "" {
		cfg.Steam.UserdataDir = d.Steam.UserdataDir
	}
	if strings.TrimSpace(cfg.Steam.AppName) == "" {
		cfg.Steam.AppName = d.Steam.AppName
	}
	if strings.TrimSpace(cfg.Mirrors.ProbeURL) == "" {
		cfg.Mirrors.ProbeURL = d.Mirrors.ProbeURL
	}
	if cfg.Mirrors.ProbeSeconds <= 0 {
		cfg.Mirrors.ProbeSeconds = d.Mirrors.ProbeSeconds
	}
	if strings.TrimSpace(cfg.Logging.FilePath) == "" {
		cfg.Logging.FilePath = filepath.Join(cfg.Install.DataHome, "logs", "mcsplit.log")
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = d.Logging.MaxSizeMB
	}
	if cfg.Logging.RetentionDays <= 0 {
		cfg.Logging.RetentionDays = d.Logging.RetentionDays
	}
	if cfg.Logging.MaxBackupFiles <= 0 {
		cfg.Logging.MaxBackupFiles = d.Logging.MaxBackupFiles
	}
	return cfg
}

func save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Install.DataHome, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Logging.FilePath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
