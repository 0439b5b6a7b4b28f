package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mcsplit/internal/config"
	"mcsplit/internal/instance"
	"mcsplit/internal/logging"
	"mcsplit/internal/version"
)

// sessionProc is the hidden subcommand a nested compositor re-invokes.
const sessionProc = "run-session"

type App struct {
	cfg        config.Config
	log        *logging.Logger
	installLog *logging.Logger
	modsLog    *logging.Logger
	sessionLog *logging.Logger
	steamLog   *logging.Logger
}

func New() (*App, error) {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return nil, err
	}
	rootLog, err := logging.NewRoot(logging.Options{
		FilePath:       cfg.Logging.FilePath,
		MaxSizeMB:      cfg.Logging.MaxSizeMB,
		RetentionDays:  cfg.Logging.RetentionDays,
		MaxBackupFiles: cfg.Logging.MaxBackupFiles,
		Verbose:        cfg.Logging.Verbose,
	})
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:        cfg,
		log:        rootLog.Module("app"),
		installLog: rootLog.Module("install"),
		modsLog:    rootLog.Module("mods"),
		sessionLog: rootLog.Module("session"),
		steamLog:   rootLog.Module("steam"),
	}, nil
}

func (a *App) Run(args []string) {
	if err := a.Execute(args); err != nil {
		a.log.Fatalf("command failed: %v", err)
	}
}

func (a *App) Execute(args []string) error {
	if err := a.validateConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cmd := a.newRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return err
	}
	return nil
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "mcsplit",
		Short: "Splitscreen Minecraft for the Steam Deck",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.runInteractiveTUI()
			return nil
		},
	}

	var chdirPath string
	root.PersistentFlags().StringVarP(&chdirPath, "directory", "C", "", "Run as if mcsplit was started in this path")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(chdirPath) == "" {
			return nil
		}
		abs, err := filepath.Abs(chdirPath)
		if err != nil {
			return err
		}
		if st, err := os.Stat(abs); err != nil {
			return err
		} else if !st.IsDir() {
			return fmt.Errorf("-C path is not a directory: %s", abs)
		}
		return os.Chdir(abs)
	}

	root.AddCommand(&cobra.Command{Use: "install", Aliases: []string{"setup"}, Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		if err := a.install(cmd.Context()); err != nil {
			return err
		}
		a.installLog.Okf("install completed")
		return nil
	}})

	launch := &cobra.Command{Use: "launch [players]", Aliases: []string{"play"}, Args: cobra.MaximumNArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		override := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("player count must be a number, got %q", args[0])
			}
			override = n
		}
		return a.launch(cmd.Context(), override, dryRun)
	}}
	launch.Flags().Bool("dry-run", false, "Print the session plan without starting anything")
	root.AddCommand(launch)

	root.AddCommand(&cobra.Command{Use: "stop", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return a.stop()
	}})

	root.AddCommand(&cobra.Command{Use: "status", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return a.status()
	}})

	root.AddCommand(&cobra.Command{Use: "resolve", Aliases: []string{"controllers"}, Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		return a.resolveControllers()
	}})

	steamCmd := &cobra.Command{Use: "steam", Short: "Steam library integration"}
	steamAdd := &cobra.Command{Use: "add", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		restart, _ := cmd.Flags().GetBool("restart")
		if err := a.steamAdd(cmd.Context(), restart); err != nil {
			return err
		}
		a.steamLog.Okf("steam shortcut ready")
		return nil
	}}
	steamAdd.Flags().Bool("restart", false, "Offer to shut down Steam so it reloads the shortcut file")
	steamCmd.AddCommand(steamAdd)
	root.AddCommand(steamCmd)

	runCmd := &cobra.Command{Use: "run", Args: cobra.MinimumNArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		sensitive, _ := cmd.Flags().GetBool("sensitive")
		sudo, _ := cmd.Flags().GetBool("sudo")
		prompt, _ := cmd.Flags().GetString("prompt")
		return a.runCommand(args, sensitive, sudo, prompt)
	}}
	runCmd.Flags().Bool("sensitive", false, "Require confirmation before running")
	runCmd.Flags().Bool("sudo", false, "Run command with sudo")
	runCmd.Flags().String("prompt", "", "Custom confirmation prompt")
	root.AddCommand(runCmd)

	root.AddCommand(&cobra.Command{Use: "version", Args: cobra.NoArgs, RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(version.Version)
		return nil
	}})

	root.AddCommand(&cobra.Command{Use: sessionProc, Hidden: true, Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		players, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return fmt.Errorf("player count must be a number, got %q", args[0])
		}
		return a.runSessionChild(players)
	}})

	return root
}

func (a *App) printHelp() {
	fmt.Println("mcsplit")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mcsplit install            Install launcher, mods and player instances")
	fmt.Println("  mcsplit setup              Alias of install")
	fmt.Println("  mcsplit launch [players]   Start a splitscreen session")
	fmt.Println("  mcsplit launch --dry-run   Print the session plan without starting it")
	fmt.Println("  mcsplit stop               Stop the running session")
	fmt.Println("  mcsplit status             Show player slots and the live session")
	fmt.Println("  mcsplit resolve            Show detected controllers and the player count")
	fmt.Println("  mcsplit steam add          Add a Steam library shortcut with artwork")
	fmt.Println("  mcsplit run <cmd...>       Run developer command from the data dir")
	fmt.Println("  mcsplit version            Print version")
	fmt.Println("  mcsplit -C <dir> ...       Run command against another directory")
}

func (a *App) validateConfig() error {
	if strings.TrimSpace(a.cfg.Install.DataHome) == "" {
		return errors.New("install.data_home is empty in config")
	}
	if strings.TrimSpace(a.cfg.Launcher.Repo) == "" {
		return errors.New("launcher.repo is empty in config")
	}
	if strings.TrimSpace(a.cfg.Launcher.DataDir) == "" {
		return errors.New("launcher.data_dir is empty in config")
	}
	if strings.TrimSpace(a.cfg.Modpack.GameVersion) == "" {
		return errors.New("modpack.game_version is empty in config")
	}
	if strings.TrimSpace(a.cfg.Modpack.Loader) == "" {
		return errors.New("modpack.loader is empty in config")
	}
	if a.cfg.Launcher.RequireSignature && strings.TrimSpace(a.cfg.Launcher.MiniSignPublicKey) == "" {
		return errors.New("launcher.minisign_public_key is empty while signature is required")
	}
	return nil
}

func (a *App) acquireLock(name string) (*instance.Lock, error) {
	timeout := time.Duration(a.cfg.Install.LockTimeoutSeconds) * time.Second
	return instance.AcquireLock(filepath.Join(a.cfg.Install.DataHome, "locks"), name, timeout)
}

func (a *App) sharedModsDir() string {
	return filepath.Join(a.cfg.Install.DataHome, "mods")
}

func (a *App) registryPath() string {
	return filepath.Join(a.cfg.Install.DataHome, "index.json")
}
