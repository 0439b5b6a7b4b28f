package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mcsplit/internal/execx"
	"mcsplit/internal/steam"
)

// steamAdd registers the launch shortcut in the local Steam library and
// pulls its grid artwork. Steam only rereads shortcuts.vdf on startup,
// so the change shows up after the next restart.
func (a *App) steamAdd(ctx context.Context, restart bool) error {
	selfExe, err := os.Executable()
	if err != nil {
		return err
	}

	shortcutsPath, err := steam.Locate(a.cfg.Steam.UserdataDir)
	if err != nil {
		return fmt.Errorf("locate steam user: %w", err)
	}
	if err := steam.EnsureFile(shortcutsPath); err != nil {
		return err
	}

	sc := steam.Shortcut{
		AppName:  a.cfg.Steam.AppName,
		Exe:      fmt.Sprintf("\"%s\" launch", selfExe),
		StartDir: filepath.Dir(selfExe),
	}
	appid, err := steam.Add(shortcutsPath, sc)
	switch {
	case errors.Is(err, steam.ErrShortcutExists):
		a.steamLog.Infof("shortcut already present appid=%d", appid)
	case err != nil:
		return err
	default:
		a.steamLog.Okf("shortcut added appid=%d name=%q", appid, sc.AppName)
	}

	n, err := steam.FetchArtwork(ctx, steam.GridDir(shortcutsPath), appid, a.steamLog)
	if err != nil {
		return err
	}
	if n > 0 {
		a.steamLog.Infof("fetched %d artwork images", n)
	}

	if restart {
		return a.restartSteam(ctx)
	}
	a.steamLog.Infof("restart Steam to see the new shortcut")
	return nil
}

// restartSteam asks before shutting Steam down: killing it mid-download
// or mid-cloud-sync is not a call a helper tool gets to make alone.
func (a *App) restartSteam(ctx context.Context) error {
	err := execx.NewRunner().Run(ctx, "steam", []string{"-shutdown"}, execx.Options{
		Sensitive: true,
		Prompt:    "Shut down Steam now so it reloads the shortcut file?",
	})
	if err != nil {
		return fmt.Errorf("steam shutdown: %w", err)
	}
	a.steamLog.Okf("asked Steam to shut down, start it again from the desktop")
	return nil
}
