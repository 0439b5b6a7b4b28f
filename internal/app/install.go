package app

import (
	"context"
	"fmt"

	"mcsplit/internal/instance"
	"mcsplit/internal/launcher"
	"mcsplit/internal/modpack"
	"mcsplit/internal/mods"
	"mcsplit/internal/registry"
)

// install runs the whole first-time setup: launcher, pack resolution,
// mod downloads, the four player instances and their offline accounts.
// Every step is idempotent, so rerunning repairs whatever drifted.
func (a *App) install(ctx context.Context) error {
	lock, err := a.acquireLock("install")
	if err != nil {
		return err
	}
	defer lock.Release()

	res, err := launcher.NewInstaller(a.cfg, nil, a.installLog).Install(ctx)
	if err != nil {
		return fmt.Errorf("install launcher: %w", err)
	}
	a.installLog.Infof("launcher ready kind=%s tag=%s upgraded=%v", res.Info.Kind, res.Tag, res.Upgraded)

	manifest, err := modpack.New(a.cfg.Modpack, a.modsLog).Load(ctx)
	if err != nil {
		return fmt.Errorf("load modpack: %w", err)
	}

	plan, err := mods.NewResolver(a.cfg.Mods, a.modsLog).Resolve(ctx, manifest)
	if err != nil {
		return fmt.Errorf("resolve mods: %w", err)
	}
	a.modsLog.Infof("resolved %d mod files for %s/%s", len(plan.Files), plan.GameVersion, plan.Loader)

	report, err := mods.NewDownloader(a.cfg.Mods, a.modsLog).Fetch(ctx, plan, a.sharedModsDir())
	if err != nil {
		return fmt.Errorf("download mods: %w", err)
	}
	a.modsLog.Infof("mod downloads done completed=%d skipped=%d", report.Completed, report.Skipped)

	mgr := instance.NewManager(res.Info.InstancesDir(), a.sharedModsDir(), a.installLog)
	metas, err := mgr.EnsureAll(manifest.GameVersion, manifest.Loader)
	if err != nil {
		return fmt.Errorf("provision instances: %w", err)
	}

	added, err := launcher.EnsureOfflineAccounts(res.Info.AccountsPath(), instance.MaxSlots)
	if err != nil {
		return fmt.Errorf("ensure offline accounts: %w", err)
	}
	if added > 0 {
		a.installLog.Infof("seeded %d offline accounts", added)
	}

	store := registry.New(a.registryPath())
	for _, meta := range metas {
		if err := store.Upsert(registryEntry(meta, mgr.Dir(meta.Slot))); err != nil {
			return fmt.Errorf("register slot %d: %w", meta.Slot, err)
		}
	}
	return nil
}

func registryEntry(meta instance.Meta, dir string) registry.Entry {
	return registry.Entry{
		ID:          meta.ID,
		Slot:        meta.Slot,
		DisplayName: meta.DisplayName,
		Path:        dir,
		Status:      meta.Status,
		GameVersion: meta.GameVersion,
		Loader:      meta.Loader,
		CreatedAt:   meta.CreatedAt,
		UpdatedAt:   meta.UpdatedAt,
	}
}
