package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"mcsplit/internal/input"
	"mcsplit/internal/instance"
	"mcsplit/internal/launcher"
	"mcsplit/internal/layout"
	"mcsplit/internal/process"
	"mcsplit/internal/registry"
	"mcsplit/internal/resolve"
	"mcsplit/internal/session"
	"mcsplit/internal/splitscreen"
)

// launch starts a splitscreen session. override > 0 skips controller
// detection; dryRun prints the plan and leaves everything untouched.
func (a *App) launch(ctx context.Context, override int, dryRun bool) error {
	players, err := a.playerCount(override)
	if err != nil {
		return err
	}

	info, err := launcher.Detect(a.cfg.Launcher.DataDir)
	if err != nil {
		return fmt.Errorf("no launcher installed, run mcsplit install first: %w", err)
	}

	env := (&session.Detector{}).Detect()
	nested := env.NestedFor(players)

	selfExe, err := os.Executable()
	if err != nil {
		return err
	}
	planner := &session.Planner{
		LauncherExe:  info.Executable,
		InstancesDir: info.InstancesDir(),
		Compositor:   a.cfg.Session.NestedCompositor,
		SelfExe:      selfExe,
	}
	plan, err := planner.Plan(players, nested)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Printf("players: %d, nested compositor: %v\n", players, nested)
		for _, line := range plan.Describe() {
			fmt.Println(line)
		}
		return nil
	}

	lock, err := a.acquireLock("session")
	if err != nil {
		return err
	}
	defer lock.Release()

	mgr := instance.NewManager(info.InstancesDir(), a.sharedModsDir(), a.sessionLog)
	if err := a.prepareSlots(mgr, info.InstancesDir(), players); err != nil {
		return err
	}

	st, err := a.sessionRunner().Start(plan)
	if err != nil {
		return err
	}
	a.recordRunning(mgr, st)
	a.sessionLog.Okf("session started players=%d nested=%v", players, nested)
	return nil
}

// runSessionChild is the inner half of a nested session: the compositor
// re-invokes mcsplit with this verb, which spawns one launcher per slot
// directly and blocks until every game exits, ending the compositor.
func (a *App) runSessionChild(players int) error {
	info, err := launcher.Detect(a.cfg.Launcher.DataDir)
	if err != nil {
		return err
	}
	planner := &session.Planner{
		LauncherExe:  info.Executable,
		InstancesDir: info.InstancesDir(),
	}
	plan, err := planner.Plan(players, false)
	if err != nil {
		return err
	}

	mgr := instance.NewManager(info.InstancesDir(), a.sharedModsDir(), a.sessionLog)
	store := registry.New(a.registryPath())
	for slot := 1; slot <= players; slot++ {
		meta, err := mgr.Transition(slot, instance.StateRunning)
		if err != nil {
			a.sessionLog.Warnf("mark slot %d running: %v", slot, err)
			continue
		}
		if err := store.Upsert(registryEntry(meta, mgr.Dir(slot))); err != nil {
			a.sessionLog.Warnf("update registry for slot %d: %v", slot, err)
		}
	}

	waitErr := a.sessionRunner().StartAndWait(plan)
	a.sweepStopped(mgr)
	return waitErr
}

func (a *App) stop() error {
	lock, err := a.acquireLock("session")
	if err != nil {
		return err
	}
	defer lock.Release()

	stopped, err := a.sessionRunner().Stop()
	if err != nil {
		return err
	}
	if stopped == 0 {
		a.sessionLog.Infof("no session is running")
	} else {
		a.sessionLog.Okf("stopped %d session processes", stopped)
	}

	if info, err := launcher.Detect(a.cfg.Launcher.DataDir); err == nil {
		a.sweepStopped(instance.NewManager(info.InstancesDir(), a.sharedModsDir(), a.sessionLog))
	}
	return nil
}

func (a *App) status() error {
	store := registry.New(a.registryPath())
	entries, err := store.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no player slots provisioned, run mcsplit install first")
		return nil
	}

	_, live, err := a.sessionRunner().Alive()
	if err != nil {
		return err
	}
	alive := map[int]int{}
	for _, p := range live {
		alive[p.Slot] = p.PID
	}

	for _, e := range entries {
		status := e.Status
		detail := ""
		if pid, ok := alive[e.Slot]; ok {
			status = instance.StateRunning
			detail = fmt.Sprintf("\tpid=%d", pid)
		}
		fmt.Printf("%s\t%s\t%s%s\n", e.DisplayName, status, e.Path, detail)
	}
	if pid, ok := alive[0]; ok {
		fmt.Printf("compositor\trunning\tpid=%d\n", pid)
	}
	return nil
}

// playerCount turns the controller snapshot into a session size, unless
// the user pinned one on the command line.
func (a *App) playerCount(override int) (int, error) {
	if override != 0 {
		if override < resolve.MinPlayers || override > resolve.MaxPlayers {
			return 0, fmt.Errorf("player count must be between %d and %d, got %d", resolve.MinPlayers, resolve.MaxPlayers, override)
		}
		return override, nil
	}
	snap := input.NewEnumerator().Enumerate()
	count := resolve.Count(snap, a.resolveOptions())
	a.sessionLog.Infof("resolved %d players from %d joystick nodes", count, len(snap.Devices))
	return count, nil
}

func (a *App) resolveOptions() resolve.Options {
	return resolve.Options{
		BuiltinVendor:   a.cfg.Controllers.BuiltinVendor,
		BuiltinProduct:  a.cfg.Controllers.BuiltinProduct,
		BuiltinKeyword:  a.cfg.Controllers.BuiltinKeyword,
		RemapperRunning: process.FindByName(a.cfg.Controllers.RemapperProcess) > 0,
	}
}

func (a *App) sessionRunner() *session.Runner {
	return &session.Runner{
		DataDir: a.cfg.Install.DataHome,
		Grace:   time.Duration(a.cfg.Session.StopGraceSeconds) * time.Second,
		Log:     a.sessionLog,
	}
}

// prepareSlots provisions the participating instances and writes each
// one's screen region for this session size.
func (a *App) prepareSlots(mgr *instance.Manager, instancesDir string, players int) error {
	for slot := 1; slot <= players; slot++ {
		mode, err := layout.For(slot, players)
		if err != nil {
			return err
		}
		if _, err := mgr.EnsureSlot(slot, a.cfg.Modpack.GameVersion, a.cfg.Modpack.Loader); err != nil {
			return fmt.Errorf("prepare slot %d: %w", slot, err)
		}
		if err := splitscreen.Write(instancesDir, slot, mode); err != nil {
			return fmt.Errorf("write screen region for slot %d: %w", slot, err)
		}
		if _, err := mgr.Update(slot, func(m *instance.Meta) error {
			m.LayoutMode = string(mode)
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// recordRunning stamps the spawned pids into slot metadata and the
// registry. In nested mode the state file only has the compositor
// wrapper at this point; the inner run marks the slots itself.
func (a *App) recordRunning(mgr *instance.Manager, st session.State) {
	store := registry.New(a.registryPath())
	for _, proc := range st.Processes {
		if proc.Slot < 1 {
			continue
		}
		pid := proc.PID
		meta, err := mgr.Update(proc.Slot, func(m *instance.Meta) error {
			if err := instance.ValidateTransition(m.Status, instance.StateRunning); err != nil {
				return err
			}
			m.Status = instance.StateRunning
			m.PID = pid
			return nil
		})
		if err != nil {
			a.sessionLog.Warnf("record slot %d running: %v", proc.Slot, err)
			continue
		}
		if err := store.Upsert(registryEntry(meta, mgr.Dir(proc.Slot))); err != nil {
			a.sessionLog.Warnf("update registry for slot %d: %v", proc.Slot, err)
		}
	}
}

// sweepStopped walks every slot and downgrades running metadata whose
// pid is gone. Covers clean stops, crashes and nested sessions alike.
func (a *App) sweepStopped(mgr *instance.Manager) {
	store := registry.New(a.registryPath())
	for slot := 1; slot <= instance.MaxSlots; slot++ {
		meta, err := instance.ReadMeta(mgr.Dir(slot))
		if err != nil || meta.Status != instance.StateRunning {
			continue
		}
		if meta.PID > 0 && process.IsAlive(meta.PID) {
			continue
		}
		meta, err = mgr.Transition(slot, instance.StateStopped)
		if err != nil {
			a.sessionLog.Warnf("mark slot %d stopped: %v", slot, err)
			continue
		}
		if err := store.Upsert(registryEntry(meta, mgr.Dir(slot))); err != nil {
			a.sessionLog.Warnf("update registry for slot %d: %v", slot, err)
		}
	}
}
