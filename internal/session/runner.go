package session

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"mcsplit/internal/logging"
	"mcsplit/internal/process"
)

const defaultGrace = 6 * time.Second

// Runner spawns and reaps session processes.
type Runner struct {
	DataDir string
	Grace   time.Duration
	Log     *logging.Logger
}

// Start launches every command in the plan detached and records the
// pids. A partial failure rolls back what already started.
func (r *Runner) Start(plan Plan) (State, error) {
	if _, live, err := r.Alive(); err != nil {
		return State{}, err
	} else if len(live) > 0 {
		return State{}, fmt.Errorf("a session is already running (pid %d), stop it first", live[0].PID)
	}

	st := State{Players: plan.Players, Nested: plan.Nested, StartedAt: time.Now().UTC()}
	for _, c := range plan.Commands {
		pid, err := launchDetached(c)
		if err != nil {
			for i := len(st.Processes) - 1; i >= 0; i-- {
				_ = process.Stop(st.Processes[i].PID, r.grace())
			}
			return State{}, fmt.Errorf("start %s: %w", describeSlot(c), err)
		}
		r.infof("started %s pid=%d", describeSlot(c), pid)
		st.Processes = append(st.Processes, SlotProcess{Slot: c.Slot, PID: pid})
	}
	if err := WriteState(r.DataDir, st); err != nil {
		return st, err
	}
	return st, nil
}

// StartAndWait runs the plan in the foreground and blocks until every
// child exits. The nested wrapper calls this, so the compositor stays
// up for the whole session.
func (r *Runner) StartAndWait(plan Plan) error {
	var cmds []*exec.Cmd
	var spawned []SlotProcess
	for _, c := range plan.Commands {
		cmd, closeLog, err := buildCommand(c)
		if err == nil {
			err = cmd.Start()
			closeLog()
		}
		if err != nil {
			for _, p := range spawned {
				_ = process.Stop(p.PID, r.grace())
			}
			return fmt.Errorf("start %s: %w", describeSlot(c), err)
		}
		r.infof("started %s pid=%d", describeSlot(c), cmd.Process.Pid)
		spawned = append(spawned, SlotProcess{Slot: c.Slot, PID: cmd.Process.Pid})
		cmds = append(cmds, cmd)
	}
	r.recordProcesses(plan, spawned)

	var firstErr error
	for i, cmd := range cmds {
		if err := cmd.Wait(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", describeSlot(plan.Commands[i]), err)
		}
	}
	return firstErr
}

// Stop terminates every recorded process, children before wrapper, and
// clears the session file.
func (r *Runner) Stop() (int, error) {
	st, err := ReadState(r.DataDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	stopped := 0
	for i := len(st.Processes) - 1; i >= 0; i-- {
		p := st.Processes[i]
		if !process.IsAlive(p.PID) {
			continue
		}
		if err := process.Stop(p.PID, r.grace()); err != nil {
			return stopped, err
		}
		r.infof("stopped slot=%d pid=%d", p.Slot, p.PID)
		stopped++
	}
	if err := ClearState(r.DataDir); err != nil {
		return stopped, err
	}
	return stopped, nil
}

// Alive returns the recorded session and which of its processes still
// run. No session file means no session.
func (r *Runner) Alive() (State, []SlotProcess, error) {
	st, err := ReadState(r.DataDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil, nil
		}
		return State{}, nil, err
	}
	var live []SlotProcess
	for _, p := range st.Processes {
		if process.IsAlive(p.PID) {
			live = append(live, p)
		}
	}
	return st, live, nil
}

// recordProcesses merges freshly spawned pids into the session file.
// Inside a nested session the wrapper pid is already recorded there.
func (r *Runner) recordProcesses(plan Plan, procs []SlotProcess) {
	st, err := ReadState(r.DataDir)
	if err != nil {
		st = State{Players: plan.Players, Nested: plan.Nested, StartedAt: time.Now().UTC()}
	}
	st.Processes = append(st.Processes, procs...)
	if err := WriteState(r.DataDir, st); err != nil {
		r.warnf("record session pids: %v", err)
	}
}

func buildCommand(c Command) (*exec.Cmd, func(), error) {
	cmd := exec.Command(c.Name, c.Args...)
	cmd.Env = append(os.Environ(), c.Env...)
	closeLog := func() {}
	if c.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		cmd.Stdout = f
		cmd.Stderr = f
		closeLog = func() { _ = f.Close() }
	}
	return cmd, closeLog, nil
}

func launchDetached(c Command) (int, error) {
	cmd, closeLog, err := buildCommand(c)
	if err != nil {
		return 0, err
	}
	defer closeLog()
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

func describeSlot(c Command) string {
	if c.Slot == 0 {
		return "wrapper"
	}
	return fmt.Sprintf("slot %d", c.Slot)
}

func (r *Runner) grace() time.Duration {
	if r.Grace > 0 {
		return r.Grace
	}
	return defaultGrace
}

func (r *Runner) infof(format string, args ...any) {
	if r.Log != nil {
		r.Log.Infof(format, args...)
	}
}

func (r *Runner) warnf(format string, args ...any) {
	if r.Log != nil {
		r.Log.Warnf(format, args...)
	}
}
