package execx

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfirmRejectsWhenNoTTY(t *testing.T) {
	r := &Runner{
		In:     strings.NewReader("y\n"),
		Out:    &strings.Builder{},
		Err:    &strings.Builder{},
		IsTTY:  func() bool { return false },
		IsRoot: func() bool { return false },
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Run(ctx, "echo", []string{"ok"}, Options{Sensitive: true}); err == nil {
		t.Fatalf("expected error without TTY")
	}
}

func TestSensitiveConfirmCancel(t *testing.T) {
	r := &Runner{
		In:     strings.NewReader("n\n"),
		Out:    &strings.Builder{},
		Err:    &strings.Builder{},
		IsTTY:  func() bool { return true },
		IsRoot: func() bool { return true },
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Run(ctx, "echo", []string{"ok"}, Options{Sensitive: true}); err == nil {
		t.Fatalf("expected cancel error")
	}
}

func TestRequireSudoWithFakeRootSkipsSudo(t *testing.T) {
	r := &Runner{
		In:     strings.NewReader(""),
		Out:    &strings.Builder{},
		Err:    &strings.Builder{},
		IsTTY:  func() bool { return true },
		IsRoot: func() bool { return true },
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := r.Run(ctx, "nonexistent-command", nil, Options{RequireSudo: true})
	if err == nil {
		t.Fatalf("expected error executing nonexistent command")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if !strings.Contains(err.Error(), "nonexistent") {
		return
	}
}

func TestRunHonorsWorkingDirectory(t *testing.T) {
	out := &strings.Builder{}
	r := &Runner{
		In:     strings.NewReader(""),
		Out:    out,
		Err:    &strings.Builder{},
		IsTTY:  func() bool { return true },
		IsRoot: func() bool { return true },
	}
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Run(ctx, "pwd", nil, Options{Dir: dir}); err != nil {
		t.Skipf("pwd not available: %v", err)
	}
	if !strings.Contains(out.String(), resolved) {
		t.Fatalf("pwd output = %q, want it to contain %q", out.String(), resolved)
	}
}
