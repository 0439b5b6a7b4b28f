package splitscreen

import (
	"os"
	"path/filepath"
	"testing"

	"mcsplit/internal/layout"
)

func TestWriteRendersExactContent(t *testing.T) {
	root := t.TempDir()
	if err := Write(root, 1, layout.Top); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "player1", "config", "splitscreen.properties"))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(data) != "gap=1\nmode=TOP\n" {
		t.Fatalf("content = %q, want %q", string(data), "gap=1\nmode=TOP\n")
	}
}

func TestWriteCreatesMissingDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "instances")
	if err := Write(root, 4, layout.BottomRight); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if _, err := os.Stat(PathFor(root, 4)); err != nil {
		t.Fatalf("stat error: %v", err)
	}
}

func TestWriteOverwritesPreviousMode(t *testing.T) {
	root := t.TempDir()
	if err := Write(root, 2, layout.Bottom); err != nil {
		t.Fatalf("first Write error: %v", err)
	}
	if err := Write(root, 2, layout.BottomLeft); err != nil {
		t.Fatalf("second Write error: %v", err)
	}

	data, err := os.ReadFile(PathFor(root, 2))
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(data) != "gap=1\nmode=BOTTOM_LEFT\n" {
		t.Fatalf("content = %q after rewrite", string(data))
	}
}

func TestWriteRejectsNonPositiveSlot(t *testing.T) {
	if err := Write(t.TempDir(), 0, layout.Top); err == nil {
		t.Fatalf("expected error for slot 0")
	}
}

func TestWriteFailsWhenRootIsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(root, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup error: %v", err)
	}
	if err := Write(root, 1, layout.Top); err == nil {
		t.Fatalf("expected error when instance root is a file")
	}
}

func TestPathForShape(t *testing.T) {
	got := PathFor("/data/instances", 3)
	want := filepath.Join("/data/instances", "player3", "config", "splitscreen.properties")
	if got != want {
		t.Fatalf("PathFor = %q, want %q", got, want)
	}
}
