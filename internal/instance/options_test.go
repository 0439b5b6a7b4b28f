package instance

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPatchOptionsCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.txt")
	if err := patchOptions(path, map[string]string{"pauseOnLostFocus": "false"}); err != nil {
		t.Fatalf("patchOptions: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pauseOnLostFocus:false\n" {
		t.Fatalf("content = %q", data)
	}
}

func TestPatchOptionsPreservesUnknownLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.txt")
	existing := "fov:0.5\npauseOnLostFocus:true\nkey_key.jump:key.keyboard.space\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	err := patchOptions(path, map[string]string{
		"pauseOnLostFocus":       "false",
		"skipMultiplayerWarning": "true",
	})
	if err != nil {
		t.Fatalf("patchOptions: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "fov:0.5\npauseOnLostFocus:false\nkey_key.jump:key.keyboard.space\nskipMultiplayerWarning:true\n"
	if string(data) != want {
		t.Fatalf("content = %q, want %q", data, want)
	}
}

func TestPatchOptionsIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.txt")
	opts := map[string]string{"pauseOnLostFocus": "false", "skipMultiplayerWarning": "true"}
	if err := patchOptions(path, opts); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := patchOptions(path, opts); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Fatalf("second pass changed the file: %q vs %q", first, second)
	}
}
