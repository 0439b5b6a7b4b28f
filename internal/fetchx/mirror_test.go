package fetchx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestApply(t *testing.T) {
	got := Apply("https://ghfast.top", "https://github.com/a/b")
	want := "https://ghfast.top/github.com/a/b"
	if got != want {
		t.Fatalf("Apply = %q, want %q", got, want)
	}
	if got := Apply("", "https://github.com/a/b"); got != "https://github.com/a/b" {
		t.Fatalf("Apply with empty prefix = %q", got)
	}
}

func TestResolveSelectsFirstHealthy(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer good.Close()

	r := NewResolver([]string{bad.URL, good.URL}, "https://api.github.com", 2, nil)
	selected, all := r.Resolve(context.Background())
	if selected != good.URL {
		t.Fatalf("selected = %q, want %q", selected, good.URL)
	}
	if len(all) != 2 {
		t.Fatalf("mirrors len = %d, want 2", len(all))
	}
}

func TestResolveWithoutMirrorsGoesDirect(t *testing.T) {
	r := NewResolver(nil, "", 1, nil)
	selected, all := r.Resolve(context.Background())
	if selected != "" {
		t.Fatalf("selected = %q, want direct", selected)
	}
	if len(all) != 0 {
		t.Fatalf("mirrors len = %d, want 0", len(all))
	}
}

func TestFetchReturnsBodyAndRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("Fetch body = %q", string(data))
	}

	if _, err := Fetch(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}

func TestDownloadWritesAtomically(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("blob-content"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "artifacts", "blob.bin")
	if err := Download(context.Background(), srv.URL, dest); err != nil {
		t.Fatalf("Download error: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if string(data) != "blob-content" {
		t.Fatalf("content = %q", string(data))
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}
