package launcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-github/v66/github"

	"mcsplit/internal/config"
)

func TestSelectAssetsPicksPlatformBinaryAndChecksum(t *testing.T) {
	assets := []*github.ReleaseAsset{
		{Name: github.String("PrismLauncher-Linux-x86_64.AppImage.zsync")},
		{Name: github.String("PrismLauncher-Windows-MSVC-Setup-9.4.exe")},
		{Name: github.String("PrismLauncher-Linux-x86_64.AppImage")},
		{Name: github.String("PrismLauncher-Linux-x86_64.AppImage.sha256")},
		{Name: github.String("PrismLauncher-Linux-aarch64.AppImage")},
	}

	bin, sums, err := selectAssets(assets, "amd64")
	if err != nil {
		t.Fatalf("selectAssets error: %v", err)
	}
	if bin.GetName() != "PrismLauncher-Linux-x86_64.AppImage" {
		t.Fatalf("bin = %q", bin.GetName())
	}
	if sums.GetName() != "PrismLauncher-Linux-x86_64.AppImage.sha256" {
		t.Fatalf("sums = %q", sums.GetName())
	}

	bin, _, err = selectAssets(assets, "arm64")
	if err != nil {
		t.Fatalf("selectAssets arm64 error: %v", err)
	}
	if bin.GetName() != "PrismLauncher-Linux-aarch64.AppImage" {
		t.Fatalf("arm64 bin = %q", bin.GetName())
	}
}

func TestSelectAssetsMissingPlatform(t *testing.T) {
	assets := []*github.ReleaseAsset{{Name: github.String("something.tar.gz")}}
	if _, _, err := selectAssets(assets, "amd64"); err == nil {
		t.Fatalf("expected error when platform asset missing")
	}
}

func TestChecksumFor(t *testing.T) {
	sums := []byte("# release 9.4\nabc123  PrismLauncher-Linux-x86_64.AppImage\ndef456  *PrismLauncher-Linux-aarch64.AppImage\n")
	got, err := checksumFor(sums, "PrismLauncher-Linux-aarch64.AppImage")
	if err != nil {
		t.Fatalf("checksumFor error: %v", err)
	}
	if got != "def456" {
		t.Fatalf("checksum = %q, want def456", got)
	}

	bare, err := checksumFor([]byte("ABC999\n"), "anything.AppImage")
	if err != nil {
		t.Fatalf("checksumFor bare error: %v", err)
	}
	if bare != "abc999" {
		t.Fatalf("bare checksum = %q", bare)
	}

	if _, err := checksumFor([]byte("abc  other.bin\n"), "missing.AppImage"); err == nil {
		t.Fatalf("expected error for missing entry")
	}
}

func TestInstallDownloadsVerifiesAndSwaps(t *testing.T) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skip("unsupported test arch")
	}
	binName := "PrismLauncher-Linux-x86_64.AppImage"
	if runtime.GOARCH == "arm64" {
		binName = "PrismLauncher-Linux-aarch64.AppImage"
	}
	payload := []byte("fake-appimage-bytes")
	sum := sha256.Sum256(payload)

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/PrismLauncher/PrismLauncher/releases/latest":
			fmt.Fprintf(w, `{"tag_name":"9.4","assets":[`+
				`{"name":%q,"browser_download_url":%q},`+
				`{"name":%q,"browser_download_url":%q}]}`,
				binName, srv.URL+"/dl/bin",
				binName+".sha256", srv.URL+"/dl/sum")
		case "/dl/bin":
			_, _ = w.Write(payload)
		case "/dl/sum":
			fmt.Fprintf(w, "%s  %s\n", hex.EncodeToString(sum[:]), binName)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := github.NewClient(nil)
	base, _ := url.Parse(srv.URL + "/")
	client.BaseURL = base

	share := t.TempDir()
	cfg := config.Config{}
	cfg.Launcher.Repo = "PrismLauncher/PrismLauncher"
	cfg.Launcher.DataDir = share

	inst := NewInstaller(cfg, client, nil)
	res, err := inst.Install(context.Background())
	if err != nil {
		t.Fatalf("Install error: %v", err)
	}
	if !res.Upgraded {
		t.Fatalf("expected first install to report upgraded")
	}
	if res.Tag != "9.4" {
		t.Fatalf("tag = %q, want 9.4", res.Tag)
	}

	exe := filepath.Join(share, "PrismLauncher", "PrismLauncher.AppImage")
	data, err := os.ReadFile(exe)
	if err != nil {
		t.Fatalf("read installed launcher: %v", err)
	}
	if string(data) != string(payload) {
		t.Fatalf("installed content mismatch")
	}
	st, err := os.Stat(exe)
	if err != nil {
		t.Fatalf("stat error: %v", err)
	}
	if st.Mode()&0o111 == 0 {
		t.Fatalf("installed launcher not executable: %v", st.Mode())
	}

	again, err := inst.Install(context.Background())
	if err != nil {
		t.Fatalf("second Install error: %v", err)
	}
	if again.Upgraded {
		t.Fatalf("second install should be a no-op")
	}
}

func TestInstallChecksumMismatchFails(t *testing.T) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skip("unsupported test arch")
	}
	binName := "PrismLauncher-Linux-x86_64.AppImage"
	if runtime.GOARCH == "arm64" {
		binName = "PrismLauncher-Linux-aarch64.AppImage"
	}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/PrismLauncher/PrismLauncher/releases/latest":
			fmt.Fprintf(w, `{"tag_name":"9.4","assets":[`+
				`{"name":%q,"browser_download_url":%q},`+
				`{"name":%q,"browser_download_url":%q}]}`,
				binName, srv.URL+"/dl/bin",
				binName+".sha256", srv.URL+"/dl/sum")
		case "/dl/bin":
			_, _ = w.Write([]byte("tampered"))
		case "/dl/sum":
			fmt.Fprintf(w, "%s  %s\n", "deadbeef", binName)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := github.NewClient(nil)
	base, _ := url.Parse(srv.URL + "/")
	client.BaseURL = base

	share := t.TempDir()
	cfg := config.Config{}
	cfg.Launcher.Repo = "PrismLauncher/PrismLauncher"
	cfg.Launcher.DataDir = share

	if _, err := NewInstaller(cfg, client, nil).Install(context.Background()); err == nil {
		t.Fatalf("expected checksum mismatch error")
	}
	if _, err := os.Stat(filepath.Join(share, "PrismLauncher", "PrismLauncher.AppImage")); !os.IsNotExist(err) {
		t.Fatalf("tampered artifact must not be installed")
	}
}

func TestInstallSignatureRequiredWithoutKey(t *testing.T) {
	cfg := config.Config{}
	cfg.Launcher.RequireSignature = true
	inst := NewInstaller(cfg, nil, nil)
	err := inst.verifySignature(context.Background(), nil, &github.ReleaseAsset{Name: github.String("x")}, "http://invalid", "", "")
	if err == nil {
		t.Fatalf("expected error when signature required without key")
	}
}

func TestInstallKeepsExistingPollyMC(t *testing.T) {
	share := t.TempDir()
	fakeLauncher(t, share, "PollyMC", "PollyMC-Linux-x86_64.AppImage")

	cfg := config.Config{}
	cfg.Launcher.Repo = "PrismLauncher/PrismLauncher"
	cfg.Launcher.DataDir = share

	res, err := NewInstaller(cfg, nil, nil).Install(context.Background())
	if err != nil {
		t.Fatalf("Install error: %v", err)
	}
	if res.Info.Kind != KindPollyMC {
		t.Fatalf("kind = %q, want pollymc", res.Info.Kind)
	}
	if res.Upgraded {
		t.Fatalf("PollyMC path must not report an upgrade")
	}
}
