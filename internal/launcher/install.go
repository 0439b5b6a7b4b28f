package launcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/go-github/v66/github"
	minisign "github.com/jedisct1/go-minisign"

	"mcsplit/internal/config"
	"mcsplit/internal/fetchx"
	"mcsplit/internal/logging"
)

const versionFileName = ".launcher-version"

type Installer struct {
	cfg    config.Config
	client *github.Client
	log    *logging.Logger
}

type Result struct {
	Info      Info
	Tag       string
	AssetName string
	Upgraded  bool
}

func NewInstaller(cfg config.Config, client *github.Client, logger *logging.Logger) *Installer {
	if client == nil {
		client = github.NewClient(nil)
	}
	return &Installer{cfg: cfg, client: client, log: logger}
}

// Install makes sure a working launcher exists under the share dir. An
// existing PollyMC is honored untouched; otherwise the latest Prism
// release is downloaded, verified and swapped into place.
func (i *Installer) Install(ctx context.Context) (Result, error) {
	if info, err := Detect(i.cfg.Launcher.DataDir); err == nil && info.Kind == KindPollyMC {
		i.infof("keeping existing PollyMC install at %s", info.Executable)
		return Result{Info: info}, nil
	}

	owner, repo, err := splitRepo(i.cfg.Launcher.Repo)
	if err != nil {
		return Result{}, err
	}
	rel, _, err := i.client.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return Result{}, fmt.Errorf("query latest %s release: %w", i.cfg.Launcher.Repo, err)
	}
	tag := strings.TrimSpace(rel.GetTagName())
	if tag == "" {
		return Result{}, errors.New("latest release tag is empty")
	}

	bin, sums, err := selectAssets(rel.Assets, runtime.GOARCH)
	if err != nil {
		return Result{}, err
	}

	dataDir := filepath.Join(i.cfg.Launcher.DataDir, "PrismLauncher")
	exePath := filepath.Join(dataDir, "PrismLauncher.AppImage")
	info := Info{Kind: KindPrism, Executable: exePath, DataDir: dataDir}

	if current := readVersionFile(dataDir); current == tag {
		if _, statErr := os.Stat(exePath); statErr == nil {
			i.infof("launcher already at %s", tag)
			return Result{Info: info, Tag: tag, AssetName: bin.GetName()}, nil
		}
	}

	prefix, _ := fetchx.NewResolver(i.cfg.Mirrors.URLs, i.cfg.Mirrors.ProbeURL, i.cfg.Mirrors.ProbeSeconds, i.log).Resolve(ctx)

	stagePath := exePath + ".new"
	url := fetchx.Apply(prefix, bin.GetBrowserDownloadURL())
	i.infof("downloading %s", url)
	if err := fetchx.Download(ctx, url, stagePath); err != nil {
		return Result{}, err
	}
	defer os.Remove(stagePath)

	if sums != nil {
		sumsData, err := fetchx.Fetch(ctx, fetchx.Apply(prefix, sums.GetBrowserDownloadURL()))
		if err != nil {
			return Result{}, fmt.Errorf("fetch checksums: %w", err)
		}
		want, err := checksumFor(sumsData, bin.GetName())
		if err != nil {
			return Result{}, err
		}
		have, err := fileSHA256(stagePath)
		if err != nil {
			return Result{}, err
		}
		if want != have {
			return Result{}, fmt.Errorf("checksum mismatch for %s: want=%s have=%s", bin.GetName(), want, have)
		}
	} else {
		i.warnf("release has no checksum asset for %s, skipping verification", bin.GetName())
	}

	if err := i.verifySignature(ctx, rel.Assets, bin, url, prefix, stagePath); err != nil {
		return Result{}, err
	}

	if err := os.Chmod(stagePath, 0o755); err != nil {
		return Result{}, err
	}
	if err := os.Rename(stagePath, exePath); err != nil {
		return Result{}, err
	}
	if err := writeVersionFile(dataDir, tag); err != nil {
		return Result{}, err
	}
	i.okf("launcher installed version=%s asset=%s", tag, bin.GetName())
	return Result{Info: info, Tag: tag, AssetName: bin.GetName(), Upgraded: true}, nil
}

func (i *Installer) verifySignature(ctx context.Context, assets []*github.ReleaseAsset, bin *github.ReleaseAsset, assetURL, prefix, stagePath string) error {
	pubKey := strings.TrimSpace(i.cfg.Launcher.MiniSignPublicKey)
	if !i.cfg.Launcher.RequireSignature && pubKey == "" {
		return nil
	}
	if pubKey == "" {
		return errors.New("signature required but launcher.minisign_public_key is empty")
	}

	sigURL := assetURL + ".minisig"
	for _, a := range assets {
		if a.GetName() == bin.GetName()+".minisig" {
			sigURL = fetchx.Apply(prefix, a.GetBrowserDownloadURL())
			break
		}
	}
	sigData, err := fetchx.Fetch(ctx, sigURL)
	if err != nil {
		if i.cfg.Launcher.RequireSignature {
			return fmt.Errorf("failed to fetch signature: %w", err)
		}
		i.warnf("signature fetch failed, skipping verification: %v", err)
		return nil
	}

	pub, err := minisign.NewPublicKey(pubKey)
	if err != nil {
		return err
	}
	sig, err := minisign.DecodeSignature(string(sigData))
	if err != nil {
		return err
	}
	data, err := os.ReadFile(stagePath)
	if err != nil {
		return err
	}
	valid, err := pub.Verify(data, sig)
	if err != nil {
		return err
	}
	if !valid {
		return errors.New("signature verification failed")
	}
	i.okf("launcher signature verified")
	return nil
}

func selectAssets(assets []*github.ReleaseAsset, goarch string) (*github.ReleaseAsset, *github.ReleaseAsset, error) {
	want := "Linux-x86_64.AppImage"
	if goarch == "arm64" {
		want = "Linux-aarch64.AppImage"
	}

	var bin *github.ReleaseAsset
	for _, a := range assets {
		if strings.HasSuffix(a.GetName(), want) {
			bin = a
			break
		}
	}
	if bin == nil {
		return nil, nil, fmt.Errorf("release has no asset matching %s", want)
	}

	var sums *github.ReleaseAsset
	for _, a := range assets {
		if a.GetName() == bin.GetName()+".sha256" {
			sums = a
			break
		}
	}
	if sums == nil {
		for _, a := range assets {
			name := a.GetName()
			if name == "SHA256SUMS" || name == "SHA256SUMS.txt" {
				sums = a
				break
			}
		}
	}
	return bin, sums, nil
}

// checksumFor reads sha256sum-style output: either a bare hash or
// "hash  filename" lines, comments allowed.
func checksumFor(data []byte, assetName string) (string, error) {
	var bare string
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 1 {
			bare = strings.ToLower(fields[0])
			continue
		}
		name := strings.TrimPrefix(fields[len(fields)-1], "*")
		if filepath.Base(name) == assetName {
			return strings.ToLower(fields[0]), nil
		}
	}
	if bare != "" {
		return bare, nil
	}
	return "", fmt.Errorf("no checksum entry for %s", assetName)
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readVersionFile(dataDir string) string {
	data, err := os.ReadFile(filepath.Join(dataDir, versionFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeVersionFile(dataDir, tag string) error {
	return os.WriteFile(filepath.Join(dataDir, versionFileName), []byte(tag+"\n"), 0o644)
}

func splitRepo(repo string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(repo), "/")
	if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
		return "", "", fmt.Errorf("invalid repo format: %s", repo)
	}
	return parts[0], parts[1], nil
}

func (i *Installer) infof(format string, args ...any) {
	if i.log != nil {
		i.log.Infof(format, args...)
	}
}

func (i *Installer) okf(format string, args ...any) {
	if i.log != nil {
		i.log.Okf(format, args...)
	}
}

func (i *Installer) warnf(format string, args ...any) {
	if i.log != nil {
		i.log.Warnf(format, args...)
	}
}
