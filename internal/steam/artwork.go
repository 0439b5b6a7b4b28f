package steam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mcsplit/internal/fetchx"
	"mcsplit/internal/logging"
)

type artworkAsset struct {
	suffix string
	url    string
}

// Fixed SteamGridDB assets for the library entry: portrait and
// landscape grids, hero banner, logo and icon.
var artworkAssets = []artworkAsset{
	{suffix: "p", url: "https://cdn2.steamgriddb.com/grid/a73027901f88055aaa0fd1a9e25d36c7.png"},
	{suffix: "", url: "https://cdn2.steamgriddb.com/grid/e353b610e9ce20f963b4cca5da565605.jpg"},
	{suffix: "_hero", url: "https://cdn2.steamgriddb.com/hero/ecd812da02543c0269cfc2c56ab3c3c0.png"},
	{suffix: "_logo", url: "https://cdn2.steamgriddb.com/logo/90915208c601cc8c86ad01250ee90c12.png"},
	{suffix: "_icon", url: "https://cdn2.steamgriddb.com/icon/add7a048049671970976f3e18f21ade3.ico"},
}

// FetchArtwork downloads the library images for appid into gridDir.
// Images already on disk stay, and a failed download only costs the
// polish, so it warns instead of failing the command.
func FetchArtwork(ctx context.Context, gridDir string, appid uint32, log *logging.Logger) (int, error) {
	return fetchArtwork(ctx, gridDir, appid, artworkAssets, log)
}

func fetchArtwork(ctx context.Context, gridDir string, appid uint32, assets []artworkAsset, log *logging.Logger) (int, error) {
	if err := os.MkdirAll(gridDir, 0o755); err != nil {
		return 0, err
	}

	downloaded := 0
	for _, asset := range assets {
		path := filepath.Join(gridDir, artworkFileName(appid, asset))
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := fetchx.Download(ctx, asset.url, path); err != nil {
			if log != nil {
				log.Warnf("artwork download failed kind=%q err=%v", asset.suffix, err)
			}
			continue
		}
		downloaded++
	}
	return downloaded, nil
}

// Steam looks the icon up by its real extension; everything else it
// sniffs, so those keep a flat .png name.
func artworkFileName(appid uint32, asset artworkAsset) string {
	ext := ".png"
	if strings.HasSuffix(asset.url, ".ico") {
		ext = ".ico"
	}
	return fmt.Sprintf("%d%s%s", appid, asset.suffix, ext)
}
