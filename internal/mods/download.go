package mods

import (
	"context"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"mcsplit/internal/config"
	"mcsplit/internal/fetchx"
	"mcsplit/internal/logging"
)

// Attempt captures one download try for the report.
type Attempt struct {
	FileName  string    `json:"file_name"`
	Try       int       `json:"try"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Error     string    `json:"error,omitempty"`
}

// DownloadReport summarizes a full plan download.
type DownloadReport struct {
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Requested int       `json:"requested"`
	Completed int       `json:"completed"`
	Skipped   int       `json:"skipped"`
	Attempts  []Attempt `json:"attempts,omitempty"`
}

type Downloader struct {
	cfg config.Mods
	log *logging.Logger
}

func NewDownloader(cfg config.Mods, logger *logging.Logger) *Downloader {
	return &Downloader{cfg: cfg, log: logger}
}

// Fetch downloads every planned file into destDir through a bounded
// worker pool. Files already present with a matching digest are kept.
// The first failure is returned once the pool has drained, so one bad
// mod does not abort the rest of the batch mid flight.
func (d *Downloader) Fetch(ctx context.Context, plan Plan, destDir string) (DownloadReport, error) {
	report := DownloadReport{StartedAt: time.Now().UTC(), Requested: len(plan.Files)}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		report.EndedAt = time.Now().UTC()
		return report, err
	}

	pool, err := ants.NewPool(d.threads(), ants.WithPanicHandler(func(v any) {
		d.warnf("download worker panic: %v", v)
	}))
	if err != nil {
		report.EndedAt = time.Now().UTC()
		return report, err
	}
	defer pool.Release()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, f := range plan.Files {
		file := f
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			attempts, skipped, err := d.fetchOne(ctx, file, destDir)
			mu.Lock()
			defer mu.Unlock()
			report.Attempts = append(report.Attempts, attempts...)
			switch {
			case skipped:
				report.Skipped++
			case err == nil:
				report.Completed++
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	report.EndedAt = time.Now().UTC()
	return report, firstErr
}

func (d *Downloader) fetchOne(ctx context.Context, file File, destDir string) ([]Attempt, bool, error) {
	dest := filepath.Join(destDir, filepath.Base(file.FileName))
	if ok, _ := verifyFile(dest, file); ok {
		d.infof("mod up to date file=%s", file.FileName)
		return nil, true, nil
	}

	var attempts []Attempt
	var lastErr error
	for try := 1; try <= d.retries(); try++ {
		attempt := Attempt{FileName: file.FileName, Try: try, StartedAt: time.Now().UTC()}
		err := d.downloadAndVerify(ctx, file, dest)
		attempt.EndedAt = time.Now().UTC()
		if err == nil {
			attempts = append(attempts, attempt)
			d.okf("mod downloaded file=%s try=%d", file.FileName, try)
			return attempts, false, nil
		}
		attempt.Error = err.Error()
		attempts = append(attempts, attempt)
		lastErr = err
		d.warnf("mod download failed file=%s try=%d err=%v", file.FileName, try, err)
		if ctx.Err() != nil {
			break
		}
		if try < d.retries() && d.cfg.RetryBackoffSeconds > 0 {
			time.Sleep(time.Duration(d.cfg.RetryBackoffSeconds) * time.Second)
		}
	}
	return attempts, false, fmt.Errorf("download %s: %w", file.FileName, lastErr)
}

func (d *Downloader) downloadAndVerify(ctx context.Context, file File, dest string) error {
	if err := fetchx.Download(ctx, file.URL, dest); err != nil {
		return err
	}
	ok, err := verifyFile(dest, file)
	if err != nil {
		return err
	}
	if !ok {
		os.Remove(dest)
		return fmt.Errorf("digest mismatch for %s", file.FileName)
	}
	return nil
}

// verifyFile checks dest against the strongest digest the source
// published. A file with no known digest is accepted as is.
func verifyFile(path string, file File) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	switch {
	case file.SHA512 != "":
		sum := sha512.Sum512(data)
		return strings.EqualFold(hex.EncodeToString(sum[:]), file.SHA512), nil
	case file.SHA1 != "":
		sum := sha1.Sum(data)
		return strings.EqualFold(hex.EncodeToString(sum[:]), file.SHA1), nil
	}
	return true, nil
}

func (d *Downloader) threads() int {
	if d.cfg.DownloadThreads > 0 {
		return d.cfg.DownloadThreads
	}
	return 4
}

func (d *Downloader) retries() int {
	if d.cfg.Retries > 0 {
		return d.cfg.Retries
	}
	return 1
}

func (d *Downloader) infof(format string, args ...any) {
	if d.log != nil {
		d.log.Infof(format, args...)
	}
}

func (d *Downloader) okf(format string, args ...any) {
	if d.log != nil {
		d.log.Okf(format, args...)
	}
}

func (d *Downloader) warnf(format string, args ...any) {
	if d.log != nil {
		d.log.Warnf(format, args...)
	}
}
