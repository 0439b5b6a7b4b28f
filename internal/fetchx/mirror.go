package fetchx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mcsplit/internal/logging"
)

// Resolver picks a working download mirror prefix for GitHub-hosted
// artifacts. An empty mirror list means direct downloads, which is the
// default on a Deck with unfiltered network access.
type Resolver struct {
	mirrors  []string
	probeURL string
	timeout  time.Duration
	log      *logging.Logger
}

func NewResolver(mirrors []string, probeURL string, timeoutSeconds int, logger *logging.Logger) *Resolver {
	probe := strings.TrimSpace(probeURL)
	if probe == "" {
		probe = "https://api.github.com"
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Resolver{mirrors: normalizeMirrors(mirrors), probeURL: probe, timeout: timeout, log: logger}
}

// Resolve returns the first healthy mirror prefix and the candidate
// list. An empty prefix means direct.
func (r *Resolver) Resolve(ctx context.Context) (string, []string) {
	if len(r.mirrors) == 0 {
		return "", nil
	}
	for _, prefix := range r.mirrors {
		if r.probe(ctx, prefix) {
			r.infof("download mirror selected: %s", prefix)
			return prefix, append([]string{}, r.mirrors...)
		}
		r.warnf("download mirror probe failed: %s", prefix)
	}
	r.warnf("all download mirrors probe failed, fallback to direct")
	return "", append([]string{}, r.mirrors...)
}

func (r *Resolver) probe(parent context.Context, prefix string) bool {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	url := Apply(prefix, r.probeURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	client := &http.Client{Timeout: r.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 256))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func normalizeMirrors(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, item := range in {
		trimmed := strings.TrimRight(strings.TrimSpace(item), "/")
		if trimmed == "" {
			continue
		}
		if seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}

// Apply rewrites rawURL to go through the mirror prefix. An empty
// prefix leaves the URL untouched.
func Apply(prefix, rawURL string) string {
	p := strings.TrimRight(strings.TrimSpace(prefix), "/")
	u := strings.TrimSpace(rawURL)
	if p == "" {
		return u
	}
	if u == "" {
		return p
	}
	if strings.HasPrefix(u, "https://") {
		u = strings.TrimPrefix(u, "https://")
	} else if strings.HasPrefix(u, "http://") {
		u = strings.TrimPrefix(u, "http://")
	}
	return fmt.Sprintf("%s/%s", p, u)
}

func (r *Resolver) infof(format string, args ...any) {
	if r.log == nil {
		return
	}
	r.log.Infof(format, args...)
}

func (r *Resolver) warnf(format string, args ...any) {
	if r.log == nil {
		return
	}
	r.log.Warnf(format, args...)
}
