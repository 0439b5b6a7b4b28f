package modpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mcsplit/internal/config"
	"mcsplit/internal/logging"
)

type Provider interface {
	Name() string
	List(ctx context.Context) ([]Entry, error)
}

// Catalog assembles the active pack: the editable pack file rules,
// optional remote catalogs append extras, first entry per name wins.
type Catalog struct {
	cfg    config.Modpack
	log    *logging.Logger
	extras []Provider
}

func New(cfg config.Modpack, logger *logging.Logger) *Catalog {
	var extras []Provider
	if strings.TrimSpace(cfg.CatalogURL) != "" {
		extras = append(extras, NewHTTPProvider(cfg.CatalogURL, 5))
	}
	return newWithProviders(cfg, logger, extras)
}

func newWithProviders(cfg config.Modpack, logger *logging.Logger, extras []Provider) *Catalog {
	return &Catalog{cfg: cfg, log: logger, extras: extras}
}

// Load returns the validated manifest. A missing pack file is seeded
// from the built-in defaults so the user has something to edit.
func (c *Catalog) Load(ctx context.Context) (Manifest, error) {
	m, err := c.readOrCreateFile()
	if err != nil {
		return Manifest{}, err
	}
	if strings.TrimSpace(m.GameVersion) == "" {
		m.GameVersion = c.cfg.GameVersion
	}
	if strings.TrimSpace(m.Loader) == "" {
		m.Loader = c.cfg.Loader
	}

	seen := map[string]bool{}
	for _, e := range m.Mods {
		seen[strings.ToLower(strings.TrimSpace(e.Name))] = true
	}
	for _, p := range c.extras {
		items, err := p.List(ctx)
		if err != nil {
			c.warnf("load mod catalog failed provider=%s err=%v", p.Name(), err)
			continue
		}
		for _, e := range items {
			key := strings.ToLower(strings.TrimSpace(e.Name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			m.Mods = append(m.Mods, e)
		}
	}

	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (c *Catalog) readOrCreateFile() (Manifest, error) {
	path := c.cfg.ManifestPath
	if strings.TrimSpace(path) == "" {
		return Manifest{}, errors.New("modpack manifest_path is empty in config")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		m := DefaultManifest(c.cfg.GameVersion, c.cfg.Loader)
		if err := WriteFile(path, m); err != nil {
			return Manifest{}, err
		}
		c.infof("seeded default pack manifest at %s", path)
		return m, nil
	}
	return ReadFile(path)
}

func (c *Catalog) infof(format string, args ...any) {
	if c.log != nil {
		c.log.Infof(format, args...)
	}
}

func (c *Catalog) warnf(format string, args ...any) {
	if c.log != nil {
		c.log.Warnf(format, args...)
	}
}

type StaticProvider struct {
	name    string
	entries []Entry
}

func NewStaticProvider(name string, entries []Entry) *StaticProvider {
	copied := make([]Entry, len(entries))
	copy(copied, entries)
	if strings.TrimSpace(name) == "" {
		name = "static"
	}
	return &StaticProvider{name: name, entries: copied}
}

func (p *StaticProvider) Name() string { return p.name }

func (p *StaticProvider) List(_ context.Context) ([]Entry, error) {
	copied := make([]Entry, len(p.entries))
	copy(copied, p.entries)
	return copied, nil
}

// HTTPProvider fetches extra entries from a remote catalog. The body
// is YAML, which also covers JSON catalogs, either wrapped in a mods
// key or as a bare list.
type HTTPProvider struct {
	url     string
	timeout time.Duration
}

func NewHTTPProvider(url string, timeoutSeconds int) *HTTPProvider {
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{url: url, timeout: timeout}
}

func (p *HTTPProvider) Name() string { return "http:" + p.url }

func (p *HTTPProvider) List(ctx context.Context) ([]Entry, error) {
	client := &http.Client{Timeout: p.timeout}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("catalog status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var wrapped struct {
		Mods []Entry `yaml:"mods"`
	}
	if err := yaml.Unmarshal(body, &wrapped); err == nil && len(wrapped.Mods) > 0 {
		return wrapped.Mods, nil
	}
	var direct []Entry
	if err := yaml.Unmarshal(body, &direct); err != nil {
		return nil, err
	}
	return direct, nil
}
