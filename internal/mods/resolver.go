package mods

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mcsplit/internal/config"
	"mcsplit/internal/logging"
	"mcsplit/internal/modpack"
)

// File is one resolved, downloadable mod jar.
type File struct {
	ModName    string
	Source     string
	ProjectID  string
	VersionID  string
	FileName   string
	URL        string
	SHA1       string
	SHA512     string
	Dependency bool
}

// Plan is the complete download set for one manifest.
type Plan struct {
	GameVersion string
	Loader      string
	Files       []File
}

// client resolves one project into its newest matching file plus the
// project ids of its required dependencies.
type client interface {
	resolve(ctx context.Context, project, gameVersion, loader string) (File, []string, error)
}

type Resolver struct {
	cfg        config.Mods
	log        *logging.Logger
	modrinth   client
	curseforge client
}

func NewResolver(cfg config.Mods, logger *logging.Logger) *Resolver {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Resolver{
		cfg:        cfg,
		log:        logger,
		modrinth:   newModrinthClient(timeout),
		curseforge: newCurseForgeClient(cfg.CurseForgeAPIKey, timeout),
	}
}

func newResolverWithClients(cfg config.Mods, logger *logging.Logger, modrinth, curseforge client) *Resolver {
	return &Resolver{cfg: cfg, log: logger, modrinth: modrinth, curseforge: curseforge}
}

type pending struct {
	name       string
	source     string
	project    string
	required   bool
	dependency bool
	depth      int
}

// Resolve expands the manifest into a concrete download plan, chasing
// required dependencies breadth-first. A visited set keeps shared
// dependencies single and breaks cycles, and the depth cap bounds how
// far transitive chains are followed.
func (r *Resolver) Resolve(ctx context.Context, m modpack.Manifest) (Plan, error) {
	plan := Plan{GameVersion: m.GameVersion, Loader: m.Loader}
	visited := make(map[string]bool)

	var queue []pending
	for _, e := range m.Mods {
		queue = append(queue, pending{
			name:     e.Name,
			source:   e.Source,
			project:  e.Project,
			required: e.Required,
		})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		key := item.source + ":" + strings.ToLower(item.project)
		if visited[key] {
			continue
		}
		visited[key] = true

		file, deps, err := r.resolveWithRetry(ctx, item, m.GameVersion, m.Loader)
		if err != nil {
			if item.required {
				return Plan{}, fmt.Errorf("resolve required mod %q: %w", item.name, err)
			}
			r.warnf("skipping optional mod name=%s err=%v", item.name, err)
			continue
		}
		file.ModName = item.name
		file.Dependency = item.dependency
		plan.Files = append(plan.Files, file)

		if len(deps) == 0 {
			continue
		}
		if item.depth >= r.maxDepth() {
			r.warnf("dependency depth cap reached name=%s unresolved=%d", item.name, len(deps))
			continue
		}
		for _, dep := range deps {
			// Dependencies of a required mod are required themselves;
			// a missing one would break the pack at runtime.
			queue = append(queue, pending{
				name:       dep,
				source:     item.source,
				project:    dep,
				required:   item.required,
				dependency: true,
				depth:      item.depth + 1,
			})
		}
	}
	return plan, nil
}

func (r *Resolver) resolveWithRetry(ctx context.Context, item pending, gameVersion, loader string) (File, []string, error) {
	cl, err := r.clientFor(item.source)
	if err != nil {
		return File{}, nil, err
	}
	var lastErr error
	for try := 1; try <= r.retries(); try++ {
		file, deps, err := cl.resolve(ctx, item.project, gameVersion, loader)
		if err == nil {
			return file, deps, nil
		}
		lastErr = err
		// A missing API key will not heal between tries.
		if errors.Is(err, errNoAPIKey) || ctx.Err() != nil {
			break
		}
		r.warnf("resolve failed name=%s source=%s try=%d err=%v", item.name, item.source, try, err)
		if try < r.retries() && r.cfg.RetryBackoffSeconds > 0 {
			time.Sleep(time.Duration(r.cfg.RetryBackoffSeconds) * time.Second)
		}
	}
	return File{}, nil, lastErr
}

func (r *Resolver) clientFor(source string) (client, error) {
	switch source {
	case modpack.SourceModrinth:
		return r.modrinth, nil
	case modpack.SourceCurseForge:
		return r.curseforge, nil
	default:
		return nil, fmt.Errorf("unknown mod source %q", source)
	}
}

func (r *Resolver) maxDepth() int {
	if r.cfg.MaxDependencyDepth > 0 {
		return r.cfg.MaxDependencyDepth
	}
	return 3
}

func (r *Resolver) retries() int {
	if r.cfg.Retries > 0 {
		return r.cfg.Retries
	}
	return 1
}

func (r *Resolver) warnf(format string, args ...any) {
	if r.log != nil {
		r.log.Warnf(format, args...)
	}
}
