package mods

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"mcsplit/internal/modpack"
)

const defaultCurseForgeBase = "https://api.curseforge.com"

var errNoAPIKey = errors.New("curseforge api key not configured")

// CurseForge encodes loaders as enum values in its files query.
var curseForgeLoaderTypes = map[string]int{
	"forge":    1,
	"fabric":   4,
	"quilt":    5,
	"neoforge": 6,
}

type curseForgeClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func newCurseForgeClient(apiKey string, timeout time.Duration) *curseForgeClient {
	return &curseForgeClient{
		baseURL: defaultCurseForgeBase,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *curseForgeClient) resolve(ctx context.Context, project, gameVersion, loader string) (File, []string, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return File{}, nil, errNoAPIKey
	}
	loaderType, ok := curseForgeLoaderTypes[strings.ToLower(loader)]
	if !ok {
		return File{}, nil, fmt.Errorf("curseforge has no loader type for %q", loader)
	}

	reqURL := fmt.Sprintf("%s/v1/mods/%s/files?gameVersion=%s&modLoaderType=%d",
		c.baseURL, url.PathEscape(project), url.QueryEscape(gameVersion), loaderType)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return File{}, nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return File{}, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return File{}, nil, fmt.Errorf("curseforge %s: unexpected status %s", project, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return File{}, nil, err
	}

	files := gjson.GetBytes(body, "data")
	if !files.IsArray() {
		return File{}, nil, fmt.Errorf("unexpected curseforge response for %s", project)
	}
	newest := pickNewest(files, "fileDate")
	if !newest.Exists() {
		return File{}, nil, fmt.Errorf("no %s build of %s for %s", loader, project, gameVersion)
	}

	// Authors can opt out of third party downloads, which nulls the URL.
	downloadURL := newest.Get("downloadUrl").String()
	if downloadURL == "" {
		return File{}, nil, fmt.Errorf("mod %s has third party downloads disabled", project)
	}
	out := File{
		Source:    modpack.SourceCurseForge,
		ProjectID: project,
		VersionID: newest.Get("id").String(),
		FileName:  newest.Get("fileName").String(),
		URL:       downloadURL,
		SHA1:      newest.Get(`hashes.#(algo==1).value`).String(),
	}
	if out.FileName == "" {
		return File{}, nil, fmt.Errorf("file %s of %s has no name", out.VersionID, project)
	}

	var deps []string
	newest.Get("dependencies").ForEach(func(_, dep gjson.Result) bool {
		if dep.Get("relationType").Int() != 3 {
			return true
		}
		if id := dep.Get("modId").String(); id != "" && id != "0" {
			deps = append(deps, id)
		}
		return true
	})
	return out, deps, nil
}
