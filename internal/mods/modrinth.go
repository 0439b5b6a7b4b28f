package mods

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"mcsplit/internal/fetchx"
	"mcsplit/internal/modpack"
)

const defaultModrinthBase = "https://api.modrinth.com"

type modrinthClient struct {
	baseURL string
	timeout time.Duration
}

func newModrinthClient(timeout time.Duration) *modrinthClient {
	return &modrinthClient{baseURL: defaultModrinthBase, timeout: timeout}
}

func (c *modrinthClient) resolve(ctx context.Context, project, gameVersion, loader string) (File, []string, error) {
	reqURL := fmt.Sprintf("%s/v2/project/%s/version?game_versions=%s&loaders=%s",
		c.baseURL,
		url.PathEscape(project),
		url.QueryEscape(`["`+gameVersion+`"]`),
		url.QueryEscape(`["`+loader+`"]`))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	body, err := fetchx.Fetch(ctx, reqURL)
	if err != nil {
		return File{}, nil, err
	}

	versions := gjson.ParseBytes(body)
	if !versions.IsArray() {
		return File{}, nil, fmt.Errorf("unexpected modrinth response for %s", project)
	}
	newest := pickNewest(versions, "date_published")
	if !newest.Exists() {
		return File{}, nil, fmt.Errorf("no %s build of %s for %s", loader, project, gameVersion)
	}

	primary := newest.Get(`files.#(primary==true)`)
	if !primary.Exists() {
		primary = newest.Get("files.0")
	}
	out := File{
		Source:    modpack.SourceModrinth,
		ProjectID: newest.Get("project_id").String(),
		VersionID: newest.Get("id").String(),
		FileName:  primary.Get("filename").String(),
		URL:       primary.Get("url").String(),
		SHA1:      primary.Get("hashes.sha1").String(),
		SHA512:    primary.Get("hashes.sha512").String(),
	}
	if out.URL == "" || out.FileName == "" {
		return File{}, nil, fmt.Errorf("version %s of %s has no downloadable file", out.VersionID, project)
	}

	var deps []string
	newest.Get("dependencies").ForEach(func(_, dep gjson.Result) bool {
		if dep.Get("dependency_type").String() != "required" {
			return true
		}
		if id := dep.Get("project_id").String(); id != "" {
			deps = append(deps, id)
		}
		return true
	})
	return out, deps, nil
}

// pickNewest scans an array for the entry with the greatest timestamp
// at dateField. ISO 8601 strings compare correctly lexically.
func pickNewest(arr gjson.Result, dateField string) gjson.Result {
	var newest gjson.Result
	var newestDate string
	arr.ForEach(func(_, v gjson.Result) bool {
		d := v.Get(dateField).String()
		if !newest.Exists() || d > newestDate {
			newest = v
			newestDate = d
		}
		return true
	})
	return newest
}
