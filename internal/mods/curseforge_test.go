package mods

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const curseForgeFilesBody = `{"data": [
  {"id": 100, "fileName": "journeymap-old.jar", "fileDate": "2024-01-01T00:00:00Z",
   "downloadUrl": "https://edge.forgecdn.net/old.jar",
   "hashes": [{"value": "aaaa", "algo": 1}],
   "dependencies": []},
  {"id": 200, "fileName": "journeymap-new.jar", "fileDate": "2024-06-01T00:00:00Z",
   "downloadUrl": "https://edge.forgecdn.net/new.jar",
   "hashes": [{"value": "bbbb", "algo": 1}, {"value": "cccc", "algo": 2}],
   "dependencies": [{"modId": 306612, "relationType": 3}, {"modId": 5, "relationType": 2}]}
]}`

func TestCurseForgeResolvePicksNewestFile(t *testing.T) {
	var gotKey, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(curseForgeFilesBody))
	}))
	defer srv.Close()

	c := newCurseForgeClient("k123", 5*time.Second)
	c.baseURL = srv.URL

	file, deps, err := c.resolve(context.Background(), "32274", "1.21.1", "fabric")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if gotKey != "k123" {
		t.Fatalf("x-api-key = %q", gotKey)
	}
	if gotPath != "/v1/mods/32274/files" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "gameVersion=1.21.1&modLoaderType=4" {
		t.Fatalf("query = %q", gotQuery)
	}
	if file.VersionID != "200" || file.FileName != "journeymap-new.jar" {
		t.Fatalf("picked %q %q, want the newest file", file.VersionID, file.FileName)
	}
	if file.SHA1 != "bbbb" {
		t.Fatalf("sha1 = %q, want the algo 1 hash", file.SHA1)
	}
	if len(deps) != 1 || deps[0] != "306612" {
		t.Fatalf("deps = %v, want only the required relation", deps)
	}
}

func TestCurseForgeResolveDownloadsDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [
  {"id": 1, "fileName": "x.jar", "fileDate": "2024-01-01T00:00:00Z", "downloadUrl": null,
   "hashes": [], "dependencies": []}
]}`))
	}))
	defer srv.Close()

	c := newCurseForgeClient("k123", 5*time.Second)
	c.baseURL = srv.URL

	if _, _, err := c.resolve(context.Background(), "99", "1.21.1", "fabric"); err == nil {
		t.Fatal("expected an error when downloadUrl is null")
	}
}

func TestCurseForgeResolveWithoutKey(t *testing.T) {
	c := newCurseForgeClient("", 5*time.Second)
	_, _, err := c.resolve(context.Background(), "99", "1.21.1", "fabric")
	if !errors.Is(err, errNoAPIKey) {
		t.Fatalf("err = %v, want errNoAPIKey", err)
	}
}

func TestCurseForgeResolveUnknownLoader(t *testing.T) {
	c := newCurseForgeClient("k123", 5*time.Second)
	if _, _, err := c.resolve(context.Background(), "99", "1.21.1", "rift"); err == nil {
		t.Fatal("expected an error for a loader curseforge cannot encode")
	}
}
