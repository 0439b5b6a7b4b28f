package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const accountsFormatVersion = 3

// EnsureOfflineAccount appends an offline profile to the launcher's
// accounts.json unless one with that name already exists. Everything
// else in the file stays exactly as the launcher wrote it.
func EnsureOfflineAccount(path, name string) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		raw = []byte(fmt.Sprintf(`{"accounts":[],"formatVersion":%d}`, accountsFormatVersion))
	} else if err != nil {
		return false, err
	}

	if v := gjson.GetBytes(raw, "formatVersion"); v.Exists() && v.Int() > accountsFormatVersion {
		return false, fmt.Errorf("accounts.json format %d is newer than supported %d", v.Int(), accountsFormatVersion)
	}

	query := fmt.Sprintf(`accounts.#(profile.name==%q)`, name)
	if gjson.GetBytes(raw, query).Exists() {
		return false, nil
	}

	entry := offlineAccount(name)
	out, err := sjson.SetBytes(raw, "accounts.-1", entry)
	if err != nil {
		return false, err
	}
	out, err = sjson.SetBytes(out, "formatVersion", accountsFormatVersion)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, out, 0o644); err != nil {
		return false, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return false, err
	}
	return true, nil
}

// EnsureOfflineAccounts provisions Player1..PlayerN and reports how
// many were newly added.
func EnsureOfflineAccounts(path string, count int) (int, error) {
	added := 0
	for i := 1; i <= count; i++ {
		ok, err := EnsureOfflineAccount(path, fmt.Sprintf("Player%d", i))
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// offlineAccount builds one entry in the shape the launcher expects.
// Profile ids are undashed uuids.
func offlineAccount(name string) map[string]any {
	return map[string]any{
		"profile": map[string]any{
			"capes": []any{},
			"id":    undashed(uuid.NewString()),
			"name":  name,
			"skin":  map[string]any{"id": "", "url": "", "variant": ""},
		},
		"type": "Offline",
		"ygg": map[string]any{
			"extra": map[string]any{
				"clientToken": undashed(uuid.NewString()),
				"userName":    name,
			},
			"iat":   time.Now().Unix(),
			"token": "0",
		},
	}
}

func undashed(id string) string {
	return strings.ReplaceAll(id, "-", "")
}
