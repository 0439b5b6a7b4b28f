package launcher

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/tidwall/gjson"
)

func TestEnsureOfflineAccountCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "accounts.json")

	added, err := EnsureOfflineAccount(path, "Player1")
	if err != nil {
		t.Fatalf("EnsureOfflineAccount: %v", err)
	}
	if !added {
		t.Fatal("account not added to a fresh file")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(raw, "formatVersion").Int(); got != 3 {
		t.Fatalf("formatVersion = %d", got)
	}
	acc := gjson.GetBytes(raw, `accounts.#(profile.name=="Player1")`)
	if !acc.Exists() {
		t.Fatalf("Player1 missing: %s", raw)
	}
	if got := acc.Get("type").String(); got != "Offline" {
		t.Fatalf("type = %q", got)
	}
	id := acc.Get("profile.id").String()
	if !regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(id) {
		t.Fatalf("profile id = %q, want 32 undashed hex chars", id)
	}
}

func TestEnsureOfflineAccountKeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	seed := `{"accounts":[{"profile":{"id":"abc","name":"RealPlayer"},"type":"MSA","active":true}],"formatVersion":3,"msaClientID":"custom-id"}`
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatal(err)
	}

	added, err := EnsureOfflineAccount(path, "Player2")
	if err != nil {
		t.Fatalf("EnsureOfflineAccount: %v", err)
	}
	if !added {
		t.Fatal("account not added")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(raw, "msaClientID").String(); got != "custom-id" {
		t.Fatalf("unrelated key lost, msaClientID = %q", got)
	}
	if !gjson.GetBytes(raw, `accounts.#(profile.name=="RealPlayer")`).Exists() {
		t.Fatal("existing account lost")
	}
	if got := gjson.GetBytes(raw, "accounts.#").Int(); got != 2 {
		t.Fatalf("accounts len = %d", got)
	}
}

func TestEnsureOfflineAccountIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")

	if _, err := EnsureOfflineAccount(path, "Player1"); err != nil {
		t.Fatal(err)
	}
	added, err := EnsureOfflineAccount(path, "Player1")
	if err != nil {
		t.Fatal(err)
	}
	if added {
		t.Fatal("duplicate account added")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := gjson.GetBytes(raw, "accounts.#").Int(); got != 1 {
		t.Fatalf("accounts len = %d, want 1", got)
	}
}

func TestEnsureOfflineAccountsProvisionsRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")

	added, err := EnsureOfflineAccounts(path, 4)
	if err != nil {
		t.Fatalf("EnsureOfflineAccounts: %v", err)
	}
	if added != 4 {
		t.Fatalf("added = %d, want 4", added)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Player1", "Player2", "Player3", "Player4"} {
		if !gjson.GetBytes(raw, `accounts.#(profile.name=="`+name+`")`).Exists() {
			t.Fatalf("%s missing", name)
		}
	}

	again, err := EnsureOfflineAccounts(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	if again != 0 {
		t.Fatalf("second run added %d accounts", again)
	}
}

func TestEnsureOfflineAccountRejectsNewerFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	if err := os.WriteFile(path, []byte(`{"accounts":[],"formatVersion":9}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureOfflineAccount(path, "Player1"); err == nil {
		t.Fatal("expected an error for a newer format version")
	}
}
