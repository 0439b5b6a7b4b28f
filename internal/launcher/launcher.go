package launcher

import (
	"fmt"
	"os"
	"path/filepath"
)

type Kind string

const (
	KindPollyMC Kind = "pollymc"
	KindPrism   Kind = "prism"
)

// Info describes one installed launcher under the share directory.
type Info struct {
	Kind       Kind
	Executable string
	DataDir    string
}

func (i Info) InstancesDir() string {
	return filepath.Join(i.DataDir, "instances")
}

func (i Info) AccountsPath() string {
	return filepath.Join(i.DataDir, "accounts.json")
}

// Probe order matters: PollyMC predates Prism in existing setups, so a
// leftover PollyMC install keeps winning until the user removes it.
var candidates = []struct {
	kind Kind
	dir  string
	bin  string
}{
	{KindPollyMC, "PollyMC", "PollyMC-Linux-x86_64.AppImage"},
	{KindPrism, "PrismLauncher", "PrismLauncher.AppImage"},
}

// Detect returns the first launcher present under shareDir.
func Detect(shareDir string) (Info, error) {
	for _, c := range candidates {
		dataDir := filepath.Join(shareDir, c.dir)
		exe := filepath.Join(dataDir, c.bin)
		st, err := os.Stat(exe)
		if err != nil || st.IsDir() {
			continue
		}
		return Info{Kind: c.kind, Executable: exe, DataDir: dataDir}, nil
	}
	return Info{}, fmt.Errorf("no launcher found under %s (expected PollyMC or PrismLauncher)", shareDir)
}
