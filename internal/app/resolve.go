package app

import (
	"fmt"
	"strings"

	"mcsplit/internal/input"
	"mcsplit/internal/resolve"
)

// resolveControllers prints what the enumeration pass saw and the
// player count a launch would use right now.
func (a *App) resolveControllers() error {
	snap := input.NewEnumerator().Enumerate()
	opts := a.resolveOptions()

	if len(snap.Devices) == 0 {
		fmt.Println("no joystick nodes found")
	}
	for _, d := range snap.Devices {
		var tags []string
		if resolve.IsBuiltIn(d, opts) {
			tags = append(tags, "built-in")
		}
		if !d.HasIdentifiers() {
			tags = append(tags, "no-ids")
		}
		suffix := ""
		if len(tags) > 0 {
			suffix = " [" + strings.Join(tags, ",") + "]"
		}
		name := d.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("%s\t%s\tvendor=%s product=%s%s\n", d.Path, name, orDash(d.Vendor), orDash(d.Product), suffix)
	}

	fmt.Printf("metadata available: %v\n", snap.MetadataAvailable)
	fmt.Printf("remapper running: %v\n", opts.RemapperRunning)
	fmt.Printf("physical controllers: %d\n", len(resolve.Group(snap.Devices)))
	fmt.Printf("players: %d\n", resolve.Count(snap, opts))
	return nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
