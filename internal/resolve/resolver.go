package resolve

import (
	"strconv"
	"strings"

	"mcsplit/internal/input"
)

const (
	MinPlayers = 1
	MaxPlayers = 4
)

// Options carries the host-specific knobs for classification. The
// defaults in config match a Steam Deck with Steam as the remapping
// front-end.
type Options struct {
	BuiltinVendor   string
	BuiltinProduct  string
	BuiltinKeyword  string
	RemapperRunning bool
}

// Count decides how many players a session gets from one enumeration
// snapshot. It never fails: every degraded input collapses into a
// clamped count, worst case a single player.
func Count(snap input.Snapshot, opts Options) int {
	if len(snap.Devices) == 0 {
		return MinPlayers
	}
	if !snap.MetadataAvailable {
		return clamp(coarseCount(len(snap.Devices), opts.RemapperRunning))
	}

	external := make([]input.Device, 0, len(snap.Devices))
	for _, d := range snap.Devices {
		if IsBuiltIn(d, opts) {
			continue
		}
		external = append(external, d)
	}

	n := len(external)
	if opts.RemapperRunning {
		n = len(Group(external))
	}
	return clamp(n)
}

// IsBuiltIn classifies one device as the host's integrated controller.
// The strongest identity source the device actually has wins: bus
// identifiers, then the reported name, then the physical attachment.
func IsBuiltIn(d input.Device, opts Options) bool {
	if d.HasIdentifiers() {
		return sameHexID(d.Vendor, opts.BuiltinVendor) && sameHexID(d.Product, opts.BuiltinProduct)
	}
	if d.Name != "" {
		return containsFold(d.Name, opts.BuiltinKeyword)
	}
	if d.Phys != "" {
		return !strings.HasPrefix(strings.ToLower(d.Phys), "usb-")
	}
	return false
}

// Group buckets devices whose names collapse to the same base, so a
// physical pad and the virtual twin a remapper created for it count
// once. Devices without a usable name never merge.
func Group(devices []input.Device) [][]input.Device {
	var groups [][]input.Device
	index := map[string]int{}
	for _, d := range devices {
		base := strings.ToLower(BaseName(d.Name))
		if base == "" {
			groups = append(groups, []input.Device{d})
			continue
		}
		if i, ok := index[base]; ok {
			groups[i] = append(groups[i], d)
			continue
		}
		index[base] = len(groups)
		groups = append(groups, []input.Device{d})
	}
	return groups
}

// BaseName strips the decorations remapping tools append to duplicated
// devices: trailing tokens starting with Steam or Virtual, bare or in
// a parenthesised group.
func BaseName(name string) string {
	s := strings.TrimSpace(name)
	for {
		if stripped, ok := stripParenSuffix(s); ok {
			s = stripped
			continue
		}
		if stripped, ok := stripTokenSuffix(s); ok {
			s = stripped
			continue
		}
		return s
	}
}

func stripParenSuffix(s string) (string, bool) {
	if !strings.HasSuffix(s, ")") {
		return s, false
	}
	open := strings.LastIndex(s, "(")
	if open <= 0 {
		return s, false
	}
	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if !hasRemapperPrefix(inner) {
		return s, false
	}
	return strings.TrimSpace(s[:open]), true
}

func stripTokenSuffix(s string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return s, false
	}
	if !hasRemapperPrefix(fields[len(fields)-1]) {
		return s, false
	}
	return strings.Join(fields[:len(fields)-1], " "), true
}

func hasRemapperPrefix(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "steam") || strings.HasPrefix(lower, "virtual")
}

// coarseCount is the no-metadata path: treat the first node as the
// integrated controller when anything else is present, and assume the
// remapper doubled whatever remains.
func coarseCount(total int, remapperRunning bool) int {
	count := total
	if count > 1 {
		count--
	}
	if remapperRunning {
		count = (count + 1) / 2
	}
	return count
}

func clamp(n int) int {
	if n < MinPlayers {
		return MinPlayers
	}
	if n > MaxPlayers {
		return MaxPlayers
	}
	return n
}

func sameHexID(a, b string) bool {
	pa, errA := strconv.ParseUint(strings.TrimSpace(a), 16, 32)
	pb, errB := strconv.ParseUint(strings.TrimSpace(b), 16, 32)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return pa == pb
}

func containsFold(s, sub string) bool {
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
