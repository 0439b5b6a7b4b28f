//go:build !windows

package execx

import "os"

// isRoot gates the sudo path: an already elevated run wraps nothing.
func isRoot() bool {
	return os.Geteuid() == 0
}
