//go:build windows

package execx

import (
	"os"
	"strings"
)

func isRoot() bool {
	user := strings.ToLower(os.Getenv("USERNAME"))
	if user == "administrator" {
		return true
	}
	return os.Getenv("MCSPLIT_ASSUME_ADMIN") == "1"
}
