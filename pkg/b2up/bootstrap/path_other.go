//go:build !windows

package bootstrap

import (
	"os"
	"strings"
)

// appendSearchPath makes dir visible to the current process and its
// children. Machine-wide persistence is a Windows concern; elsewhere
// the scheduled-task model does not apply and the process environment
// is enough.
func appendSearchPath(dir string) error {
	current := os.Getenv("PATH")
	for _, p := range strings.Split(current, string(os.PathListSeparator)) {
		if p == dir {
			return nil
		}
	}
	return os.Setenv("PATH", current+string(os.PathListSeparator)+dir)
}
