//go:build windows

package schedule

import "os/exec"

// runSchtasks invokes schtasks.exe and returns its combined output.
func runSchtasks(args []string) (string, error) {
	out, err := exec.Command("schtasks.exe", args...).CombinedOutput()
	return string(out), err
}
