//go:build !windows

package schedule

// runSchtasks reports the platform as unsupported; the wizard treats
// this as a non-fatal warning.
func runSchtasks(args []string) (string, error) {
	return "", ErrUnsupported
}
