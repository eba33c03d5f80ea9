//go:build windows

package bootstrap

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

const machineEnvKey = `SYSTEM\CurrentControlSet\Control\Session Manager\Environment`

// appendSearchPath persists dir on the machine-wide Path (falling back
// to the user Path when HKLM is not writable), broadcasts the change to
// running processes, and updates the current process environment.
func appendSearchPath(dir string) error {
	if err := appendRegistryPath(registry.LOCAL_MACHINE, machineEnvKey, dir); err != nil {
		if err := appendRegistryPath(registry.CURRENT_USER, `Environment`, dir); err != nil {
			return err
		}
	}

	broadcastEnvironmentChange()

	current := os.Getenv("PATH")
	for _, p := range strings.Split(current, string(os.PathListSeparator)) {
		if strings.EqualFold(p, dir) {
			return nil
		}
	}
	return os.Setenv("PATH", current+string(os.PathListSeparator)+dir)
}

func appendRegistryPath(root registry.Key, keyPath, dir string) error {
	k, err := registry.OpenKey(root, keyPath, registry.QUERY_VALUE|registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("opening environment key: %w", err)
	}
	defer k.Close()

	current, _, err := k.GetStringValue("Path")
	if err != nil && err != registry.ErrNotExist {
		return fmt.Errorf("reading Path value: %w", err)
	}

	for _, p := range strings.Split(current, ";") {
		if strings.EqualFold(strings.TrimSpace(p), dir) {
			return nil
		}
	}

	updated := strings.TrimRight(current, ";")
	if updated != "" {
		updated += ";"
	}
	updated += dir

	if err := k.SetExpandStringValue("Path", updated); err != nil {
		return fmt.Errorf("writing Path value: %w", err)
	}

	return nil
}

// broadcastEnvironmentChange tells running processes the environment
// block changed, so new shells pick up the Path without a reboot.
func broadcastEnvironmentChange() {
	const (
		hwndBroadcast   = 0xffff
		wmSettingChange = 0x001a
		smtoAbortIfHung = 0x0002
	)

	user32 := windows.NewLazySystemDLL("user32.dll")
	proc := user32.NewProc("SendMessageTimeoutW")

	env, _ := windows.UTF16PtrFromString("Environment")
	_, _, _ = proc.Call(
		uintptr(hwndBroadcast),
		uintptr(wmSettingChange),
		0,
		uintptr(unsafe.Pointer(env)),
		uintptr(smtoAbortIfHung),
		5000,
		0,
	)
}
