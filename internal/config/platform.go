package config

import "runtime"

// defaultLauncherKey opens the OS application launcher: Spotlight on macOS,
// the Start menu or the desktop shell's overview elsewhere.
func defaultLauncherKey() string {
	if runtime.GOOS == "darwin" {
		return "cmd+space"
	}
	return "cmd"
}

func defaultUndoCombo() string {
	if runtime.GOOS == "darwin" {
		return "cmd+z"
	}
	return "ctrl+z"
}
