package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultStateDirName = ".nickerchenbot"

// ExpandHomePath resolves a leading "~" or "~/" against the current
// user's home directory. Paths without the prefix are returned as-is.
func ExpandHomePath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return path
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}

// ResolveStateDir returns the configured state directory, falling back
// to ~/.nickerchenbot when the configured value is empty.
func ResolveStateDir(configured string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		configured = "~/" + defaultStateDirName
	}
	return ExpandHomePath(configured)
}

// ResolveStateChildDir resolves a child directory of the state dir.
// An absolute child name is used verbatim.
func ResolveStateChildDir(stateDir, childName, fallbackName string) string {
	childName = strings.TrimSpace(childName)
	if childName == "" {
		childName = fallbackName
	}
	childName = ExpandHomePath(childName)
	if filepath.IsAbs(childName) {
		return childName
	}
	return filepath.Join(ResolveStateDir(stateDir), childName)
}

// ResolveStateFile resolves a filename inside the state dir.
func ResolveStateFile(stateDir, filename string) string {
	return filepath.Join(ResolveStateDir(stateDir), filename)
}
