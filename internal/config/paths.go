package config

import (
	"os"
	"path/filepath"
	"strings"
)

// baseDir is the directory relative runtime paths are resolved against: the
// working directory, or the executable's directory when that is unavailable.
func baseDir() string {
	if wd, err := os.Getwd(); err == nil && wd != "" {
		return wd
	}
	if exe, err := os.Executable(); err == nil && exe != "" {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		return filepath.Dir(exe)
	}
	return "."
}

// ResolveRuntimePath makes raw absolute, falling back to fallbackSubdir when raw is empty.
func ResolveRuntimePath(raw, fallbackSubdir string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = fallbackSubdir
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(baseDir(), target))
}
