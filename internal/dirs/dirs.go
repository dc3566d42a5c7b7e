package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "importctl"

// ConfigDir returns the directory holding config.{yaml,json,toml}.
// - Linux: $XDG_CONFIG_HOME/importctl or ~/.config/importctl
// - macOS: ~/Library/Application Support/importctl
// - others: os.UserConfigDir()/importctl
func ConfigDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", []string{".config"}, os.UserConfigDir)
}

// StateDir returns the directory for logs written while the TUI owns the terminal.
// - Linux: $XDG_STATE_HOME/importctl or ~/.local/state/importctl
// - macOS: ~/Library/Application Support/importctl/state
// - others: os.UserCacheDir()/importctl/state
func StateDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName, "state"), nil
	}
	dir, err := platformDir("XDG_STATE_HOME", []string{".local", "state"}, os.UserCacheDir)
	if err != nil {
		return "", err
	}
	if runtime.GOOS != "linux" {
		dir = filepath.Join(dir, "state")
	}
	return dir, nil
}

// LogFile returns the path of the log file inside StateDir, creating the directory.
func LogFile() (string, error) {
	d, err := StateDir()
	if err != nil {
		return "", err
	}
	if err := Ensure(d); err != nil {
		return "", err
	}
	return filepath.Join(d, appName+".log"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

func platformDir(xdgEnv string, homeRel []string, fallback func() (string, error)) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "linux":
		if xdg := os.Getenv(xdgEnv); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, homeRel...), appName)...), nil
	default:
		base, err := fallback()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, appName), nil
	}
}
