package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// getConfigDir returns the path to the configuration directory (~/.clinic-watch/).
// Respects configPathOverride for testing.
func getConfigDir() string {
	if configPathOverride != "" {
		return filepath.Dir(configPathOverride)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".clinic-watch")
}

// pidFilePath returns the path to the PID file used by daemon mode.
func pidFilePath() string {
	return filepath.Join(getConfigDir(), "clinic-watch.pid")
}

// logFilePath returns the path to the log file used by daemon mode.
func logFilePath() string {
	return filepath.Join(getConfigDir(), "clinic-watch.log")
}

// writePIDFile writes the given PID to the PID file.
func writePIDFile(pid int) error {
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

// readPIDFile reads and parses the PID from the PID file.
func readPIDFile() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// removePIDFile removes the PID file, ignoring errors (best-effort cleanup).
func removePIDFile() {
	os.Remove(pidFilePath())
}

// daemonPreflight reports why a daemon cannot be started, or nil. A stale
// PID file from a previous run is removed.
func daemonPreflight(sessionFile string) error {
	if pid, err := readPIDFile(); err == nil {
		if isProcessAlive(pid) {
			return fmt.Errorf("daemon is already running (PID %d); use --stop to stop it first", pid)
		}
		removePIDFile()
	}

	// The daemon has no terminal to read a login code from.
	if _, err := os.Stat(sessionFile); os.IsNotExist(err) {
		return fmt.Errorf("no Telegram session at %s; run --once in the foreground to log in, then use --daemon", sessionFile)
	}
	return nil
}
