//go:build windows

package main

import (
	"fmt"
	"os"
)

// isProcessAlive cannot check processes without signals; any PID file is
// treated as stale.
func isProcessAlive(pid int) bool {
	return false
}

const noDaemonHint = "Schedule 'clinic-watch --once' with Task Scheduler, or run clinic-watch in a console window."

// daemonize still runs the preflight so a missing login is reported the
// same way as elsewhere, then exits: there is no setsid on Windows.
func daemonize(extraArgs []string, sessionFile string) {
	if err := daemonPreflight(sessionFile); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
	fmt.Println("Daemon mode is not supported on Windows.")
	fmt.Println(noDaemonHint)
	os.Exit(1)
}

func daemonStop() {
	removePIDFile()
	fmt.Println("No daemon to stop: daemon mode is not supported on Windows.")
}

func daemonStatus() {
	fmt.Println("Status: Not running (daemon mode is not supported on Windows).")
	fmt.Println(noDaemonHint)
}
