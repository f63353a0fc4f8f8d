//go:build !windows

package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// isProcessAlive checks whether a process with the given PID is still running.
// Uses the Unix convention of sending signal 0 to test for process existence.
func isProcessAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil
}

// daemonize starts the current program as a background daemon process.
// It re-executes the binary with --daemon-child instead of --daemon,
// detaches from the terminal using setsid, and redirects output to a log file.
func daemonize(extraArgs []string, sessionFile string) {
	if err := daemonPreflight(sessionFile); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(getConfigDir(), 0700); err != nil {
		fmt.Printf("Error: Cannot create %s: %v\n", getConfigDir(), err)
		os.Exit(1)
	}

	// Open log file for daemon output
	logPath := logFilePath()
	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error: Cannot open log file %s: %v\n", logPath, err)
		os.Exit(1)
	}

	// Build child command: replace --daemon with --daemon-child
	args := []string{"--daemon-child"}
	args = append(args, extraArgs...)

	cmd := exec.Command(os.Args[0], args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // Detach from controlling terminal
	}

	if err := cmd.Start(); err != nil {
		fmt.Printf("Error: Failed to start daemon: %v\n", err)
		logFile.Close()
		os.Exit(1)
	}

	// Write PID file
	if err := writePIDFile(cmd.Process.Pid); err != nil {
		fmt.Printf("Warning: Failed to write PID file: %v\n", err)
	}

	fmt.Printf("Daemon started (PID %d).\n", cmd.Process.Pid)
	fmt.Printf("Log file: %s\n", logPath)
	fmt.Printf("PID file: %s\n", pidFilePath())
	fmt.Println()
	fmt.Println("Use --status to check status, --stop to stop.")

	logFile.Close()
	os.Exit(0)
}

// daemonStop sends SIGTERM to the running daemon and waits for it to exit.
func daemonStop() {
	pid, err := readPIDFile()
	if err != nil {
		fmt.Println("No daemon is running (PID file not found).")
		return
	}

	if !isProcessAlive(pid) {
		fmt.Printf("Daemon (PID %d) is not running. Removing stale PID file.\n", pid)
		removePIDFile()
		return
	}

	fmt.Printf("Stopping daemon (PID %d)...\n", pid)

	// Send SIGTERM for graceful shutdown
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		fmt.Printf("Error sending SIGTERM: %v\n", err)
		return
	}

	// Wait up to 5 seconds for the process to exit
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !isProcessAlive(pid) {
			fmt.Println("Daemon stopped.")
			removePIDFile()
			return
		}
		time.Sleep(200 * time.Millisecond)
	}

	// Process still alive after 5s, force kill
	fmt.Println("Daemon did not stop gracefully. Sending SIGKILL...")
	syscall.Kill(pid, syscall.SIGKILL)
	time.Sleep(500 * time.Millisecond)

	if !isProcessAlive(pid) {
		fmt.Println("Daemon killed.")
	} else {
		fmt.Printf("Warning: Failed to kill daemon (PID %d).\n", pid)
	}
	removePIDFile()
}

// daemonStatus prints the current status of the daemon.
func daemonStatus() {
	pid, err := readPIDFile()
	if err != nil {
		fmt.Println("Status: Not running (no PID file).")
		return
	}

	if isProcessAlive(pid) {
		fmt.Printf("Status: Running (PID %d)\n", pid)
		fmt.Printf("PID file: %s\n", pidFilePath())
		fmt.Printf("Log file: %s\n", logFilePath())
	} else {
		fmt.Printf("Status: Not running (stale PID %d)\n", pid)
		removePIDFile()
	}
}
