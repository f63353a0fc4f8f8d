package main

import (
	"context"
	"fmt"
)

// ConsoleNotifier prints alerts instead of sending them.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Notify(text string) error {
	fmt.Printf("\n[alert] %s\n", text)
	return nil
}

// RunOnce runs a single check with alerts printed to stdout. It returns
// false when the check failed.
func RunOnce(ctx context.Context, c *Checker) bool {
	fmt.Println("Clinic Watch One-Shot Mode")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	c.notifier = ConsoleNotifier{}
	report := c.Check(ctx)

	fmt.Println("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if report.Error != "" {
		fmt.Printf("❌ Check failed after %s\n", report.Elapsed)
		return false
	}
	if len(report.New) == 0 {
		fmt.Printf("✅ %d clinics, nothing new (%s)\n", len(report.Clinics), report.Elapsed)
	} else {
		fmt.Printf("⚠️ %d clinics, %d new (%s)\n", len(report.Clinics), len(report.New), report.Elapsed)
	}
	return true
}
