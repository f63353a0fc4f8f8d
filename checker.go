package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// DefaultInterval is the pause between two checks.
const DefaultInterval = 3 * time.Hour

// CycleReport is the outcome of one check.
type CycleReport struct {
	StartedAt time.Time `json:"started_at"`
	Elapsed   string    `json:"elapsed"`
	Clinics   []string  `json:"clinics"`
	New       []string  `json:"new"`
	Error     string    `json:"error,omitempty"`
}

// Checker runs the menu walk, diffs the result against the baseline and
// alerts on errors and on new clinics.
type Checker struct {
	provider   SessionProvider
	notifier   Notifier
	baseline   *Baseline
	classifier *Classifier
	navCfg     NavigatorConfig
	chatID     int64
	interval   time.Duration

	// OnReport, if set, sees every finished cycle.
	OnReport func(CycleReport)

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

type CheckerConfig struct {
	Provider   SessionProvider
	Notifier   Notifier
	Baseline   *Baseline
	Classifier *Classifier
	Navigator  NavigatorConfig
	ChatID     int64
	Interval   time.Duration
}

func NewChecker(cfg CheckerConfig) *Checker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	baseline := cfg.Baseline
	if baseline == nil {
		baseline = NewBaseline(DefaultKnownClinics...)
	}
	return &Checker{
		provider:   cfg.Provider,
		notifier:   cfg.Notifier,
		baseline:   baseline,
		classifier: cfg.Classifier,
		navCfg:     cfg.Navigator,
		chatID:     cfg.ChatID,
		interval:   interval,
		sleep:      sleepContext,
		now:        time.Now,
	}
}

// RunCycle opens a session, walks the menu and returns every clinic found
// together with the ones missing from the baseline.
func (c *Checker) RunCycle(ctx context.Context) (clinics, novel []string, err error) {
	err = c.provider.WithSession(ctx, func(ctx context.Context, s ChatSession) error {
		nav := NewNavigator(s, c.classifier, c.navCfg)
		clinics, err = nav.Walk(ctx, c.chatID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	log.Printf("✓ Found %d clinics:\n", len(clinics))
	for i, name := range clinics {
		log.Printf("%d. %s\n", i+1, name)
	}
	return clinics, c.baseline.Diff(clinics), nil
}

// Check runs one cycle and sends the alerts it calls for. A failed cycle
// counts as zero new clinics.
func (c *Checker) Check(ctx context.Context) CycleReport {
	fmt.Printf("\n%s\n", strings.Repeat("=", 60))

	started := c.now()
	report := CycleReport{StartedAt: started}

	clinics, novel, err := c.RunCycle(ctx)
	report.Elapsed = c.now().Sub(started).Round(time.Millisecond).String()
	if err != nil {
		report.Error = err.Error()
		if ctx.Err() == nil {
			msg := fmt.Sprintf("Clinic Check Error: Unexpected error: %v", err)
			log.Printf("✗ %s\n", msg)
			c.alert(msg)
		}
	} else {
		report.Clinics = clinics
		report.New = novel
		if len(novel) > 0 {
			msg := fmt.Sprintf("⚠️ NEW CLINICS DETECTED: %s", strings.Join(novel, ", "))
			log.Println(msg)
			c.alert(msg)
		}
	}

	if c.OnReport != nil {
		c.OnReport(report)
	}
	return report
}

func (c *Checker) alert(msg string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(msg); err != nil {
		log.Printf("❌ Failed to send notification: %v\n", err)
	}
}

// Loop checks once per interval until ctx is cancelled.
func (c *Checker) Loop(ctx context.Context) error {
	for {
		c.Check(ctx)

		log.Printf("Next check in %s\n", c.interval)
		if err := c.sleep(ctx, c.interval); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}
