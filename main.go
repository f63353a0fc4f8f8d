package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
)

// Version is set at build time via ldflags
var version = "dev"

type options struct {
	version     bool
	stop        bool
	status      bool
	daemon      bool
	daemonChild bool
	once        bool
	web         bool
	port        int
	interval    time.Duration
}

func parseFlags(args []string) (*options, error) {
	var opts options
	flags := pflag.NewFlagSet("clinic-watch", pflag.ContinueOnError)
	flags.BoolVarP(&opts.version, "version", "v", false, "print version and exit")
	flags.BoolVar(&opts.stop, "stop", false, "stop the running daemon")
	flags.BoolVar(&opts.status, "status", false, "show daemon status")
	flags.BoolVar(&opts.daemon, "daemon", false, "run in the background")
	flags.BoolVar(&opts.daemonChild, "daemon-child", false, "internal: set by --daemon")
	flags.BoolVar(&opts.once, "once", false, "run a single check, print alerts instead of sending them")
	flags.BoolVar(&opts.web, "web", false, "serve a status page")
	flags.IntVar(&opts.port, "port", 8080, "status page port")
	flags.DurationVar(&opts.interval, "interval", 0, "time between checks (default 3h)")
	_ = flags.MarkHidden("daemon-child")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	return &opts, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Printf("❌ %v\n", err)
		return 2
	}

	if opts.version {
		fmt.Printf("clinic-watch v%s\n", version)
		return 0
	}
	if opts.stop {
		daemonStop()
		return 0
	}
	if opts.status {
		daemonStatus()
		return 0
	}

	creds, err := loadCredentials(os.Getenv)
	if err != nil {
		fmt.Printf("❌ Error loading credentials: %v\n", err)
		return 1
	}

	if opts.daemon {
		var extraArgs []string
		for _, arg := range args {
			if arg != "--daemon" {
				extraArgs = append(extraArgs, arg)
			}
		}
		daemonize(extraArgs, creds.SessionFile)
		return 0
	}

	var codeInput io.Reader = os.Stdin
	if opts.daemonChild {
		logFile, err := os.OpenFile(logFilePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			log.SetOutput(logFile)
		}
		codeInput = nil
		defer removePIDFile()
	}

	if wrote, err := ensureFileConfig(); err != nil {
		log.Printf("⚠️ Could not write default config: %v\n", err)
	} else if wrote {
		log.Printf("✓ Wrote default config to %s\n", getConfigPath())
	}

	fileCfg, err := loadFileConfig()
	if err != nil {
		fmt.Printf("❌ Error loading config: %v\n", err)
		return 1
	}
	classifier, err := fileCfg.classifier()
	if err != nil {
		fmt.Printf("❌ Error in config markers: %v\n", err)
		return 1
	}
	storage, err := NewEncryptedFileStorage(creds.SessionFile, creds.EncryptionKey)
	if err != nil {
		fmt.Printf("❌ Error opening session storage: %v\n", err)
		return 1
	}

	interval := opts.interval
	if interval <= 0 {
		interval = time.Duration(fileCfg.Interval)
	}
	baseline := fileCfg.baseline()

	checker := NewChecker(CheckerConfig{
		Provider:   NewMTProtoProvider(creds, storage, codeInput),
		Baseline:   baseline,
		Classifier: classifier,
		Navigator:  fileCfg.navigatorConfig(),
		ChatID:     creds.BotChatID,
		Interval:   interval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.once {
		if !RunOnce(ctx, checker) {
			return 1
		}
		return 0
	}

	checker.notifier = NewTelegramNotifier(creds.NotifyToken, creds.NotifyChatID)

	if opts.web {
		status := NewStatusServer()
		checker.OnReport = status.Publish
		go status.Start(opts.port)
	}

	fmt.Printf("Clinic Watch v%s\n", version)
	fmt.Printf("✅ Configuration loaded\n")
	fmt.Printf("🏥 Known clinics: %d\n", baseline.Len())
	fmt.Println("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("[Ready] Checking every", checker.interval)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if err := checker.Loop(ctx); err != nil {
		log.Printf("❌ %v\n", err)
		return 1
	}
	log.Println("🛑 Shutting down gracefully...")
	return 0
}
