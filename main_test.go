package main

import (
	"testing"
	"time"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(*options) bool
	}{
		{"defaults", nil, func(o *options) bool {
			return !o.once && !o.daemon && !o.web && o.port == 8080 && o.interval == 0
		}},
		{"version short", []string{"-v"}, func(o *options) bool { return o.version }},
		{"once", []string{"--once"}, func(o *options) bool { return o.once }},
		{"web with port", []string{"--web", "--port", "9090"}, func(o *options) bool { return o.web && o.port == 9090 }},
		{"interval", []string{"--interval", "90m"}, func(o *options) bool { return o.interval == 90*time.Minute }},
		{"daemon child", []string{"--daemon-child", "--web"}, func(o *options) bool { return o.daemonChild && o.web }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args)
			if err != nil {
				t.Fatalf("parseFlags(%q) error: %v", tt.args, err)
			}
			if !tt.check(opts) {
				t.Errorf("parseFlags(%q) = %+v", tt.args, opts)
			}
		})
	}
}

func TestParseFlagsUnknown(t *testing.T) {
	if _, err := parseFlags([]string{"--setup"}); err == nil {
		t.Error("parseFlags(--setup) expected error, got nil")
	}
}

func TestRunMissingCredentials(t *testing.T) {
	setTempConfigPath(t)
	for name := range testEnv() {
		t.Setenv(name, "")
	}

	if code := run([]string{"--once"}); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
}
