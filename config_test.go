package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setTempConfigPath sets configPathOverride to a temp directory and registers cleanup.
// Returns the temp directory path (the parent of the fake config file).
func setTempConfigPath(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPathOverride = filepath.Join(tmpDir, "config.json")
	t.Cleanup(func() {
		configPathOverride = ""
	})
	return tmpDir
}

func testEnv() map[string]string {
	return map[string]string{
		"API_ID":                    "12345",
		"API_HASH":                  "abcdef",
		"PHONE_NUMBER":              "+70000000000",
		"DATABASE_ENCRYPTION_KEY":   "secret",
		"ALFAMEDOBOT_CHAT_ID":       "6020202020",
		"TG_NOTIFICATION_CHAT_ID":   "-1001",
		"TG_NOTIFICATION_BOT_TOKEN": "1:token",
	}
}

func getenvFrom(env map[string]string) func(string) string {
	return func(k string) string { return env[k] }
}

func TestLoadCredentials(t *testing.T) {
	setTempConfigPath(t)

	creds, err := loadCredentials(getenvFrom(testEnv()))
	if err != nil {
		t.Fatalf("loadCredentials() error: %v", err)
	}
	if creds.APIID != 12345 || creds.BotChatID != 6020202020 || creds.NotifyChatID != -1001 {
		t.Errorf("numeric fields = %d %d %d", creds.APIID, creds.BotChatID, creds.NotifyChatID)
	}
	if creds.Password != "" {
		t.Errorf("Password = %q, want empty", creds.Password)
	}
	if want := filepath.Join(getConfigDir(), "session.bin"); creds.SessionFile != want {
		t.Errorf("SessionFile = %s, want %s", creds.SessionFile, want)
	}
}

func TestLoadCredentialsMissing(t *testing.T) {
	for name := range testEnv() {
		t.Run(name, func(t *testing.T) {
			env := testEnv()
			delete(env, name)

			_, err := loadCredentials(getenvFrom(env))
			if err == nil {
				t.Fatalf("loadCredentials() without %s expected error, got nil", name)
			}
			if !strings.Contains(err.Error(), name) {
				t.Errorf("error %q does not name %s", err, name)
			}
		})
	}
}

func TestLoadCredentialsBadNumber(t *testing.T) {
	env := testEnv()
	env["ALFAMEDOBOT_CHAT_ID"] = "alfamedobot"

	if _, err := loadCredentials(getenvFrom(env)); err == nil {
		t.Error("loadCredentials() with non-numeric chat id expected error, got nil")
	}
}

func TestLoadCredentialsNotifyToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		botID string
		want  string
	}{
		{"full token", "777:secret", "", "777:secret"},
		{"full token ignores bot id", "777:secret", "888", "777:secret"},
		{"secret only", "secret", "", "5214201125:secret"},
		{"secret with bot id", "secret", "888", "888:secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testEnv()
			env["TG_NOTIFICATION_BOT_TOKEN"] = tt.token
			env["TG_NOTIFICATION_BOT_ID"] = tt.botID

			creds, err := loadCredentials(getenvFrom(env))
			if err != nil {
				t.Fatalf("loadCredentials() error: %v", err)
			}
			if creds.NotifyToken != tt.want {
				t.Errorf("NotifyToken = %q, want %q", creds.NotifyToken, tt.want)
			}
		})
	}
}

func TestLoadCredentialsBadNotifyBotID(t *testing.T) {
	env := testEnv()
	env["TG_NOTIFICATION_BOT_TOKEN"] = "secret"
	env["TG_NOTIFICATION_BOT_ID"] = "watchbot"

	_, err := loadCredentials(getenvFrom(env))
	if err == nil || !strings.Contains(err.Error(), "TG_NOTIFICATION_BOT_ID") {
		t.Errorf("loadCredentials() error = %v, want TG_NOTIFICATION_BOT_ID error", err)
	}
}

func TestLoadCredentialsOptional(t *testing.T) {
	env := testEnv()
	env["TG_PASSWORD"] = "2fa"
	env["SESSION_FILE"] = "/var/lib/clinic-watch/session.bin"

	creds, err := loadCredentials(getenvFrom(env))
	if err != nil {
		t.Fatalf("loadCredentials() error: %v", err)
	}
	if creds.Password != "2fa" || creds.SessionFile != "/var/lib/clinic-watch/session.bin" {
		t.Errorf("optional fields = %q %q", creds.Password, creds.SessionFile)
	}
}

func TestFileConfigMissingIsDefault(t *testing.T) {
	setTempConfigPath(t)

	cfg, err := loadFileConfig()
	if err != nil {
		t.Fatalf("loadFileConfig() error: %v", err)
	}
	nav := cfg.navigatorConfig()
	if nav.SettleDelay != 2*time.Second || nav.RestartLabel != "В начало" {
		t.Errorf("navigatorConfig() = %+v, want defaults", nav)
	}
	if cfg.baseline().Len() != len(DefaultKnownClinics) {
		t.Errorf("baseline().Len() = %d", cfg.baseline().Len())
	}
}

func TestFileConfigSaveLoad(t *testing.T) {
	setTempConfigPath(t)

	in := &FileConfig{
		KnownClinics: []string{"Клиника A"},
		Markers:      []MarkerConfig{{Screen: "welcome", Marker: "ПРИВЕТ"}},
		SettleDelay:  Duration(5 * time.Second),
		Interval:     Duration(time.Hour),
		Labels:       &LabelConfig{Begin: "Начать"},
	}
	if err := saveFileConfig(in); err != nil {
		t.Fatalf("saveFileConfig() error: %v", err)
	}

	info, err := os.Stat(getConfigPath())
	if err != nil {
		t.Fatalf("stat error = %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file permissions = %o, want 0600", info.Mode().Perm())
	}

	out, err := loadFileConfig()
	if err != nil {
		t.Fatalf("loadFileConfig() error: %v", err)
	}
	if time.Duration(out.Interval) != time.Hour {
		t.Errorf("Interval = %s, want 1h", time.Duration(out.Interval))
	}

	nav := out.navigatorConfig()
	if nav.SettleDelay != 5*time.Second || nav.BeginLabel != "Начать" || nav.RestartLabel != "В начало" {
		t.Errorf("navigatorConfig() = %+v", nav)
	}

	c, err := out.classifier()
	if err != nil {
		t.Fatalf("classifier() error: %v", err)
	}
	if got := c.Classify(&Message{Text: "ПРИВЕТ"}); got != ScreenWelcome {
		t.Errorf("Classify() = %s, want welcome", got)
	}
	if got := out.baseline().Diff([]string{"Клиника A", "Клиника B"}); len(got) != 1 || got[0] != "Клиника B" {
		t.Errorf("baseline().Diff() = %q", got)
	}
}

func TestFileConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "invalid json {"},
		{"bad duration", `{"interval": "soon"}`},
		{"numeric duration", `{"interval": 10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setTempConfigPath(t)
			os.WriteFile(getConfigPath(), []byte(tt.body), 0600)

			if _, err := loadFileConfig(); err == nil {
				t.Error("loadFileConfig() expected error, got nil")
			}
		})
	}
}

func TestFileConfigBadMarker(t *testing.T) {
	cfg := &FileConfig{Markers: []MarkerConfig{{Screen: "checkout", Marker: "x"}}}
	if _, err := cfg.classifier(); err == nil {
		t.Error("classifier() with unknown screen expected error, got nil")
	}
}

func TestEnsureFileConfig(t *testing.T) {
	setTempConfigPath(t)

	wrote, err := ensureFileConfig()
	if err != nil || !wrote {
		t.Fatalf("ensureFileConfig() = %v, %v, want true, nil", wrote, err)
	}

	cfg, err := loadFileConfig()
	if err != nil {
		t.Fatalf("loadFileConfig() error: %v", err)
	}
	if time.Duration(cfg.Interval) != DefaultInterval {
		t.Errorf("Interval = %s, want %s", time.Duration(cfg.Interval), DefaultInterval)
	}
	if nav := cfg.navigatorConfig(); nav.ByClinicLabel != "Выбрать клинику" || nav.SettleDelay != 2*time.Second {
		t.Errorf("navigatorConfig() = %+v, want defaults", nav)
	}
	c, err := cfg.classifier()
	if err != nil {
		t.Fatalf("classifier() error: %v", err)
	}
	if got := c.Classify(&Message{Text: "ВЫБОР СЦЕНАРИЯ ЗАПИСИ"}); got != ScreenScenarioSelection {
		t.Errorf("Classify() = %s, want scenario-selection", got)
	}
	if got := cfg.baseline().Diff(DefaultKnownClinics); len(got) != 0 {
		t.Errorf("baseline().Diff(defaults) = %q, want empty", got)
	}
}

func TestEnsureFileConfigKeepsExisting(t *testing.T) {
	setTempConfigPath(t)
	if err := saveFileConfig(&FileConfig{KnownClinics: []string{"Клиника A"}}); err != nil {
		t.Fatalf("saveFileConfig() error: %v", err)
	}

	wrote, err := ensureFileConfig()
	if err != nil || wrote {
		t.Fatalf("ensureFileConfig() = %v, %v, want false, nil", wrote, err)
	}
	cfg, err := loadFileConfig()
	if err != nil {
		t.Fatalf("loadFileConfig() error: %v", err)
	}
	if len(cfg.KnownClinics) != 1 || cfg.KnownClinics[0] != "Клиника A" {
		t.Errorf("KnownClinics = %q, want the saved list", cfg.KnownClinics)
	}
}
