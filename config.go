package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Credentials come from the environment and are required at start-up.
type Credentials struct {
	APIID         int
	APIHash       string
	Phone         string
	Password      string // optional, two-step verification
	EncryptionKey string // protects the MTProto session file
	SessionFile   string
	// BotChatID is the chat with the clinic booking bot.
	BotChatID     int64
	NotifyChatID  int64
	NotifyToken   string
}

// FileConfig is the optional JSON config file. Zero values fall back to
// the built-in defaults.
type FileConfig struct {
	KnownClinics []string       `json:"known_clinics,omitempty"`
	Markers      []MarkerConfig `json:"markers,omitempty"`
	SettleDelay  Duration       `json:"settle_delay,omitempty"`
	Interval     Duration       `json:"interval,omitempty"`
	Labels       *LabelConfig   `json:"labels,omitempty"`
}

type MarkerConfig struct {
	Screen string `json:"screen"`
	Marker string `json:"marker"`
}

type LabelConfig struct {
	Restart  string `json:"restart,omitempty"`
	Begin    string `json:"begin,omitempty"`
	ByClinic string `json:"by_clinic,omitempty"`
}

// Duration unmarshals from a Go duration string such as "3h" or "2s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// configPathOverride allows tests to redirect config to a temp directory
var configPathOverride string

func getConfigPath() string {
	if configPathOverride != "" {
		dir := filepath.Dir(configPathOverride)
		os.MkdirAll(dir, 0700)
		return configPathOverride
	}
	home, _ := os.UserHomeDir()
	configDir := filepath.Join(home, ".clinic-watch")
	os.MkdirAll(configDir, 0700)
	return filepath.Join(configDir, "config.json")
}

// loadFileConfig reads the config file. A missing file is not an error.
func loadFileConfig() (*FileConfig, error) {
	data, err := os.ReadFile(getConfigPath())
	if os.IsNotExist(err) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, err
	}

	var config FileConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", getConfigPath(), err)
	}
	return &config, nil
}

func saveFileConfig(config *FileConfig) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(getConfigPath(), data, 0600)
}

// defaultFileConfig spells out the built-in defaults.
func defaultFileConfig() *FileConfig {
	nav := DefaultNavigatorConfig()
	cfg := &FileConfig{
		KnownClinics: append([]string(nil), DefaultKnownClinics...),
		SettleDelay:  Duration(nav.SettleDelay),
		Interval:     Duration(DefaultInterval),
		Labels: &LabelConfig{
			Restart:  nav.RestartLabel,
			Begin:    nav.BeginLabel,
			ByClinic: nav.ByClinicLabel,
		},
	}
	for _, m := range DefaultMarkers {
		cfg.Markers = append(cfg.Markers, MarkerConfig{Screen: m.Screen.String(), Marker: m.Marker})
	}
	return cfg
}

// ensureFileConfig writes the defaults on first run so there is a file to
// edit. It reports whether it wrote one; an existing file is left alone.
func ensureFileConfig() (bool, error) {
	_, err := os.Stat(getConfigPath())
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := saveFileConfig(defaultFileConfig()); err != nil {
		return false, err
	}
	return true, nil
}

// loadCredentials reads the required environment variables.
func loadCredentials(getenv func(string) string) (*Credentials, error) {
	var missing error
	get := func(name string, required bool) string {
		v := getenv(name)
		if required && v == "" && missing == nil {
			missing = fmt.Errorf("env var %q is required", name)
		}
		return v
	}
	getInt := func(name string) int64 {
		v := get(name, true)
		if v == "" {
			return 0
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil && missing == nil {
			missing = fmt.Errorf("env var %q: %w", name, err)
		}
		return n
	}

	creds := &Credentials{
		APIID:         int(getInt("API_ID")),
		APIHash:       get("API_HASH", true),
		Phone:         get("PHONE_NUMBER", true),
		EncryptionKey: get("DATABASE_ENCRYPTION_KEY", true),
		BotChatID:     getInt("ALFAMEDOBOT_CHAT_ID"),
		NotifyChatID:  getInt("TG_NOTIFICATION_CHAT_ID"),
		NotifyToken:   get("TG_NOTIFICATION_BOT_TOKEN", true),
		Password:      get("TG_PASSWORD", false),
		SessionFile:   get("SESSION_FILE", false),
	}
	if missing != nil {
		return nil, missing
	}
	token, err := notifyToken(creds.NotifyToken, getenv("TG_NOTIFICATION_BOT_ID"))
	if err != nil {
		return nil, err
	}
	creds.NotifyToken = token
	if creds.SessionFile == "" {
		creds.SessionFile = filepath.Join(getConfigDir(), "session.bin")
	}
	return creds, nil
}

// defaultNotifyBotID is the numeric half of the notification bot token.
const defaultNotifyBotID = "5214201125"

// notifyToken accepts either a full "id:secret" bot token or just the
// secret, in which case the bot id is prepended.
func notifyToken(secret, botID string) (string, error) {
	if strings.Contains(secret, ":") {
		return secret, nil
	}
	if botID == "" {
		botID = defaultNotifyBotID
	}
	if _, err := strconv.ParseInt(botID, 10, 64); err != nil {
		return "", fmt.Errorf("env var %q: %w", "TG_NOTIFICATION_BOT_ID", err)
	}
	return botID + ":" + secret, nil
}

// navigatorConfig merges the file config over the defaults.
func (c *FileConfig) navigatorConfig() NavigatorConfig {
	cfg := DefaultNavigatorConfig()
	if c.SettleDelay > 0 {
		cfg.SettleDelay = time.Duration(c.SettleDelay)
	}
	if c.Labels != nil {
		if c.Labels.Restart != "" {
			cfg.RestartLabel = c.Labels.Restart
		}
		if c.Labels.Begin != "" {
			cfg.BeginLabel = c.Labels.Begin
		}
		if c.Labels.ByClinic != "" {
			cfg.ByClinicLabel = c.Labels.ByClinic
		}
	}
	return cfg
}

func (c *FileConfig) classifier() (*Classifier, error) {
	if len(c.Markers) == 0 {
		return NewClassifier(nil), nil
	}
	markers := make([]ScreenMarker, 0, len(c.Markers))
	for _, m := range c.Markers {
		s, err := ParseScreen(m.Screen)
		if err != nil {
			return nil, err
		}
		markers = append(markers, ScreenMarker{Screen: s, Marker: m.Marker})
	}
	return NewClassifier(markers), nil
}

func (c *FileConfig) baseline() *Baseline {
	if len(c.KnownClinics) == 0 {
		return NewBaseline(DefaultKnownClinics...)
	}
	return NewBaseline(c.KnownClinics...)
}
