package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. It is built once at startup and
// passed by reference into each component; nothing mutates it afterwards.
type Config struct {
	// Monitor
	Enabled          bool
	CheckInterval    time.Duration
	TimeoutThreshold time.Duration
	FallbackScene    string
	ReturnBehavior   string // "previous", "manual", or a literal scene name

	// Encoder telemetry thresholds
	StatsEndpoint        string
	BitrateThresholdKbps float64
	RTTThresholdMs       float64
	DroppedThreshold     int

	// Notifications
	NotificationsEnabled bool
	DiscordWebhookURL    string
	SlackWebhookURL      string
	WebhookURL           string
	WebhookSecret        string

	// Persistent Discord status message, edited in place each cycle. Both
	// values must be set for the board to be registered.
	DiscordStatusWebhookURL string
	DiscordStatusMessageID  string

	// Scene switcher bridge
	SwitcherBaseURL string

	// Server
	Port           string
	DBPath         string
	AdminTokenHash []byte

	// Quick actions (scene/stream shortcuts exposed on the admin API)
	QuickActions []QuickAction
}

// QuickAction is a named shortcut dispatched by id.
type QuickAction struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Scene string `yaml:"scene"`
	Kind  string `yaml:"kind"` // "scene" (default) or "stop_stream"
}

// fileConfig is the YAML layout of the optional config file. Environment
// variables override anything set here.
type fileConfig struct {
	Monitor struct {
		Enabled              *bool   `yaml:"enabled"`
		CheckIntervalSecs    int     `yaml:"check_interval_secs"`
		TimeoutThresholdSecs int     `yaml:"timeout_threshold_secs"`
		FallbackScene        string  `yaml:"fallback_scene"`
		ReturnBehavior       string  `yaml:"return_behavior"`
		StatsEndpoint        string  `yaml:"stats_endpoint"`
		BitrateThresholdKbps float64 `yaml:"bitrate_threshold_kbps"`
		RTTThresholdMs       float64 `yaml:"rtt_threshold_ms"`
		DroppedThreshold     int     `yaml:"dropped_threshold"`
	} `yaml:"monitor"`
	Notify struct {
		Enabled                *bool  `yaml:"enabled"`
		DiscordWebhook         string `yaml:"discord_webhook"`
		SlackWebhook           string `yaml:"slack_webhook"`
		WebhookURL             string `yaml:"webhook_url"`
		WebhookSecret          string `yaml:"webhook_secret"`
		DiscordStatusWebhook   string `yaml:"discord_status_webhook"`
		DiscordStatusMessageID string `yaml:"discord_status_message_id"`
	} `yaml:"notify"`
	Switcher struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"switcher"`
	Server struct {
		Port   string `yaml:"port"`
		DBPath string `yaml:"db_path"`
	} `yaml:"server"`
	Actions []QuickAction `yaml:"actions"`
}

// Load reads configuration from the optional YAML file named by
// LINKWATCH_CONFIG (default ./linkwatch.yaml), then applies environment
// variable overrides, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var fc fileConfig
	path := getenv("LINKWATCH_CONFIG", "./linkwatch.yaml")
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return nil, &ConfigError{Field: "config file", Reason: err.Error()}
		}
	}

	cfg := &Config{
		Enabled:              envBool("MONITOR_ENABLED", boolOr(fc.Monitor.Enabled, false)),
		CheckInterval:        envDurSecs("CHECK_INTERVAL_SECONDS", intOr(fc.Monitor.CheckIntervalSecs, 15)),
		TimeoutThreshold:     envDurSecs("TIMEOUT_THRESHOLD_SECONDS", intOr(fc.Monitor.TimeoutThresholdSecs, 60)),
		FallbackScene:        getenv("FALLBACK_SCENE", strOr(fc.Monitor.FallbackScene, "BRB")),
		ReturnBehavior:       getenv("RETURN_BEHAVIOR", strOr(fc.Monitor.ReturnBehavior, "previous")),
		StatsEndpoint:        getenv("STATS_ENDPOINT", fc.Monitor.StatsEndpoint),
		BitrateThresholdKbps: envFloat("BITRATE_THRESHOLD_KBPS", floatOr(fc.Monitor.BitrateThresholdKbps, 1000)),
		RTTThresholdMs:       envFloat("RTT_THRESHOLD_MS", floatOr(fc.Monitor.RTTThresholdMs, 2000)),
		DroppedThreshold:     envInt("DROPPED_THRESHOLD", intOr(fc.Monitor.DroppedThreshold, 100)),
		NotificationsEnabled: envBool("NOTIFICATIONS_ENABLED", boolOr(fc.Notify.Enabled, true)),
		DiscordWebhookURL:    getenv("DISCORD_WEBHOOK_URL", fc.Notify.DiscordWebhook),
		SlackWebhookURL:      getenv("SLACK_WEBHOOK_URL", fc.Notify.SlackWebhook),
		WebhookURL:           getenv("WEBHOOK_URL", fc.Notify.WebhookURL),
		WebhookSecret:        getenv("WEBHOOK_SECRET", fc.Notify.WebhookSecret),
		SwitcherBaseURL:      strings.TrimSuffix(getenv("SWITCHER_BASE_URL", strOr(fc.Switcher.BaseURL, "http://127.0.0.1:4456")), "/"),
		Port:                 getenv("PORT", strOr(fc.Server.Port, "4556")),
		DBPath:               getenv("DB_PATH", strOr(fc.Server.DBPath, "./linkwatch.db")),
		QuickActions:         fc.Actions,
	}

	if h := getenv("ADMIN_TOKEN_BCRYPT", ""); h != "" {
		cfg.AdminTokenHash = []byte(h)
	}

	cfg.DiscordStatusWebhookURL = getenv("DISCORD_STATUS_WEBHOOK", fc.Notify.DiscordStatusWebhook)
	cfg.DiscordStatusMessageID = getenv("DISCORD_STATUS_MESSAGE_ID", fc.Notify.DiscordStatusMessageID)

	if len(cfg.QuickActions) == 0 {
		cfg.QuickActions = defaultQuickActions()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultQuickActions mirrors the stock panel: BRB, intro, outro, go-live
// and an emergency stream stop.
func defaultQuickActions() []QuickAction {
	return []QuickAction{
		{ID: "brb", Label: "Be Right Back", Scene: "BRB", Kind: "scene"},
		{ID: "intro", Label: "Intro", Scene: "Intro", Kind: "scene"},
		{ID: "outro", Label: "Outro", Scene: "Outro", Kind: "scene"},
		{ID: "live", Label: "Go Live", Kind: "start_stream"},
		{ID: "emergency", Label: "Emergency Stop", Kind: "stop_stream"},
	}
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(os.Getenv(k))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}

func strOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func intOr(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func floatOr(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}
