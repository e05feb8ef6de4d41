package config

import (
	"fmt"

	"linkwatch/app/internal/models"
)

// ConfigError reports a configuration problem found at startup. It is
// terminal for monitor start: the loop refuses to run rather than retrying.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks the invariants the rest of the system relies on. A Config
// that passes Validate never causes a runtime configuration fault.
func (c *Config) Validate() error {
	if c.CheckInterval <= 0 {
		return &ConfigError{Field: "check_interval_secs", Reason: "must be > 0"}
	}
	if c.TimeoutThreshold <= 0 {
		return &ConfigError{Field: "timeout_threshold_secs", Reason: "must be > 0"}
	}
	if c.Enabled && c.StatsEndpoint == "" {
		return &ConfigError{Field: "stats_endpoint", Reason: "monitoring is enabled but no stats endpoint is configured"}
	}
	if c.FallbackScene == "" {
		return &ConfigError{Field: "fallback_scene", Reason: "must not be empty"}
	}
	if c.ReturnBehavior == "" {
		return &ConfigError{Field: "return_behavior", Reason: "must be \"previous\", \"manual\" or a scene name"}
	}
	seen := map[string]bool{}
	for _, a := range c.QuickActions {
		if a.ID == "" {
			return &ConfigError{Field: "actions", Reason: "action with empty id"}
		}
		if seen[a.ID] {
			return &ConfigError{Field: "actions", Reason: "duplicate action id " + a.ID}
		}
		seen[a.ID] = true
		if a.Kind != "stop_stream" && a.Kind != "start_stream" && a.Scene == "" {
			return &ConfigError{Field: "actions", Reason: "action " + a.ID + " has no scene"}
		}
	}
	return nil
}

// ResolveReturnScene maps the configured return behavior and the remembered
// pre-failure scene to the scene to restore, if any. The second return value
// is false when no switch should happen (manual mode, or "previous" with no
// remembered scene).
func (c *Config) ResolveReturnScene(lastKnownGood string) (string, bool) {
	switch c.ReturnBehavior {
	case models.ReturnManual:
		return "", false
	case models.ReturnPrevious:
		if lastKnownGood == "" {
			return "", false
		}
		return lastKnownGood, true
	default:
		return c.ReturnBehavior, true
	}
}
