package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AlertingConfig controls low-stock alerting behavior. The default threshold
// applies to products created without an explicit one.
type AlertingConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	DefaultThreshold int    `mapstructure:"defaultThreshold"`
	SlackWebhookURL  string `mapstructure:"slackWebhookUrl"`
	SlackChannel     string `mapstructure:"slackChannel"`
}

func DefaultAlertingConfig() AlertingConfig {
	return AlertingConfig{
		Enabled:          true,
		DefaultThreshold: 5,
	}
}

// AlertingConfigHolder serves the current alerting config and hot-reloads it
// when the backing file changes.
type AlertingConfigHolder struct {
	current atomic.Value // holds AlertingConfig
}

func NewAlertingConfigHolder() (*AlertingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("alerting")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tally/config") // Volume-mounted config
	v.AddConfigPath("/etc/tally")            // System config
	v.AddConfigPath(".")                     // Current directory (dev mode)

	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultAlertingConfig()
		v.SetDefault("alerting.enabled", defaults.Enabled)
		v.SetDefault("alerting.defaultThreshold", defaults.DefaultThreshold)
	}

	var cfg AlertingConfig
	if err := v.UnmarshalKey("alerting", &cfg); err != nil {
		return nil, err
	}
	if err := validateAlertingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &AlertingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated AlertingConfig
		if err := v.UnmarshalKey("alerting", &updated); err != nil {
			log.Printf("[alerting-config] reload failed: %v", err)
			return
		}
		if err := validateAlertingConfig(updated); err != nil {
			log.Printf("[alerting-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[alerting-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticAlertingConfigHolder returns a holder pinned to cfg. Used by tests
// and callers that do not want file watching.
func NewStaticAlertingConfigHolder(cfg AlertingConfig) *AlertingConfigHolder {
	holder := &AlertingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *AlertingConfigHolder) Get() AlertingConfig {
	return h.current.Load().(AlertingConfig)
}

func validateAlertingConfig(cfg AlertingConfig) error {
	if cfg.DefaultThreshold < 0 {
		return errors.New("alerting.defaultThreshold cannot be negative")
	}
	return nil
}
