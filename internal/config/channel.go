package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ChannelSettings is the tax integration configuration for one sales channel.
// Live and sandbox each carry their own token; the sandbox flag decides which
// pair is active.
type ChannelSettings struct {
	Enabled         bool   `mapstructure:"enabled"`
	Sandbox         bool   `mapstructure:"sandbox"`
	APIToken        string `mapstructure:"apiToken"`
	SandboxAPIToken string `mapstructure:"sandboxApiToken"`

	// BaseURL overrides the provider endpoint when set. Used to point a
	// channel at a proxy or a local stub.
	BaseURL string `mapstructure:"baseUrl"`
}

// ActiveToken returns the token for the active environment.
func (s ChannelSettings) ActiveToken() string {
	if s.Sandbox {
		return strings.TrimSpace(s.SandboxAPIToken)
	}
	return strings.TrimSpace(s.APIToken)
}

// ChannelsConfig maps sales channel ids to their settings. The "default" key
// is the fallback for channels with no explicit entry.
type ChannelsConfig struct {
	Channels map[string]ChannelSettings `mapstructure:"channels"`
}

const defaultChannelKey = "default"

// NewStaticChannelConfigHolder wraps a fixed config with no file watching,
// for tooling and tests.
func NewStaticChannelConfigHolder(cfg ChannelsConfig) *ChannelConfigHolder {
	holder := &ChannelConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// ChannelConfigHolder exposes per-channel settings with hot reload. Readers
// get a consistent snapshot; reload swaps the whole config atomically.
type ChannelConfigHolder struct {
	current atomic.Value // holds ChannelsConfig
}

// NewChannelConfigHolder reads channels.yml and watches it for changes.
func NewChannelConfigHolder() (*ChannelConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("channels")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/taxbridge/config")
	v.AddConfigPath("/etc/taxbridge")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TAXBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// no config file: every channel stays disabled until one appears
	}

	var cfg ChannelsConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validateChannelsConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ChannelConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ChannelsConfig
		if err := v.Unmarshal(&updated); err != nil {
			log.Printf("[channel-config] reload failed: %v", err)
			return
		}
		if err := validateChannelsConfig(updated); err != nil {
			log.Printf("[channel-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[channel-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// Get returns the settings for a channel, falling back to the default entry.
func (h *ChannelConfigHolder) Get(channelID string) ChannelSettings {
	cfg, _ := h.current.Load().(ChannelsConfig)
	if cfg.Channels == nil {
		return ChannelSettings{}
	}
	if settings, ok := cfg.Channels[strings.TrimSpace(channelID)]; ok {
		return settings
	}
	return cfg.Channels[defaultChannelKey]
}

func validateChannelsConfig(cfg ChannelsConfig) error {
	for id, settings := range cfg.Channels {
		if strings.TrimSpace(id) == "" {
			return errors.New("channel id cannot be empty")
		}
		if settings.Enabled && settings.ActiveToken() == "" {
			return errors.New("channel " + id + " is enabled without an api token")
		}
	}
	return nil
}
