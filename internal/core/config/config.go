// Package config parses the bot's TOML config file into the component
// descriptors the startup wiring feeds to the factory registries.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/viper"
)

// Descriptor names one configured component and carries its section's
// options verbatim, minus the enabled flag. Values have environment
// variables expanded.
type Descriptor struct {
	Name    string
	Options map[string]string
}

// Bot is the [bot] section.
type Bot struct {
	LogLevel       string
	MetricsAddress string
	RateLimit      float64
	RateBurst      int
}

// Config is one fully parsed config file: exactly one transport, exactly
// one storage, any number of integrations.
type Config struct {
	Bot          Bot
	Transport    Descriptor
	Storage      Descriptor
	Integrations []Descriptor
}

// Load reads and validates the config file at path. Component sections
// are [transport.<name>], [storage.<name>] and [integration.<name>];
// only sections with enabled = true participate.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetDefault("bot.log_level", "info")
	v.SetDefault("bot.rate_burst", 1)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	for section := range v.AllSettings() {
		switch section {
		case "bot", "transport", "storage", "integration":
		default:
			return nil, fmt.Errorf("unrecognized config section %q", section)
		}
	}

	cfg := &Config{
		Bot: Bot{
			LogLevel:       v.GetString("bot.log_level"),
			MetricsAddress: v.GetString("bot.metrics_address"),
			RateLimit:      v.GetFloat64("bot.rate_limit"),
			RateBurst:      v.GetInt("bot.rate_burst"),
		},
	}

	if cfg.Bot.RateLimit < 0 {
		return nil, fmt.Errorf("bot.rate_limit must be >= 0")
	}
	if cfg.Bot.RateBurst < 1 {
		return nil, fmt.Errorf("bot.rate_burst must be >= 1")
	}

	transports, err := enabledDescriptors(v, "transport")
	if err != nil {
		return nil, err
	}
	if len(transports) != 1 {
		return nil, fmt.Errorf("exactly one transport must be enabled, found %d", len(transports))
	}
	cfg.Transport = transports[0]

	storages, err := enabledDescriptors(v, "storage")
	if err != nil {
		return nil, err
	}
	if len(storages) != 1 {
		return nil, fmt.Errorf("exactly one storage must be enabled, found %d", len(storages))
	}
	cfg.Storage = storages[0]

	cfg.Integrations, err = enabledDescriptors(v, "integration")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// enabledDescriptors collects the enabled sections of one component
// group, sorted by name so wiring order is stable.
func enabledDescriptors(v *viper.Viper, group string) ([]Descriptor, error) {
	var descriptors []Descriptor

	for name := range v.GetStringMap(group) {
		key := group + "." + name

		if !v.GetBool(key + ".enabled") {
			continue
		}

		options := v.GetStringMapString(key)
		if options == nil {
			return nil, fmt.Errorf("config section %q is not a table", key)
		}

		delete(options, "enabled")
		for option, value := range options {
			options[option] = os.ExpandEnv(value)
		}

		descriptors = append(descriptors, Descriptor{Name: name, Options: options})
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].Name < descriptors[j].Name })

	return descriptors, nil
}
