package config

import (
	"github.com/spf13/viper"

	"github.com/skiff-run/skiff/pkg/errors"
)

// Env holds deployment settings read from SKIFF_* environment variables,
// e.g. SKIFF_TOKEN and SKIFF_SUBDOMAIN. These are mainly used by CI runners,
// where a config file is more awkward than environment variables.
type Env struct {
	Subdomain     string `mapstructure:"subdomain"`
	Dir           string `mapstructure:"dir"`
	Source        string `mapstructure:"source"`
	IncludeHidden bool   `mapstructure:"include_hidden"`
	Concurrency   int    `mapstructure:"concurrency"`
	Token         string `mapstructure:"token"`
	APIServer     string `mapstructure:"api_server"`
}

var envKeys = []string{
	"subdomain", "dir", "source", "include_hidden", "concurrency",
	"token", "api_server",
}

// FromEnv reads the SKIFF_* environment overrides.
func FromEnv() (Env, error) {
	v := viper.New()
	v.SetEnvPrefix("skiff")
	v.AutomaticEnv()

	// Unmarshal only picks up environment values for keys viper knows about,
	// so every key has to be bound explicitly.
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return Env{}, errors.WithContext(err, "bind environment variable")
		}
	}

	var env Env
	if err := v.Unmarshal(&env); err != nil {
		return Env{}, errors.WithContext(err, "parse environment")
	}
	return env, nil
}
