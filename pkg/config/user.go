package config

import (
	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/skiff-run/skiff/pkg/errors"
)

const (
	// UserConfigPath is the default path to the Skiff user config.
	UserConfigPath = "~/.skiff.yaml"

	// InitialUserConfigVersion is the first version of the Skiff
	// user config. Config files that do not specify a version
	// will default to this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the
	// Skiff user config of the current Skiff binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains configuration used to authenticate with the Skiff API.
type User struct {
	Version   string `json:"version,omitempty"`
	Token     string `json:"token"`
	APIServer string `json:"api_server,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{}, errors.NewFriendlyError("The Skiff user config "+
				"file doesn't exist at %q. Please run `skiff config` to "+
				"create the user config file.", path)
		}
		return User{}, errors.WithContext(err, "parse")
	}
	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0600); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// Get the path to the user's global Skiff configuration. This path is
// expanded, so it can be directly passed to file operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
