package config

import (
	"path/filepath"

	"github.com/skiff-run/skiff/pkg/errors"
)

const (
	// ProjectConfigName is the name of the per-project deployment config. It's
	// looked up in the directory `skiff deploy` is run from.
	ProjectConfigName = "skiff.yaml"

	// SupportedProjectConfigVersion is the supported version of the Skiff
	// project config of the current Skiff binary.
	SupportedProjectConfigVersion = "v1alpha1"
)

// Project contains per-project deployment settings. All fields are optional;
// anything missing must be supplied by flags or the environment.
type Project struct {
	Version       string `json:"version,omitempty"`
	Subdomain     string `json:"subdomain,omitempty"`
	Dir           string `json:"dir,omitempty"`
	Source        string `json:"source,omitempty"`
	IncludeHidden bool   `json:"include_hidden,omitempty"`
	Concurrency   int    `json:"concurrency,omitempty"`
}

func (p Project) getVersion() string {
	return p.Version
}

// ParseProject parses the project config in `dir`. A missing config file
// isn't an error -- the zero Project is returned, and the caller has to get
// its settings from somewhere else.
func ParseProject(dir string) (Project, error) {
	path := filepath.Join(dir, ProjectConfigName)

	config := Project{Version: SupportedProjectConfigVersion}
	if err := parseConfig(path, &config, SupportedProjectConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Project{}, nil
		}
		return Project{}, errors.WithContext(err, "parse")
	}
	return config, nil
}
