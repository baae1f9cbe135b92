package version

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skiff-run/skiff/cmd/util"
	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/config"
	"github.com/skiff-run/skiff/pkg/errors"
	"github.com/skiff-run/skiff/pkg/version"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	newClient                 = api.New
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the local and server version of Skiff.",
		Long: "Print the local version of the Skiff CLI and the version of\n" +
			"the Skiff API server it deploys to.",
		Run: func(_ *cobra.Command, args []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	fmt.Fprintf(stdout, "local version:  %s\n", version.Version)

	// The server version is best effort. Users without a config (or without
	// network access) should still be able to check their local version.
	serverVersion, err := getServerVersion()
	if err != nil {
		log.WithError(err).Debug("Failed to get server version")
		return nil
	}

	fmt.Fprintf(stdout, "server version: %s\n", serverVersion)
	return nil
}

func getServerVersion() (string, error) {
	userConfig, err := parseUserConfig()
	if err != nil {
		return "", errors.WithContext(err, "parse user config")
	}

	serverVersion, err := newClient(userConfig.APIServer, userConfig.Token).
		GetVersion()
	if err != nil {
		return "", errors.WithContext(err, "get server version")
	}
	return serverVersion, nil
}
