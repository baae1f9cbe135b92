package whoami

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/skiff-run/skiff/cmd/util"
	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/config"
	"github.com/skiff-run/skiff/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	parseUserConfig           = config.ParseUser
	newClient                 = api.New
)

// New creates a new `whoami` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the account the configured API token belongs to",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	userConfig, err := parseUserConfig()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	account, err := newClient(userConfig.APIServer, userConfig.Token).Whoami()
	if err != nil {
		if api.IsUnauthorized(err) {
			return errors.NewFriendlyError("The Skiff API server rejected the " +
				"configured token. Run `skiff config` to update it.")
		}
		return errors.WithContext(err, "whoami")
	}

	fmt.Fprintln(stdout, account.Username)
	return nil
}
