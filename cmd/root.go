package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	configCmd "github.com/skiff-run/skiff/cmd/config"
	deployCmd "github.com/skiff-run/skiff/cmd/deploy"
	"github.com/skiff-run/skiff/cmd/upgradecli"
	"github.com/skiff-run/skiff/cmd/util"
	"github.com/skiff-run/skiff/cmd/version"
	"github.com/skiff-run/skiff/cmd/whoami"
	"github.com/skiff-run/skiff/pkg/analytics"
	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/config"
	"github.com/skiff-run/skiff/pkg/errors"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "SKIFF_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	// Forward warnings and errors from the standard logger to analytics so
	// that we hear about failures in the field.
	log.AddHook(analytics.NewLogHook())

	rootCmd := &cobra.Command{
		Use:          "skiff",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors:    true,
		PersistentPreRun: setupAnalytics,
	}
	rootCmd.AddCommand(
		configCmd.New(),
		deployCmd.New(),
		upgradecli.New(),
		version.New(),
		whoami.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func setupAnalytics(cmd *cobra.Command, _ []string) {
	analytics.SetSource(cmd.CalledAs())

	// `skiff config` runs before any token exists, so it handles account
	// enrichment itself after the user has logged in.
	if cmd.CalledAs() != "config" {
		if account, err := getAccountName(); err == nil {
			analytics.SetAccount(account)
		} else {
			log.WithError(err).Debug("Failed to get account name for analytics")
		}
	}
}

func getAccountName() (string, error) {
	userConfig, err := config.ParseUser()
	if err != nil {
		return "", errors.WithContext(err, "parse user config")
	}

	account, err := api.New(userConfig.APIServer, userConfig.Token).Whoami()
	if err != nil {
		return "", errors.WithContext(err, "whoami")
	}
	return account.Username, nil
}
