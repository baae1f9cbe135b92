package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skiff-run/skiff/cmd/util"
	"github.com/skiff-run/skiff/pkg/analytics"
	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/config"
	"github.com/skiff-run/skiff/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout          io.Writer = os.Stdout
	stdin           io.Reader = os.Stdin
	parseUserConfig           = config.ParseUser
	writeUserConfig           = config.WriteUser
	newClient                 = api.New
)

// New creates a new `config` command.
func New() *cobra.Command {
	var cliOpts config.User
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the Skiff user configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(cliOpts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s",
					errors.GetPrintableMessage(err))
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&cliOpts.Token, "token", "",
		"Set the API token in the config. "+
			"Optional: If not set, `skiff config` will interactively prompt.")
	cmd.Flags().StringVar(&cliOpts.APIServer, "api-server", "",
		"Set the API server in the config. "+
			"Optional: If not set, `skiff config` will interactively prompt.")

	// Setup the commands for querying the contents of the user config.
	type getterSpec struct {
		use, short string
		fn         func(config.User) string
	}

	getters := []getterSpec{
		{
			use:   "get-token",
			short: "Get the currently configured API token",
			fn:    func(cfg config.User) string { return cfg.Token },
		},
		{
			use:   "get-api-server",
			short: "Get the currently configured API server",
			fn:    func(cfg config.User) string { return cfg.APIServer },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseUserConfig()
				if err != nil {
					err = errors.WithContext(err, "read config")
					util.HandleFatalError(err)
				}

				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig interactively fills in the user config, validates the token
// against the API server, and writes the config to disk.
func SetupConfig(cliOpts config.User) error {
	cfg, err := generateConfig(cliOpts)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	account, err := newClient(cfg.APIServer, cfg.Token).Whoami()
	if err != nil {
		if api.IsUnauthorized(err) {
			return errors.NewFriendlyError("The Skiff API server rejected the " +
				"token. Please double check it and run `skiff config` again.")
		}
		return errors.WithContext(err, "validate token")
	}
	analytics.SetAccount(account.Username)

	if err := writeUserConfig(cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path, err := config.GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "get user config path")
	}

	fmt.Fprintf(stdout, "Logged in as %q.\nWrote config to %s\n",
		account.Username, path)
	return nil
}

func tokenValidationFn(token string) (string, bool) {
	if strings.TrimSpace(token) == "" {
		return "The token can't be empty. Please enter the token from " +
			"your account page.", false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig interacts with the user to decide what the user's desired
// configuration is.
// It suggests reasonable defaults, and allows users to explicitly override
// them if desired.
func generateConfig(cliOpts config.User) (config.User, error) {
	currConfig, err := parseUserConfig()
	if err != nil {
		currConfig = config.User{}
		log.WithError(err).Debug("Failed to read current config")
	}

	cfg := cliOpts
	var prompts []prompt
	if cliOpts.APIServer == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter the Skiff API server to deploy to.\n" +
				"Most users should use the default public server.",
			prompt:        "API server",
			defaultAnswer: api.DefaultServer,
			currAnswer:    currConfig.APIServer,
			field:         &cfg.APIServer,
		})
	}

	if cliOpts.Token == "" {
		prompts = append(prompts, prompt{
			helpString: "Enter your Skiff API token.\n" +
				"You can create one on your account page under \"API tokens\".",
			prompt:       "API token",
			currAnswer:   currConfig.Token,
			field:        &cfg.Token,
			validationFn: tokenValidationFn,
		})
	}

	for _, prompt := range prompts {
		var resp string
		for {
			resp, err = promptUser(prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.User{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn == nil {
				break
			}

			validationErr, ok := prompt.validationFn(resp)
			if ok {
				break
			}

			fmt.Fprintln(stdout, validationErr)
		}

		*prompt.field = resp
	}

	return cfg, nil
}

func promptUser(helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Display a new line at the end to separate different fields to make it
	// look clearer.
	defer fmt.Fprintln(stdout)

	options := []string{}
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	options = append(options, "(Enter manually)")

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")

	stdinReader := bufio.NewReader(stdin)

	if nOptions := len(options); nOptions > 1 {
		// defaultAnswer or currAnswer exists.
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option = fmt.Sprintf("%s (recommended)", option)
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintln(stdout)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", nOptions)
			choiceStr, err := stdinReader.ReadString('\n')
			if err != nil {
				return "", err
			}

			var choice int
			choiceStr = strings.TrimRight(choiceStr, "\n")

			// Default to the first choice if user doesn't enter anything.
			if choiceStr == "" {
				choice = 1
			} else {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > nOptions {
					// Try again if the input is invalid.
					continue
				}
			}

			if choice == nOptions {
				// Enter manually.
				break
			}

			return options[choice-1], nil
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	resp, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimRight(resp, "\n"), nil
}
