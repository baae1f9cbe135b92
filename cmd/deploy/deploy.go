package deploy

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skiff-run/skiff/cmd/util"
	"github.com/skiff-run/skiff/pkg/analytics"
	"github.com/skiff-run/skiff/pkg/api"
	"github.com/skiff-run/skiff/pkg/config"
	"github.com/skiff-run/skiff/pkg/deploy"
	"github.com/skiff-run/skiff/pkg/errors"
)

// Mocked for unit testing.
var (
	newClient          = api.New
	parseUserConfig    = config.ParseUser
	parseProjectConfig = config.ParseProject
	fromEnv            = config.FromEnv
	runDeploy          = deploy.Run
)

type flags struct {
	subdomain     string
	dir           string
	source        string
	includeHidden bool
	concurrency   int
	watch         bool
	token         string
	apiServer     string
}

// New creates a new `deploy` command.
func New() *cobra.Command {
	var cliOpts flags
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload a directory and point a subdomain at it",
		Long: "Upload a local directory to your Skiff filesystem and bind a\n" +
			"public subdomain to the uploaded directory.\n\n" +
			"Settings may come from flags, SKIFF_* environment variables, the\n" +
			"project's skiff.yaml, or the user config, in that order.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(cliOpts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVarP(&cliOpts.subdomain, "subdomain", "s", "",
		"The subdomain that should serve the deployment.")
	cmd.Flags().StringVarP(&cliOpts.dir, "dir", "d", "",
		"The remote directory to upload into.")
	cmd.Flags().StringVar(&cliOpts.source, "source", "",
		"The local file or directory to upload. Defaults to the current directory.")
	cmd.Flags().BoolVar(&cliOpts.includeHidden, "include-hidden", false,
		"Upload files and directories whose name starts with a dot.")
	cmd.Flags().IntVar(&cliOpts.concurrency, "concurrency", 0,
		fmt.Sprintf("The maximum number of parallel uploads. Defaults to %d.",
			deploy.DefaultConcurrency))
	cmd.Flags().BoolVar(&cliOpts.watch, "watch", false,
		"Keep running after the deploy, and redeploy whenever the source changes.")
	cmd.Flags().StringVar(&cliOpts.token, "token", "",
		"The Skiff API token. Defaults to the token in the user config.")
	cmd.Flags().StringVar(&cliOpts.apiServer, "api-server", "",
		"The Skiff API server. Defaults to the server in the user config.")
	return cmd
}

func run(cliOpts flags) error {
	client, params, err := resolve(cliOpts)
	if err != nil {
		return err
	}

	result, err := runDeploy(client, params)
	if err != nil {
		return err
	}
	printResult(result)

	analytics.Log.WithFields(log.Fields{
		"subdomain": params.Subdomain,
		"uploaded":  result.UploadedFiles,
		"action":    string(result.Action),
	}).Info("Deployed")

	if !cliOpts.watch {
		return nil
	}
	return watchLoop(client, params)
}

// resolve merges the configuration sources into the deployment parameters
// and the API client. Precedence, highest first: flags, SKIFF_* environment
// variables, the project's skiff.yaml, the user config.
func resolve(cliOpts flags) (api.Client, deploy.Params, error) {
	env, err := fromEnv()
	if err != nil {
		return nil, deploy.Params{}, errors.WithContext(err, "read environment")
	}

	project, err := parseProjectConfig(".")
	if err != nil {
		return nil, deploy.Params{}, errors.WithContext(err, "parse project config")
	}

	// The user config is optional as long as the token comes from a flag or
	// the environment.
	var user config.User
	if parsed, err := parseUserConfig(); err == nil {
		user = parsed
	} else {
		log.WithError(err).Debug("Failed to parse user config")
	}

	token := strings.TrimSpace(firstNonEmpty(cliOpts.token, env.Token, user.Token))
	if token == "" {
		return nil, deploy.Params{}, errors.NewFriendlyError(
			"No Skiff token is configured.\n" +
				"Run `skiff config` to set one up, or pass one with --token " +
				"or the SKIFF_TOKEN environment variable.")
	}

	params := deploy.Params{
		Subdomain:     firstNonEmpty(cliOpts.subdomain, env.Subdomain, project.Subdomain),
		RemoteDir:     firstNonEmpty(cliOpts.dir, env.Dir, project.Dir),
		Source:        firstNonEmpty(cliOpts.source, env.Source, project.Source),
		IncludeHidden: cliOpts.includeHidden || env.IncludeHidden || project.IncludeHidden,
		Concurrency:   firstPositive(cliOpts.concurrency, env.Concurrency, project.Concurrency),
	}

	server := firstNonEmpty(cliOpts.apiServer, env.APIServer, user.APIServer)
	return newClient(server, token), params, nil
}

func firstNonEmpty(vals ...string) string {
	for _, val := range vals {
		if val != "" {
			return val
		}
	}
	return ""
}

func firstPositive(vals ...int) int {
	for _, val := range vals {
		if val > 0 {
			return val
		}
	}
	return 0
}

func printResult(result deploy.Result) {
	fmt.Printf("Uploaded %d files.\n", result.UploadedFiles)
	switch result.Action {
	case deploy.BindingCreated:
		fmt.Println("Created the subdomain binding.")
	case deploy.BindingUpdated:
		fmt.Println("Updated the subdomain binding.")
	case deploy.BindingUnchanged:
		fmt.Println("The subdomain binding is already up to date.")
	}
	fmt.Printf("Your site is live at %s\n", result.URL)
}
