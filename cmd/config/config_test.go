package config

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skiff-run/skiff/pkg/api"
	apiMocks "github.com/skiff-run/skiff/pkg/api/mocks"
	"github.com/skiff-run/skiff/pkg/config"
	"github.com/skiff-run/skiff/pkg/errors"
)

func TestPromptUser(t *testing.T) {
	tests := []struct {
		name                                                 string
		helpString, prompt, defaultAnswer, currAnswer, stdin string
		expPrompt, expResult                                 string
	}{
		{
			name:          "No default or current answer",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "",
			currAnswer:    "",
			stdin:         "user input\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"Please enter manually: \n",
			expResult: "user input",
		},
		{
			name:          "Default answer only, chose default",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			currAnswer:    "",
			stdin:         "1\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: \n",
			expResult: "default answer",
		},
		{
			name:          "Default answer only, enter manually",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			currAnswer:    "",
			stdin: "2\n" +
				"user input\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: " +
				"Please enter manually: \n",
			expResult: "user input",
		},
		{
			name:          "Distinct default and current answers, chose current",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			currAnswer:    "current answer",
			stdin:         "2\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. current answer\n" +
				"\t3. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-3]: \n",
			expResult: "current answer",
		},
		{
			name:          "Empty input defaults to the first choice",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			currAnswer:    "",
			stdin:         "\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: \n",
			expResult: "default answer",
		},
		{
			name:          "Invalid choice is re-prompted",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			currAnswer:    "",
			stdin: "9\n" +
				"1\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: " +
				"Please choose one [1-2]: \n",
			expResult: "default answer",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			stdout = out
			stdin = strings.NewReader(test.stdin)

			result, err := promptUser(test.helpString, test.prompt,
				test.defaultAnswer, test.currAnswer)
			assert.NoError(t, err)
			assert.Equal(t, test.expResult, result)
			assert.Equal(t, test.expPrompt, out.String())
		})
	}
}

func TestGenerateConfig(t *testing.T) {
	tests := []struct {
		name                string
		cliOpts             config.User
		mockParseUserConfig func() (config.User, error)
		inputs              []string
		expConfig           config.User
	}{
		{
			name: "No existing config",
			mockParseUserConfig: func() (config.User, error) {
				return config.User{}, errors.New("no config")
			},
			// Choose the default API server, then enter a token manually.
			inputs: []string{"1\n", "secret-token\n"},
			expConfig: config.User{
				APIServer: api.DefaultServer,
				Token:     "secret-token",
			},
		},
		{
			name: "Existing config offered as options",
			mockParseUserConfig: func() (config.User, error) {
				return config.User{
					APIServer: "https://api.example.com",
					Token:     "old-token",
				}, nil
			},
			// Choose the current API server (option 2, after the default),
			// then the current token (option 1, since tokens have no
			// default).
			inputs: []string{"2\n", "1\n"},
			expConfig: config.User{
				APIServer: "https://api.example.com",
				Token:     "old-token",
			},
		},
		{
			name: "All fields set explicitly with CLI flags",
			cliOpts: config.User{
				APIServer: "https://api.example.com",
				Token:     "flag-token",
			},
			mockParseUserConfig: func() (config.User, error) {
				return config.User{}, errors.New("no config")
			},
			expConfig: config.User{
				APIServer: "https://api.example.com",
				Token:     "flag-token",
			},
		},
	}

	type generateConfigResult struct {
		cfg config.User
		err error
	}

	for _, test := range tests {
		test := test

		// Setup mocks.
		stdout = bytes.NewBuffer(nil)
		stdinReader, stdinWriter := io.Pipe()
		stdin = stdinReader
		parseUserConfig = test.mockParseUserConfig

		// Start the generateConfig function.
		resultChan := make(chan generateConfigResult)
		go func() {
			resp, err := generateConfig(test.cliOpts)
			resultChan <- generateConfigResult{resp, err}
		}()

		// Provide the user input.
		for _, input := range test.inputs {
			fmt.Fprint(stdinWriter, input)
		}

		result := <-resultChan
		assert.NoError(t, result.err, test.name)
		assert.Equal(t, test.expConfig, result.cfg, test.name)
	}
}

func TestSetupConfigRejectedToken(t *testing.T) {
	parseUserConfig = func() (config.User, error) {
		return config.User{}, errors.New("no config")
	}
	stdout = &bytes.Buffer{}
	stdin = strings.NewReader("")

	client := &apiMocks.Client{}
	client.On("Whoami").Return(api.Account{}, api.Error{
		Code:    "invalid_token",
		Message: "bad token",
		Status:  401,
	})
	newClient = func(_, _ string) api.Client { return client }

	err := SetupConfig(config.User{
		APIServer: "https://api.example.com",
		Token:     "bad-token",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rejected the token")
}

func TestSetupConfigWrites(t *testing.T) {
	parseUserConfig = func() (config.User, error) {
		return config.User{}, errors.New("no config")
	}
	stdout = &bytes.Buffer{}
	stdin = strings.NewReader("")

	client := &apiMocks.Client{}
	client.On("Whoami").Return(api.Account{Username: "test-user"}, nil)
	newClient = func(_, _ string) api.Client { return client }

	var written config.User
	writeUserConfig = func(cfg config.User) error {
		written = cfg
		return nil
	}

	cliOpts := config.User{
		APIServer: "https://api.example.com",
		Token:     "good-token",
	}
	assert.NoError(t, SetupConfig(cliOpts))
	assert.Equal(t, cliOpts, written)
}
