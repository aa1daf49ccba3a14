package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"filesmanager/internal/api"
	"filesmanager/internal/config"
	"filesmanager/internal/format"
)

const tokenEnvKey = "FILES_MANAGER_TOKEN"

// cliState holds values resolved from persistent flags.
type cliState struct {
	cfg       *config.Config
	logLevel  string
	output    string
	apiURL    string
	token     string
	formatter format.Formatter
	stdout    io.Writer
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	state := &cliState{cfg: cfg, stdout: os.Stdout}

	cmd := &cobra.Command{
		Use:           "filesmanager",
		Short:         "Files manager: users, files, folders and image thumbnails over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.init(cmd)
		},
	}

	cmd.Version = version
	flags := cmd.PersistentFlags()
	flags.StringVar(&state.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVarP(&state.output, "output", "o", "text", "output format (text, json, yaml)")
	flags.StringVar(&state.apiURL, "api-url", "", "API base URL (default from config)")
	flags.StringVar(&state.token, "token", os.Getenv(tokenEnvKey), "session token (default $"+tokenEnvKey+")")

	cmd.AddCommand(
		newSrvCmd(state),
		newWorkerCmd(state),
		newMigrateCmd(state),
		newConfigCmd(state),
		newRegisterCmd(state),
		newConnectCmd(state),
		newDisconnectCmd(state),
		newMeCmd(state),
		newUploadCmd(state),
		newMkdirCmd(state),
		newListCmd(state),
		newShowCmd(state),
		newPublishCmd(state, true),
		newPublishCmd(state, false),
		newDownloadCmd(state),
		newStatusCmd(state),
		newStatsCmd(state),
	)

	return cmd
}

func (s *cliState) init(cmd *cobra.Command) error {
	if s.cfg == nil {
		return fmt.Errorf("config not initialized")
	}
	warning, err := configureLoggerForCLI(s.logLevel, s.cfg.LogLevel)
	if err != nil {
		return err
	}
	if warning != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), warning)
	}

	formatter, err := format.Structured(s.output)
	if err != nil {
		return err
	}
	s.formatter = formatter
	s.stdout = cmd.OutOrStdout()
	return nil
}

func (s *cliState) baseURL() string {
	if strings.TrimSpace(s.apiURL) != "" {
		return s.apiURL
	}
	return s.cfg.BaseURL()
}

func (s *cliState) client() *api.Client {
	client := api.NewClient(s.baseURL())
	client.SetToken(s.token)
	return client
}

func (s *cliState) requireToken() error {
	if strings.TrimSpace(s.token) == "" {
		return fmt.Errorf("a session token is required; run `filesmanager connect` and pass --token or set %s", tokenEnvKey)
	}
	return nil
}
