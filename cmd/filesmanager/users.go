package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"filesmanager/internal/api"
)

// readPassword reads the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required on stdin")
	}
	return password, nil
}

func passwordFromStdin(cmd *cobra.Command, fromStdin bool) (string, error) {
	if !fromStdin {
		return "", fmt.Errorf("--password-stdin is required")
	}
	return readPassword(cmd.InOrStdin())
}

func newRegisterCmd(state *cliState) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create a user",
		Args:  requireExactlyArgs(1, "email is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFromStdin(cmd, fromStdin)
			if err != nil {
				return err
			}
			user, err := state.client().Register(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			return state.write(user, func(w io.Writer) error {
				return writeLines(w, fmt.Sprintf("created user %s (%s)", user.Email, user.ID))
			})
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newConnectCmd(state *cliState) *cobra.Command {
	var fromStdin bool

	cmd := &cobra.Command{
		Use:   "connect <email>",
		Short: "Log in and print a session token",
		Args:  requireExactlyArgs(1, "email is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordFromStdin(cmd, fromStdin)
			if err != nil {
				return err
			}
			token, err := state.client().Connect(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			return state.write(api.TokenResponse{Token: token}, func(w io.Writer) error {
				return writeLines(w, token)
			})
		},
	}

	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newDisconnectCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Revoke the current session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.requireToken(); err != nil {
				return err
			}
			return state.client().Disconnect(cmd.Context())
		},
	}
}

func newMeCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the user behind the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.requireToken(); err != nil {
				return err
			}
			user, err := state.client().Me(cmd.Context())
			if err != nil {
				return err
			}
			return state.write(user, func(w io.Writer) error {
				return writeLines(w, fmt.Sprintf("id: %s", user.ID), fmt.Sprintf("email: %s", user.Email))
			})
		},
	}
}
