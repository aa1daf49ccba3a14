package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"filesmanager/internal/config"
)

func newConfigCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set configuration",
	}

	cmd.AddCommand(newConfigGetCmd(state))
	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigGetCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get an effective config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsAllowedKey(key) {
				return fmt.Errorf("unknown key: %s (allowed: %v)", key, config.AllowedKeys())
			}
			value, err := state.cfg.Get(key)
			if err != nil {
				return err
			}
			return state.write(map[string]string{key: value}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, value)
				return err
			})
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a value in the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			return config.SetKey(path, args[0], args[1])
		},
	}
}
