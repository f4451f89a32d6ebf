package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration and manage the stored TMDB token",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <token>",
	Short: "Store the TMDB bearer token in the settings database",
	Long: `Set-token stores the TMDB API read access token. It takes precedence
over the token from the config file or environment. An empty token ("")
removes the stored value. With settings.passphrase configured the token is
encrypted at rest.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, appOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		if a.store == nil {
			return errors.New("settings database is unavailable")
		}
		if err := a.store.SetToken(cmd.Context(), args[0]); err != nil {
			return err
		}

		if args[0] == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "Stored token removed")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored")
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetTokenCmd)

	rootCmd.AddCommand(configCmd)
}
