package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manages the stored login session.",
}

var sessionCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Checks whether the stored session is still logged in.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		service, err := newService(cfg)
		if err != nil {
			return err
		}

		valid, err := service.CheckSession(cmd.Context())
		if err != nil {
			return err
		}
		if !valid {
			fmt.Fprintf(cmd.OutOrStdout(), "No valid session at %s, the next scan will ask you to log in.\n", cfg.StatePath)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session at %s is valid.\n", cfg.StatePath)
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Deletes the stored session.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		service, err := newService(cfg)
		if err != nil {
			return err
		}
		err = service.ClearSession()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s.\n", cfg.StatePath)
		return nil
	},
}

func init() {
	sessionCheckCmd.Flags().BoolVar(&scanOpts.headful, "headful", false, "Show every navigation.")
	sessionCmd.AddCommand(sessionCheckCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}
