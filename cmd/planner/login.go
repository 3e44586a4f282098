package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Sign in and remember the session in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				password = os.Getenv("PLANNER_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("password required: pass --password or set PLANNER_PASSWORD")
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.api.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			path, err := saveLogin(cmd, sess.User.ID, sess.Token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (saved to %s)\n", sess.User.Email, path)
			return nil
		},
	}

	cmd.Flags().StringP("password", "p", "", "Account password")

	return cmd
}
