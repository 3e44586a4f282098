package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "planner",
		Short:         "Plan today's habits from the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", defaultConfigPath(), "Config file")
	flags.String("server", "", "Planner API base URL")
	flags.String("user", "", "User id")
	flags.String("token", "", "Bearer token from login")
	flags.String("cache", "", "Local cache database")
	flags.String("timezone", "", "Timezone for calendar days (default local)")
	flags.BoolP("verbose", "v", false, "Log sync details to stderr")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(toggleCmd())
	rootCmd.AddCommand(rmCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(applyCmd())

	return rootCmd
}
