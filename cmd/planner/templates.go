package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List day templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			templates, err := a.store.Templates(cmd.Context())
			if err != nil {
				return err
			}
			a.warnOffline(cmd)

			out := cmd.OutOrStdout()
			for _, tpl := range templates {
				fmt.Fprintf(out, "%s %s  %s\n", tpl.Icon, tpl.Title, tpl.ID)
				if tpl.Description != "" {
					fmt.Fprintf(out, "    %s\n", tpl.Description)
				}
				for _, task := range tpl.Tasks {
					fmt.Fprintf(out, "    %s %s\n", task.ScheduledTime, task.Title)
				}
			}
			return nil
		},
	}
}

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply [template-id]",
		Short: "Add a template's tasks to today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.store.ApplyTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d task(s) for today\n", res.Count)
			return nil
		},
	}
}
