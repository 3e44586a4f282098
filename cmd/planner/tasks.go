package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"habit-planner/internal/client"
	"habit-planner/internal/model"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks for a day (today by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			all, _ := cmd.Flags().GetBool("all")
			var tasks []model.Task
			if all {
				tasks, err = a.store.FetchTasks(cmd.Context())
			} else {
				raw, _ := cmd.Flags().GetString("date")
				day, derr := a.parseDay(raw)
				if derr != nil {
					return derr
				}
				tasks, err = a.store.FetchTasksOn(cmd.Context(), day)
			}
			if err != nil {
				return err
			}
			a.warnOffline(cmd)

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks.")
				return nil
			}
			for _, t := range tasks {
				printTask(out, t, all, a)
			}
			return nil
		},
	}

	cmd.Flags().StringP("date", "d", "", "Day to show: YYYY-MM-DD, today or tomorrow")
	cmd.Flags().BoolP("all", "a", false, "Show every task")

	return cmd
}

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			rawDate, _ := cmd.Flags().GetString("date")
			day, err := a.parseDay(rawDate)
			if err != nil {
				return err
			}
			draft := client.TaskDraft{Title: strings.Join(args, " "), ScheduledDate: day}
			if at, _ := cmd.Flags().GetString("time"); at != "" {
				draft.ScheduledTime = &at
			}
			quiet, _ := cmd.Flags().GetBool("quiet")
			draft.NotificationsEnabled = !quiet

			task, err := a.store.AddTask(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringP("date", "d", "", "Day: YYYY-MM-DD, today or tomorrow")
	cmd.Flags().StringP("time", "t", "", "Time of day as HH:MM")
	cmd.Flags().BoolP("quiet", "q", false, "Disable reminders for this task")

	return cmd
}

func editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit [task-id]",
		Short: "Change a task's title, day, time or reminders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			current, err := a.findTask(cmd, args[0])
			if err != nil {
				return err
			}
			draft := client.TaskDraft{
				Title:                current.Title,
				ScheduledDate:        current.ScheduledDate,
				ScheduledTime:        current.ScheduledTime,
				NotificationsEnabled: current.IsNotificationEnabled,
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				draft.Title, _ = flags.GetString("title")
			}
			if flags.Changed("date") {
				raw, _ := flags.GetString("date")
				if draft.ScheduledDate, err = a.parseDay(raw); err != nil {
					return err
				}
			}
			if flags.Changed("time") {
				at, _ := flags.GetString("time")
				draft.ScheduledTime = &at
			}
			if flags.Changed("notify") {
				draft.NotificationsEnabled, _ = flags.GetBool("notify")
			}

			task, err := a.store.UpdateTask(cmd.Context(), current.ID, draft)
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), *task, true, a)
			return nil
		},
	}

	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("date", "d", "", "New day: YYYY-MM-DD, today or tomorrow")
	cmd.Flags().StringP("time", "t", "", "New time as HH:MM, empty to clear")
	cmd.Flags().Bool("notify", true, "Enable reminders")

	return cmd
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "toggle [task-id]",
		Aliases: []string{"done"},
		Short:   "Mark a task done, or not done again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			task, err := a.store.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), *task, false, a)
			return nil
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm [task-id...]",
		Short: "Delete tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.store.DeleteTasks(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d task(s)\n", n)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show streaks and completion rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			a.warnOffline(cmd)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daily streak:  %d\n", stats.DailyStreak)
			fmt.Fprintf(out, "Weekly streak: %d\n", stats.WeeklyStreak)
			fmt.Fprintf(out, "Completed:     %d/%d (%d%%)\n", stats.CompletedTasks, stats.TotalTasks, stats.CompletionRate)
			fmt.Fprintf(out, "Best day:      %s\n", stats.BestDay)
			return nil
		},
	}
}

// findTask looks in the cache first, then asks the server.
func (a *app) findTask(cmd *cobra.Command, id string) (*model.Task, error) {
	for _, load := range []func() ([]model.Task, error){
		func() ([]model.Task, error) { return a.store.LocalTasks(cmd.Context()) },
		func() ([]model.Task, error) { return a.store.FetchTasks(cmd.Context()) },
	} {
		tasks, err := load()
		if err != nil {
			return nil, err
		}
		for i := range tasks {
			if tasks[i].ID == id {
				return &tasks[i], nil
			}
		}
	}
	return nil, fmt.Errorf("task %s not found", id)
}

func (a *app) warnOffline(cmd *cobra.Command) {
	if a.store.Offline() {
		fmt.Fprintln(cmd.ErrOrStderr(), "(server unreachable, showing cached data)")
	}
}

func printTask(out io.Writer, t model.Task, withDate bool, a *app) {
	mark := " "
	if t.IsCompleted {
		mark = "x"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", mark)
	if withDate {
		b.WriteString(t.ScheduledDate.In(a.loc).Format("2006-01-02") + " ")
	}
	if t.ScheduledTime != nil {
		b.WriteString(*t.ScheduledTime + " ")
	}
	b.WriteString(t.Title)
	if t.RolledCount > 0 {
		fmt.Fprintf(&b, " (rolled %dx)", t.RolledCount)
	}
	fmt.Fprintf(&b, "  %s", t.ID)
	fmt.Fprintln(out, b.String())
}
