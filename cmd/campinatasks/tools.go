package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"campina-tasks/internal/auth"
	"campina-tasks/internal/calendar"
	"campina-tasks/internal/config"
	"campina-tasks/internal/deadline"
	"campina-tasks/internal/repository"
	"campina-tasks/internal/service"
)

// hashPasswordCmd implements 'campinatasks hash-password'.
func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash to use as ADMIN_PASSWORD_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password := ""
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// urgentCmd implements 'campinatasks urgent'.
func urgentCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "urgent",
		Short: "List overdue and soon-due tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadBase()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if !cmd.Flags().Changed("days") {
				days = cfg.NotifyLookaheadDays
			}
			if days < 0 {
				return fmt.Errorf("--days must not be negative")
			}

			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			areas, err := repository.NewAreaRepository(db).List(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := repository.NewTaskRepository(db).List(cmd.Context())
			if err != nil {
				return err
			}

			urgent, err := deadline.Urgent(tasks, cfg.Now(), days)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			out := cmd.OutOrStdout()
			if len(urgent) == 0 {
				fmt.Fprintln(out, "no urgent tasks")
				return nil
			}
			for _, item := range urgent {
				fmt.Fprintf(out, "%-12s #%-4d %s  %-4s %s [%s]\n",
					item.Urgency,
					item.Task.ID,
					deadline.DatePrefix(item.Task.Deadline),
					item.Task.Priority,
					item.Task.Title,
					service.AreaName(areas, item.Task.AreaID),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Lookahead window in days (default NOTIFY_LOOKAHEAD_DAYS)")
	return cmd
}

// calendarCmd implements 'campinatasks calendar'.
func calendarCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month grid of deadlines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadBase()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			now := cfg.Now()
			view := calendar.NewView(now)
			if month != "" {
				if view, err = calendar.ParseMonth(month); err != nil {
					return err
				}
			}

			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			taskSvc := service.NewTaskService(repository.NewTaskRepository(db), repository.NewAreaRepository(db))
			page, err := taskSvc.Calendar(cmd.Context(), view, now)
			if err != nil {
				return err
			}
			printMonth(cmd, page.Month)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month to show as YYYY-MM (default current month)")
	return cmd
}

// printMonth draws a Sunday-first grid. Days with open tasks carry '*', days with
// overdue tasks '!'.
func printMonth(cmd *cobra.Command, month calendar.Month) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%04d-%02d\n", month.Year, month.Month+1)
	fmt.Fprintln(out, " Su  Mo  Tu  We  Th  Fr  Sa")
	for _, week := range month.Weeks() {
		var line strings.Builder
		for _, d := range week {
			if d == 0 {
				line.WriteString("    ")
				continue
			}
			mark := " "
			if day, ok := month.Day(d); ok {
				switch {
				case day.HasOverdue:
					mark = "!"
				case day.HasTask:
					mark = "*"
				}
			}
			fmt.Fprintf(&line, "%3d%s", d, mark)
		}
		fmt.Fprintln(out, strings.TrimRight(line.String(), " "))
	}

	for _, day := range month.Days {
		for _, task := range day.Tasks {
			fmt.Fprintf(out, "%s  #%-4d %-11s %s\n", day.Date, task.ID, task.Status.Label(), task.Title)
		}
	}
}
