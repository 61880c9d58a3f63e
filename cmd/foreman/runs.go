package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/metalagman/foreman/internal/db"
	"github.com/spf13/cobra"
)

var (
	styleRunID     = lipgloss.NewStyle().Bold(true)
	styleSucceeded = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	stylePartial   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleMuted     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "runs",
		Short:        "List recorded runs, newest first",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(".")
			if err != nil {
				return err
			}
			storeDB, _, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := db.NewStore(storeDB).ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s\n",
					styleRunID.Render(rec.RunID),
					statusStyle(rec.Status).Render(fmt.Sprintf("%-9s", rec.Status)),
					fmt.Sprintf("%d/%d", rec.SuccessfulTasks, rec.TotalTasks),
					styleMuted.Render(rec.Request),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "succeeded":
		return styleSucceeded
	case "partial":
		return stylePartial
	default:
		return styleFailed
	}
}
