package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/metalagman/foreman/internal/architect"
	"github.com/metalagman/foreman/internal/builder"
	"github.com/metalagman/foreman/internal/coordinator"
	"github.com/metalagman/foreman/internal/db"
	"github.com/metalagman/foreman/internal/harness"
	"github.com/metalagman/foreman/internal/model"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "run <request>",
		Short:        "Plan a change request and work through every task",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			request := args[0]
			ctx := cmd.Context()

			cfg, err := loadConfig(".")
			if err != nil {
				return err
			}
			storeDB, repoRoot, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			planning, implementation, err := buildCompleters(ctx, cfg)
			if err != nil {
				return err
			}
			index := buildKnowledge(repoRoot, cfg)

			architectOpts := []architect.Option{}
			builderOpts := []builder.Option{builder.WithSelfTests(cfg.SelfTests)}
			if cfg.Knowledge.TopK > 0 || cfg.Knowledge.MinScore > 0 {
				architectOpts = append(architectOpts, architect.WithRetrieval(cfg.Knowledge.TopK, cfg.Knowledge.MinScore))
				builderOpts = append(builderOpts, builder.WithRetrieval(cfg.Knowledge.TopK, cfg.Knowledge.MinScore))
			}

			store := db.NewStore(storeDB)
			runID := db.NewRunID()
			if err := store.CreateRun(ctx, runID, request); err != nil {
				return err
			}

			coord := coordinator.New(
				architect.New(planning, index, architectOpts...),
				builder.New(implementation, index, builderOpts...),
				harness.New(),
				coordinator.WithMaxRetries(cfg.Budgets.MaxRetries),
				coordinator.WithParallelism(cfg.Budgets.Parallelism),
				coordinator.WithEventSink(store.NewEventRecorder(runID)),
			)

			summary, err := coord.ProcessRequest(ctx, request)
			if err != nil {
				return err
			}
			if err := store.FinishRun(ctx, runID, summary); err != nil {
				log.Error().Err(err).Str("run_id", runID).Msg("run result not persisted")
			}

			out, err := renderSummary(runID, summary)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	return cmd
}

// renderSummary formats the run summary as markdown and renders it for the
// terminal.
func renderSummary(runID string, summary model.RunSummary) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Run %s\n\n", runID)
	fmt.Fprintf(&b, "**Request:** %s\n\n", summary.Request)
	fmt.Fprintf(&b, "**Result:** %d/%d tasks succeeded\n\n", summary.SuccessfulTasks, summary.TotalTasks)

	for _, result := range summary.Results {
		status := "ok"
		if !result.Success {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "## Task %d: %s [%s]\n\n", result.TaskID, result.Description, status)
		fmt.Fprintf(&b, "- target: `%s`\n- attempts: %d\n", result.TargetLocation, result.AttemptsUsed)
		if result.FailureReason != "" {
			fmt.Fprintf(&b, "- reason: %s\n", result.FailureReason)
		}
		if result.Success && result.Implementation.Code != "" {
			fmt.Fprintf(&b, "\n```python\n%s\n```\n", result.Implementation.Code)
		}
		b.WriteString("\n")
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		// Styled output is cosmetic; fall back to plain markdown.
		return b.String(), nil
	}
	out, err := renderer.Render(b.String())
	if err != nil {
		return b.String(), nil
	}
	return out, nil
}
