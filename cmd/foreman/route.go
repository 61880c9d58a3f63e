package main

import (
	"fmt"

	"github.com/metalagman/foreman/internal/router"
	"github.com/spf13/cobra"
)

func routeCmd() *cobra.Command {
	var send bool
	cmd := &cobra.Command{
		Use:          "route <text>",
		Short:        "Classify a request and show which model role would handle it",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			taskType := router.Classify(args[0])
			role := "planning"
			if taskType == router.TaskImplementing || taskType == router.TaskTesting {
				role = "implementation"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "type: %s\nrole: %s\n", taskType, role)

			if !send {
				return nil
			}
			cfg, err := loadConfig(".")
			if err != nil {
				return err
			}
			planning, implementation, err := buildCompleters(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			out, err := router.New(planning, implementation).Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&send, "send", false, "send the text to the routed model and print the response")
	return cmd
}
