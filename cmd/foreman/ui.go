package main

import (
	"fmt"
	"net/http"

	"github.com/metalagman/foreman/internal/db"
	"github.com/metalagman/foreman/internal/web"
	"github.com/spf13/cobra"
)

func uiCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:          "ui",
		Short:        "Start the web UI over recorded runs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(".")
			if err != nil {
				return err
			}
			storeDB, _, closeFn, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			server, err := web.NewServer(db.NewStore(storeDB))
			if err != nil {
				return err
			}

			addr := fmt.Sprintf(":%d", port)
			fmt.Printf("Starting UI on http://localhost%s\n", addr)
			return http.ListenAndServe(addr, server.Routes())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	return cmd
}
