package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zephyrtronium/exprcalc/internal/server"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve expression evaluation over HTTP",
		Long: `Serve starts an HTTP server with the endpoints
  POST /v1/evaluate  {"expression": "...", "variables": {...}}
  GET  /v1/functions
  GET  /healthz

Variables given with -v or --vars-file are available to every request.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger(cmd, f.logLevel)
			if err != nil {
				return err
			}
			opts, err := contextOptions(f)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(log, opts...).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}
