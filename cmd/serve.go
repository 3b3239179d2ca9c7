package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-order-aggregator/internal/server"
)

var listenAddr string

// serveCmd starts the HTTP server until SIGINT or SIGTERM.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve GET /test and POST /handle over HTTP",
	Long: `Start the HTTP server.

The listen address comes from --addr, ORDERS_LISTEN_ADDR, PORT or listen_addr,
in that order. The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(false)
		if err != nil {
			return err
		}
		defer rt.close()

		if listenAddr != "" {
			rt.cfg.ListenAddr = listenAddr
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(rt.cfg, rt.parser, rt.logger).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address, e.g. :8080")
}
