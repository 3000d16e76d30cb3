// Package serve implements the HTTP estimate API command
package serve

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ndjaka/mineral-tax/cmd/root"
	"ndjaka/mineral-tax/internal/api"
	"ndjaka/mineral-tax/internal/container"
	"ndjaka/mineral-tax/internal/logging"

	"github.com/spf13/cobra"
)

var address string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rate lookups and reimbursement estimates over HTTP",
	Long: `Start the HTTP estimate API.

Endpoints:
  GET  /healthz
  GET  /v1/rate?date=2026-01-15&activity=agriculture_with_direct&fuel=diesel
  POST /v1/reimbursements
  GET  /metrics

Example:
  mineral-tax serve --addr :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.GetContainer()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Run(ctx, c, address)
	},
}

func init() {
	Cmd.Flags().StringVar(&address, "addr", "", "Listen address (default from server.address)")
}

// Run serves until ctx is cancelled.
func Run(ctx context.Context, c *container.Container, addr string) error {
	srv := NewServer(c, addr)
	return api.ListenAndServe(ctx, srv, c.GetLogger())
}

// NewServer builds the configured server. addr overrides server.address
// when set.
func NewServer(c *container.Container, addr string) *http.Server {
	cfg := c.GetServerConfig()
	if addr != "" {
		cfg.Address = addr
	}

	srv := api.NewServer(cfg, c.NewAPIHandler().Routes())
	if adapter, ok := c.GetLogger().(*logging.LogrusAdapter); ok {
		srv.ErrorLog = log.New(adapter.Writer(), "", 0)
	}
	return srv
}
