package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tripletex-bridge/internal/logger"
	"tripletex-bridge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve invoice generation and verification over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	db, err := openDatabase()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	srv := server.NewServer(newInvoiceService(db))
	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	log.Info().Str("addr", addr).Msg("Starting HTTP server")
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigCh:
		log.Info().Msg("Signal received, shutting down")
	}

	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
