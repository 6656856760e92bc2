package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sprintpulse/internal/server"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reporting HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := server.New(cfg, trackerClient, store, rosters)

		httpSrv := &http.Server{
			Addr:    serveAddr,
			Handler: srv.Router,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", serveAddr).Msg("HTTP server listening")
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpSrv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address for the HTTP API")
	rootCmd.AddCommand(serveCmd)
}
