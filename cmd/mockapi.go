package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clientflow/clientflow/internal/log"
	"github.com/clientflow/clientflow/internal/mockapi"
)

var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Serve a development client collection",
	Long: `Serve an in-memory client collection and postal code table over HTTP.

The server answers GET/POST /clients, GET/PUT/DELETE /clients/{id} and
GET /cep/{code}. Data lives in memory and is lost on exit.

Example:
  clientflow mock-api                          # Serve on localhost:4000
  clientflow mock-api --addr :8080             # Serve on port 8080
  clientflow mock-api --seed testdata/seed.yaml --latency 500ms

Point the TUI at it:
  clientflow --api-url http://localhost:4000 --lookup-url http://localhost:4000/cep`,
	RunE: runMockAPI,
}

var (
	mockAPIAddr    string
	mockAPISeed    string
	mockAPILatency time.Duration
)

func init() {
	rootCmd.AddCommand(mockAPICmd)

	mockAPICmd.Flags().StringVar(&mockAPIAddr, "addr", "localhost:4000", "Address to listen on")
	mockAPICmd.Flags().StringVar(&mockAPISeed, "seed", "", "YAML seed file (default: built-in sample data)")
	mockAPICmd.Flags().DurationVar(&mockAPILatency, "latency", 0, "Delay added to every response")
}

func runMockAPI(cmd *cobra.Command, _ []string) error {
	log.InitWriter(cmd.ErrOrStderr())

	seed := mockapi.DefaultSeed()
	if mockAPISeed != "" {
		var err error
		if seed, err = mockapi.LoadSeed(mockAPISeed); err != nil {
			return err
		}
	}

	provider, err := newTracingProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	server := mockapi.New(seed,
		mockapi.WithLatency(mockAPILatency),
		mockapi.WithTracer(provider.Tracer()),
	)

	ln, err := net.Listen("tcp", mockAPIAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", mockAPIAddr, err)
	}
	srv := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Mock API serving %d clients on http://%s\n", len(seed.Clients), ln.Addr())
	_, _ = fmt.Fprintln(out, "Press Ctrl+C to stop")

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		_, _ = fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorErr(log.CatMockAPI, "Error stopping mock API", err)
	}
	return nil
}
