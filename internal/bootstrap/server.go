package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/Domenick1991/seatbooking/config"
)

// Run serves handler on cfg.HTTP.Address and blocks until ctx is canceled or
// the server fails. On cancellation in-flight requests get
// cfg.HTTP.ShutdownTimeout to finish.
func Run(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger hclog.Logger) error {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.Address, err)
	}
	return Serve(ctx, lis, cfg, handler, logger)
}

// Serve is Run on an existing listener.
func Serve(ctx context.Context, lis net.Listener, cfg config.HTTPConfig, handler http.Handler, logger hclog.Logger) error {
	httpServer := &http.Server{
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(lis) }()
	logger.Info("http server started", "address", lis.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
