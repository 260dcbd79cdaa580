package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/partsbridge/marketplace/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Listen binds host:port. When the port is taken it tries the next one, up
// to retries more times.
func Listen(ctx context.Context, host, port string, retries int, logg *logger.Logger) (net.Listener, error) {
	base, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", port, err)
	}
	if retries < 0 || base == 0 {
		retries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		addr := net.JoinHostPort(host, strconv.Itoa(base+attempt))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		lastErr = err
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, err
		}
		if logg != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{"addr": addr, "attempt": attempt + 1}), "address in use, trying next port")
		}
	}
	return nil, fmt.Errorf("no free port after %d attempts: %w", retries+1, lastErr)
}

// Serve runs srv on ln until ctx is cancelled, then drains in-flight
// requests.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, logg *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	if logg != nil {
		logg.Info(context.Background(), "shutting down http server")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
