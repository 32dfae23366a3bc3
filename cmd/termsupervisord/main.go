// Command termsupervisord runs the HTTP/WebSocket front door over a
// supervisor.Manager: the runnable binary wiring component E (the HTTP
// front door) to components A/B (PTY handle + process supervisor).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/relayterm/termcore/internal/httpapi"
	"github.com/relayterm/termcore/supervisor"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// godotenv is CLI-level convenience config for local development
	// (listen address / log level / static dir overrides); distinct from
	// the supervisor library's own in-process supervisor.Config surface.
	_ = godotenv.Load()

	var (
		listenAddr = flag.String("listen", envOr("RELAYTERM_LISTEN_ADDR", "127.0.0.1:7417"), "HTTP listen address")
		staticDir  = flag.String("static-dir", envOr("RELAYTERM_STATIC_DIR", ""), "directory containing a built SPA bundle to serve at /")
		logLevel   = flag.String("log-level", envOr("RELAYTERM_LOG_LEVEL", "info"), "debug|info|warn|error")
	)
	flag.Parse()

	logrusLogger := logrus.New()
	logrusLogger.SetLevel(parseLogrusLevel(*logLevel))
	logrusLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	logger := httpapi.NewLogrusAdapter(logrusLogger)

	manager := supervisor.NewManager(supervisor.Config{
		Logger: logger,
	})

	server := httpapi.New(httpapi.Config{
		StaticDir: *staticDir,
		Manager:   manager,
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logrusLogger.WithField("addr", *listenAddr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen and serve: %w", err)
	case <-sigCh:
		logrusLogger.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logrusLogger.WithField("error", err).Warn("http shutdown did not complete cleanly")
	}

	server.Close()
	if err := manager.KillAll(); err != nil {
		logrusLogger.WithField("error", err).Warn("kill_all did not complete cleanly")
	}

	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLogrusLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
