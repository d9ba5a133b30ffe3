package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/deckbrief/adapter"
	"github.com/pithecene-io/deckbrief/adapter/redis"
	"github.com/pithecene-io/deckbrief/adapter/webhook"
	"github.com/pithecene-io/deckbrief/config"
	"github.com/pithecene-io/deckbrief/iox"
	"github.com/pithecene-io/deckbrief/log"
	"github.com/pithecene-io/deckbrief/metrics"
	"github.com/pithecene-io/deckbrief/runtime"
	"github.com/pithecene-io/deckbrief/server"
	"github.com/pithecene-io/deckbrief/summarize"
)

// ServeCommand returns the serve command.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the summary server",
		Flags:  []cli.Flag{ConfigFlag},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}

	logger := log.NewLogger()
	collector := metrics.NewCollector()

	summarizer := summarize.NewOpenAISummarizer(cfg.Provider.BaseURL, cfg.Provider.APIKey, cfg.Provider.Model)
	orch := runtime.NewOrchestrator(summarizer, logger, collector)

	notifier, err := buildNotifier(cfg.Notify)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid notify configuration: %v", err), 1)
	}
	if notifier != nil {
		defer iox.DiscardClose(notifier)
	}

	srv := server.New(cfg, orch, logger, collector, notifier)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-sigCh:
		logger.Info("shutting down", map[string]any{"signal": sig.String()})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// loadConfig reads configuration from --config when given, otherwise from
// DECKBRIEF_* environment variables.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.FromEnv()
}

// buildNotifier constructs the configured completion-notification adapter,
// or nil when notifications are disabled.
func buildNotifier(cfg config.NotifyConfig) (adapter.Adapter, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "webhook":
		return webhook.New(webhook.Config{
			URL:     cfg.URL,
			Retries: cfg.Retries,
		})
	case "redis":
		return redis.New(redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Retries: cfg.Retries,
		})
	default:
		return nil, fmt.Errorf("unknown notify backend: %s", cfg.Backend)
	}
}
