package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ravi-parthasarathy/webforge/pkg/config"
	"github.com/ravi-parthasarathy/webforge/pkg/generate"
	"github.com/ravi-parthasarathy/webforge/pkg/httpapi"
	"github.com/ravi-parthasarathy/webforge/pkg/project"
	"github.com/ravi-parthasarathy/webforge/pkg/stream"

	// Register all LLM providers via their init() functions.
	_ "github.com/ravi-parthasarathy/webforge/pkg/llm/providers"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "webforge",
		Short: "Webforge LLM-backed project generation service",
		Long: `Webforge generates complete web projects from natural-language
descriptions, routing each operation to the right model of the configured
provider family and streaming progress over SSE.`,
	}
	root.AddCommand(serveCmd())
	return root
}

// ─── serve ────────────────────────────────────────────────────────────────────

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			initLogging(cfg.Log)
			return serve(signalContext(cmd.Context()), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to YAML config file (optional)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	broadcaster := stream.New(cfg.Stream.HistoryLimit)
	go broadcaster.Run(ctx)

	store := project.NewDirStore(cfg.Storage.OutputDir)
	pipeline := generate.New(broadcaster, store)
	pipeline.SetMaxTokens(cfg.Model.MaxTokens)
	pipeline.SetDefaultFamily(cfg.Model.DefaultFamily)

	api := httpapi.New(pipeline, broadcaster,
		time.Duration(cfg.Stream.KeepaliveSeconds)*time.Second)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func initLogging(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}
