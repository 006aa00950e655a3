package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"estoquechat/internal/conversation"
	"estoquechat/internal/netwatch"
	"estoquechat/internal/prefs"
	"estoquechat/internal/transport"
	"estoquechat/pkg/logger"
)

func main() {
	if err := loadDotEnv(envOr("ESTOQUE_ENV_FILE", defaultEnvFile)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		os.Exit(1)
	}
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "estoque-tui fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg appConfig) error {
	if dir := filepath.Dir(cfg.logFile); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	log, err := logger.New(logger.Options{Level: cfg.logLevel, Development: cfg.logDev, OutputPath: cfg.logFile})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openPrefs(ctx, cfg.prefsPath, log)
	defer store.Close()

	client := transport.New(transport.Config{
		BaseURL: cfg.apiBase,
		Timeout: cfg.timeout,
		Source:  cfg.source,
	}, log)

	if cfg.metricsAddr != "" {
		srv := metricsServer(cfg.metricsAddr)
		go func() {
			log.Info("metrics listening", zap.String("addr", cfg.metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("metrics server forced to shutdown", zap.Error(err))
			}
		}()
	}

	m := newModel(ctx, cfg, client, prefs.NewFlags(store), log, conversation.Options{PollInterval: cfg.pollInterval})
	ctrl := m.ctrl
	defer ctrl.Close()

	if cfg.netwatchInterval > 0 {
		w, err := netwatch.New(cfg.apiBase, log)
		if err != nil {
			log.Warn("network watch disabled", zap.Error(err))
		} else {
			w.Interval = cfg.netwatchInterval
			w.OnLost = ctrl.NetworkLost
			w.OnRestored = ctrl.NetworkRestored
			go w.Run(ctx)
		}
	}

	log.Info("starting chat client",
		zap.String("api", cfg.apiBase),
		zap.String("session_id", ctrl.Session().ID),
	)

	opts := []tea.ProgramOption{tea.WithMouseCellMotion(), tea.WithContext(ctx)}
	if cfg.altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	log.Info("chat client stopped")
	return nil
}

// openPrefs falls back to an in-memory store so a read-only config dir
// never blocks the chat.
func openPrefs(ctx context.Context, path string, log *logger.Logger) prefs.Store {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("preferences kept in memory", zap.Error(err))
		return prefs.NewMemoryStore()
	}
	store, err := prefs.OpenSQLite(ctx, path)
	if err != nil {
		log.Warn("preferences kept in memory", zap.String("path", path), zap.Error(err))
		return prefs.NewMemoryStore()
	}
	return store
}

func metricsServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
