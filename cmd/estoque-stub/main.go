// Command estoque-stub serves the demo PC-Estoque chat API for local use
// and for driving estoque-tui without the real backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"estoquechat/internal/stub"
	"estoquechat/pkg/logger"
)

type stubConfig struct {
	addr      string
	available bool
	delay     time.Duration
	rateLimit int
	logLevel  string
	logDev    bool
}

func parseFlags(fset *flag.FlagSet, args []string) (stubConfig, error) {
	cfg := stubConfig{}
	fset.StringVar(&cfg.addr, "addr", envOr("ESTOQUE_STUB_ADDR", ":8081"), "Listen address")
	fset.BoolVar(&cfg.available, "available", envOr("ESTOQUE_STUB_AVAILABLE", "true") != "false", "Report the chatbot as available")
	delayMS := envOrInt("ESTOQUE_STUB_DELAY_MS", 0)
	fset.IntVar(&delayMS, "delay-ms", delayMS, "Delay added to every chat reply in milliseconds")
	fset.IntVar(&cfg.rateLimit, "rate-limit", envOrInt("ESTOQUE_STUB_RATE_LIMIT", 120), "Requests per minute per client IP (0 disables)")
	fset.StringVar(&cfg.logLevel, "log-level", envOr("ESTOQUE_STUB_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	fset.BoolVar(&cfg.logDev, "log-dev", false, "Human-readable log encoding")
	if err := fset.Parse(args); err != nil {
		return stubConfig{}, err
	}
	if delayMS < 0 {
		delayMS = 0
	}
	if cfg.rateLimit < 0 {
		cfg.rateLimit = 0
	}
	cfg.delay = time.Duration(delayMS) * time.Millisecond
	return cfg, nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	log, err := logger.New(logger.Options{Level: cfg.logLevel, Development: cfg.logDev})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	srv := stub.NewServer(stub.Config{
		Available: cfg.available,
		Delay:     cfg.delay,
		RateLimit: cfg.rateLimit,
	}, log)

	server := &http.Server{
		Addr:              cfg.addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("stub listening",
			zap.String("addr", cfg.addr),
			zap.Bool("available", cfg.available),
			zap.Duration("delay", cfg.delay),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down stub")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("stub stopped")
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(envOr(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}
