package main

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"estoquechat/internal/session"
	"estoquechat/internal/transport"
)

const (
	defaultAPIBase  = "http://127.0.0.1:8081/api"
	defaultEnvFile  = ".env"
	defaultLogLevel = "info"
)

type appConfig struct {
	apiBase          string
	source           string
	sessionPrefix    string
	timeout          time.Duration
	pollInterval     time.Duration
	netwatchInterval time.Duration
	prefsPath        string
	exportDir        string
	logFile          string
	logLevel         string
	logDev           bool
	metricsAddr      string
	altScreen        bool
}

// loadDotEnv fills unset variables from path. A missing file is fine.
func loadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func parseFlags(fset *flag.FlagSet, args []string) (appConfig, error) {
	cfg := appConfig{}
	fset.StringVar(&cfg.apiBase, "api", envOr("ESTOQUE_API_URL", defaultAPIBase), "Chat backend base URL")
	fset.StringVar(&cfg.source, "source", envOr("ESTOQUE_SOURCE", transport.DefaultSource), "Source tag sent with every message")
	fset.StringVar(&cfg.sessionPrefix, "session-prefix", envOr("ESTOQUE_SESSION_PREFIX", session.DefaultPrefix), "Session id prefix")
	timeoutSeconds := envOrInt("ESTOQUE_TIMEOUT", 5)
	fset.IntVar(&timeoutSeconds, "timeout", timeoutSeconds, "Chat request timeout seconds")
	pollSeconds := envOrInt("ESTOQUE_POLL_INTERVAL", 30)
	fset.IntVar(&pollSeconds, "poll-interval", pollSeconds, "Backend status poll interval seconds")
	netwatchSeconds := envOrInt("ESTOQUE_NETWATCH_INTERVAL", 5)
	fset.IntVar(&netwatchSeconds, "netwatch-interval", netwatchSeconds, "Network reachability check interval seconds (0 disables)")
	fset.StringVar(&cfg.prefsPath, "prefs", envOr("ESTOQUE_PREFS_DB", defaultPrefsPath()), "Preferences database path")
	fset.StringVar(&cfg.exportDir, "export-dir", envOr("ESTOQUE_EXPORT_DIR", "."), "Directory for transcript exports")
	fset.StringVar(&cfg.logFile, "log-file", envOr("ESTOQUE_LOG_FILE", filepath.Join(os.TempDir(), "estoque-tui.log")), "Log file path")
	fset.StringVar(&cfg.logLevel, "log-level", envOr("ESTOQUE_LOG_LEVEL", defaultLogLevel), "Log level (debug|info|warn|error)")
	fset.BoolVar(&cfg.logDev, "log-dev", envOrBool("ESTOQUE_LOG_DEV", false), "Human-readable log encoding")
	fset.StringVar(&cfg.metricsAddr, "metrics-addr", envOr("ESTOQUE_METRICS_ADDR", ""), "Serve Prometheus metrics on this address")
	fset.BoolVar(&cfg.altScreen, "alt-screen", envOrBool("ESTOQUE_ALT_SCREEN", true), "Use alternate screen buffer")
	if err := fset.Parse(args); err != nil {
		return appConfig{}, err
	}

	cfg.apiBase = strings.TrimRight(strings.TrimSpace(cfg.apiBase), "/")
	cfg.timeout = time.Duration(clampInt(timeoutSeconds, 1, 120)) * time.Second
	cfg.pollInterval = time.Duration(clampInt(pollSeconds, 1, 3600)) * time.Second
	cfg.netwatchInterval = time.Duration(clampInt(netwatchSeconds, 0, 600)) * time.Second
	if strings.TrimSpace(cfg.sessionPrefix) == "" {
		cfg.sessionPrefix = session.DefaultPrefix
	}
	return cfg, nil
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "estoque-chat.db"
	}
	return filepath.Join(dir, "estoque-chat", "prefs.db")
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" {
		return fallback
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
