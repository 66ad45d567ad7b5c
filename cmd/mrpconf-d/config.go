package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

const (
	defaultAddr      = "127.0.0.1:8090"
	defaultBackend   = "sqlite"
	defaultRedisAddr = "127.0.0.1:6379"
)

type Config struct {
	Addr      string
	Backend   string
	DBPath    string
	RedisAddr string
	RedisDB   int
	LogLevel  string
	LogFormat string
	Seed      bool
	TLSCert   string
	TLSKey    string
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "mrpconf.db")

	redisDB := 0
	if v := os.Getenv("MRPCONF_D_REDIS_DB"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MRPCONF_D_REDIS_DB: %w", err)
		}
		redisDB = parsed
	}
	seed := true
	if v := os.Getenv("MRPCONF_D_SEED"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MRPCONF_D_SEED: %w", err)
		}
		seed = parsed
	}

	flagSet := pflag.NewFlagSet("mrpconf-d", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagAddr := flagSet.String("addr", addrFromEnv(defaultAddr), "HTTP listen address")
	flagBackend := flagSet.String("backend", envOrDefault("MRPCONF_D_BACKEND", defaultBackend), "storage backend: sqlite|redis")
	flagDB := flagSet.String("db", envOrDefault("MRPCONF_D_DB_PATH", defaultDBPath), "path to SQLite database")
	flagRedisAddr := flagSet.String("redis-addr", envOrDefault("MRPCONF_D_REDIS_ADDR", defaultRedisAddr), "Redis address when backend=redis")
	flagRedisDB := flagSet.Int("redis-db", redisDB, "Redis database number")
	flagLogLevel := flagSet.String("log-level", envOrDefault("MRPCONF_D_LOG_LEVEL", "info"), "log level: debug|info|warn|error")
	flagLogFormat := flagSet.String("log-format", envOrDefault("MRPCONF_D_LOG_FORMAT", "json"), "log format: text|json|logfmt")
	flagSeed := flagSet.Bool("seed", seed, "seed an empty store with the default scenarios and sets")
	flagTLSCert := flagSet.String("tls-cert", os.Getenv("MRPCONF_D_TLS_CERT"), "TLS certificate file")
	flagTLSKey := flagSet.String("tls-key", os.Getenv("MRPCONF_D_TLS_KEY"), "TLS key file")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	config := Config{
		Addr:      strings.TrimSpace(*flagAddr),
		Backend:   normalizeBackend(*flagBackend),
		DBPath:    resolvePath(*flagDB, cwd),
		RedisAddr: strings.TrimSpace(*flagRedisAddr),
		RedisDB:   *flagRedisDB,
		LogLevel:  strings.TrimSpace(*flagLogLevel),
		LogFormat: strings.TrimSpace(*flagLogFormat),
		Seed:      *flagSeed,
		TLSCert:   resolvePath(*flagTLSCert, cwd),
		TLSKey:    resolvePath(*flagTLSKey, cwd),
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}

	switch config.Backend {
	case "sqlite":
		if config.DBPath == "" {
			return Config{}, errors.New("backend=sqlite requires db")
		}
	case "redis":
		if config.RedisAddr == "" {
			return Config{}, errors.New("backend=redis requires redis-addr")
		}
		if config.RedisDB < 0 {
			return Config{}, fmt.Errorf("redis-db cannot be negative, got %d", config.RedisDB)
		}
	default:
		return Config{}, fmt.Errorf("unsupported backend: %s", config.Backend)
	}

	if (config.TLSCert == "") != (config.TLSKey == "") {
		return Config{}, errors.New("tls-cert and tls-key must be set together")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("MRPCONF_D_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("MRPCONF_D_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}

func normalizeBackend(backend string) string {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "sqlite", "sqlite3":
		return "sqlite"
	default:
		return strings.ToLower(strings.TrimSpace(backend))
	}
}
