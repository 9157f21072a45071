// Package config loads Saturn worker configuration from the process
// environment, mirroring the SATURN_* variables original_source's
// default_config.py reads, with the same defaults where one exists.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Env identifies the runtime environment a worker is running under.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvStaging     Env = "staging"
	EnvProduction  Env = "production"
)

// Config holds everything a worker process needs to start: which
// control plane to sync against, how to identify itself, and where to
// find static resource definitions.
type Config struct {
	Env                Env
	WorkerID           string
	ControlPlaneURL    string
	ExecutorClass      string
	ExecutorOptions    map[string]string
	WorkItemsPerWorker int
	SyncInterval       time.Duration

	StaticDefinitionsDir    string
	StaticDefinitionsFilter string

	MetricsAddr string
	LogLevel    string
	LogJSON     bool
}

// Load builds a Config from the environment, falling back to the same
// defaults default_config.py ships.
func Load() Config {
	return Config{
		Env:                Env(getEnv("SATURN_ENV", string(EnvDevelopment))),
		WorkerID:           getEnv("SATURN_WORKER_ID", hostnameOrDefault("worker-1")),
		ControlPlaneURL:    getEnv("SATURN_WORKER_MANAGER_URL", "http://localhost:5000"),
		ExecutorClass:      getEnv("SATURN_WORKER__EXECUTOR_CLS", "ProcessExecutor"),
		ExecutorOptions:    getEnvMap("SATURN_WORKER__EXECUTOR_OPTIONS"),
		WorkItemsPerWorker: getEnvInt("SATURN_WORK_ITEMS_PER_WORKER", 10),
		SyncInterval:       getEnvDuration("SATURN_SYNC_INTERVAL", 30*time.Second),

		StaticDefinitionsDir:    getEnv("SATURN_STATIC_DEFINITIONS_DIR", "/opt/saturn/definitions"),
		StaticDefinitionsFilter: os.Getenv("SATURN_STATIC_DEFINITIONS_JOBS_SELECTOR"),

		MetricsAddr: getEnv("SATURN_METRICS_ADDR", ":9090"),
		LogLevel:    getEnv("SATURN_LOG_LEVEL", "info"),
		LogJSON:     getEnvBool("SATURN_LOG_JSON", true),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// getEnvMap parses key carrying a comma-separated list of key=value
// pairs, e.g. "command=python3 -m worker.run" into the executor
// options map Build expects. Missing or malformed entries are skipped
// rather than erroring: an operator supplying a bad pair sees the
// executor registry reject the resulting options, which names the
// problem more precisely than a config-load failure would.
func getEnvMap(key string) map[string]string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = val
	}
	return out
}

func hostnameOrDefault(fallback string) string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return fallback
	}
	return h
}
