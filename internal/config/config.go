// Package config resolves the pipeline's configuration from CLI
// arguments with environment fallbacks, once, at startup. The core
// packages never touch the environment themselves.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds all settings for one pipeline invocation.
type Config struct {
	InputPath  string
	OutputPath string

	// NumCores as requested on the command line; 0 means auto-detect
	// via ResolveCores.
	NumCores int

	LogLevel  slog.Level
	LogFormat string

	EnginePath string
	Members    int
	Leadtimes  int

	// MetricsFile, when non-empty, receives a text-format metrics dump
	// after the run.
	MetricsFile string

	// Kafka notifier settings; empty brokers disable notification.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load parses args (excluding the program name), applying NOWCAST_*
// environment fallbacks for the optional settings. Two positional
// arguments are required: the input and output array paths.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("nowcast", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: nowcast [flags] <input-array-path> <output-array-path>")
		fs.PrintDefaults()
	}

	numCores := fs.Int("num-cores", envIntOrDefault("NOWCAST_NUM_CORES", 0),
		"engine worker count (0 = detected core count, 1 on detection failure)")
	logLevel := fs.String("log-level", envOrDefault("NOWCAST_LOG_LEVEL", "info"),
		"log level: debug, info, warning, error, critical, fatal")
	logFormat := fs.String("log-format", envOrDefault("NOWCAST_LOG_FORMAT", "console"),
		"log format: console or json")
	enginePath := fs.String("engine-path", envOrDefault("NOWCAST_ENGINE_PATH", ""),
		"path to the nowcast engine executable (default: steps-engine on PATH)")
	members := fs.Int("members", envIntOrDefault("NOWCAST_MEMBERS", 24),
		"number of ensemble members")
	leadtimes := fs.Int("leadtimes", envIntOrDefault("NOWCAST_LEADTIMES", 30),
		"number of forecast leadtimes")
	metricsFile := fs.String("metrics-file", envOrDefault("NOWCAST_METRICS_FILE", ""),
		"write run metrics in text exposition format to this file (empty = disabled)")
	kafkaBrokers := fs.String("kafka-brokers", envOrDefault("NOWCAST_KAFKA_BROKERS", ""),
		"comma-separated Kafka brokers for run notifications (empty = disabled)")
	kafkaTopic := fs.String("kafka-topic", envOrDefault("NOWCAST_KAFKA_TOPIC", "nowcast-runs"),
		"Kafka topic for run notifications")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 2 {
		return nil, fmt.Errorf("want 2 positional arguments (input-array-path, output-array-path), got %d", fs.NArg())
	}

	level, err := ParseLogLevel(*logLevel)
	if err != nil {
		return nil, err
	}
	switch *logFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("unknown log format %q, want console or json", *logFormat)
	}
	if *members <= 0 {
		return nil, fmt.Errorf("members must be positive, got %d", *members)
	}
	if *leadtimes <= 0 {
		return nil, fmt.Errorf("leadtimes must be positive, got %d", *leadtimes)
	}
	if *numCores < 0 {
		return nil, fmt.Errorf("num-cores must not be negative, got %d", *numCores)
	}

	cfg := &Config{
		InputPath:   fs.Arg(0),
		OutputPath:  fs.Arg(1),
		NumCores:    *numCores,
		LogLevel:    level,
		LogFormat:   *logFormat,
		EnginePath:  *enginePath,
		Members:     *members,
		Leadtimes:   *leadtimes,
		MetricsFile: *metricsFile,
		KafkaTopic:  *kafkaTopic,
	}
	if *kafkaBrokers != "" {
		cfg.KafkaBrokers = splitList(*kafkaBrokers)
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, fmt.Errorf("kafka-topic is required when kafka-brokers is set")
	}
	return cfg, nil
}

// ParseLogLevel maps the accepted level names onto slog levels.
// critical and fatal collapse onto error; slog has no higher level and
// the pipeline never continues past one anyway.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "critical", "fatal":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
