package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultUpstreamBaseURL = "https://d3akp0hquhcjdh.cloudfront.net/cgi-bin/json"

type UpstreamCfg struct {
	BaseURL     string
	Timeout     time.Duration
	UserAgent   string
	MaxBody     int64
	AirmetLevel string
	AirmetFore  int
}

type CacheCfg struct {
	Driver    string
	TTL       time.Duration
	Size      int
	OpTimeout time.Duration
	RedisAddr string
}

type BuildCfg struct {
	Version   string
	Revision  string
	Branch    string
	BuildDate string
}

type Config struct {
	Addr           string
	LogLevel       string
	LogConsole     bool
	LogSampleN     int
	Upstream       UpstreamCfg
	Cache          CacheCfg
	MetricsEnabled bool
	MetricsPath    string
	Build          BuildCfg
}

// Load reads an optional .env file into the environment and then parses it.
func Load() Config {
	// missing .env is fine
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	driver := strings.ToLower(strings.TrimSpace(getenv("CACHE_DRIVER", "none")))
	switch driver {
	case "none", "memory", "redis":
	default:
		driver = "none"
	}

	maxBody := getint64("UPSTREAM_MAX_BODY", 32<<20)
	if maxBody <= 0 {
		maxBody = 32 << 20
	}

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),
		Upstream: UpstreamCfg{
			BaseURL:     strings.TrimRight(getenv("UPSTREAM_BASE_URL", DefaultUpstreamBaseURL), "/"),
			Timeout:     getduration("UPSTREAM_TIMEOUT", 15*time.Second),
			UserAgent:   getenv("UPSTREAM_USER_AGENT", "hazard-query/1.0"),
			MaxBody:     maxBody,
			AirmetLevel: getenv("AIRMET_LEVEL", "sfc"),
			AirmetFore:  getint("AIRMET_FORE", -1),
		},
		Cache: CacheCfg{
			Driver:    driver,
			TTL:       getduration("CACHE_TTL", 5*time.Minute),
			Size:      getint("CACHE_SIZE", 256),
			OpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
		},
		MetricsEnabled: getbool("METRICS_ENABLED", false),
		MetricsPath:    getenv("METRICS_PATH", "/metrics"),
		Build: BuildCfg{
			Version:   getenv("BUILD_VERSION", "dev"),
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}
