package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnvVar names the optional YAML file whose keys are read as fallbacks
// for the environment variables of the same name.
const FileEnvVar = "BIGBOSS_CONFIG"

type Config struct {
	// HTTP Server
	Port      string
	LogLevel  string
	LogFormat string

	// Database
	DBDriver      string
	SQLiteDBPath  string
	MySQLAddr     string
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string
	SeedTrainers  bool

	// AMQP; an empty URL disables payment events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Cart persistence
	CartBackend   string
	CartDir       string
	CartTTL       time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Chatbot bridge
	ChatbotCommand string
	ChatbotArgs    []string
	ChatbotDir     string
	ChatbotTimeout time.Duration

	// Throttling
	LoginRateLimit  int
	LoginRateWindow time.Duration
	APIRateLimit    int

	// Reporting
	ReportCacheTTL time.Duration
	ReportTimeout  time.Duration
	ServerURL      string
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) str(key, def string) string {
	if v := s.get(key); v != "" {
		return v
	}
	return def
}

func (s source) integer(key string, def int) int {
	if v := s.get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) duration(key string, def time.Duration) time.Duration {
	if v := s.get(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func (s source) boolean(key string, def bool) bool {
	if v := s.get(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// readFile loads a flat YAML mapping of variable names to scalar values.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case nil:
		case []any:
			parts := make([]string, len(x))
			for i, p := range x {
				parts[i] = fmt.Sprint(p)
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(x)
		}
	}
	return out, nil
}

// Load builds the configuration from the environment, falling back to the
// file named by BIGBOSS_CONFIG, then to defaults.
func Load() (*Config, error) {
	var src source
	if path := os.Getenv(FileEnvVar); path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	cfg := &Config{
		Port:      src.str("PORT", "8081"),
		LogLevel:  src.str("LOG_LEVEL", "info"),
		LogFormat: src.str("LOG_FORMAT", "text"),

		DBDriver:      src.str("DB_DRIVER", "sqlite"),
		SQLiteDBPath:  src.str("SQLITE_DB_PATH", "./data/bigboss.db"),
		MySQLAddr:     src.str("MYSQL_ADDR", "127.0.0.1:3306"),
		MySQLUser:     src.str("MYSQL_USER", "root"),
		MySQLPassword: src.str("MYSQL_PASSWORD", ""),
		MySQLDatabase: src.str("MYSQL_DATABASE", "bigboss"),
		SeedTrainers:  src.boolean("SEED_TRAINERS", true),

		AMQPURL:      src.str("AMQP_URL", ""),
		AMQPExchange: src.str("AMQP_EXCHANGE", "bigboss"),
		AMQPQueue:    src.str("AMQP_QUEUE", "payment_events"),

		CartBackend:   src.str("CART_BACKEND", "memory"),
		CartDir:       src.str("CART_DIR", "./data/carts"),
		CartTTL:       src.duration("CART_TTL", 7*24*time.Hour),
		RedisAddr:     src.str("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: src.str("REDIS_PASSWORD", ""),
		RedisDB:       src.integer("REDIS_DB", 0),

		ChatbotCommand: src.str("CHATBOT_COMMAND", "python3"),
		ChatbotArgs:    splitList(src.str("CHATBOT_ARGS", "chatbot.py")),
		ChatbotDir:     src.str("CHATBOT_DIR", ""),
		ChatbotTimeout: src.duration("CHATBOT_TIMEOUT", 5*time.Second),

		LoginRateLimit:  src.integer("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: src.duration("LOGIN_RATE_WINDOW", 15*time.Minute),
		APIRateLimit:    src.integer("API_RATE_LIMIT", 120),

		ReportCacheTTL: src.duration("REPORT_CACHE_TTL", time.Minute),
		ReportTimeout:  src.duration("REPORT_TIMEOUT", 10*time.Second),
		ServerURL:      src.str("SERVER_URL", "http://localhost:8081"),
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if levels := []string{"debug", "info", "warn", "error"}; !oneOf(strings.ToLower(c.LogLevel), levels) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, levels))
	}

	drivers := []string{"sqlite", "mysql"}
	if !oneOf(c.DBDriver, drivers) {
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of %v", c.DBDriver, drivers))
	}

	switch c.DBDriver {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite driver")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "mysql":
		if c.MySQLAddr == "" {
			errors = append(errors, "MySQL address cannot be empty when using mysql driver")
		}
		if c.MySQLDatabase == "" {
			errors = append(errors, "MySQL database name cannot be empty when using mysql driver")
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	backends := []string{"memory", "file", "redis"}
	if !oneOf(c.CartBackend, backends) {
		errors = append(errors, fmt.Sprintf("invalid cart backend '%s': must be one of %v", c.CartBackend, backends))
	}
	if c.CartBackend == "file" && c.CartDir == "" {
		errors = append(errors, "cart directory cannot be empty when using file cart backend")
	}
	if c.CartBackend == "redis" && c.RedisAddr == "" {
		errors = append(errors, "Redis address cannot be empty when using redis cart backend")
	}

	if c.ChatbotCommand == "" {
		errors = append(errors, "chatbot command cannot be empty")
	}
	if c.ChatbotTimeout <= 0 || c.ChatbotTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid chatbot timeout %v: must be between 0 and 1 minute", c.ChatbotTimeout))
	}

	if c.LoginRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid login rate limit %d: must be at least 1", c.LoginRateLimit))
	}
	if c.LoginRateWindow < time.Second {
		errors = append(errors, fmt.Sprintf("invalid login rate window %v: must be at least 1 second", c.LoginRateWindow))
	}
	if c.APIRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid API rate limit %d: must be at least 1", c.APIRateLimit))
	}

	if c.ReportCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must not be negative", c.ReportCacheTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
