package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidConfig         = errors.New("invalid config")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.3.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported rate limiter backends.
const (
	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	Bot    BotConfig    `koanf:"bot"`
}

// CommonConfig contains configuration shared between the bot and the db tool.
type CommonConfig struct {
	// Version of the common config.
	Version  int      `koanf:"version"`
	Debug    Debug    `koanf:"debug"`
	Retry    Retry    `koanf:"retry"`
	Database Database `koanf:"database"`
	Redis    Redis    `koanf:"redis"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Retry contains database retry configuration.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
}

// Database selects and configures the stats store backend.
type Database struct {
	// Driver is either "postgres" or "sqlite".
	Driver     string     `koanf:"driver"`
	SQLite     SQLite     `koanf:"sqlite"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
}

// SQLite contains the single-host database configuration.
type SQLite struct {
	// Path of the database file.
	Path string `koanf:"path"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Enable the Redis backed rate limiter and rating cache.
	Enabled bool `koanf:"enabled"`
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// BotConfig contains Telegram bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int `koanf:"version"`
	// Telegram API configuration.
	Telegram Telegram `koanf:"telegram"`
	// Users allowed to run destructive commands, merged with the admins table.
	AdminIDs []int64 `koanf:"admin_ids"`
	// Users that are never scored, in any chat.
	BlockedIDs []int64 `koanf:"blocked_ids"`
	// IANA time zone used for day and week buckets.
	Timezone string `koanf:"timezone"`
	// Delay before a congratulation is sent, in milliseconds.
	CongratulateDelay int `koanf:"congratulate_delay_ms"`
	// Streak lengths that trigger a milestone message, in ascending order.
	StreakMilestones []int `koanf:"streak_milestones"`
	// Rating cache lifetime in milliseconds. Zero disables caching.
	RatingCacheTTL int `koanf:"rating_cache_ttl_ms"`
	// Number of entries shown by /top.
	RatingTop int `koanf:"rating_top"`
	// Rate limiter configuration.
	RateLimit RateLimit `koanf:"ratelimit"`
	// Scripted replies for specific rolls.
	Triggers []Trigger `koanf:"triggers"`
}

// Telegram contains the Bot API configuration.
type Telegram struct {
	// Bot token from BotFather.
	Token string `koanf:"token"`
	// Long polling timeout in seconds.
	PollTimeout int `koanf:"poll_timeout"`
	// Log raw Bot API traffic.
	Debug bool `koanf:"debug"`
	// Maximum number of updates handled at once.
	Workers int `koanf:"workers"`
}

// RateLimit configures the per user and chat cooldown.
type RateLimit struct {
	// Backend is either "memory" or "redis".
	Backend string `koanf:"backend"`
	// Default cooldown in milliseconds.
	Cooldown int `koanf:"cooldown_ms"`
	// Per-user cooldowns.
	Overrides []CooldownOverride `koanf:"overrides"`
	// How often the memory backend evicts elapsed keys, in milliseconds.
	SweepInterval int `koanf:"sweep_interval_ms"`
	// Reply to rejected rolls with a short lived warning.
	Warn bool `koanf:"warn"`
	// Lifetime of the warning in milliseconds.
	WarnTTL int `koanf:"warn_ttl_ms"`
}

// CooldownOverride replaces the default cooldown for a single user.
type CooldownOverride struct {
	UserID   int64 `koanf:"user_id"`
	Cooldown int   `koanf:"cooldown_ms"`
}

// Trigger is a scripted reply. Zero valued match fields match any roll.
type Trigger struct {
	UserID    int64  `koanf:"user_id"`
	ChatID    int64  `koanf:"chat_id"`
	Game      string `koanf:"game"`
	Outcome   string `koanf:"outcome"`
	MinStreak int    `koanf:"min_streak"`
	// text/template rendered with the roll data.
	Template string `koanf:"template"`
}

// CooldownFor returns the configured cooldown of a user.
func (r RateLimit) CooldownFor(userID int64) time.Duration {
	for _, o := range r.Overrides {
		if o.UserID == userID {
			return time.Duration(o.Cooldown) * time.Millisecond
		}
	}

	return time.Duration(r.Cooldown) * time.Millisecond
}

// Location resolves the configured time zone, falling back to UTC.
func (b *BotConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, b.Timezone, err)
	}

	return loc, nil
}

// DefaultPaths lists the directories searched for config files.
func DefaultPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return []string{
		".casino",
		homeDir + "/.casino/config",
		"/etc/casino/config",
		"/app/config",
		"config",
		".",
	}, nil
}

// LoadConfig loads the configuration from the default search paths.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, "", err
	}

	return LoadConfigFrom(paths)
}

// LoadConfigFrom loads common.toml and bot.toml from the first path holding each file.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	configFiles := []string{"common", "bot"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)

			sub := koanf.New(".")
			if err := sub.Load(file.Provider(configPath), toml.Parser()); err != nil {
				continue
			}

			if err := k.MergeAt(sub, configName); err != nil {
				return nil, "", fmt.Errorf("error merging %s: %w", configPath, err)
			}

			configLoaded = true

			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	// Slices are decoded into existing backing arrays, so they start empty
	config := Default()
	config.Bot.StreakMilestones = nil

	if err := k.Unmarshal("", config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(config.Bot.StreakMilestones) == 0 {
		config.Bot.StreakMilestones = DefaultStreakMilestones()
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	if err := config.Validate(); err != nil {
		return nil, "", err
	}

	return config, usedConfigPath, nil
}

// Default returns the configuration used for keys missing from the files.
func Default() *Config {
	return &Config{
		Common: CommonConfig{
			Debug: Debug{
				LogLevel:      "info",
				MaxLogsToKeep: 10,
				MaxLogLines:   100000,
			},
			Retry: Retry{
				MaxRetries: 5,
				Delay:      100,
				MaxDelay:   5000,
			},
			Database: Database{
				Driver: DriverSQLite,
				SQLite: SQLite{Path: "casino.db"},
				PostgreSQL: PostgreSQL{
					Host:         "localhost",
					Port:         5432,
					MaxOpenConns: 20,
					MaxIdleConns: 5,
					MaxLifetime:  30,
					MaxIdleTime:  5,
				},
			},
			Redis: Redis{Host: "localhost", Port: 6379},
		},
		Bot: BotConfig{
			Telegram:          Telegram{PollTimeout: 60, Workers: 16},
			Timezone:          "UTC",
			CongratulateDelay: 1000,
			StreakMilestones:  DefaultStreakMilestones(),
			RatingCacheTTL:    30000,
			RatingTop:         10,
			RateLimit: RateLimit{
				Backend:       RateLimitMemory,
				Cooldown:      300,
				SweepInterval: 60000,
				WarnTTL:       3000,
			},
		},
	}
}

// DefaultStreakMilestones returns the streak lengths announced when none are configured.
func DefaultStreakMilestones() []int {
	return []int{4, 5, 6}
}

// Validate checks cross-field constraints that koanf cannot express.
func (c *Config) Validate() error {
	switch c.Common.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: unknown database driver %q", ErrInvalidConfig, c.Common.Database.Driver)
	}

	switch c.Bot.RateLimit.Backend {
	case RateLimitMemory:
	case RateLimitRedis:
		if !c.Common.Redis.Enabled {
			return fmt.Errorf("%w: redis rate limiter requires redis.enabled", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown rate limit backend %q", ErrInvalidConfig, c.Bot.RateLimit.Backend)
	}

	if _, err := c.Bot.Location(); err != nil {
		return err
	}

	return nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/luckyroll/casino/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
