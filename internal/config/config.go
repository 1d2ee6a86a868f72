// Package config loads settings from config.yaml, the environment and
// .env.local.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	OpenStates OpenStatesConfig `yaml:"openstates" mapstructure:"openstates"`
	Coverage   CoverageConfig   `yaml:"coverage" mapstructure:"coverage"`
	Votes      VotesConfig      `yaml:"votes" mapstructure:"votes"`
	Reference  ReferenceConfig  `yaml:"reference" mapstructure:"reference"`
	Bills      BillsConfig      `yaml:"bills" mapstructure:"bills"`
	Census     CensusConfig     `yaml:"census" mapstructure:"census"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

type DatabaseConfig struct {
	URL          string `yaml:"url" mapstructure:"url"`
	MaxOpenConns int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	LogSQL       bool   `yaml:"log_sql" mapstructure:"log_sql"`
}

// OpenStatesConfig holds Open States API settings.
type OpenStatesConfig struct {
	BaseURL            string `yaml:"base_url" mapstructure:"base_url"`
	APIKey             string `yaml:"api_key" mapstructure:"api_key"`
	RequestsPerMinute  int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	RateLimitPauseSecs int    `yaml:"rate_limit_pause_secs" mapstructure:"rate_limit_pause_secs"`
	// MaxRateLimitRetries of zero keeps retrying until the command is stopped.
	MaxRateLimitRetries int `yaml:"max_rate_limit_retries" mapstructure:"max_rate_limit_retries"`
	TimeoutSecs         int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

func (c OpenStatesConfig) RateLimitPause() time.Duration {
	return time.Duration(c.RateLimitPauseSecs) * time.Second
}

func (c OpenStatesConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// CoverageConfig configures zip code coverage runs.
type CoverageConfig struct {
	Lookup            string  `yaml:"lookup" mapstructure:"lookup"`
	SimplifyTolerance float64 `yaml:"simplify_tolerance" mapstructure:"simplify_tolerance"`
	FlushEvery        int     `yaml:"flush_every" mapstructure:"flush_every"`
	PageSize          int     `yaml:"page_size" mapstructure:"page_size"`
	CacheTTLMins      int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
}

func (c CoverageConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMins) * time.Minute
}

type VotesConfig struct {
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
}

// ReferenceConfig points at reference tables kept outside the binary.
type ReferenceConfig struct {
	MassachusettsDistricts string `yaml:"massachusetts_districts" mapstructure:"massachusetts_districts"`
}

type BillsConfig struct {
	DefaultCutoff string `yaml:"default_cutoff" mapstructure:"default_cutoff"`
	PerPage       int    `yaml:"per_page" mapstructure:"per_page"`
}

// Cutoff parses DefaultCutoff as a UTC date.
func (c BillsConfig) Cutoff() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.DefaultCutoff)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "config: bills.default_cutoff %q", c.DefaultCutoff)
	}
	return t, nil
}

// CensusConfig selects the TIGER/Line release and where downloads land.
type CensusConfig struct {
	DataDir  string `yaml:"data_dir" mapstructure:"data_dir"`
	Year     int    `yaml:"year" mapstructure:"year"`
	Congress int    `yaml:"congress" mapstructure:"congress"`
}

type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// unprefixed are environment variables deployments already set under their
// conventional names.
var unprefixed = map[string]string{
	"database.url":       "DATABASE_URL",
	"openstates.api_key": "PLURAL_API_KEY",
	"server.port":        "PORT",
}

// Load reads configuration from file and environment. Values in .env.local
// are exported first; variables already set win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load(".env.local")

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CIVICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range unprefixed {
		if err := v.BindEnv(key, "CIVICS_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("openstates.base_url", "https://v3.openstates.org")
	v.SetDefault("openstates.requests_per_minute", 10)
	v.SetDefault("openstates.rate_limit_pause_secs", 65)
	v.SetDefault("openstates.timeout_secs", 30)
	v.SetDefault("coverage.lookup", "openstates")
	v.SetDefault("coverage.simplify_tolerance", 0.01)
	v.SetDefault("coverage.flush_every", 50)
	v.SetDefault("coverage.page_size", 500)
	v.SetDefault("coverage.cache_ttl_mins", 60)
	v.SetDefault("votes.fuzzy_threshold", 80)
	v.SetDefault("reference.massachusetts_districts", "data/massachusetts_districts.json")
	v.SetDefault("bills.default_cutoff", "2024-10-20")
	v.SetDefault("bills.per_page", 20)
	v.SetDefault("census.data_dir", "data/census")
	v.SetDefault("census.year", 2024)
	v.SetDefault("census.congress", 119)
	v.SetDefault("server.port", 5050)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
