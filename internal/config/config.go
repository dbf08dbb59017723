package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/eskrenkovic/catalog-ingest/internal/env"
	"github.com/eskrenkovic/catalog-ingest/internal/modules/core"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileEnv = "CATALOG_CONFIG_FILE"

	AppEnvEnv   = "APP_ENV"
	LogLevelEnv = "LOG_LEVEL"

	SinkModeEnv      = "SINK_MODE"
	SinkOutputDirEnv = "SINK_OUTPUT_DIR"
	SQLitePathEnv    = "SQLITE_PATH"

	PostgresHostEnv     = "POSTGRES_HOST"
	PostgresPortEnv     = "POSTGRES_PORT"
	PostgresDatabaseEnv = "POSTGRES_DATABASE"
	PostgresUserEnv     = "POSTGRES_USER"
	PostgresPasswordEnv = "POSTGRES_PASSWORD"
	PostgresSSLEnv      = "POSTGRES_SSL"

	ConnectRetriesEnv    = "CONNECT_RETRIES"
	ConnectRetryDelayEnv = "CONNECT_RETRY_DELAY"

	IngestForceEnv     = "INGEST_FORCE"
	IngestCategoryEnv  = "INGEST_CATEGORY"
	IngestRateLimitEnv = "INGEST_RATE_LIMIT"
	IngestBurstEnv     = "INGEST_BURST"

	MetricsFileEnv = "METRICS_FILE"
)

const (
	ModeJSON     = "json"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSL      bool   `yaml:"ssl"`
}

// ConnectionString renders a lib/pq URL with credentials escaped.
func (c PostgresConfig) ConnectionString() string {
	sslMode := "disable"
	if c.SSL {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}

	return u.String()
}

type SinkConfig struct {
	Mode      string         `yaml:"mode"`
	OutputDir string         `yaml:"output_dir"`
	DBPath    string         `yaml:"db_path"`
	Postgres  PostgresConfig `yaml:"postgres"`
}

type ConnectConfig struct {
	Retries    int           `yaml:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type IngestConfig struct {
	Force     bool    `yaml:"force"`
	Category  string  `yaml:"category"`
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

type Config struct {
	Environment string        `yaml:"environment"`
	LogLevel    string        `yaml:"log_level"`
	Sink        SinkConfig    `yaml:"sink"`
	Connect     ConnectConfig `yaml:"connect"`
	Ingest      IngestConfig  `yaml:"ingest"`

	// MetricsFile receives the run's metrics in text exposition format when set.
	MetricsFile string `yaml:"metrics_file"`
}

func Default() Config {
	return Config{
		Environment: "development",
		LogLevel:    "info",
		Sink: SinkConfig{
			Mode:      ModeJSON,
			OutputDir: "data",
			DBPath:    "catalog.db",
			Postgres: PostgresConfig{
				Host: "localhost",
				Port: 5432,
			},
		},
		Connect: ConnectConfig{
			Retries:    10,
			RetryDelay: 5 * time.Second,
		},
		Ingest: IngestConfig{
			Burst: 1,
		},
	}
}

// Load starts from Default, overlays the YAML file named by CATALOG_CONFIG_FILE
// and then any environment variable that is set.
func Load() (Config, error) {
	config := Default()

	if path := env.GetStringOrDefault(ConfigFileEnv, ""); path != "" {
		if err := LoadFile(path, &config); err != nil {
			return Config{}, err
		}
	}

	if err := overlayEnvironment(&config); err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func LoadFile(path string, config *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(config); err != nil {
		return core.InvalidConfig("file: %s: %s", path, err.Error())
	}

	return nil
}

func overlayEnvironment(config *Config) (err error) {
	config.Environment = env.GetStringOrDefault(AppEnvEnv, config.Environment)
	config.LogLevel = env.GetStringOrDefault(LogLevelEnv, config.LogLevel)

	config.Sink.Mode = env.GetStringOrDefault(SinkModeEnv, config.Sink.Mode)
	config.Sink.OutputDir = env.GetStringOrDefault(SinkOutputDirEnv, config.Sink.OutputDir)
	config.Sink.DBPath = env.GetStringOrDefault(SQLitePathEnv, config.Sink.DBPath)

	pg := &config.Sink.Postgres
	pg.Host = env.GetStringOrDefault(PostgresHostEnv, pg.Host)
	pg.Database = env.GetStringOrDefault(PostgresDatabaseEnv, pg.Database)
	pg.User = env.GetStringOrDefault(PostgresUserEnv, pg.User)
	pg.Password = env.GetStringOrDefault(PostgresPasswordEnv, pg.Password)

	if pg.Port, err = env.GetIntOrDefault(PostgresPortEnv, pg.Port); err != nil {
		return err
	}
	if pg.SSL, err = env.GetBoolOrDefault(PostgresSSLEnv, pg.SSL); err != nil {
		return err
	}

	if config.Connect.Retries, err = env.GetIntOrDefault(ConnectRetriesEnv, config.Connect.Retries); err != nil {
		return err
	}
	if config.Connect.RetryDelay, err = env.GetDurationOrDefault(ConnectRetryDelayEnv, config.Connect.RetryDelay); err != nil {
		return err
	}

	if config.Ingest.Force, err = env.GetBoolOrDefault(IngestForceEnv, config.Ingest.Force); err != nil {
		return err
	}
	config.Ingest.Category = env.GetStringOrDefault(IngestCategoryEnv, config.Ingest.Category)
	if config.Ingest.RateLimit, err = env.GetFloatOrDefault(IngestRateLimitEnv, config.Ingest.RateLimit); err != nil {
		return err
	}
	if config.Ingest.Burst, err = env.GetIntOrDefault(IngestBurstEnv, config.Ingest.Burst); err != nil {
		return err
	}

	config.MetricsFile = env.GetStringOrDefault(MetricsFileEnv, config.MetricsFile)

	return nil
}

func (c Config) Validate() error {
	switch c.Sink.Mode {
	case ModeJSON:
		if c.Sink.OutputDir == "" {
			return core.InvalidConfig("json sink requires an output directory")
		}
	case ModeSQLite:
		if c.Sink.DBPath == "" {
			return core.InvalidConfig("sqlite sink requires a database path")
		}
	case ModePostgres:
		pg := c.Sink.Postgres
		if pg.Host == "" || pg.Database == "" || pg.User == "" {
			return core.InvalidConfig("postgres sink requires host, database and user")
		}
		if pg.Port <= 0 {
			return core.InvalidConfig("invalid postgres port: %d", pg.Port)
		}
	default:
		return core.InvalidConfig("unknown sink mode: '%s'", c.Sink.Mode)
	}

	if c.Connect.Retries < 1 {
		return core.InvalidConfig("connect retries must be positive, got %d", c.Connect.Retries)
	}

	if c.Ingest.RateLimit < 0 {
		return core.InvalidConfig("rate limit must not be negative, got %v", c.Ingest.RateLimit)
	}

	return nil
}
