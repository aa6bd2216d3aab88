package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageBolt   = "bolt"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string            `yaml:"git_commit" envconfig:"BKM_GIT_COMMIT" json:"git_commit"`
	GitTag                  string            `yaml:"git_tag" envconfig:"BKM_GIT_TAG" json:"git_tag"`
	BuildTime               string            `yaml:"build_time" envconfig:"BKM_BUILD_TIME" json:"build_time"`
	IsProduction            bool              `yaml:"is_production" envconfig:"BKM_IS_PRODUCTION" json:"is_production"`
	LogLevel                zapcore.Level     `yaml:"log_level" envconfig:"BKM_LOG_LEVEL" json:"log_level"`
	LogFolder               string            `yaml:"log_folder" envconfig:"BKM_LOG_FOLDER" json:"log_folder"`
	LogMaxSize              int               `yaml:"log_max_size" envconfig:"BKM_LOG_MAX_SIZE" json:"log_max_size"`
	OpsEndpointsEnable      bool              `yaml:"ops_endpoints_enable" envconfig:"BKM_OPS_ENDPOINTS_ENABLE" json:"ops_endpoints_enable"`
	ProfilerEndpointsEnable bool              `yaml:"profiler_endpoints_enable" envconfig:"BKM_PROFILER_ENDPOINTS_ENABLE" json:"profiler_endpoints_enable"`
	Server                  ServerConfig      `yaml:"server" json:"server"`
	Storage                 StorageConfig     `yaml:"storage" json:"storage"`
	SQLite                  SQLiteConfig      `yaml:"sqlite" json:"sqlite"`
	Redis                   RedisConfig       `yaml:"redis" json:"redis"`
	BoltDB                  BoltDBConfig      `yaml:"boltdb" json:"boltdb"`
	Replication             ReplicationConfig `yaml:"replication" json:"replication"`
	Books                   BooksConfig       `yaml:"books" json:"books"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BKM_SERVER_HOST" json:"host"`
	Port            string        `yaml:"port" envconfig:"BKM_SERVER_PORT" json:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BKM_SERVER_READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BKM_SERVER_WRITE_TIMEOUT" json:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BKM_SERVER_REQUEST_TIMEOUT" json:"request_timeout"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKM_SERVER_SHUTDOWN_TIMEOUT" json:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"BKM_SERVER_ALLOWED_ORIGINS" json:"allowed_origins"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"BKM_STORAGE_DRIVER" json:"driver"`
}

type SQLiteConfig struct {
	FilePath string `yaml:"filepath" envconfig:"BKM_SQLITE_FILE_PATH" json:"filepath"`
	Debug    bool   `yaml:"debug" envconfig:"BKM_SQLITE_DEBUG" json:"debug"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKM_REDIS_HOST" json:"host"`
	Port          string        `yaml:"port" envconfig:"BKM_REDIS_PORT" json:"port"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKM_REDIS_DIAL_TIMEOUT" json:"dial_timeout"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKM_REDIS_READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKM_REDIS_WRITE_TIMEOUT" json:"write_timeout"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKM_REDIS_POOL_SIZE" json:"pool_size"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKM_REDIS_POOL_TIMEOUT" json:"pool_timeout"`
	Username      string        `yaml:"username" envconfig:"BKM_REDIS_USERNAME" json:"-"`
	Password      string        `yaml:"password" envconfig:"BKM_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKM_REDIS_DATABASE_INDEX" json:"db_index"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKM_BOLTDB_FILE_PATH" json:"filepath"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKM_BOLTDB_TIMEOUT" json:"timeout"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKM_BOLTDB_BUCKET_NAME" json:"bucket_name"`
}

// ReplicationConfig drives the redis queue feeding the bolt backup.
type ReplicationConfig struct {
	Enable     bool   `yaml:"enable" envconfig:"BKM_REPLICATION_ENABLE" json:"enable"`
	FilePath   string `yaml:"filepath" envconfig:"BKM_REPLICATION_FILE_PATH" json:"filepath"`
	BucketName string `yaml:"bucket_name" envconfig:"BKM_REPLICATION_BUCKET_NAME" json:"bucket_name"`
}

type BooksConfig struct {
	StrictValidation bool `yaml:"strict_validation" envconfig:"BKM_BOOKS_STRICT_VALIDATION" json:"strict_validation"`
	PageSize         int  `yaml:"page_size" envconfig:"BKM_BOOKS_PAGE_SIZE" json:"page_size"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}

	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}

	if config.LogFolder == "" {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Books.PageSize <= 0 {
		config.Books.PageSize = DefaultPageSize
	}

	if config.Storage.Driver == "" {
		config.Storage.Driver = StorageSQLite
	}

	switch config.Storage.Driver {
	case StorageSQLite:
		if len(config.SQLite.FilePath) == 0 {
			return errors.New("make sure to set a valid sqlite file path in configuration file")
		}
	case StorageRedis:
	case StorageBolt:
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set valid boltdb file path and bucket in configuration file")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	if (config.Storage.Driver == StorageRedis || config.Replication.Enable) &&
		(len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0) {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.Replication.Enable && (len(config.Replication.FilePath) == 0 || len(config.Replication.BucketName) == 0) {
		return errors.New("make sure to set valid replication file path and bucket in configuration file")
	}

	if config.Replication.Enable && config.Storage.Driver == StorageBolt && config.Replication.FilePath == config.BoltDB.FilePath {
		return errors.New("replication file path must differ from the boltdb storage file path")
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %w", err)
	}

	// The environment file is optional.
	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %w", err)
	}

	// Use environment variables with prefix `BKM`.
	err = LoadConfigEnvs("BKM", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %w", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %w", err)
	}
	return config, nil
}
