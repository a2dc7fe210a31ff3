// Package config loads perfusioncore settings from PERFUSIONCORE_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"perfusioncore/internal/blob"
	"perfusioncore/internal/core"
	"perfusioncore/internal/infra/persistence/sqlite"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PERFUSIONCORE"

// Config is the process configuration.
type Config struct {
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	PostgresDSN   string `mapstructure:"POSTGRES_DSN"`

	BlobDriver        string `mapstructure:"BLOB_DRIVER"`
	BlobFSRoot        string `mapstructure:"BLOB_FS_ROOT"`
	BlobPrefix        string `mapstructure:"BLOB_PREFIX"`
	S3Bucket          string `mapstructure:"BLOB_S3_BUCKET"`
	S3Region          string `mapstructure:"BLOB_S3_REGION"`
	S3Endpoint        string `mapstructure:"BLOB_S3_ENDPOINT"`
	S3PathStyle       bool   `mapstructure:"BLOB_S3_PATH_STYLE"`
	S3AccessKeyID     string `mapstructure:"BLOB_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"BLOB_S3_SECRET_ACCESS_KEY"`
	S3SessionToken    string `mapstructure:"BLOB_S3_SESSION_TOKEN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var keys = []string{
	"STORAGE_DRIVER", "SQLITE_PATH", "POSTGRES_DSN",
	"BLOB_DRIVER", "BLOB_FS_ROOT", "BLOB_PREFIX",
	"BLOB_S3_BUCKET", "BLOB_S3_REGION", "BLOB_S3_ENDPOINT", "BLOB_S3_PATH_STYLE",
	"BLOB_S3_ACCESS_KEY_ID", "BLOB_S3_SECRET_ACCESS_KEY", "BLOB_S3_SESSION_TOKEN",
	"LOG_LEVEL", "LOG_FORMAT",
}

// Load reads the environment and, when path is non-empty, the config file at
// path. Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("STORAGE_DRIVER", string(core.StorageSQLite))
	v.SetDefault("SQLITE_PATH", sqlite.DefaultPath)
	v.SetDefault("BLOB_DRIVER", string(blob.DriverFilesystem))
	v.SetDefault("BLOB_FS_ROOT", "./blobdata")
	v.SetDefault("BLOB_PREFIX", "perfusioncore")
	v.SetDefault("BLOB_S3_REGION", "us-east-1")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.BlobDriver = strings.ToLower(strings.TrimSpace(cfg.BlobDriver))
	return cfg, nil
}

// Validate checks driver names and the settings each driver requires.
func (c *Config) Validate() error {
	var errs []error
	switch core.StorageDriver(c.StorageDriver) {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("%s_POSTGRES_DSN is required for the postgres driver", EnvPrefix))
		}
	case core.StorageBlob:
		switch blob.Driver(c.BlobDriver) {
		case blob.DriverFilesystem, blob.DriverMemory:
		case blob.DriverS3:
			if c.S3Bucket == "" {
				errs = append(errs, fmt.Errorf("%s_BLOB_S3_BUCKET is required for the s3 blob driver", EnvPrefix))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown blob driver %q", c.BlobDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Storage maps the configuration onto core.StorageConfig.
func (c *Config) Storage() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.StorageDriver),
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		BlobPrefix:  c.BlobPrefix,
		Blob: blob.Config{
			Driver: blob.Driver(c.BlobDriver),
			FSRoot: c.BlobFSRoot,
			S3: blob.S3Config{
				Region:          c.S3Region,
				Bucket:          c.S3Bucket,
				Endpoint:        c.S3Endpoint,
				AccessKeyID:     c.S3AccessKeyID,
				SecretAccessKey: c.S3SecretAccessKey,
				SessionToken:    c.S3SessionToken,
				PathStyle:       c.S3PathStyle,
			},
		},
	}
}
