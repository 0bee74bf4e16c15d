// Package config loads and validates service configuration from config
// files, environment variables, and CLI flags.
//
// The deployment environment configures everything through the same
// variables the hosted function uses: PHOTO_TABLE_NAME, PHOTO_BUCKET_NAME,
// ALLOWED_FAMILY_IDS, and AWS_REGION. Everything else follows the
// CATPHOTOS_ prefix convention, e.g. CATPHOTOS_SERVER_PORT.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the root configuration struct for the service.
type Config struct {
	Photos   PhotosConfig   `mapstructure:"photos"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// PhotosConfig holds the table and bucket the service stores photos in.
type PhotosConfig struct {
	Table             string `mapstructure:"table" validate:"required"`
	Bucket            string `mapstructure:"bucket" validate:"required"`
	PresignTTLMinutes int    `mapstructure:"presign_ttl_minutes" validate:"min=1"`
}

// PresignTTL returns the configured presigned URL validity as a duration.
func (p PhotosConfig) PresignTTL() time.Duration {
	return time.Duration(p.PresignTTLMinutes) * time.Minute
}

// AWSConfig holds AWS client configuration.
type AWSConfig struct {
	Region string `mapstructure:"region" validate:"required"`
}

// AuthConfig holds the family identifier allow-list.
type AuthConfig struct {
	// AllowedFamilyIDs is comma separated; empty allows any non-empty id.
	AllowedFamilyIDs string `mapstructure:"allowed_family_ids"`
}

// AllowedIDs splits the allow-list into trimmed entries, dropping blanks.
func (a AuthConfig) AllowedIDs() []string {
	var ids []string
	for _, id := range strings.Split(a.AllowedFamilyIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// DatabaseConfig holds metadata backend configuration.
type DatabaseConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=dynamo sqlite"`
	DSN     string `mapstructure:"dsn"`
}

// StorageConfig holds object store configuration.
type StorageConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=s3 local"`
	// Path is the local backend's root directory.
	Path string `mapstructure:"path"`
	// SigningSecret signs local object URLs; required for the local backend.
	SigningSecret string `mapstructure:"signing_secret"`
}

// ServerConfig holds local HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("photos.presign_ttl_minutes", 15)

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("database.backend", "dynamo")
	v.SetDefault("database.dsn", "catphotos.db")

	v.SetDefault("storage.backend", "s3")
	v.SetDefault("storage.path", "./data")
	// registered with an empty default so the env binding reaches Unmarshal
	v.SetDefault("storage.signing_secret", "")

	v.SetDefault("server.port", 8380)

	v.SetDefault("log.level", "info")
}

// bindEnv wires the environment. The photo variables keep their deployment
// names; the rest go through the CATPHOTOS_ prefix.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("photos.table", "PHOTO_TABLE_NAME")
	_ = v.BindEnv("photos.bucket", "PHOTO_BUCKET_NAME")
	_ = v.BindEnv("auth.allowed_family_ids", "ALLOWED_FAMILY_IDS")
	_ = v.BindEnv("aws.region", "AWS_REGION", "AWS_DEFAULT_REGION")

	v.SetEnvPrefix("CATPHOTOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-backend":      "database.backend",
	"db-dsn":          "database.dsn",
	"storage-backend": "storage.backend",
	"storage-path":    "storage.path",
	"port":            "server.port",
}

// bindFlags binds CLI flags to viper keys with custom name mapping. Only
// flags the user actually set are bound, so defaults stay with viper.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: flag set to bind (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	bindEnv(v)

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if cfg.Storage.Backend == "local" && cfg.Storage.SigningSecret == "" {
		return nil, errors.New("validate config: storage.signing_secret is required for the local backend")
	}

	return &cfg, nil
}
