package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	POS       POSConfig       `mapstructure:"pos"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"` // gin mode: debug | release
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// S3Config points at the bucket invoices and report exports are archived to.
// An empty bucket name disables archiving.
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LoggerConfig struct {
	Mode       string `mapstructure:"mode"` // development | production
	FileEnable bool   `mapstructure:"file_enable"`
	Filename   string `mapstructure:"filename"`
}

// POSConfig carries the business constants of the front desk.
type POSConfig struct {
	JoiningFee          float64 `mapstructure:"joining_fee"`
	ExpiringWindowDays  int     `mapstructure:"expiring_window_days"`
	TrainerAssignMonths int     `mapstructure:"trainer_assign_months"`
	Timezone            string  `mapstructure:"timezone"`
	NodeID              int64   `mapstructure:"node_id"`
}

// Location resolves the configured timezone, falling back to UTC.
func (c POSConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type LifecycleConfig struct {
	ReconcileSchedule string `mapstructure:"reconcile_schedule"`
	ReconcileOnStart  bool   `mapstructure:"reconcile_on_start"`
}

// AuthConfig seeds the first admin account on an empty system_users collection.
type AuthConfig struct {
	BootstrapEmail    string `mapstructure:"bootstrap_email"`
	BootstrapPassword string `mapstructure:"bootstrap_password"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, pos.joining_fee -> POS_JOINING_FEE
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "tenzins_gym")
	v.SetDefault("s3.use_ssl", true)
	// Defaults also register the keys so env-only values get unmarshalled.
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "12h")
	v.SetDefault("logger.mode", "development")
	v.SetDefault("logger.file_enable", false)
	v.SetDefault("logger.filename", "logs/tenzinsgym.log")
	v.SetDefault("pos.joining_fee", 5000)
	v.SetDefault("pos.expiring_window_days", 14)
	v.SetDefault("pos.trainer_assign_months", 1)
	v.SetDefault("pos.timezone", "Asia/Kolkata")
	v.SetDefault("pos.node_id", 1)
	v.SetDefault("lifecycle.reconcile_schedule", "@every 1h")
	v.SetDefault("lifecycle.reconcile_on_start", true)
	v.SetDefault("auth.bootstrap_email", "")
	v.SetDefault("auth.bootstrap_password", "")

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// No file; defaults and environment only.
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	return config, nil
}
