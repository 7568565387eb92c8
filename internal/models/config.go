package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type PostgresConfig struct {
	URL         string `mapstructure:"url"`
	MaxConns    int32  `mapstructure:"max_conns"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// AdminConfig holds the single operator credential. PasswordHash is a bcrypt
// hash; Password is accepted for local setups and hashed at startup.
type AdminConfig struct {
	ID           string `mapstructure:"id"`
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"`
}

type KafkaConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BrokerList string `mapstructure:"broker_list"`
	Topic      string `mapstructure:"topic"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
	Endpoint   string `mapstructure:"endpoint"`
}

type ExportConfig struct {
	Format       string `mapstructure:"format"`
	Destination  string `mapstructure:"destination"`
	OutputPath   string `mapstructure:"output_path"`
	OutputFolder string `mapstructure:"output_folder"`
	Schedule     string `mapstructure:"schedule"`
}

type Config struct {
	StoreDriver  string        `mapstructure:"store_driver"`
	Debounce     time.Duration `mapstructure:"debounce"`
	TimeZone     string        `mapstructure:"time_zone"`
	InitialNames []string      `mapstructure:"initial_names"`
	DefaultMenu  []MenuItem    `mapstructure:"default_menu"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	MetricsAddr  string        `mapstructure:"metrics_addr"`

	Postgres     PostgresConfig     `mapstructure:"postgres"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Admin        AdminConfig        `mapstructure:"admin"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	CloudStorage CloudStorageConfig `mapstructure:"cloud_storage"`
	Export       ExportConfig       `mapstructure:"export"`
}

func setDefaults() {
	viper.SetDefault("store_driver", StoreDriverMemory)
	viper.SetDefault("debounce", DefaultDebounce)
	viper.SetDefault("time_zone", "Local")
	viper.SetDefault("initial_names", DefaultInitialNames)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("metrics_addr", ":9464")

	viper.SetDefault("postgres.url", "postgres://postgres@localhost:5432/bentoledger")
	viper.SetDefault("postgres.max_conns", 10)
	viper.SetDefault("postgres.auto_migrate", false)

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.key_prefix", "bentoledger")

	viper.SetDefault("admin.id", "admin@bento.com")
	viper.SetDefault("admin.password", "")
	viper.SetDefault("admin.password_hash", "")

	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.broker_list", "localhost:9092")
	viper.SetDefault("kafka.topic", TopicLedgerEvents)

	viper.SetDefault("cloud_storage.provider", "s3")
	viper.SetDefault("cloud_storage.region", "us-east-1")
	viper.SetDefault("cloud_storage.bucket_name", "")
	viper.SetDefault("cloud_storage.endpoint", "")

	viper.SetDefault("export.format", ExportFormatParquet)
	viper.SetDefault("export.destination", ExportDestinationLocal)
	viper.SetDefault("export.output_path", "output")
	viper.SetDefault("export.output_folder", "reports")
	viper.SetDefault("export.schedule", "")
}

// LoadConfig initializes and reads the configuration using Viper. A missing
// config file is fine unless one was asked for explicitly.
func LoadConfig(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".bentoledger")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("BENTO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := viper.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the settings that have a closed set of values.
func (cfg *Config) Validate() error {
	switch cfg.StoreDriver {
	case StoreDriverMemory, StoreDriverPostgres, StoreDriverRedis:
	default:
		return fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
	switch cfg.Export.Format {
	case ExportFormatParquet, ExportFormatJSON:
	default:
		return fmt.Errorf("unsupported export format: %s", cfg.Export.Format)
	}
	switch cfg.Export.Destination {
	case ExportDestinationLocal, ExportDestinationS3:
	default:
		return fmt.Errorf("unsupported export destination: %s", cfg.Export.Destination)
	}
	if cfg.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", cfg.Debounce)
	}
	for _, item := range cfg.DefaultMenu {
		if item.Price < 0 {
			return fmt.Errorf("default menu item %s: %w", item.ID, ErrInvalidPrice)
		}
	}
	return nil
}

// Location resolves TimeZone; "Local" and "" mean the process zone.
func (cfg *Config) Location() (*time.Location, error) {
	if cfg.TimeZone == "" || cfg.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(cfg.TimeZone)
}

// Menu returns the configured default catalog, falling back to DefaultMenu.
func (cfg *Config) Menu() []MenuItem {
	src := cfg.DefaultMenu
	if len(src) == 0 {
		src = DefaultMenu
	}
	out := make([]MenuItem, len(src))
	copy(out, src)
	return out
}

// Names returns the roster seed names, falling back to DefaultInitialNames.
func (cfg *Config) Names() []string {
	if len(cfg.InitialNames) == 0 {
		return append([]string(nil), DefaultInitialNames...)
	}
	return append([]string(nil), cfg.InitialNames...)
}
