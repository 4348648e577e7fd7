package models

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Seed     int64 `mapstructure:"seed"`
	GridSize int   `mapstructure:"grid_size"`

	InitialSearchRadius    int     `mapstructure:"initial_search_radius"`
	MaxSearchRadius        int     `mapstructure:"max_search_radius"`
	RadiusGrowthInterval   int     `mapstructure:"radius_growth_interval"`
	RejectionCooldownTicks int     `mapstructure:"rejection_cooldown_ticks"`
	MaxRetries             int     `mapstructure:"max_retries"`
	FairnessPenalty        float64 `mapstructure:"fairness_penalty"`

	InitialDrivers int `mapstructure:"initial_drivers"`
	InitialRiders  int `mapstructure:"initial_riders"`

	HTTPAddr string `mapstructure:"http_addr"`

	OutputDestination string `mapstructure:"output_destination"` // console, json, csv, parquet, kafka, postgres
	OutputPath        string `mapstructure:"output_path"`
	OutputFolder      string `mapstructure:"output_folder"`

	KafkaEnabled     bool   `mapstructure:"kafka_enabled"`
	KafkaBrokerList  string `mapstructure:"kafka_broker_list"`
	KafkaProducer    string `mapstructure:"kafka_producer"` // sarama or confluent
	SessionTimeoutMs int    `mapstructure:"session_timeout_ms"`

	Database     DatabaseConfig     `mapstructure:"database"`
	CloudStorage CloudStorageConfig `mapstructure:"cloud_storage"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"` // only "s3" is supported
	Region     string `mapstructure:"region"`
	BucketName string `mapstructure:"bucket_name"`
}

// TunableConfig carries the runtime-adjustable dispatch knobs. A nil field
// leaves the current value untouched; updates apply on the next dispatch
// evaluation, never retroactively on in-flight state.
type TunableConfig struct {
	InitialSearchRadius    *int     `json:"initial_search_radius,omitempty"`
	MaxSearchRadius        *int     `json:"max_search_radius,omitempty"`
	RadiusGrowthInterval   *int     `json:"radius_growth_interval,omitempty"`
	RejectionCooldownTicks *int     `json:"rejection_cooldown_ticks,omitempty"`
	MaxRetries             *int     `json:"max_retries,omitempty"`
	FairnessPenalty        *float64 `json:"fairness_penalty,omitempty"`
}

// LoadConfig initializes and reads the configuration using Viper.
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("examples")
		viper.SetConfigName("config")
		viper.SetConfigType("json")
	}

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine: flags and defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
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

func setDefaults() {
	viper.SetDefault("seed", 42)
	viper.SetDefault("grid_size", 100)
	viper.SetDefault("initial_search_radius", 15)
	viper.SetDefault("max_search_radius", 100)
	viper.SetDefault("radius_growth_interval", 2)
	viper.SetDefault("rejection_cooldown_ticks", 5)
	viper.SetDefault("max_retries", 3)
	viper.SetDefault("fairness_penalty", 1.0)
	viper.SetDefault("http_addr", ":8080")
	viper.SetDefault("output_destination", "console")
	viper.SetDefault("kafka_producer", "sarama")
}

func (cfg *Config) Validate() error {
	if cfg.GridSize <= 0 {
		return fmt.Errorf("grid_size must be positive, got %d", cfg.GridSize)
	}
	if cfg.InitialSearchRadius <= 0 {
		return fmt.Errorf("initial_search_radius must be positive, got %d", cfg.InitialSearchRadius)
	}
	if cfg.MaxSearchRadius < cfg.InitialSearchRadius {
		return fmt.Errorf("max_search_radius %d below initial_search_radius %d",
			cfg.MaxSearchRadius, cfg.InitialSearchRadius)
	}
	if cfg.RadiusGrowthInterval <= 0 {
		return fmt.Errorf("radius_growth_interval must be positive, got %d", cfg.RadiusGrowthInterval)
	}
	if cfg.RejectionCooldownTicks < 0 {
		return fmt.Errorf("rejection_cooldown_ticks must not be negative, got %d", cfg.RejectionCooldownTicks)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", cfg.MaxRetries)
	}
	if cfg.FairnessPenalty < 0 {
		return fmt.Errorf("fairness_penalty must not be negative, got %f", cfg.FairnessPenalty)
	}
	return nil
}

// ApplyTunables folds a runtime update into the config.
func (cfg *Config) ApplyTunables(t TunableConfig) error {
	next := *cfg
	if t.InitialSearchRadius != nil {
		next.InitialSearchRadius = *t.InitialSearchRadius
	}
	if t.MaxSearchRadius != nil {
		next.MaxSearchRadius = *t.MaxSearchRadius
	}
	if t.RadiusGrowthInterval != nil {
		next.RadiusGrowthInterval = *t.RadiusGrowthInterval
	}
	if t.RejectionCooldownTicks != nil {
		next.RejectionCooldownTicks = *t.RejectionCooldownTicks
	}
	if t.MaxRetries != nil {
		next.MaxRetries = *t.MaxRetries
	}
	if t.FairnessPenalty != nil {
		next.FairnessPenalty = *t.FairnessPenalty
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}
