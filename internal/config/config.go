package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/Simplici0/packout/internal/estimate"
	"github.com/Simplici0/packout/internal/rooms"
)

const configFile = "config.yaml"

// Config holds application configuration.
// Values come from config.yaml when present; environment variables always win.
// A local .env file is loaded first and never overrides the real environment.
type Config struct {
	Env  string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Port string `yaml:"port" env:"PORT" env-default:"8080"`

	DBPath        string `yaml:"db_path" env:"DB_PATH" env-default:"./dev.db"`
	MigrationsDir string `yaml:"migrations_dir" env:"MIGRATIONS_DIR" env-default:"migrations"`
	AutoMigrate   bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE" env-default:"false"`

	// APIToken guards /api/* when set. Secret, env only.
	APIToken string `yaml:"-" env:"API_TOKEN"`

	// Reference data files. Empty paths fall back to the database, then to
	// the built-in tables.
	BaselinesPath string `yaml:"baselines_path" env:"BASELINES_PATH"`
	PricingPath   string `yaml:"pricing_path" env:"PRICING_PATH"`
	FactorsPath   string `yaml:"factors_path" env:"FACTORS_PATH"`

	// SeedRefresh overwrites stored reference rows with the loaded ones.
	SeedRefresh bool `yaml:"seed_refresh" env:"SEED_REFRESH" env-default:"false"`

	TaxRate float64 `yaml:"tax_rate" env:"TAX_RATE" env-default:"0"`

	Estimator EstimatorConfig `yaml:"estimator"`
	Inference InferenceConfig `yaml:"inference"`
}

// EstimatorConfig holds the fallbacks for fields a job leaves unset.
type EstimatorConfig struct {
	DriveTimeMinutes float64 `yaml:"drive_time_minutes" env:"ESTIMATOR_DRIVE_TIME_MINUTES" env-default:"25"`
	StorageMonths    int     `yaml:"storage_months" env:"ESTIMATOR_STORAGE_MONTHS" env-default:"2"`
	TargetMargin     float64 `yaml:"target_margin" env:"ESTIMATOR_TARGET_MARGIN" env-default:"0.65"`
	PackBackDiscount float64 `yaml:"pack_back_discount" env:"ESTIMATOR_PACK_BACK_DISCOUNT" env-default:"0.14"`
	BubbleWrapWidth  int     `yaml:"bubble_wrap_width" env:"ESTIMATOR_BUBBLE_WRAP_WIDTH" env-default:"48"`
}

// InferenceConfig holds the calibrated box-inference thresholds.
type InferenceConfig struct {
	DensityBump  float64 `yaml:"density_bump" env:"INFERENCE_DENSITY_BUMP" env-default:"1.5"`
	ClosetBoost  float64 `yaml:"closet_boost" env:"INFERENCE_CLOSET_BOOST" env-default:"1.75"`
	HiddenTrust  float64 `yaml:"hidden_trust" env:"INFERENCE_HIDDEN_TRUST" env-default:"0.5"`
	VisibleTrust float64 `yaml:"visible_trust" env:"INFERENCE_VISIBLE_TRUST" env-default:"0.4"`
}

// Load reads .env, then config.yaml if it exists, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{}
	if _, err := os.Stat(configFile); err == nil {
		if err := cleanenv.ReadConfig(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Thresholds().Validate(); err != nil {
		return nil, fmt.Errorf("invalid inference configuration: %w", err)
	}
	if cfg.TaxRate < 0 {
		return nil, fmt.Errorf("invalid tax rate %v", cfg.TaxRate)
	}
	return cfg, nil
}

// IsDev reports whether the server runs in a local development environment.
func (c *Config) IsDev() bool {
	return c.Env == "local" || c.Env == "dev" || c.Env == "development"
}

func (c *Config) Settings() estimate.Settings {
	return estimate.Settings{
		DriveTimeMinutes: c.Estimator.DriveTimeMinutes,
		StorageMonths:    c.Estimator.StorageMonths,
		TargetMargin:     c.Estimator.TargetMargin,
		PackBackDiscount: c.Estimator.PackBackDiscount,
		BubbleWrapWidth:  c.Estimator.BubbleWrapWidth,
	}
}

func (c *Config) Thresholds() rooms.Thresholds {
	return rooms.Thresholds{
		DensityBump:  c.Inference.DensityBump,
		ClosetBoost:  c.Inference.ClosetBoost,
		HiddenTrust:  c.Inference.HiddenTrust,
		VisibleTrust: c.Inference.VisibleTrust,
	}
}
