package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/de-tools/finops-sentinel/pkg/apperr"
	"github.com/de-tools/finops-sentinel/pkg/resilience"
	"github.com/de-tools/finops-sentinel/pkg/services/budget"
	"github.com/de-tools/finops-sentinel/pkg/services/cost"
	"github.com/de-tools/finops-sentinel/pkg/services/waste"
)

const (
	EnvPrefix      = "FINOPS"
	settingsName   = "finops"
	configDirName  = ".finops"
	profilesName   = "profiles"
	defaultAddress = ":8080"
)

type GovernanceSettings struct {
	// RulesFile replaces the built-in risk and compliance rule tables when set
	RulesFile    string   `mapstructure:"rules_file"`
	MinRiskScore int      `mapstructure:"min_risk_score"`
	Frameworks   []string `mapstructure:"frameworks"`
}

// PricingSettings lists the price sources layered over the built-in table, in order.
type PricingSettings struct {
	File      string `mapstructure:"file"`
	S3Bucket  string `mapstructure:"s3_bucket"`
	S3Key     string `mapstructure:"s3_key"`
	S3Region  string `mapstructure:"s3_region"`
	SQLDriver string `mapstructure:"sql_driver"` // databricks or snowflake
	SQLDSN    string `mapstructure:"sql_dsn"`
	SQLQuery  string `mapstructure:"sql_query"`
}

type ServerSettings struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Settings struct {
	ProfilesFile string              `mapstructure:"profiles_file"`
	LogLevel     string              `mapstructure:"log_level"`
	Resilience   resilience.Settings `mapstructure:"resilience"`
	Cost         cost.Settings       `mapstructure:"cost"`
	Waste        waste.Settings      `mapstructure:"waste"`
	Budget       budget.Settings     `mapstructure:"budget"`
	Governance   GovernanceSettings  `mapstructure:"governance"`
	Pricing      PricingSettings     `mapstructure:"pricing"`
	Server       ServerSettings      `mapstructure:"server"`
}

func DefaultSettings() Settings {
	return Settings{
		ProfilesFile: DefaultProfilesPath(),
		LogLevel:     "info",
		Resilience:   resilience.DefaultSettings(),
		Cost:         cost.DefaultSettings(),
		Waste:        waste.DefaultSettings(),
		Budget:       budget.DefaultSettings(),
		Governance: GovernanceSettings{
			MinRiskScore: 5,
		},
		Server: ServerSettings{
			Addr:            defaultAddress,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

func DefaultProfilesPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(configDirName, profilesName)
	}
	return filepath.Join(home, configDirName, profilesName)
}

// LoadSettings reads finops.yaml from path, or from the working directory and ~/.finops when path
// is empty, and applies FINOPS_* environment overrides (FINOPS_COST_THRESHOLD for cost.threshold).
// A missing file is not an error unless path names it explicitly.
func LoadSettings(path string) (Settings, error) {
	const op = "config.load_settings"

	v := viper.New()
	setDefaults(v, DefaultSettings())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(settingsName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, configDirName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, apperr.InvalidArgument(op, "failed to read config file: %v", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, apperr.InvalidArgument(op, "failed to parse settings: %v", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s Settings) Validate() error {
	const op = "config.validate"

	if err := s.Resilience.Validate(); err != nil {
		return apperr.InvalidArgument(op, "resilience: %v", err)
	}
	if err := s.Cost.Validate(); err != nil {
		return fmt.Errorf("cost settings: %w", err)
	}
	if err := s.Budget.Validate(); err != nil {
		return fmt.Errorf("budget settings: %w", err)
	}
	if s.Waste.PublicIPGracePeriod < 0 || s.Waste.DefaultDiskPrice < 0 || s.Waste.DefaultPublicIPPrice < 0 {
		return apperr.InvalidArgument(op, "waste: grace period and default prices must not be negative")
	}
	if s.Governance.MinRiskScore < 1 || s.Governance.MinRiskScore > 10 {
		return apperr.InvalidArgument(op, "governance: min risk score %d outside [1, 10]", s.Governance.MinRiskScore)
	}
	if (s.Pricing.S3Bucket == "") != (s.Pricing.S3Key == "") {
		return apperr.InvalidArgument(op, "pricing: s3_bucket and s3_key must be set together")
	}
	switch s.Pricing.SQLDriver {
	case "", "databricks", "snowflake":
	default:
		return apperr.InvalidArgument(op, "pricing: unsupported sql driver %q", s.Pricing.SQLDriver)
	}
	if (s.Pricing.SQLDriver == "") != (s.Pricing.SQLDSN == "") {
		return apperr.InvalidArgument(op, "pricing: sql_driver and sql_dsn must be set together")
	}
	return nil
}

func setDefaults(v *viper.Viper, d Settings) {
	v.SetDefault("profiles_file", d.ProfilesFile)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("resilience.max_attempts", d.Resilience.MaxAttempts)
	v.SetDefault("resilience.base_delay", d.Resilience.BaseDelay)
	v.SetDefault("resilience.max_delay", d.Resilience.MaxDelay)
	v.SetDefault("resilience.jitter_factor", d.Resilience.JitterFactor)
	v.SetDefault("resilience.attempt_timeout", d.Resilience.AttemptTimeout)
	v.SetDefault("resilience.concurrency", d.Resilience.Concurrency)

	v.SetDefault("cost.window_days", d.Cost.WindowDays)
	v.SetDefault("cost.min_history", d.Cost.MinHistory)
	v.SetDefault("cost.threshold", d.Cost.Threshold)

	v.SetDefault("waste.public_ip_grace_period", d.Waste.PublicIPGracePeriod)
	v.SetDefault("waste.default_disk_price", d.Waste.DefaultDiskPrice)
	v.SetDefault("waste.default_public_ip_price", d.Waste.DefaultPublicIPPrice)

	v.SetDefault("budget.default_region", d.Budget.DefaultRegion)
	v.SetDefault("budget.premium_ceiling", d.Budget.PremiumCeiling)
	v.SetDefault("budget.premium_percentile", d.Budget.PremiumPercentile)
	v.SetDefault("budget.default_disk_size_gb", d.Budget.DefaultDiskSizeGB)
	v.SetDefault("budget.default_storage_gb", d.Budget.DefaultStorageGB)

	v.SetDefault("governance.rules_file", d.Governance.RulesFile)
	v.SetDefault("governance.min_risk_score", d.Governance.MinRiskScore)
	v.SetDefault("governance.frameworks", d.Governance.Frameworks)

	v.SetDefault("pricing.file", d.Pricing.File)
	v.SetDefault("pricing.s3_bucket", d.Pricing.S3Bucket)
	v.SetDefault("pricing.s3_key", d.Pricing.S3Key)
	v.SetDefault("pricing.s3_region", d.Pricing.S3Region)
	v.SetDefault("pricing.sql_driver", d.Pricing.SQLDriver)
	v.SetDefault("pricing.sql_dsn", d.Pricing.SQLDSN)
	v.SetDefault("pricing.sql_query", d.Pricing.SQLQuery)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
}
