package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/aidanvyas/asset-pricing-code/internal/errors"
)

// Config is the complete engine configuration. Every knob the run depends on
// lives here; nothing is read from the environment after Load returns.
type Config struct {
	Panel         PanelConfig         `yaml:"panel" envconfig:"PANEL"`
	Factors       FactorsConfig       `yaml:"factors" envconfig:"FACTORS"`
	Validation    ValidationConfig    `yaml:"validation" envconfig:"VALIDATION"`
	Compute       ComputeConfig       `yaml:"compute" envconfig:"COMPUTE"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// PanelConfig governs point-in-time alignment of accounting data.
type PanelConfig struct {
	// MinDisclosureLagMonths is the minimum number of months between a fiscal
	// period end and the date its record may inform any computation. Records
	// arriving with an availability date inside the lag fail integrity
	// checking; records arriving without one get fiscal-year-end plus this
	// lag, snapped to month end.
	MinDisclosureLagMonths int `yaml:"min_disclosure_lag_months" envconfig:"MIN_DISCLOSURE_LAG_MONTHS" validate:"min=1,max=24"`
}

// FactorsConfig governs universe membership, breakpoints, sorting and
// aggregation.
type FactorsConfig struct {
	RebalanceFrequency      string    `yaml:"rebalance_frequency" envconfig:"REBALANCE_FREQUENCY" validate:"oneof=monthly annual"`
	BreakpointQuantiles     []float64 `yaml:"breakpoint_quantiles" envconfig:"BREAKPOINT_QUANTILES"`
	SizeQuantiles           []float64 `yaml:"size_quantiles" envconfig:"SIZE_QUANTILES"`
	WeightingScheme         string    `yaml:"weighting_scheme" envconfig:"WEIGHTING_SCHEME" validate:"oneof=equal value"`
	UniverseExchangeCodes   []int     `yaml:"universe_exchange_codes" envconfig:"UNIVERSE_EXCHANGE_CODES" validate:"min=1"`
	UniverseShareCodes      []int     `yaml:"universe_share_codes" envconfig:"UNIVERSE_SHARE_CODES" validate:"min=1"`
	BreakpointExchangeCodes []int     `yaml:"breakpoint_exchange_codes" envconfig:"BREAKPOINT_EXCHANGE_CODES" validate:"min=1"`

	// Penalty returns substituted when a performance-related delisting has no
	// recorded return: major exchanges (codes 1-2) and the dealer market
	// (code 3).
	DelistingPenaltyMajor float64 `yaml:"delisting_penalty_major" envconfig:"DELISTING_PENALTY_MAJOR" validate:"min=-1,max=0"`
	DelistingPenaltyMinor float64 `yaml:"delisting_penalty_minor" envconfig:"DELISTING_PENALTY_MINOR" validate:"min=-1,max=0"`

	// Momentum at month t averages returns over the window ending
	// MomentumSkipMonths before t; all window months must be present.
	MomentumWindowMonths int `yaml:"momentum_window_months" envconfig:"MOMENTUM_WINDOW_MONTHS" validate:"min=1"`
	MomentumSkipMonths   int `yaml:"momentum_skip_months" envconfig:"MOMENTUM_SKIP_MONTHS" validate:"min=1"`
}

// ValidationConfig governs the reference-series comparison.
type ValidationConfig struct {
	Tolerance float64 `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gt=0"`
	StartDate string  `yaml:"start_date" envconfig:"START_DATE" validate:"required"`
}

// ComputeConfig governs the per-date worker pool.
type ComputeConfig struct {
	// MaxParallelDates bounds concurrent rebalance-date computations;
	// zero means one worker per CPU.
	MaxParallelDates int `yaml:"max_parallel_dates" envconfig:"MAX_PARALLEL_DATES" validate:"min=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output string `yaml:"output" envconfig:"OUTPUT"`
}

// ObservabilityConfig selects trace and metric exporters.
type ObservabilityConfig struct {
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
}

// Load builds the configuration in order of precedence: canonical defaults,
// then an optional YAML file, then environment variables (prefix APC), then
// validation. Environment values always win.
func Load() (*Config, error) {
	cfg := *Default()

	configFile := os.Getenv(EnvPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = DefaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := overlayFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the canonical configuration used when the engine is driven
// as a library without environment setup.
func Default() *Config {
	return &Config{
		Panel: PanelConfig{MinDisclosureLagMonths: 6},
		Factors: FactorsConfig{
			RebalanceFrequency:      "annual",
			BreakpointQuantiles:     []float64{0.30, 0.70},
			SizeQuantiles:           []float64{0.50},
			WeightingScheme:         "value",
			UniverseExchangeCodes:   []int{1, 2, 3},
			UniverseShareCodes:      []int{10, 11},
			BreakpointExchangeCodes: []int{1},
			DelistingPenaltyMajor:   -0.30,
			DelistingPenaltyMinor:   -0.55,
			MomentumWindowMonths:    11,
			MomentumSkipMonths:      2,
		},
		Validation: ValidationConfig{
			Tolerance: 0.0001,
			StartDate: DefaultValidationStart,
		},
		Compute: ComputeConfig{MaxParallelDates: 0},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
		Observability: ObservabilityConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
		},
	}
}

// overlayFile unmarshals a YAML file on top of cfg; fields absent from the
// file keep their current values.
func overlayFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks structural tags and the cross-field rules tags cannot
// express. Violations are configuration errors, fatal at startup.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.WrapError(apperrors.ErrorTypeConfiguration, "config", "struct validation failed", err)
	}

	if err := validateQuantiles("breakpoint_quantiles", c.Factors.BreakpointQuantiles); err != nil {
		return err
	}
	if err := validateQuantiles("size_quantiles", c.Factors.SizeQuantiles); err != nil {
		return err
	}

	if _, err := time.Parse(DateFormat, c.Validation.StartDate); err != nil {
		return apperrors.NewConfigurationError("validation.start_date",
			fmt.Sprintf("must be in format %q: %v", DateFormat, err))
	}
	return nil
}

// validateQuantiles enforces a non-empty, strictly increasing list inside
// the open unit interval.
func validateQuantiles(field string, qs []float64) error {
	if len(qs) == 0 {
		return apperrors.NewConfigurationError(field, "must not be empty")
	}
	for i, q := range qs {
		if q <= 0 || q >= 1 {
			return apperrors.NewConfigurationError(field,
				fmt.Sprintf("quantile %g at position %d is outside (0,1)", q, i))
		}
		if i > 0 && qs[i-1] >= q {
			return apperrors.NewConfigurationError(field,
				fmt.Sprintf("quantiles must be strictly increasing, got %g after %g", q, qs[i-1]))
		}
	}
	return nil
}

// ValidationStart returns the parsed comparison start date. Validate must
// have succeeded first.
func (c *Config) ValidationStart() time.Time {
	t, _ := time.Parse(DateFormat, c.Validation.StartDate)
	return t
}
