package config

// Application constants shared across the engine.
const (
	// Application info
	AppName    = "asset-pricing-engine"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable (APC_PANEL_..., APC_FACTORS_...).
	EnvPrefix = "APC"

	// DefaultConfigFile is the YAML overlay looked up when APC_CONFIG_FILE is unset.
	DefaultConfigFile = "config.yaml"

	// DateFormat is the calendar-date layout used in configuration and reports.
	DateFormat = "2006-01-02"

	// DefaultValidationStart is the first month the reference comparison
	// covers; earlier months carry too little accounting coverage to sort on.
	DefaultValidationStart = "1963-07-01"
)
