// Package config provides centralized configuration management for the
// factor-construction engine. It handles loading configuration from multiple
// sources, validation, and a type-safe API for every knob a run depends on.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern APC_* for namespacing:
//
//	APC_PANEL_MIN_DISCLOSURE_LAG_MONTHS=6
//	APC_FACTORS_BREAKPOINT_QUANTILES=0.30,0.70
//	APC_FACTORS_WEIGHTING_SCHEME=value
//	APC_VALIDATION_TOLERANCE=0.0001
//	APC_LOGGING_LEVEL=info
//
// # Validation
//
// All configuration is validated at load time: quantile lists must be
// strictly increasing inside (0,1), enumerated fields must hold one of their
// admissible values, penalty returns must lie in [-1, 0], and the comparison
// start date must parse. Violations are configuration errors and abort
// startup; nothing is corrected silently.
//
// # Usage
//
// Load configuration at startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// or take the canonical defaults when driving the engine as a library:
//
//	cfg := config.Default()
package config
