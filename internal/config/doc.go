// Package config loads, normalizes, and validates ptpkit configuration.
//
// Configuration is TOML, located via --config, $PTPAPI_CONFIG,
// ~/.config/ptpkit/config.toml, or ./ptpkit.toml. PTPAPI_* environment
// variables override file values so existing shell setups keep working.
// Load always returns a fully normalized Config: paths are expanded, lists are
// de-duplicated, and enum-like fields are lower-cased.
package config
