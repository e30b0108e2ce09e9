// Package config loads the iotmarket application configuration.
//
// Viper reads config.yml from the standard search paths, godotenv loads a
// .env file into the process environment, and IOTMARKET_* variables
// override file keys (IOTMARKET_LOGGING_LEVEL sets logging.level).
// Deployment variables such as PORT or HOST are not read here; the
// bootstrap resolution chains consult them directly.
//
// # Usage
//
//	var cfg config.AppConfig
//	if err := config.LoadConfig("iotmarket", &cfg); err != nil { ... }
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil { ... }
package config
