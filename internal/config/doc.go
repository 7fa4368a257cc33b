// Package config provides configuration management for the dashboard.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority)
//  2. YAML configuration file
//  3. Default values (lowest priority)
//
// A .env file in the working directory is loaded into the environment
// before variables are read; variables already set are not overridden.
//
// # Environment Variables
//
// All environment variables follow the pattern STOCKDASH_<SECTION>_<FIELD>:
//
//	STOCKDASH_SERVER_PORT=8080
//	STOCKDASH_UPLOAD_MAX_BYTES=33554432
//	STOCKDASH_NORMALIZE_SUBTOTAL_MODE=prefix
//	STOCKDASH_TELEMETRY_TRACES_EXPORTER=stdout
//
// The YAML file is config.yaml or configs/config.yaml, or the file named by
// STOCKDASH_CONFIG. Report layouts can only be overridden from the file:
//
//	layouts:
//	  stock:
//	    skip_rows: [0, 1, 2, 3, 5, 6]
//	    header_row: 4
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stockCfg, _ := cfg.StockConfig()
package config
