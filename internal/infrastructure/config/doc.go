// Package config handles loading and validating xmlruntime tool configuration.
//
// This is the tool's own settings file (logging, loader limits, history,
// notification sinks), not the runtime XML documents it loads.
//
// This package manages:
//   - Loading configuration from YAML or TOML files (by extension)
//   - Overriding with environment variables (XMLRUNTIME_*)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via
//     environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/xmlruntime.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Output.Format)
package config
