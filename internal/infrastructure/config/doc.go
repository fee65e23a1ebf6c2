// Package config handles loading and validating zoneshadow configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields (all problems reported together)
//   - Default value handling
//
// Security Considerations:
//   - The private key path points at device credentials; keep the file 0600
//   - Tokens (InfluxDB) should be set via environment variables
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, z := range cfg.Zones {
//	    fmt.Println(z.Name, z.DeviceID)
//	}
package config
