// Package config loads Inventory Core's runtime configuration.
//
// Settings resolve in three layers: built-in defaults, then the YAML
// file, then INVENTORY_* environment variables, with Validate run on
// the result. Secrets (the MQTT password, the InfluxDB token) belong in
// the environment, not in the file.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
package config
