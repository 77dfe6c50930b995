package influxdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmcavoy/inventory-core/internal/infrastructure/config"
	"github.com/jmcavoy/inventory-core/internal/infrastructure/influxdb"
)

// testConfig points at the local dev InfluxDB from docker-compose.yml.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "inventory-dev-token",
		Org:           "inventory",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectTest connects to the dev server, skipping when it is not up.
func connectTest(t *testing.T) *influxdb.Client {
	t.Helper()
	client, err := influxdb.Connect(testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// writeErrorRecorder registers an error callback and returns a getter for
// the last async write failure.
func writeErrorRecorder(client *influxdb.Client) func() error {
	var mu sync.Mutex
	var writeErr error
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})
	return func() error {
		mu.Lock()
		defer mu.Unlock()
		return writeErr
	}
}

func TestConnect(t *testing.T) {
	client := connectTest(t)

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // nothing listens here

	if _, err := influxdb.Connect(cfg); err == nil {
		t.Fatal("Connect() expected error for unreachable server")
	}
}

func TestConnect_BatchDefaults(t *testing.T) {
	// Zero and negative batch settings must fall back to defaults rather
	// than panic in the uint conversion.
	for _, batch := range []int{0, -5} {
		cfg := testConfig()
		cfg.BatchSize = batch
		cfg.FlushInterval = batch

		client, err := influxdb.Connect(cfg)
		if err != nil {
			t.Skipf("InfluxDB not available: %v", err)
		}
		client.Close()
	}
}

func TestHealthCheck(t *testing.T) {
	client := connectTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestHealthCheck_CancelledContext(t *testing.T) {
	client := connectTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

func TestWriteStatusChange(t *testing.T) {
	client := connectTest(t)
	lastErr := writeErrorRecorder(client)

	client.WriteStatusChange("dev-42", "offline", "online")
	client.Flush()

	time.Sleep(100 * time.Millisecond)
	if err := lastErr(); err != nil {
		t.Errorf("async write error = %v", err)
	}
}

func TestWriteHeartbeat(t *testing.T) {
	client := connectTest(t)
	lastErr := writeErrorRecorder(client)

	client.WriteHeartbeat("dev-42", 30.5)
	client.Flush()

	time.Sleep(100 * time.Millisecond)
	if err := lastErr(); err != nil {
		t.Errorf("async write error = %v", err)
	}
}

func TestWriteFleetStats(t *testing.T) {
	client := connectTest(t)
	lastErr := writeErrorRecorder(client)

	client.WriteFleetStats(42, 38, 3)
	client.Flush()

	time.Sleep(100 * time.Millisecond)
	if err := lastErr(); err != nil {
		t.Errorf("async write error = %v", err)
	}
}

func TestWriteAfterClose_Dropped(t *testing.T) {
	client := connectTest(t)
	client.Close()

	// Writes after Close must be silent no-ops, not panics.
	client.WriteHeartbeat("dev-42", 15.0)
	client.WriteStatusChange("dev-42", "online", "offline")
	client.Flush()
}

func TestClose(t *testing.T) {
	cfg := testConfig()
	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}

	client.WriteHeartbeat("dev-7", 15.0)

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}
