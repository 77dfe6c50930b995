package presence

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmcavoy/inventory-core/internal/infrastructure/mqtt"
	"github.com/jmcavoy/inventory-core/internal/inventory"
)

// Default intervals for presence tracking.
const (
	defaultOfflineAfter  = 120 * time.Second
	defaultSweepInterval = 30 * time.Second
	defaultQoS           = 1
)

// Broker is the subset of the MQTT client used by the monitor.
type Broker interface {
	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error

	// Unsubscribe removes a subscription.
	Unsubscribe(topic string) error
}

// DeviceStore is the subset of the inventory registry used by the monitor.
type DeviceStore interface {
	GetDevice(ctx context.Context, id string) (*inventory.Device, error)
	ListDevices(ctx context.Context) ([]inventory.Device, error)
	TouchLastSeen(ctx context.Context, id string, seenAt time.Time) error
	SetStatus(ctx context.Context, id string, status inventory.Status) error
}

// Recorder receives presence telemetry for time-series storage.
// Implemented by the influxdb client; nil disables recording.
type Recorder interface {
	WriteStatusChange(deviceID string, fromStatus string, toStatus string)
	WriteHeartbeat(deviceID string, intervalSeconds float64)
}

// Logger is the minimal logging interface the monitor needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds monitor settings.
type Config struct {
	// OfflineAfter is how long a device may go without a heartbeat
	// before the sweeper marks it offline. Default: 120 seconds.
	OfflineAfter time.Duration

	// SweepInterval is how often the sweeper runs. Default: 30 seconds.
	SweepInterval time.Duration

	// QoS for the heartbeat subscription. Default: 1.
	QoS byte
}

// Monitor tracks device presence from MQTT heartbeats.
//
// Devices publish to inventory/heartbeat/{device_id}; each message bumps
// the device's last-seen timestamp and flips it online if it was offline.
// A background sweeper marks devices offline once their last heartbeat is
// older than the configured cutoff. Devices in error or maintenance are
// never touched by the sweeper: those states are operator-owned.
type Monitor struct {
	broker   Broker
	store    DeviceStore
	recorder Recorder
	cfg      Config

	// lastBeat tracks the previous heartbeat per device for
	// interval telemetry.
	lastBeat   map[string]time.Time
	lastBeatMu sync.Mutex

	// now is swapped in tests.
	now func() time.Time

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewMonitor creates a presence monitor. Zero-value config fields fall
// back to defaults. The recorder may be nil.
func NewMonitor(broker Broker, store DeviceStore, recorder Recorder, cfg Config) *Monitor {
	if cfg.OfflineAfter <= 0 {
		cfg.OfflineAfter = defaultOfflineAfter
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.QoS == 0 {
		cfg.QoS = defaultQoS
	}

	return &Monitor{
		broker:   broker,
		store:    store,
		recorder: recorder,
		cfg:      cfg,
		lastBeat: make(map[string]time.Time),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// SetLogger sets the logger for this monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.loggerMu.Lock()
	m.logger = logger
	m.loggerMu.Unlock()
}

// Start subscribes to heartbeats and launches the offline sweeper.
// Call Stop to shut down.
func (m *Monitor) Start(ctx context.Context) error {
	pattern := mqtt.Topics{}.AllHeartbeats()
	if err := m.broker.Subscribe(pattern, m.cfg.QoS, m.handleHeartbeat); err != nil {
		return fmt.Errorf("presence: subscribe %s: %w", pattern, err)
	}

	m.wg.Add(1)
	go m.sweepLoop(ctx)

	m.logInfo("presence monitor started",
		"offline_after", m.cfg.OfflineAfter.String(),
		"sweep_interval", m.cfg.SweepInterval.String())
	return nil
}

// Stop unsubscribes and waits for the sweeper to finish.
// Safe to call multiple times.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()

		// Best-effort; the broker connection may already be gone.
		//nolint:errcheck
		m.broker.Unsubscribe(mqtt.Topics{}.AllHeartbeats())
	})
}

// handleHeartbeat processes one heartbeat message. The payload is
// ignored: the topic carries the device ID and arrival time is the
// signal.
func (m *Monitor) handleHeartbeat(topic string, payload []byte) error {
	deviceID, ok := deviceIDFromTopic(topic)
	if !ok {
		m.logWarn("heartbeat on unexpected topic", "topic", topic)
		return nil
	}

	ctx := context.Background()
	seenAt := m.now().UTC()

	device, err := m.store.GetDevice(ctx, deviceID)
	if err != nil {
		// Heartbeats from unregistered devices are expected during
		// commissioning; log and move on.
		m.logWarn("heartbeat from unknown device", "device_id", deviceID, "error", err)
		return nil
	}

	if err := m.store.TouchLastSeen(ctx, deviceID, seenAt); err != nil {
		m.logError("failed to record heartbeat", "device_id", deviceID, "error", err)
		return err
	}

	m.recordInterval(deviceID, seenAt)

	// Only offline devices flip online on a heartbeat. Error and
	// maintenance are operator-owned states.
	if device.Status == inventory.StatusOffline {
		if err := m.store.SetStatus(ctx, deviceID, inventory.StatusOnline); err != nil {
			m.logError("failed to mark device online", "device_id", deviceID, "error", err)
			return err
		}
		if m.recorder != nil {
			m.recorder.WriteStatusChange(deviceID, string(inventory.StatusOffline), string(inventory.StatusOnline))
		}
		m.logInfo("device online", "device_id", deviceID)
	}

	return nil
}

// recordInterval writes heartbeat cadence telemetry.
func (m *Monitor) recordInterval(deviceID string, seenAt time.Time) {
	m.lastBeatMu.Lock()
	prev, seen := m.lastBeat[deviceID]
	m.lastBeat[deviceID] = seenAt
	m.lastBeatMu.Unlock()

	if m.recorder == nil {
		return
	}

	interval := 0.0
	if seen {
		interval = seenAt.Sub(prev).Seconds()
	}
	m.recorder.WriteHeartbeat(deviceID, interval)
}

// sweepLoop periodically marks stale devices offline.
func (m *Monitor) sweepLoop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep marks online devices offline when their last heartbeat is older
// than the cutoff. Devices that have never reported stay as they are.
func (m *Monitor) sweep(ctx context.Context) {
	devices, err := m.store.ListDevices(ctx)
	if err != nil {
		m.logError("sweep: failed to list devices", "error", err)
		return
	}

	cutoff := m.now().Add(-m.cfg.OfflineAfter)

	for i := range devices {
		d := &devices[i]
		if d.Status != inventory.StatusOnline {
			continue
		}
		if d.LastSeenAt == nil || !d.LastSeenAt.Before(cutoff) {
			continue
		}

		if err := m.store.SetStatus(ctx, d.ID, inventory.StatusOffline); err != nil {
			m.logError("sweep: failed to mark device offline", "device_id", d.ID, "error", err)
			continue
		}
		if m.recorder != nil {
			m.recorder.WriteStatusChange(d.ID, string(inventory.StatusOnline), string(inventory.StatusOffline))
		}
		m.logInfo("device offline", "device_id", d.ID, "last_seen", d.LastSeenAt.Format(time.RFC3339))
	}
}

// deviceIDFromTopic extracts the device ID from a heartbeat topic.
// Expects inventory/heartbeat/{device_id} exactly.
func deviceIDFromTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != mqtt.TopicPrefix || parts[1] != "heartbeat" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

func (m *Monitor) logInfo(msg string, args ...any) {
	m.loggerMu.RLock()
	logger := m.logger
	m.loggerMu.RUnlock()
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func (m *Monitor) logWarn(msg string, args ...any) {
	m.loggerMu.RLock()
	logger := m.logger
	m.loggerMu.RUnlock()
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func (m *Monitor) logError(msg string, args ...any) {
	m.loggerMu.RLock()
	logger := m.logger
	m.loggerMu.RUnlock()
	if logger != nil {
		logger.Error(msg, args...)
	}
}
