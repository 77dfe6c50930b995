// Package presence tracks device liveness from MQTT heartbeats.
//
// Field devices publish periodic heartbeats to
// inventory/heartbeat/{device_id}. The Monitor subscribes to the
// wildcard pattern, bumps each device's last-seen timestamp on arrival,
// and flips offline devices back online. A background sweeper marks
// devices offline once their heartbeats stop for longer than the
// configured cutoff.
//
// Error and maintenance states are operator-owned: the monitor never
// overrides them in either direction.
//
// # Usage
//
//	monitor := presence.NewMonitor(mqttClient, registry, influxClient, presence.Config{
//	    OfflineAfter:  2 * time.Minute,
//	    SweepInterval: 30 * time.Second,
//	})
//	monitor.SetLogger(log)
//	if err := monitor.Start(ctx); err != nil {
//	    return err
//	}
//	defer monitor.Stop()
package presence
