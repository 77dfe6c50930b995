package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStatusChange records a device status transition. The write is
// non-blocking; points are batched and sent asynchronously. Statuses are
// stored as tags so dashboards can group transitions without regex on
// field values.
func (c *Client) WriteStatusChange(deviceID string, fromStatus string, toStatus string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"status_changes",
		map[string]string{
			"device_id": deviceID,
			"from":      fromStatus,
			"to":        toStatus,
		},
		map[string]interface{}{
			"count": int64(1),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteHeartbeat records a heartbeat observation. intervalSeconds is the
// gap since the previous heartbeat (0 when first seen); charting it spots
// devices whose cadence is degrading before they go offline.
func (c *Client) WriteHeartbeat(deviceID string, intervalSeconds float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"heartbeats",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"interval_seconds": intervalSeconds,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteFleetStats records an aggregate fleet snapshot. Called on a timer
// so dashboards can chart fleet health without querying the relational
// store.
func (c *Client) WriteFleetStats(total int, online int, needsAttention int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"fleet_stats",
		map[string]string{},
		map[string]interface{}{
			"total":           total,
			"online":          online,
			"needs_attention": needsAttention,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
