//go:build integration

package mqtt

import (
	"encoding/json"
	"testing"
	"time"
)

// Integration tests against a live broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 ./internal/infrastructure/mqtt/...

// TestIntegration_RetainedStatusSurvivesSubscriber checks the pattern the
// API and dashboards rely on: a device status published retained must be
// delivered to a subscriber that connects afterwards.
func TestIntegration_RetainedStatusSurvivesSubscriber(t *testing.T) {
	pub := connectTest(t, "inventory-int-retain-pub")

	topic := Topics{}.DeviceStatus("dev-int-1")
	payload := []byte(`{"device_id":"dev-int-1","status":"online"}`)
	if err := pub.PublishRetained(topic, payload); err != nil {
		t.Fatalf("PublishRetained() error = %v", err)
	}

	// Subscribe after the publish; the broker must replay the retained value.
	sub := connectTest(t, "inventory-int-retain-sub")
	received := make(chan []byte, 1)
	err := sub.Subscribe(topic, 1, func(_ string, p []byte) error {
		select {
		case received <- p:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	select {
	case got := <-received:
		if string(got) != string(payload) {
			t.Errorf("retained payload = %s, want %s", got, payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("retained status never delivered")
	}

	// Clear the retained message so reruns start clean.
	pub.Publish(topic, nil, 1, true)
}

// TestIntegration_CloseAnnouncesGracefulShutdown verifies Close publishes
// a shutdown status distinct from the crash Will.
func TestIntegration_CloseAnnouncesGracefulShutdown(t *testing.T) {
	watcher := connectTest(t, "inventory-int-watcher")

	type statusMsg struct {
		Status   string `json:"status"`
		ClientID string `json:"client_id"`
		Reason   string `json:"reason"`
	}
	statuses := make(chan statusMsg, 8)

	err := watcher.Subscribe(Topics{}.SystemStatus(), 1, func(_ string, p []byte) error {
		var msg statusMsg
		if err := json.Unmarshal(p, &msg); err != nil {
			return err
		}
		statuses <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	cfg := testConfig()
	cfg.Broker.ClientID = "inventory-int-shutdown"
	subject, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	subject.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-statuses:
			if msg.ClientID != "inventory-int-shutdown" || msg.Status != "offline" {
				continue
			}
			if msg.Reason != "graceful_shutdown" {
				t.Errorf("offline reason = %q, want graceful_shutdown", msg.Reason)
			}
			return
		case <-deadline:
			t.Fatal("no offline status observed for closed client")
		}
	}
}
