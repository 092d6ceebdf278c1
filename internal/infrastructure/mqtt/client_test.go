package mqtt

import (
	"strings"
	"testing"
)

func TestTopics_DeviceTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"device data", topics.DeviceData("123"), "devices/123/data"},
		{"device commands", topics.DeviceCommands("123"), "devices/123/commands"},
		{"all device data", topics.AllDeviceData(), "devices/+/data"},
		{"all device commands", topics.AllDeviceCommands(), "devices/+/commands"},
		{"system status", topics.SystemStatus(), "cathodic/system/status"},
		{"notification", topics.CoreNotification("command_timeout"), "cathodic/core/notify/command_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDeviceIDFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"devices/123/data", "123"},
		{"devices/rect-07/commands", "rect-07"},
		{"devices//data", ""},
		{"devices/123", ""},
		{"devices/123/data/extra", ""},
		{"cathodic/system/status", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			if got := DeviceIDFromTopic(tt.topic); got != tt.want {
				t.Errorf("DeviceIDFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestPublish_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Publish("", []byte("x"), 1, false); err != ErrInvalidTopic {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Publish("devices/1/commands", []byte("x"), 3, false); err != ErrInvalidQoS {
		t.Errorf("invalid qos: got %v, want ErrInvalidQoS", err)
	}

	oversized := []byte(strings.Repeat("a", maxPayloadSize+1))
	err := c.Publish("devices/1/commands", oversized, 1, false)
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("oversized payload: got %v, want size error", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if err := c.Subscribe("", 1, func(string, []byte) error { return nil }); err != ErrInvalidTopic {
		t.Errorf("empty topic: got %v, want ErrInvalidTopic", err)
	}
	if err := c.Subscribe("devices/+/data", 5, func(string, []byte) error { return nil }); err != ErrInvalidQoS {
		t.Errorf("invalid qos: got %v, want ErrInvalidQoS", err)
	}

	err := c.Subscribe("devices/+/data", 1, nil)
	if err == nil || !strings.Contains(err.Error(), "handler cannot be nil") {
		t.Errorf("nil handler: got %v, want handler error", err)
	}
}

func TestSubscriptionTracking(t *testing.T) {
	c := &Client{subscriptions: make(map[string]subscription)}

	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}

	c.subMu.Lock()
	c.subscriptions["devices/+/data"] = subscription{topic: "devices/+/data", qos: 1}
	c.subMu.Unlock()

	if !c.HasSubscription("devices/+/data") {
		t.Error("HasSubscription() = false, want true")
	}
	if c.HasSubscription("devices/+/commands") {
		t.Error("HasSubscription() = true for untracked topic")
	}
	if c.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", c.SubscriptionCount())
	}
}
