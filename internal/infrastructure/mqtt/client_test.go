package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nwalker85/appsentry/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "appsentry-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"system status", Topics{}.SystemStatus(), "appsentry/system/status"},
		{"child state", Topics{}.ChildState(), "appsentry/child/state"},
		{"child event", Topics{}.ChildEvent(), "appsentry/child/event"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("topic = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: testConfig()}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", "appsentry/child/event", []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", "appsentry/child/event", bytes.Repeat([]byte("x"), maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "appsentry/child/event", []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelledContext(t *testing.T) {
	c := &Client{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestStatusPayloads(t *testing.T) {
	for name, payload := range map[string]string{
		"online":  buildOnlinePayload("appsentry-test"),
		"offline": buildOfflinePayload("appsentry-test"),
	} {
		t.Run(name, func(t *testing.T) {
			var decoded map[string]string
			if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
				t.Fatalf("payload is not valid JSON: %v\n%s", err, payload)
			}
			if decoded["status"] != name {
				t.Errorf("status = %q, want %q", decoded["status"], name)
			}
			if decoded["client_id"] != "appsentry-test" {
				t.Errorf("client_id = %q, want %q", decoded["client_id"], "appsentry-test")
			}
			if decoded["timestamp"] == "" {
				t.Error("timestamp missing")
			}
		})
	}

	if !strings.Contains(buildOfflinePayload("c"), "graceful_shutdown") {
		t.Error("offline payload missing graceful_shutdown reason")
	}
}

func TestBuildClientOptions(t *testing.T) {
	t.Run("plain broker", func(t *testing.T) {
		opts := buildClientOptions(testConfig())
		servers := opts.Servers
		if len(servers) != 1 {
			t.Fatalf("servers = %d, want 1", len(servers))
		}
		if got := servers[0].String(); got != "tcp://127.0.0.1:1883" {
			t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
		}
	})

	t.Run("tls broker", func(t *testing.T) {
		cfg := testConfig()
		cfg.Broker.TLS = true
		opts := buildClientOptions(cfg)
		if got := opts.Servers[0].Scheme; got != "ssl" {
			t.Errorf("scheme = %q, want ssl", got)
		}
		if opts.TLSConfig == nil {
			t.Error("TLSConfig not set for TLS broker")
		}
	})

	t.Run("credentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.Username = "sentry"
		cfg.Auth.Password = "secret"
		opts := buildClientOptions(cfg)
		if opts.Username != "sentry" || opts.Password != "secret" {
			t.Error("credentials not applied")
		}
	})
}
