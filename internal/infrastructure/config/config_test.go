package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testSecret satisfies the 32-character minimum.
const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
database:
  path: /tmp/test.db
mqtt:
  broker:
    host: broker.example.com
    port: 8883
    tls: true
    client_id: lokasync-test
  auth:
    username: ota
    password: secret
  qos: 1
  topics:
    log: lokasync/ota/log
    monitoring: lokasync/monitoring
    push: lokasync/ota/update
auth:
  jwt_secret: "`+testSecret+`"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "broker.example.com" {
		t.Errorf("MQTT host = %q, want broker.example.com", cfg.MQTT.Broker.Host)
	}
	if !cfg.MQTT.Broker.TLS {
		t.Error("MQTT TLS = false, want true")
	}
	if cfg.MQTT.Topics.Push != "lokasync/ota/update" {
		t.Errorf("push topic = %q", cfg.MQTT.Topics.Push)
	}

	// Defaults survive partial files.
	if cfg.API.Port != 8080 {
		t.Errorf("API port = %d, want default 8080", cfg.API.Port)
	}
	if cfg.Telemetry.HistorySize != 50 {
		t.Errorf("telemetry history size = %d, want default 50", cfg.Telemetry.HistorySize)
	}
	if cfg.MQTT.Reconnect.Interval != 2 {
		t.Errorf("reconnect interval = %d, want default 2", cfg.MQTT.Reconnect.Interval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "database: [not: valid")
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestValidateRejectsMissingSecret(t *testing.T) {
	path := writeConfigFile(t, `
database:
  path: /tmp/test.db
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Fatalf("Load() error = %v, want jwt_secret validation failure", err)
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.JWTSecret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() accepted short JWT secret")
	}
}

func TestValidateRejectsBadQoS(t *testing.T) {
	cfg := defaultConfig()
	cfg.Auth.JWTSecret = testSecret
	cfg.MQTT.QoS = 3
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() accepted QoS 3")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOKASYNC_MQTT_HOST", "env-broker")
	t.Setenv("LOKASYNC_JWT_SECRET", testSecret)

	path := writeConfigFile(t, `
database:
  path: /tmp/test.db
mqtt:
  broker:
    host: file-broker
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("env override ignored: host = %q", cfg.MQTT.Broker.Host)
	}
	if cfg.Auth.JWTSecret != testSecret {
		t.Errorf("env secret not applied")
	}
}
