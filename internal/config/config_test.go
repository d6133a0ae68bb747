package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  env: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "liveview-bridge", cfg.App.Name)
	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, 100*time.Millisecond, cfg.Session.SettleDelay)
	assert.Equal(t, "0.0.3", cfg.Session.SoftwareVersion)
	assert.False(t, cfg.Session.Use24HourClock)
	assert.Equal(t, []string{"LiveView", "Jerry"}, cfg.Locator.NameHints)
	assert.Equal(t, "rfcomm", cfg.Serial.Mode)
	assert.Equal(t, uint8(1), cfg.Serial.Channel)
	assert.Equal(t, 4800, cfg.Serial.Baud)
	assert.Equal(t, uint8(63), cfg.Session.IndicatorColor.Green)
	assert.Equal(t, uint32(1<<20), cfg.Session.MaxPayload)
}

func TestLoad_FileOverrides(t *testing.T) {
	p := writeConfig(t, `
session:
  use24HourClock: true
  settleDelay: 150ms
serial:
  mode: tty
  device: /dev/rfcomm3
locator:
  nameHints: ["LiveView"]
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.True(t, cfg.Session.Use24HourClock)
	assert.Equal(t, 150*time.Millisecond, cfg.Session.SettleDelay)
	assert.Equal(t, "tty", cfg.Serial.Mode)
	assert.Equal(t, "/dev/rfcomm3", cfg.Serial.Device)
	assert.Equal(t, []string{"LiveView"}, cfg.Locator.NameHints)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LVB_SESSION_SOFTWAREVERSION", "1.2.3")
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", cfg.Session.SoftwareVersion)
}

func TestLoad_InvalidMode(t *testing.T) {
	_, err := Load(writeConfig(t, "serial:\n  mode: usb\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serial.mode")
}

func TestValidate_DurationRange(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	cfg.Session.VibrateDuration = 70 * time.Second
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.vibrateDuration")
}
