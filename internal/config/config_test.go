package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-lot/internal/parking"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, int64(1), cfg.App.NodeID)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.True(t, cfg.OTel.Enabled)
	assert.Equal(t, "parking-lot-service", cfg.OTel.ServiceName)
	assert.Equal(t, "http://localhost:4318", cfg.OTel.Endpoint)
	assert.Equal(t, 100, cfg.Charging.ElectricBikeSlots)
	assert.Equal(t, 50, cfg.Charging.ElectricCarSlots)
	assert.Equal(t, parking.DefaultLayout(), cfg.Layout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PARKING_HTTP_PORT", "9090")
	t.Setenv("PARKING_APP_ENV", "production")
	t.Setenv("PARKING_CHARGING_ELECTRIC_CAR_SLOTS", "3")
	t.Setenv("OTEL_SERVICE_NAME", "lot-a")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, 3, cfg.Charging.ElectricCarSlots)
	assert.Equal(t, "lot-a", cfg.OTel.ServiceName)
	assert.Equal(t, 3, cfg.ChargingCapacity()[parking.ElectricCar])
}

func TestLoadLayoutFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lot.yaml")
	body := `
http:
  port: "7000"
layout:
  floors:
    - number: 0
      name: Basement
      spots:
        - type: car
          count: 2
          prefix: B-CAR-
  gates:
    - id: E9
      floor: 0
      direction: entry
      location: Ramp
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.HTTP.Port)
	require.Len(t, cfg.Layout.Floors, 1)
	assert.Equal(t, "Basement", cfg.Layout.Floors[0].Name)
	require.Len(t, cfg.Layout.Floors[0].Spots, 1)
	assert.Equal(t, 2, cfg.Layout.Floors[0].Spots[0].Count)
	require.Len(t, cfg.Layout.Gates, 1)
	assert.Equal(t, "E9", cfg.Layout.Gates[0].ID)
	assert.Equal(t, "entry", cfg.Layout.Gates[0].Direction)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
