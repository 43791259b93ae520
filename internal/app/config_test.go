package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "raza123", cfg.AdminUsername)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.InDelta(t, 10, cfg.LowStockThreshold, 1e-9)
	require.False(t, cfg.SeedEndpointEnabled)
}

func TestStoreLocation(t *testing.T) {
	cfg := &Config{StoreTimezoneOffset: "+05:30"}
	loc, err := cfg.StoreLocation()
	require.NoError(t, err)
	_, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, loc).Zone()
	require.Equal(t, 5*3600+30*60, offset)

	cfg.StoreTimezoneOffset = "bogus"
	_, err = cfg.StoreLocation()
	require.Error(t, err)
}
