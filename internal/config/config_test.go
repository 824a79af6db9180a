package config

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigDefaults(t *testing.T) {
	require.NoError(t, InitConfig())

	assert.Equal(
		t, "https://blockstream.info/testnet/api",
		GetString(ExplorerEndpointKey),
	)
	assert.Equal(t, "", GetString(PackageRelayEndpointKey))
	assert.Equal(t, 546, GetInt(DustFloorKey))
	assert.Equal(t, 10.0, GetFloat(FallbackFeeRateKey))
	assert.Equal(t, 5*time.Minute, GetDuration(ProverTimeoutKey))
	assert.Equal(t, 2*time.Second, GetDuration(PropagationDelayKey))
	assert.Equal(t, time.Duration(0), GetDuration(StatsIntervalKey))
	assert.Equal(t, 5000, GetInt(CrawlIntervalKey))

	network, err := GetNetwork()
	require.NoError(t, err)
	assert.Equal(t, &chaincfg.TestNet3Params, network)
}

func TestInitConfigFromEnv(t *testing.T) {
	t.Setenv("SPELLEX_NETWORK", "regtest")
	t.Setenv("SPELLEX_EXPLORER_ENDPOINT", "http://localhost:3001")
	t.Setenv("SPELLEX_PACKAGE_RELAY_ENDPOINT", "http://localhost:3002")
	t.Setenv("SPELLEX_DUST_FLOOR", "1000")
	require.NoError(t, InitConfig())

	assert.Equal(t, "http://localhost:3001", GetString(ExplorerEndpointKey))
	assert.Equal(
		t, "http://localhost:3002", GetString(PackageRelayEndpointKey),
	)
	assert.Equal(t, 1000, GetInt(DustFloorKey))

	network, err := GetNetwork()
	require.NoError(t, err)
	assert.Equal(t, &chaincfg.RegressionNetParams, network)
}

func TestFailingInitConfig(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown network", "SPELLEX_NETWORK", "signet"},
		{"fallback fee rate below floor", "SPELLEX_FALLBACK_FEE_RATE", "0.5"},
		{"negative dust floor", "SPELLEX_DUST_FLOOR", "-1"},
		{"null crawl interval", "SPELLEX_CRAWL_INTERVAL", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			assert.Error(t, InitConfig())
		})
	}
}
