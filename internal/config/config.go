package config

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// ExplorerEndpointKey is the esplora-style API used to fetch utxos,
	// transactions and fee estimations and to broadcast transactions.
	ExplorerEndpointKey = "EXPLORER_ENDPOINT"
	// PackageRelayEndpointKey is the optional API exposing atomic package
	// submission. When unset, package broadcasts are reported as
	// unsupported instead of attempted.
	PackageRelayEndpointKey = "PACKAGE_RELAY_ENDPOINT"
	// ProverEndpointKey is the external proving service returning the
	// unsigned commit/spell transaction pairs.
	ProverEndpointKey = "PROVER_ENDPOINT"
	// NetworkKey selects the bitcoin network: mainnet, testnet or regtest.
	NetworkKey = "NETWORK"
	// LogLevelKey are the different logging levels. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DustFloorKey is the minimum utxo value in satoshis considered
	// spendable by coin selection.
	DustFloorKey = "DUST_FLOOR"
	// FallbackFeeRateKey is the sat/vbyte rate used when the explorer
	// cannot provide fee estimations.
	FallbackFeeRateKey = "FALLBACK_FEE_RATE"
	// ProverTimeoutKey bounds the proving round trip, which can take
	// minutes.
	ProverTimeoutKey = "PROVER_TIMEOUT"
	// PropagationDelayKey is the pause between commit and spell
	// submissions of a sequential broadcast.
	PropagationDelayKey = "PROPAGATION_DELAY"
	// StatsIntervalKey defines the interval for printing basic memory
	// statistics, 0 disables them.
	StatsIntervalKey = "STATS_INTERVAL"
	// MnemonicKey is the BIP39 sentence the signing keys are derived from.
	MnemonicKey = "MNEMONIC"
	// CrawlIntervalKey is the polling interval of the chain watcher in
	// milliseconds.
	CrawlIntervalKey = "CRAWL_INTERVAL"
)

var vip *viper.Viper

// InitConfig loads the configuration from the process environment and
// validates it.
func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("SPELLEX")
	vip.AutomaticEnv()

	vip.SetDefault(ExplorerEndpointKey, "https://blockstream.info/testnet/api")
	vip.SetDefault(NetworkKey, "testnet")
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DustFloorKey, 546)
	vip.SetDefault(FallbackFeeRateKey, 10.0)
	vip.SetDefault(ProverTimeoutKey, 5*time.Minute)
	vip.SetDefault(PropagationDelayKey, 2*time.Second)
	vip.SetDefault(StatsIntervalKey, time.Duration(0))
	vip.SetDefault(CrawlIntervalKey, 5000)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	log.SetLevel(log.Level(GetInt(LogLevelKey)))

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// GetNetwork returns the chain params of the configured network.
func GetNetwork() (*chaincfg.Params, error) {
	return networkFromName(GetString(NetworkKey))
}

func validate() error {
	if len(GetString(ExplorerEndpointKey)) <= 0 {
		return fmt.Errorf("missing explorer endpoint")
	}
	if _, err := networkFromName(GetString(NetworkKey)); err != nil {
		return err
	}
	if GetFloat(FallbackFeeRateKey) < 1 {
		return fmt.Errorf(
			"%s must be equal or greater than 1", FallbackFeeRateKey,
		)
	}
	if GetInt(DustFloorKey) < 0 {
		return fmt.Errorf("%s must not be negative", DustFloorKey)
	}
	if GetInt(CrawlIntervalKey) <= 0 {
		return fmt.Errorf("%s must be positive", CrawlIntervalKey)
	}
	return nil
}

func networkFromName(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf(
			"network must be one of mainnet, testnet or regtest, "+
				"got '%s'", name,
		)
	}
}
