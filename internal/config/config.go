package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
	"github.com/vaultsync/payloadd/internal/core/domain"
)

const (
	// NetworkKey is the bitcoin network addresses and keys are derived for:
	// mainnet, testnet or regtest
	NetworkKey = "NETWORK"
	// DeviceNameKey is the name of the device reported to the wallet store
	// on every save
	DeviceNameKey = "DEVICE_NAME"
	// DeviceVersionKey is the version of the device reported to the wallet
	// store on every save
	DeviceVersionKey = "DEVICE_VERSION"
	// WalletAPIURLKey is the base url of the remote wallet store
	WalletAPIURLKey = "WALLET_API_URL"
	// APICodeKey is the api code attached to every remote request
	APICodeKey = "API_CODE"
	// BalanceAPIURLKey is the base url of the btc balance and multiaddr
	// endpoints
	BalanceAPIURLKey = "BALANCE_API_URL"
	// BchBalanceAPIURLKey is the base url of the bch balance endpoint
	BchBalanceAPIURLKey = "BCH_BALANCE_API_URL"
	// RequestTimeoutKey is the timeout in milliseconds of every remote request
	RequestTimeoutKey = "REQUEST_TIMEOUT"
	// MultiaddrRateLimitKey is the max number of multiaddr requests per second
	MultiaddrRateLimitKey = "MULTIADDR_RATE_LIMIT"
	// SyncLookaheadKey is the number of receive addresses per account exposed
	// to the notification service when syncing pubkeys
	SyncLookaheadKey = "SYNC_PUBKEYS_LOOKAHEAD"
	// DatadirKey is the local data directory to store the internal state
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// DBTypeKey is used to switch the local payload cache between those
	// supported
	DBTypeKey = "DB_TYPE"
	// EnableProfilerKey makes the cli dump prometheus metrics and memory
	// stats into the datadir at exit
	EnableProfilerKey = "ENABLE_PROFILER"

	DbLocation       = "db"
	ProfilerLocation = "stats"
	StateFile        = "state.json"

	DBBadger   = "badger"
	DBInMemory = "inmemory"

	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
	NetworkRegtest = "regtest"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("payloadd", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("PAYLOADD")
	vip.AutomaticEnv()

	vip.SetDefault(NetworkKey, NetworkMainnet)
	vip.SetDefault(DeviceNameKey, "payloadctl")
	vip.SetDefault(DeviceVersionKey, "0.1.0")
	vip.SetDefault(WalletAPIURLKey, "https://blockchain.info")
	vip.SetDefault(BalanceAPIURLKey, "https://api.blockchain.info")
	vip.SetDefault(BchBalanceAPIURLKey, "https://api.blockchain.info/bch")
	vip.SetDefault(RequestTimeoutKey, 30000)
	vip.SetDefault(MultiaddrRateLimitKey, 5)
	vip.SetDefault(SyncLookaheadKey, 20)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DBTypeKey, DBBadger)
	vip.SetDefault(EnableProfilerKey, false)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetRequestTimeout returns the timeout of remote requests
func GetRequestTimeout() time.Duration {
	return time.Duration(GetInt(RequestTimeoutKey)) * time.Millisecond
}

// GetNetwork returns the chain params of the configured network
func GetNetwork() *chaincfg.Params {
	net, _ := networkFromString(GetString(NetworkKey))
	return net
}

// GetDevice returns the device reported to the wallet store
func GetDevice() domain.Device {
	return domain.Device{
		Name:    GetString(DeviceNameKey),
		Version: GetString(DeviceVersionKey),
	}
}

// GetDbDir returns the directory of the badger payload cache
func GetDbDir() string {
	return filepath.Join(GetDatadir(), DbLocation)
}

// GetStatePath returns the path of the file where the cli persists the
// identifiers of the last wallet used
func GetStatePath() string {
	return filepath.Join(GetDatadir(), StateFile)
}

// GetProfilerDir returns the directory where stats are dumped
func GetProfilerDir() string {
	return filepath.Join(GetDatadir(), ProfilerLocation)
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, err := networkFromString(GetString(NetworkKey)); err != nil {
		return err
	}

	for _, key := range []string{
		WalletAPIURLKey, BalanceAPIURLKey, BchBalanceAPIURLKey,
	} {
		if err := validateURL(key); err != nil {
			return err
		}
	}

	switch dbType := GetString(DBTypeKey); dbType {
	case DBBadger, DBInMemory:
	default:
		return fmt.Errorf(
			"%s must be one of %s, %s, got %s", DBTypeKey, DBBadger, DBInMemory,
			dbType,
		)
	}

	if GetInt(RequestTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be a positive number of milliseconds", RequestTimeoutKey)
	}
	if GetInt(MultiaddrRateLimitKey) <= 0 {
		return fmt.Errorf("%s must be greater than zero", MultiaddrRateLimitKey)
	}
	if GetInt(SyncLookaheadKey) <= 0 {
		return fmt.Errorf("%s must be positive", SyncLookaheadKey)
	}

	if name := GetString(DeviceNameKey); strings.TrimSpace(name) == "" {
		return fmt.Errorf("missing device name")
	}

	return nil
}

func validateURL(key string) error {
	rawURL := GetString(key)
	if rawURL == "" {
		return fmt.Errorf("missing %s", key)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https url", key)
	}
	return nil
}

func networkFromString(name string) (*chaincfg.Params, error) {
	switch strings.ToLower(name) {
	case NetworkMainnet:
		return &chaincfg.MainNetParams, nil
	case NetworkTestnet:
		return &chaincfg.TestNet3Params, nil
	case NetworkRegtest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf(
			"%s must be one of %s, %s, %s, got %s",
			NetworkKey, NetworkMainnet, NetworkTestnet, NetworkRegtest, name,
		)
	}
}

func initDatadir() error {
	datadir := GetDatadir()
	if GetString(DBTypeKey) == DBBadger {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation)); err != nil {
			return err
		}
	}

	if GetBool(EnableProfilerKey) {
		if err := makeDirectoryIfNotExists(filepath.Join(datadir, ProfilerLocation)); err != nil {
			return err
		}
	}
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
