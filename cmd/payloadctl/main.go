package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vaultsync/payloadd/internal/config"
	"github.com/vaultsync/payloadd/internal/core/application/payload"
	"github.com/vaultsync/payloadd/internal/core/ports"
	"github.com/vaultsync/payloadd/internal/infrastructure/balance"
	"github.com/vaultsync/payloadd/internal/infrastructure/multiaddress"
	"github.com/vaultsync/payloadd/internal/infrastructure/payloadcodec"
	dbbadger "github.com/vaultsync/payloadd/internal/infrastructure/storage/db/badger"
	"github.com/vaultsync/payloadd/internal/infrastructure/storage/db/inmemory"
	"github.com/vaultsync/payloadd/internal/infrastructure/walletapi"
	"github.com/vaultsync/payloadd/pkg/stats"
)

const (
	guidStateKey      = "guid"
	sharedKeyStateKey = "shared_key"
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "payloadctl"
	app.Usage = "Command line interface to manage an HD wallet payload"
	app.Before = initAction
	app.After = dumpStatsAction
	app.Commands = append(
		app.Commands,
		&configCmd,
		&genseed,
		&create,
		&recoverCmd,
		&login,
		&pair,
		&upgrade,
		&setSecondPassword,
		&logout,
		&addAccount,
		&receive,
		&addressesCmd,
		&balanceCmd,
		&transactions,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func initAction(_ *cli.Context) error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))
	return nil
}

func dumpStatsAction(_ *cli.Context) error {
	if !config.GetBool(config.EnableProfilerKey) {
		return nil
	}
	stats.PrintMemoryStatistics()
	path := filepath.Join(config.GetProfilerDir(), "prometheus.txt")
	if err := stats.DumpPrometheusDefaults(path); err != nil {
		log.WithError(err).Warn("failed to dump prometheus metrics")
	}
	return nil
}

// services groups the adapters the cli talks to. The tracker is kept as its
// concrete type to refresh the address cursors before reading them.
type services struct {
	payload *payload.Service
	tracker *multiaddress.Tracker
	close   func()
}

func newServices() (*services, error) {
	timeout := config.GetRequestTimeout()
	apiCode := config.GetString(config.APICodeKey)

	walletAPI, err := walletapi.NewClient(walletapi.ClientOpts{
		URL:     config.GetString(config.WalletAPIURLKey),
		APICode: apiCode,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	tracker, err := multiaddress.NewTracker(multiaddress.TrackerOpts{
		URL:       config.GetString(config.BalanceAPIURLKey),
		APICode:   apiCode,
		Timeout:   timeout,
		RateLimit: config.GetInt(config.MultiaddrRateLimitKey),
	})
	if err != nil {
		return nil, err
	}

	btcBalance, err := balance.NewService(balance.ServiceOpts{
		Coin:    "btc",
		URL:     config.GetString(config.BalanceAPIURLKey),
		APICode: apiCode,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	bchBalance, err := balance.NewService(balance.ServiceOpts{
		Coin:    "bch",
		URL:     config.GetString(config.BchBalanceAPIURLKey),
		APICode: apiCode,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	repo, closeRepo, err := newRepository()
	if err != nil {
		return nil, err
	}

	svc, err := payload.NewService(payload.Options{
		WalletAPI:     walletAPI,
		Codec:         payloadcodec.NewCodec(),
		Tracker:       tracker,
		BtcBalance:    btcBalance,
		BchBalance:    bchBalance,
		Repository:    repo,
		Device:        config.GetDevice(),
		SyncLookahead: config.GetInt(config.SyncLookaheadKey),
	})
	if err != nil {
		closeRepo()
		return nil, err
	}

	return &services{svc, tracker, closeRepo}, nil
}

func newRepository() (ports.PayloadRepository, func(), error) {
	switch config.GetString(config.DBTypeKey) {
	case config.DBInMemory:
		return inmemory.NewPayloadRepositoryImpl(), func() {}, nil
	default:
		return dbbadger.NewPayloadRepository(config.GetDbDir(), nil)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(config.GetStatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data, nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	currentData, err := getState()
	if err != nil {
		return err
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(config.GetStatePath(), jsonString, 0600); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func printJSON(resp interface{}) {
	jsonBytes, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}

	fmt.Println(string(jsonBytes))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[payloadctl] %v\n", err)
	}
	os.Exit(1)
}
