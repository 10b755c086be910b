package main

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"
	"github.com/vaultsync/payloadd/internal/config"
)

var configCmd = cli.Command{
	Name:   "config",
	Usage:  "Print the configuration and the local state of payloadctl",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "set a <key> <value> in the local state",
			Action: configSetAction,
		},
	},
}

func configAction(ctx *cli.Context) error {
	for _, key := range []string{
		config.NetworkKey,
		config.WalletAPIURLKey,
		config.BalanceAPIURLKey,
		config.BchBalanceAPIURLKey,
		config.DBTypeKey,
		config.DatadirKey,
	} {
		fmt.Println(key + ": " + config.GetString(key))
	}

	state, err := getState()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Println(key + ": " + state[key])
	}

	return nil
}

func configSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return &invalidUsageError{c, "set"}
	}

	key := c.Args().Get(0)
	value := c.Args().Get(1)

	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Printf("%s has been set\n", key)

	return nil
}
