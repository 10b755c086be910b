package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vaultsync/payloadd/internal/core/domain"
)

var accountFlag = cli.IntFlag{
	Name:  "account",
	Usage: "the index of the account",
	Value: 0,
}

var addAccount = cli.Command{
	Name:   "add-account",
	Usage:  "derive a new account of the HD wallet",
	Action: addAccountAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&secondPasswordFlag,
		&cli.StringFlag{
			Name:     "label",
			Usage:    "the label of the new account",
			Required: true,
		},
	},
}

var receive = cli.Command{
	Name:   "receive",
	Usage:  "get the next unused receive address of an account",
	Action: receiveAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&accountFlag,
		&cli.StringFlag{
			Name:  "reserve",
			Usage: "reserve the address with the given label",
		},
		&offlineFlag,
	},
}

var addressesCmd = cli.Command{
	Name:   "addresses",
	Usage:  "list the receive addresses of an account in range [from, to)",
	Action: addressesAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&accountFlag,
		&cli.IntFlag{
			Name:  "from",
			Usage: "the first index of the range",
		},
		&cli.IntFlag{
			Name:  "to",
			Usage: "the index after the last one of the range",
			Value: 20,
		},
		&offlineFlag,
	},
}

var balanceCmd = cli.Command{
	Name:   "balance",
	Usage:  "print the balances of the wallet or of the given addresses",
	Action: balanceAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&cli.StringSliceFlag{
			Name:  "address",
			Usage: "query the btc balance of the given address, can be repeated",
		},
		&offlineFlag,
	},
}

var transactions = cli.Command{
	Name:   "transactions",
	Usage:  "list the transactions of the wallet",
	Action: transactionsAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&cli.IntFlag{
			Name:  "account",
			Usage: "list the transactions of the given account only",
			Value: -1,
		},
		&cli.BoolFlag{
			Name:  "imported",
			Usage: "list the transactions of the imported addresses only",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "the max number of transactions to list",
			Value: 50,
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "the number of transactions to skip",
		},
		&offlineFlag,
	},
}

func addAccountAction(c *cli.Context) error {
	svcs, err := loadWallet(c)
	if err != nil {
		return err
	}
	defer svcs.close()

	account, err := svcs.payload.AddAccount(
		c.Context, c.String("label"), c.String("second-password"),
	)
	if err != nil {
		return err
	}

	printJSON(map[string]string{
		"label": account.Label,
		"xpub":  account.Xpub,
	})
	return nil
}

func receiveAction(c *cli.Context) error {
	svcs, err := loadWallet(c)
	if err != nil {
		return err
	}
	defer svcs.close()

	xpubs := svcs.payload.Payload().ActiveXpubs()
	if err := svcs.tracker.Refresh(c.Context, xpubs); err != nil {
		log.WithError(err).Warn("failed to refresh address indexes")
	}

	accountIdx := c.Int("account")
	label := c.String("reserve")

	var address string
	if label != "" {
		address, err = svcs.payload.NextReceiveAddressAndReserve(
			c.Context, accountIdx, label,
		)
	} else {
		address, err = svcs.payload.NextReceiveAddress(accountIdx)
	}
	if err != nil {
		return err
	}

	fmt.Println(address)
	return nil
}

func addressesAction(c *cli.Context) error {
	svcs, err := loadWallet(c)
	if err != nil {
		return err
	}
	defer svcs.close()

	account, err := svcs.payload.Payload().AccountAt(c.Int("account"))
	if err != nil {
		return err
	}
	list, err := account.ReceiveAddresses(
		svcs.payload.Network(), c.Int("from"), c.Int("to"),
	)
	if err != nil {
		return err
	}

	printJSON(list)
	return nil
}

func balanceAction(c *cli.Context) error {
	svcs, err := loadWallet(c)
	if err != nil {
		return err
	}
	defer svcs.close()

	if addresses := c.StringSlice("address"); len(addresses) > 0 {
		balances, err := svcs.payload.BalanceOfBtcAddresses(c.Context, addresses)
		if err != nil {
			return err
		}
		out := make([]map[string]string, 0, len(balances))
		for _, b := range balances {
			out = append(out, map[string]string{
				"address": b.Address,
				"balance": b.Balance.ToCoin().String(),
			})
		}
		printJSON(out)
		return nil
	}

	if err := svcs.payload.UpdateAllBalances(c.Context); err != nil {
		return err
	}

	printJSON(map[string]string{
		"wallet":   domain.SatsToCoin(svcs.payload.WalletBalance()).String(),
		"imported": domain.SatsToCoin(svcs.payload.ImportedAddressesBalance()).String(),
		"bch":      domain.SatsToCoin(svcs.payload.BchWalletBalance()).String(),
	})
	return nil
}

func transactionsAction(c *cli.Context) error {
	svcs, err := loadWallet(c)
	if err != nil {
		return err
	}
	defer svcs.close()

	limit, offset := c.Int("limit"), c.Int("offset")

	var txs []domain.TransactionSummary
	switch {
	case c.Bool("imported"):
		txs, err = svcs.payload.ImportedAddressesTransactions(c.Context, limit, offset)
	case c.Int("account") >= 0:
		var xpub string
		if xpub, err = svcs.payload.XpubFromAccountIndex(c.Int("account")); err != nil {
			return err
		}
		txs, err = svcs.payload.AccountTransactions(c.Context, xpub, limit, offset)
	default:
		txs, err = svcs.payload.AllTransactions(c.Context, limit, offset)
	}
	if err != nil {
		return err
	}

	printJSON(txs)
	return nil
}
