package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/vaultsync/payloadd/internal/config"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/pkg/hdwallet"
)

var (
	passwordFlag = cli.StringFlag{
		Name:     "password",
		Usage:    "the main password of the wallet",
		EnvVars:  []string{"PAYLOADD_PASSWORD"},
		Required: true,
	}
	secondPasswordFlag = cli.StringFlag{
		Name:  "second-password",
		Usage: "the second password of a double encrypted wallet",
	}
	labelFlag = cli.StringFlag{
		Name:  "label",
		Usage: "the label of the first account",
		Value: "My Wallet",
	}
	emailFlag = cli.StringFlag{
		Name:  "email",
		Usage: "the email the wallet is registered with",
	}
	offlineFlag = cli.BoolFlag{
		Name:  "offline",
		Usage: "load the last confirmed payload from the local cache",
	}
)

var genseed = cli.Command{
	Name:   "genseed",
	Usage:  "generate a mnemonic seed",
	Action: genSeedAction,
}

var create = cli.Command{
	Name:   "create",
	Usage:  "create a new HD wallet and register it with the wallet store",
	Action: createAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&labelFlag,
		&emailFlag,
	},
}

var recoverCmd = cli.Command{
	Name:   "recover",
	Usage:  "restore an HD wallet from its mnemonic into a new wallet",
	Action: recoverAction,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "mnemonic",
			Usage:    "the space separated recovery phrase",
			Required: true,
		},
		&passwordFlag,
		&labelFlag,
		&emailFlag,
	},
}

var login = cli.Command{
	Name:   "login",
	Usage:  "fetch and decrypt a wallet with its identifiers",
	Action: loginAction,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "guid",
			Usage:    "the wallet identifier",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "shared-key",
			Usage:    "the shared key of the wallet",
			Required: true,
		},
		&passwordFlag,
	},
}

var pair = cli.Command{
	Name:   "pair",
	Usage:  "pair with a wallet from the content of a pairing QR code",
	Action: pairAction,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "qr",
			Usage:    "the content of the pairing QR code",
			Required: true,
		},
	},
}

var upgrade = cli.Command{
	Name:   "upgrade",
	Usage:  "add an HD wallet to a legacy wallet",
	Action: upgradeAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&secondPasswordFlag,
		&labelFlag,
		&offlineFlag,
	},
}

var setSecondPassword = cli.Command{
	Name:   "set-second-password",
	Usage:  "double encrypt the private keys of the wallet",
	Action: setSecondPasswordAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&cli.StringFlag{
			Name:     "second-password",
			Usage:    "the password encrypting the private keys",
			Required: true,
		},
	},
}

var logout = cli.Command{
	Name:   "logout",
	Usage:  "forget the selected wallet and drop its cached payload",
	Action: logoutAction,
}

func genSeedAction(_ *cli.Context) error {
	mnemonic, err := hdwallet.NewMnemonic(hdwallet.NewMnemonicOpts{})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(strings.Join(mnemonic, " "))

	return nil
}

func createAction(c *cli.Context) error {
	svcs, err := newServices()
	if err != nil {
		return err
	}
	defer svcs.close()

	wallet, err := svcs.payload.Create(
		c.Context, config.GetNetwork(),
		c.String("label"), c.String("email"), c.String("password"),
	)
	if err != nil {
		return err
	}

	return selectWallet(wallet)
}

func recoverAction(c *cli.Context) error {
	svcs, err := newServices()
	if err != nil {
		return err
	}
	defer svcs.close()

	wallet, err := svcs.payload.RecoverFromMnemonic(
		c.Context, config.GetNetwork(), c.String("mnemonic"),
		c.String("label"), c.String("email"), c.String("password"),
	)
	if err != nil {
		return err
	}

	return selectWallet(wallet)
}

func loginAction(c *cli.Context) error {
	svcs, err := newServices()
	if err != nil {
		return err
	}
	defer svcs.close()

	if err := svcs.payload.InitializeAndDecrypt(
		c.Context, config.GetNetwork(),
		c.String("shared-key"), c.String("guid"), c.String("password"),
	); err != nil {
		return err
	}

	return selectWallet(svcs.payload.Payload())
}

func pairAction(c *cli.Context) error {
	svcs, err := newServices()
	if err != nil {
		return err
	}
	defer svcs.close()

	if err := svcs.payload.InitializeAndDecryptFromQR(
		c.Context, config.GetNetwork(), c.String("qr"),
	); err != nil {
		return err
	}

	return selectWallet(svcs.payload.Payload())
}

func upgradeAction(c *cli.Context) error {
	svcs, err := loadWallet(c)
	if err != nil {
		return err
	}
	defer svcs.close()

	if !svcs.payload.IsNotUpgraded() {
		return domain.ErrWalletAlreadyUpgraded
	}

	ok, err := svcs.payload.UpgradeV2PayloadToV3(
		c.Context, c.String("second-password"), c.String("label"),
	)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("upgrade rejected by the wallet store, reload and retry")
	}

	fmt.Println("wallet upgraded to HD")
	return nil
}

func setSecondPasswordAction(c *cli.Context) error {
	svcs, err := loadWallet(c)
	if err != nil {
		return err
	}
	defer svcs.close()

	if err := svcs.payload.EnableSecondPassword(
		c.Context, c.String("second-password"),
	); err != nil {
		return err
	}

	fmt.Println("second password enabled")
	return nil
}

func logoutAction(c *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	svcs, err := newServices()
	if err != nil {
		return err
	}
	defer svcs.close()

	if err := svcs.payload.Logout(c.Context, state[guidStateKey]); err != nil {
		return err
	}
	return setState(map[string]string{
		guidStateKey:      "",
		sharedKeyStateKey: "",
	})
}

// selectWallet stores the identifiers of the given wallet so that the
// following commands can load it.
func selectWallet(wallet *domain.Wallet) error {
	if wallet == nil {
		return errors.New("no wallet loaded")
	}
	if err := setState(map[string]string{
		guidStateKey:      wallet.Guid,
		sharedKeyStateKey: wallet.SharedKey,
	}); err != nil {
		return err
	}

	printJSON(map[string]interface{}{
		"guid":     wallet.Guid,
		"upgraded": wallet.IsUpgraded(),
		"xpubs":    wallet.ActiveXpubs(),
	})
	return nil
}

// loadWallet initializes the services and loads the selected wallet, either
// from the wallet store or from the local cache.
func loadWallet(c *cli.Context) (*services, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	guid, sharedKey := state[guidStateKey], state[sharedKeyStateKey]
	if guid == "" {
		return nil, errors.New(
			"no wallet selected, run 'create', 'recover', 'login' or 'pair' first",
		)
	}

	svcs, err := newServices()
	if err != nil {
		return nil, err
	}

	net := config.GetNetwork()
	password := c.String("password")
	if c.Bool("offline") {
		err = svcs.payload.InitializeFromCache(c.Context, net, guid, password)
	} else {
		err = svcs.payload.InitializeAndDecrypt(
			c.Context, net, sharedKey, guid, password,
		)
	}
	if err != nil {
		svcs.close()
		return nil, err
	}

	return svcs, nil
}
