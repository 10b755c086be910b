package payload

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/vaultsync/payloadd/internal/core/domain"
)

// NextReceiveAddress returns the receive address of the given account at
// the next unused, not reserved, index
func (s *Service) NextReceiveAddress(accountIdx int) (string, error) {
	account, net, err := s.account(accountIdx)
	if err != nil {
		return "", err
	}
	index := s.tracker.NextReceiveAddressIndex(account.Xpub, account.ReservedIndexes())
	return account.ReceiveAddressAt(net, index)
}

// ReceiveAddressAtPosition returns the receive address position steps
// beyond the next unused one. Failures are reported as an empty option.
func (s *Service) ReceiveAddressAtPosition(
	accountIdx, position int,
) fn.Option[string] {
	next, err := s.PositionOfNextReceiveAddress(accountIdx)
	if err != nil {
		return fn.None[string]()
	}
	return s.ReceiveAddressAtArbitraryPosition(accountIdx, next+position)
}

// PositionOfNextReceiveAddress returns the next unused receive index of the
// given account
func (s *Service) PositionOfNextReceiveAddress(accountIdx int) (int, error) {
	account, _, err := s.account(accountIdx)
	if err != nil {
		return 0, err
	}
	return s.tracker.NextReceiveAddressIndex(
		account.Xpub, account.ReservedIndexes(),
	), nil
}

// ReceiveAddressAtArbitraryPosition returns the receive address at the
// given index. Failures are reported as an empty option.
func (s *Service) ReceiveAddressAtArbitraryPosition(
	accountIdx, position int,
) fn.Option[string] {
	account, net, err := s.account(accountIdx)
	if err != nil {
		return fn.None[string]()
	}
	addr, err := account.ReceiveAddressAt(net, position)
	if err != nil {
		return fn.None[string]()
	}
	return fn.Some(addr)
}

// NextChangeAddress returns the change address of the given account at the
// next unused index
func (s *Service) NextChangeAddress(accountIdx int) (string, error) {
	account, net, err := s.account(accountIdx)
	if err != nil {
		return "", err
	}
	index := s.tracker.NextChangeAddressIndex(account.Xpub)
	return account.ChangeAddressAt(net, index)
}

// IncrementNextReceiveAddress marks the next receive address of the given
// account as used. The remote store is not involved.
func (s *Service) IncrementNextReceiveAddress(accountIdx int) error {
	account, _, err := s.account(accountIdx)
	if err != nil {
		return err
	}
	s.tracker.IncrementNextReceiveAddress(account.Xpub, account.ReservedIndexes())
	return nil
}

// IncrementNextChangeAddress marks the next change address of the given
// account as used. The remote store is not involved.
func (s *Service) IncrementNextChangeAddress(accountIdx int) error {
	account, _, err := s.account(accountIdx)
	if err != nil {
		return err
	}
	s.tracker.IncrementNextChangeAddress(account.Xpub)
	return nil
}

// NextReceiveAddressAndReserve reserves the next receive index of the given
// account with label and returns its address once the wallet is saved
func (s *Service) NextReceiveAddressAndReserve(
	ctx context.Context, accountIdx int, label string,
) (string, error) {
	var (
		address string
		index   int
	)
	err := s.mutate(ctx, func(body *domain.Wallet, net *chaincfg.Params) error {
		account, err := body.AccountAt(accountIdx)
		if err != nil {
			return err
		}
		index = s.tracker.NextReceiveAddressIndex(
			account.Xpub, account.ReservedIndexes(),
		)
		if address, err = account.ReceiveAddressAt(net, index); err != nil {
			return err
		}
		return account.AddAddressLabel(index, label)
	})
	if errors.Is(err, ErrSaveFailed) {
		return "", fmt.Errorf("%w: unable to reserve address", ErrServerConnection)
	}
	if err != nil {
		return "", err
	}
	return address, nil
}

// IsOwnHDAddress returns whether the address belongs to one of the wallet
// xpubs, as far as the tracker knows
func (s *Service) IsOwnHDAddress(address string) bool {
	return s.tracker.IsOwnHDAddress(address)
}

// XpubFromAddress returns the xpub owning the given address, if known
func (s *Service) XpubFromAddress(address string) fn.Option[string] {
	return s.tracker.XpubFromAddress(address)
}

// LabelFromAddress returns the label of the account or of the legacy
// address owning the given address, or the address itself if there is none
func (s *Service) LabelFromAddress(address string) string {
	body, _, err := s.loaded()
	if err != nil {
		return address
	}

	label := body.LabelFromLegacyAddress(address)
	s.tracker.XpubFromAddress(address).WhenSome(func(xpub string) {
		if hd, err := body.HDWallet(); err == nil {
			label = hd.LabelFromXpub(xpub)
		}
	})
	if label == "" {
		return address
	}
	return label
}

// XpubFromAccountIndex returns the xpub of the given account
func (s *Service) XpubFromAccountIndex(accountIdx int) (string, error) {
	account, _, err := s.account(accountIdx)
	if err != nil {
		return "", err
	}
	return account.Xpub, nil
}

// ValidateSecondPassword returns whether the given second password is valid
// for the loaded wallet
func (s *Service) ValidateSecondPassword(secondPassword string) bool {
	body, _, err := s.loaded()
	if err != nil {
		return false
	}
	return body.ValidateSecondPassword(secondPassword) == nil
}

// AddressPrivateKey returns the signing key of the given legacy address.
// The second password is validated before any key material is read.
func (s *Service) AddressPrivateKey(
	address, secondPassword string,
) (*btcec.PrivateKey, error) {
	body, net, err := s.loaded()
	if err != nil {
		return nil, err
	}
	if err := body.ValidateSecondPassword(secondPassword); err != nil {
		return nil, err
	}

	legacy, err := body.LegacyAddressByString(address).
		UnwrapOrErr(domain.ErrLegacyAddressNotFound)
	if err != nil {
		return nil, err
	}
	return body.LegacyPrivateKey(legacy, net, secondPassword)
}

// MasterKey returns the master key of the HD wallet. It is unavailable for
// double encrypted wallets until DecryptHDWallet is called.
func (s *Service) MasterKey() (*hdkeychain.ExtendedKey, error) {
	body, _, err := s.loaded()
	if err != nil {
		return nil, err
	}
	hd, err := body.HDWallet()
	if err != nil {
		return nil, err
	}
	return hd.MasterKey()
}

// DecryptHDWallet makes the master key of a double encrypted wallet
// available. Nothing is saved.
func (s *Service) DecryptHDWallet(secondPassword string) error {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	body, net, err := s.snapshot()
	if err != nil {
		return err
	}
	if err := body.DecryptHDWallet(net, secondPassword); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	base := *s.base
	base.Body = body
	s.base = &base
	return nil
}

func (s *Service) account(
	accountIdx int,
) (*domain.Account, *chaincfg.Params, error) {
	body, net, err := s.loaded()
	if err != nil {
		return nil, nil, err
	}
	account, err := body.AccountAt(accountIdx)
	if err != nil {
		return nil, nil, err
	}
	return account, net, nil
}
