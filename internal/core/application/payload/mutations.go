package payload

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/vaultsync/payloadd/internal/core/domain"
)

// AddAccount derives a new account of the HD wallet, labels it and saves
// the wallet. Nothing changes if the save is not accepted.
func (s *Service) AddAccount(
	ctx context.Context, label, secondPassword string,
) (*domain.Account, error) {
	var account *domain.Account
	if err := s.mutate(ctx, func(body *domain.Wallet, net *chaincfg.Params) error {
		var err error
		account, err = body.AddAccount(net, label, secondPassword)
		return err
	}); err != nil {
		return nil, err
	}

	s.refreshBalances(ctx)
	return cloneAccount(account), nil
}

// AddLegacyAddress appends the given legacy address and saves the wallet
func (s *Service) AddLegacyAddress(
	ctx context.Context, address domain.LegacyAddress,
) error {
	if err := s.mutate(ctx, func(body *domain.Wallet, _ *chaincfg.Params) error {
		return body.AddLegacyAddress(&address)
	}); err != nil {
		return err
	}

	s.refreshBalances(ctx)
	return nil
}

// UpdateLegacyAddress replaces the legacy address with the same address
// string and saves the wallet. domain.ErrLegacyAddressNotFound is returned,
// with no save attempted, if there is none.
func (s *Service) UpdateLegacyAddress(
	ctx context.Context, address domain.LegacyAddress,
) error {
	if err := s.mutate(ctx, func(body *domain.Wallet, _ *chaincfg.Params) error {
		return body.UpdateLegacyAddress(&address)
	}); err != nil {
		return err
	}

	s.refreshBalances(ctx)
	return nil
}

// SetKeyForLegacyAddress sets the given WIF key on the matching legacy
// address and saves the wallet. If no legacy address matches, the key is
// added as a new imported address.
func (s *Service) SetKeyForLegacyAddress(
	ctx context.Context, wif, secondPassword string,
) (*domain.LegacyAddress, error) {
	var match fn.Option[*domain.LegacyAddress]
	err := s.mutateIf(ctx, func(body *domain.Wallet, net *chaincfg.Params) (bool, error) {
		var err error
		match, err = body.SetKeyForLegacyAddress(net, wif, secondPassword)
		return match.IsSome(), err
	})
	if err != nil {
		return nil, err
	}

	if match.IsNone() {
		return s.AddLegacyAddressFromKey(ctx, wif, secondPassword)
	}
	address := match.UnwrapOr(nil)
	return cloneLegacyAddress(address), nil
}

// AddLegacyAddressFromKey adds a new imported legacy address for the given
// WIF key and saves the wallet
func (s *Service) AddLegacyAddressFromKey(
	ctx context.Context, wif, secondPassword string,
) (*domain.LegacyAddress, error) {
	var address *domain.LegacyAddress
	if err := s.mutate(ctx, func(body *domain.Wallet, net *chaincfg.Params) error {
		var err error
		address, err = body.AddLegacyAddressFromKey(
			net, wif, secondPassword, s.device,
		)
		return err
	}); err != nil {
		return nil, err
	}

	s.refreshBalances(ctx)
	return cloneLegacyAddress(address), nil
}

// ReserveAddress labels the receive index of the given account so that it
// is never offered as unused, and saves the wallet. ErrServerConnection is
// returned if the save is not accepted, in which case the reservation is
// dropped.
func (s *Service) ReserveAddress(
	ctx context.Context, accountIdx, index int, label string,
) error {
	err := s.mutate(ctx, func(body *domain.Wallet, _ *chaincfg.Params) error {
		account, err := body.AccountAt(accountIdx)
		if err != nil {
			return err
		}
		return account.AddAddressLabel(index, label)
	})
	if errors.Is(err, ErrSaveFailed) {
		return fmt.Errorf("%w: unable to reserve address", ErrServerConnection)
	}
	return err
}

// EnableSecondPassword double encrypts every private key of the wallet with
// secondPassword and saves it. Nothing changes if the save is not accepted.
func (s *Service) EnableSecondPassword(
	ctx context.Context, secondPassword string,
) error {
	return s.mutate(ctx, func(body *domain.Wallet, _ *chaincfg.Params) error {
		return body.EnableDoubleEncryption(secondPassword)
	})
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.AddressLabels = append([]domain.AddressLabel(nil), a.AddressLabels...)
	return &clone
}

func cloneLegacyAddress(l *domain.LegacyAddress) *domain.LegacyAddress {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}
