package payload

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// AddressBalance returns the cached BTC balance of the given address, zero
// if unknown
func (s *Service) AddressBalance(address string) uint64 {
	return s.btcBalance.GetAddressBalance(address)
}

// WalletBalance returns the cached BTC balance of all accounts and legacy
// addresses
func (s *Service) WalletBalance() uint64 {
	return s.btcBalance.GetWalletBalance()
}

// ImportedAddressesBalance returns the cached BTC balance of the legacy
// addresses
func (s *Service) ImportedAddressesBalance() uint64 {
	return s.btcBalance.GetImportedAddressesBalance()
}

// BchWalletBalance returns the cached BCH balance of the whole wallet
func (s *Service) BchWalletBalance() uint64 {
	return s.bchBalance.GetWalletBalance()
}

// UpdateAllBalances refreshes the BTC and BCH caches from the active xpubs
// and the non archived legacy addresses of the loaded wallet
func (s *Service) UpdateAllBalances(ctx context.Context) error {
	body, _, err := s.loaded()
	if err != nil {
		return err
	}
	xpubs := body.ActiveXpubs()
	legacy := body.NonArchivedLegacyAddressStrings()

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range []ports.BalanceService{s.btcBalance, s.bchBalance} {
		svc := svc
		g.Go(func() error {
			return svc.UpdateAllBalances(gctx, xpubs, legacy)
		})
	}
	return g.Wait()
}

// SubtractAmountFromAddressBalance lowers the cached BTC balance of the given
// address ahead of the next refresh
func (s *Service) SubtractAmountFromAddressBalance(address string, amount uint64) error {
	return s.btcBalance.SubtractAmountFromAddressBalance(address, amount)
}

// BalanceOfBtcAddresses queries the BTC balances of the given addresses and
// returns them in the same order
func (s *Service) BalanceOfBtcAddresses(
	ctx context.Context, addresses []string,
) ([]domain.AddressBalance, error) {
	return balanceOfAddresses(ctx, s.btcBalance, addresses)
}

// BalanceOfBchAddresses queries the BCH balances of the given addresses and
// returns them in the same order
func (s *Service) BalanceOfBchAddresses(
	ctx context.Context, addresses []string,
) ([]domain.AddressBalance, error) {
	return balanceOfAddresses(ctx, s.bchBalance, addresses)
}

func balanceOfAddresses(
	ctx context.Context, svc ports.BalanceService, addresses []string,
) ([]domain.AddressBalance, error) {
	balances, err := svc.GetBalanceOfAddresses(ctx, addresses)
	if err != nil {
		return nil, err
	}

	ordered := make([]domain.AddressBalance, 0, len(addresses))
	for _, addr := range addresses {
		ordered = append(ordered, domain.AddressBalance{
			Address: addr,
			Balance: balances[addr],
		})
	}
	return ordered, nil
}

// refreshBalances is called after every structural change. Failures are
// only logged.
func (s *Service) refreshBalances(ctx context.Context) {
	if err := s.UpdateAllBalances(ctx); err != nil {
		log.WithError(err).Warn("failed to refresh balances")
	}
}
