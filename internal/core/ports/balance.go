package ports

import (
	"context"

	"github.com/vaultsync/payloadd/internal/core/domain"
)

// BalanceService caches the balances of a single coin.
type BalanceService interface {
	// GetBalanceOfAddresses queries the remote service. The order of the
	// returned map is undefined.
	GetBalanceOfAddresses(
		ctx context.Context, addresses []string,
	) (map[string]domain.Balance, error)
	GetWalletBalance() uint64
	GetImportedAddressesBalance() uint64
	// GetAddressBalance returns the cached balance, zero if unknown.
	GetAddressBalance(address string) uint64
	UpdateAllBalances(ctx context.Context, xpubs, legacy []string) error
	SubtractAmountFromAddressBalance(address string, amount uint64) error
}
