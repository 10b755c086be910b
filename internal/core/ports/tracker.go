package ports

import (
	"context"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/vaultsync/payloadd/internal/core/domain"
)

// AddressIndexTracker keeps the next unused receive and change index of
// every xpub. Reserved receive indexes are never returned as unused.
type AddressIndexTracker interface {
	NextReceiveAddressIndex(xpub string, reserved []int) int
	NextChangeAddressIndex(xpub string) int
	IncrementNextReceiveAddress(xpub string, reserved []int)
	IncrementNextChangeAddress(xpub string)
	XpubFromAddress(address string) fn.Option[string]
	IsOwnHDAddress(address string) bool
	// AccountTransactions lists a page of the transactions of all the given
	// xpubs and legacy addresses. Amounts are computed from the point of
	// view of the addresses in onlyShow, if any, or of xpub, if not empty,
	// or of the whole set otherwise.
	AccountTransactions(
		ctx context.Context, all, onlyShow []string, xpub string,
		limit, offset, startingBlock int,
	) ([]domain.TransactionSummary, error)
}
