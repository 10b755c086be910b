package payload

import (
	"context"

	"github.com/vaultsync/payloadd/internal/core/domain"
)

// AllTransactions returns a page of the transactions of every account and
// normal legacy address
func (s *Service) AllTransactions(
	ctx context.Context, limit, offset int,
) ([]domain.TransactionSummary, error) {
	return s.AccountTransactions(ctx, "", limit, offset)
}

// AccountTransactions returns a page of the transactions of the account
// with the given xpub. An empty xpub lists the whole wallet.
func (s *Service) AccountTransactions(
	ctx context.Context, xpub string, limit, offset int,
) ([]domain.TransactionSummary, error) {
	all, _, err := s.watched()
	if err != nil {
		return nil, err
	}
	return s.tracker.AccountTransactions(ctx, all, nil, xpub, limit, offset, 0)
}

// ImportedAddressesTransactions returns a page of the transactions of the
// normal legacy addresses
func (s *Service) ImportedAddressesTransactions(
	ctx context.Context, limit, offset int,
) ([]domain.TransactionSummary, error) {
	all, legacy, err := s.watched()
	if err != nil {
		return nil, err
	}
	return s.tracker.AccountTransactions(ctx, all, legacy, "", limit, offset, 0)
}

func (s *Service) watched() ([]string, []string, error) {
	body, _, err := s.loaded()
	if err != nil {
		return nil, nil, err
	}
	legacy := body.LegacyAddressStrings(domain.TagNormal)
	all := append(body.ActiveXpubs(), legacy...)
	return all, legacy, nil
}
