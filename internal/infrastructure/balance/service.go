// Package balance implements the per-coin balance cache fed by the balance
// endpoint of the blockchain data service.
package balance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
	"github.com/vaultsync/payloadd/pkg/httputil"
	"github.com/vaultsync/payloadd/pkg/stats"
)

const (
	balancePath      = "/balance"
	addressSeparator = "|"
)

var (
	// ErrMissingURL ...
	ErrMissingURL = errors.New("missing balance api url")
	// ErrUnknownAddress ...
	ErrUnknownAddress = errors.New("address balance is unknown")
	// ErrInsufficientBalance ...
	ErrInsufficientBalance = errors.New("amount exceeds address balance")
)

// ServiceOpts is the struct given to NewService. Coin is used only to label
// metrics and errors.
type ServiceOpts struct {
	Coin    string
	URL     string
	APICode string
	Timeout time.Duration
}

type service struct {
	lock            *sync.RWMutex
	balances        map[string]uint64
	legacy          map[string]struct{}
	walletBalance   uint64
	importedBalance uint64

	coin     string
	endpoint string
	apiCode  string
	client   *httputil.Client
}

// NewService returns an empty balance cache for one coin.
func NewService(opts ServiceOpts) (ports.BalanceService, error) {
	if opts.URL == "" {
		return nil, ErrMissingURL
	}
	if _, err := url.Parse(opts.URL); err != nil {
		return nil, fmt.Errorf("invalid %s balance api url: %s", opts.Coin, err)
	}

	return &service{
		lock:     &sync.RWMutex{},
		balances: map[string]uint64{},
		legacy:   map[string]struct{}{},
		coin:     opts.Coin,
		endpoint: strings.TrimSuffix(opts.URL, "/") + balancePath,
		apiCode:  opts.APICode,
		client:   httputil.NewClient(opts.Timeout),
	}, nil
}

func (s *service) GetBalanceOfAddresses(
	ctx context.Context, addresses []string,
) (map[string]domain.Balance, error) {
	if len(addresses) == 0 {
		return map[string]domain.Balance{}, nil
	}

	query := url.Values{"active": {strings.Join(addresses, addressSeparator)}}
	if s.apiCode != "" {
		query.Set("api_code", s.apiCode)
	}

	status, body, err := s.client.Get(ctx, s.endpoint, query, nil)
	if err != nil {
		stats.RemoteRequestsTotal.WithLabelValues(s.coin, "balance", "error").Inc()
		return nil, err
	}
	if status != http.StatusOK {
		stats.RemoteRequestsTotal.WithLabelValues(s.coin, "balance", "failure").Inc()
		return nil, fmt.Errorf("%s balance: %d - %s", s.coin, status, body)
	}
	stats.RemoteRequestsTotal.WithLabelValues(s.coin, "balance", "success").Inc()

	balances := map[string]domain.Balance{}
	if err := json.Unmarshal([]byte(body), &balances); err != nil {
		return nil, fmt.Errorf("%s balance: %s", s.coin, err)
	}
	return balances, nil
}

func (s *service) GetWalletBalance() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.walletBalance
}

func (s *service) GetImportedAddressesBalance() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.importedBalance
}

func (s *service) GetAddressBalance(address string) uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.balances[address]
}

// UpdateAllBalances replaces the whole cache with fresh balances of the
// given xpubs and legacy addresses.
func (s *service) UpdateAllBalances(
	ctx context.Context, xpubs, legacy []string,
) error {
	active := append(append([]string{}, xpubs...), legacy...)
	res, err := s.GetBalanceOfAddresses(ctx, active)
	if err != nil {
		return err
	}

	balances := make(map[string]uint64, len(res))
	legacySet := make(map[string]struct{}, len(legacy))
	var walletBalance, importedBalance uint64
	for _, addr := range legacy {
		legacySet[addr] = struct{}{}
	}
	for addr, b := range res {
		balances[addr] = b.FinalBalance
		walletBalance += b.FinalBalance
		if _, ok := legacySet[addr]; ok {
			importedBalance += b.FinalBalance
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.balances = balances
	s.legacy = legacySet
	s.walletBalance = walletBalance
	s.importedBalance = importedBalance
	return nil
}

// SubtractAmountFromAddressBalance updates the cache after a spend, before
// the next refresh.
func (s *service) SubtractAmountFromAddressBalance(
	address string, amount uint64,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	balance, ok := s.balances[address]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, address)
	}
	if amount > balance {
		return fmt.Errorf("%w: %d > %d", ErrInsufficientBalance, amount, balance)
	}

	s.balances[address] = balance - amount
	s.walletBalance -= amount
	if _, ok := s.legacy[address]; ok {
		s.importedBalance -= amount
	}
	return nil
}
