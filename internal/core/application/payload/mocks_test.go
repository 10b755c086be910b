package payload_test

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/mock"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
	"github.com/vaultsync/payloadd/internal/infrastructure/walletapi"
	"github.com/vaultsync/payloadd/internal/infrastructure/walletapi/inmemory"
)

var errTransport = errors.New("connection refused")

// **** Remote wallet store ****

// flakyStore is an in-memory wallet store that can be told to reject or to
// fail requests.
type flakyStore struct {
	*inmemory.Store

	lock          sync.Mutex
	rejectUpdates bool
	rejectInserts bool
	failTransport bool
	updates       int
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: inmemory.NewStore()}
}

func (s *flakyStore) setRejectUpdates(v bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.rejectUpdates = v
}

func (s *flakyStore) setFailTransport(v bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failTransport = v
}

func (s *flakyStore) updateCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.updates
}

func (s *flakyStore) FetchWalletData(
	ctx context.Context, guid, sharedKey string,
) (ports.Response, error) {
	s.lock.Lock()
	fail := s.failTransport
	s.lock.Unlock()

	if fail {
		return nil, errTransport
	}
	return s.Store.FetchWalletData(ctx, guid, sharedKey)
}

func (s *flakyStore) InsertWallet(
	ctx context.Context, guid, sharedKey, payload, checksum, email, device string,
) (ports.Response, error) {
	s.lock.Lock()
	fail, reject := s.failTransport, s.rejectInserts
	s.lock.Unlock()

	if fail {
		return nil, errTransport
	}
	if reject {
		return walletapi.NewResponse(http.StatusInternalServerError, "Internal Server Error"), nil
	}
	return s.Store.InsertWallet(ctx, guid, sharedKey, payload, checksum, email, device)
}

func (s *flakyStore) UpdateWallet(
	ctx context.Context,
	guid, sharedKey, payload, newChecksum, oldChecksum string,
	syncAddresses []string, device string,
) (ports.Response, error) {
	s.lock.Lock()
	s.updates++
	fail, reject := s.failTransport, s.rejectUpdates
	s.lock.Unlock()

	if fail {
		return nil, errTransport
	}
	if reject {
		return walletapi.NewResponse(http.StatusInternalServerError, "Internal Server Error"), nil
	}
	return s.Store.UpdateWallet(
		ctx, guid, sharedKey, payload, newChecksum, oldChecksum, syncAddresses, device,
	)
}

type mockWalletAPI struct {
	mock.Mock
}

func (m *mockWalletAPI) FetchWalletData(
	ctx context.Context, guid, sharedKey string,
) (ports.Response, error) {
	args := m.Called(ctx, guid, sharedKey)

	var res ports.Response
	if a := args.Get(0); a != nil {
		res = a.(ports.Response)
	}
	return res, args.Error(1)
}

func (m *mockWalletAPI) InsertWallet(
	ctx context.Context, guid, sharedKey, payload, checksum, email, device string,
) (ports.Response, error) {
	args := m.Called(ctx, guid, sharedKey, payload, checksum, email, device)

	var res ports.Response
	if a := args.Get(0); a != nil {
		res = a.(ports.Response)
	}
	return res, args.Error(1)
}

func (m *mockWalletAPI) UpdateWallet(
	ctx context.Context,
	guid, sharedKey, payload, newChecksum, oldChecksum string,
	syncAddresses []string, device string,
) (ports.Response, error) {
	args := m.Called(
		ctx, guid, sharedKey, payload, newChecksum, oldChecksum, syncAddresses, device,
	)

	var res ports.Response
	if a := args.Get(0); a != nil {
		res = a.(ports.Response)
	}
	return res, args.Error(1)
}

func (m *mockWalletAPI) FetchPairingEncryptionPassword(
	ctx context.Context, guid string,
) (ports.Response, error) {
	args := m.Called(ctx, guid)

	var res ports.Response
	if a := args.Get(0); a != nil {
		res = a.(ports.Response)
	}
	return res, args.Error(1)
}

// **** Balance service ****

type mockBalance struct {
	mock.Mock
}

// newMockBalance returns a mock accepting any balance refresh.
func newMockBalance() *mockBalance {
	m := &mockBalance{}
	m.On("UpdateAllBalances", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Maybe()
	return m
}

func (m *mockBalance) GetBalanceOfAddresses(
	ctx context.Context, addresses []string,
) (map[string]domain.Balance, error) {
	args := m.Called(ctx, addresses)

	var res map[string]domain.Balance
	if a := args.Get(0); a != nil {
		res = a.(map[string]domain.Balance)
	}
	return res, args.Error(1)
}

func (m *mockBalance) GetWalletBalance() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

func (m *mockBalance) GetImportedAddressesBalance() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

func (m *mockBalance) GetAddressBalance(address string) uint64 {
	args := m.Called(address)
	return args.Get(0).(uint64)
}

func (m *mockBalance) UpdateAllBalances(
	ctx context.Context, xpubs, legacy []string,
) error {
	args := m.Called(ctx, xpubs, legacy)
	return args.Error(0)
}

func (m *mockBalance) SubtractAmountFromAddressBalance(
	address string, amount uint64,
) error {
	args := m.Called(address, amount)
	return args.Error(0)
}

// **** Address index tracker ****

type mockTracker struct {
	mock.Mock
}

func (m *mockTracker) NextReceiveAddressIndex(xpub string, reserved []int) int {
	args := m.Called(xpub, reserved)
	return args.Int(0)
}

func (m *mockTracker) NextChangeAddressIndex(xpub string) int {
	args := m.Called(xpub)
	return args.Int(0)
}

func (m *mockTracker) IncrementNextReceiveAddress(xpub string, reserved []int) {
	m.Called(xpub, reserved)
}

func (m *mockTracker) IncrementNextChangeAddress(xpub string) {
	m.Called(xpub)
}

func (m *mockTracker) XpubFromAddress(address string) fn.Option[string] {
	args := m.Called(address)
	return args.Get(0).(fn.Option[string])
}

func (m *mockTracker) IsOwnHDAddress(address string) bool {
	args := m.Called(address)
	return args.Bool(0)
}

func (m *mockTracker) AccountTransactions(
	ctx context.Context, all, onlyShow []string, xpub string,
	limit, offset, startingBlock int,
) ([]domain.TransactionSummary, error) {
	args := m.Called(ctx, all, onlyShow, xpub, limit, offset, startingBlock)

	var res []domain.TransactionSummary
	if a := args.Get(0); a != nil {
		res = a.([]domain.TransactionSummary)
	}
	return res, args.Error(1)
}
