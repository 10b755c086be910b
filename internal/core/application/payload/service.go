package payload

import (
	"errors"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
)

const (
	// DefaultSyncLookahead is the number of receive addresses per account
	// exposed to the notification service on save
	DefaultSyncLookahead = 20
)

type state int

const (
	stateUninitialized state = iota
	stateLoaded
)

func (s state) String() string {
	if s == stateLoaded {
		return "loaded"
	}
	return "uninitialized"
}

// Options is the struct given to NewService. Repository is optional.
type Options struct {
	WalletAPI     ports.WalletAPI
	Codec         ports.PayloadCodec
	Tracker       ports.AddressIndexTracker
	BtcBalance    ports.BalanceService
	BchBalance    ports.BalanceService
	Repository    ports.PayloadRepository
	Device        domain.Device
	// SyncLookahead defaults to DefaultSyncLookahead if zero
	SyncLookahead int
}

func (o Options) validate() error {
	if o.WalletAPI == nil {
		return errors.New("missing remote wallet store")
	}
	if o.Codec == nil {
		return errors.New("missing payload codec")
	}
	if o.Tracker == nil {
		return errors.New("missing address index tracker")
	}
	if o.BtcBalance == nil {
		return errors.New("missing btc balance service")
	}
	if o.BchBalance == nil {
		return errors.New("missing bch balance service")
	}
	if o.SyncLookahead < 0 {
		return errors.New("sync lookahead must not be negative")
	}
	return nil
}

// Service owns the single decrypted wallet and keeps it in sync with the
// remote wallet store.
//
// saveMtx serializes saves, mutations and loads, so that no two requests
// are ever issued against the same old checksum. mu guards the loaded
// state for concurrent readers. When both are needed saveMtx is taken
// first.
type Service struct {
	walletAPI  ports.WalletAPI
	codec      ports.PayloadCodec
	tracker    ports.AddressIndexTracker
	btcBalance ports.BalanceService
	bchBalance ports.BalanceService
	repository ports.PayloadRepository
	device     domain.Device
	lookahead  int

	saveMtx sync.Mutex

	mu       sync.RWMutex
	state    state
	base     *domain.WalletBase
	password string
	net      *chaincfg.Params
}

// NewService returns a Service with no wallet loaded.
func NewService(opts Options) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	lookahead := opts.SyncLookahead
	if lookahead == 0 {
		lookahead = DefaultSyncLookahead
	}

	return &Service{
		walletAPI:  opts.WalletAPI,
		codec:      opts.Codec,
		tracker:    opts.Tracker,
		btcBalance: opts.BtcBalance,
		bchBalance: opts.BchBalance,
		repository: opts.Repository,
		device:     opts.Device,
		lookahead:  lookahead,
		state:      stateUninitialized,
	}, nil
}

// IsLoaded returns whether a decrypted wallet is loaded
func (s *Service) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateLoaded
}

// Payload returns a copy of the loaded wallet, nil if none is loaded.
func (s *Service) Payload() *domain.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateLoaded {
		return nil
	}
	return s.base.Body.Clone()
}

// PayloadChecksum returns the checksum of the last payload accepted by the
// remote store
func (s *Service) PayloadChecksum() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.base == nil {
		return ""
	}
	return s.base.PayloadChecksum
}

// Network returns the params of the loaded wallet
func (s *Service) Network() *chaincfg.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.net
}

// TempPassword returns the password encrypting the payload on the wire
func (s *Service) TempPassword() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.password
}

// SetTempPassword changes the password used to encrypt the payload on the
// next save
func (s *Service) SetTempPassword(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.password = password
}

// IsWalletBackedUp returns whether the user verified the recovery phrase of
// the loaded HD wallet
func (s *Service) IsWalletBackedUp() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateLoaded {
		return false
	}
	hd, err := s.base.Body.HDWallet()
	if err != nil {
		return false
	}
	return hd.MnemonicVerified
}

// IsNotUpgraded returns whether the loaded wallet has no HD wallet yet
func (s *Service) IsNotUpgraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == stateLoaded && !s.base.Body.IsUpgraded()
}

// loaded returns the live body and network, or ErrWalletNotInitialized.
// The body must be treated as read-only.
func (s *Service) loaded() (*domain.Wallet, *chaincfg.Params, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != stateLoaded {
		return nil, nil, ErrWalletNotInitialized
	}
	return s.base.Body, s.net, nil
}

// adopt replaces the loaded state wholesale
func (s *Service) adopt(
	base *domain.WalletBase, password string, net *chaincfg.Params,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = base
	s.password = password
	s.net = net
	s.state = stateLoaded
}
