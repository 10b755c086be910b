// Package inmemory implements a process-local remote wallet store honoring
// the same checksum guard of the real one.
package inmemory

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
	"github.com/vaultsync/payloadd/internal/infrastructure/payloadcodec"
	"github.com/vaultsync/payloadd/internal/infrastructure/walletapi"
)

const (
	bodyUnknownWallet    = "Unknown Wallet Identifier. Please check your wallet id."
	bodyLocked           = "Wallet identifier locked, please contact support."
	bodyExists           = "Wallet identifier already exists."
	bodyChecksumMismatch = "Checksum does not match."
	bodyOldChecksum      = "The wallet was modified by another device, please reload it."
	bodyMalformedPayload = "Invalid payload."
	bodyNoPairing        = "No pairing password for wallet."
)

type record struct {
	sharedKey       string
	payload         string
	checksum        string
	email           string
	device          string
	syncAddresses   []string
	locked          bool
	pairingPassword string
}

// Store keeps wallets in memory, keyed by guid.
type Store struct {
	lock    *sync.RWMutex
	wallets map[string]*record
}

// NewStore returns an empty Store
func NewStore() *Store {
	return &Store{
		lock:    &sync.RWMutex{},
		wallets: map[string]*record{},
	}
}

var _ ports.WalletAPI = (*Store)(nil)

func (s *Store) FetchWalletData(
	_ context.Context, guid, sharedKey string,
) (ports.Response, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	r, ok := s.wallets[guid]
	if !ok || r.sharedKey != sharedKey {
		return walletapi.NewResponse(http.StatusInternalServerError, bodyUnknownWallet), nil
	}
	if r.locked {
		return walletapi.NewResponse(http.StatusForbidden, bodyLocked), nil
	}

	raw, err := json.Marshal(domain.WalletBase{
		Guid:            guid,
		Payload:         r.payload,
		PayloadChecksum: r.checksum,
		SyncPubkeys:     len(r.syncAddresses) > 0,
	})
	if err != nil {
		return nil, err
	}
	return walletapi.NewResponse(http.StatusOK, string(raw)), nil
}

func (s *Store) InsertWallet(
	_ context.Context, guid, sharedKey, payload, checksum, email, device string,
) (ports.Response, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.wallets[guid]; ok {
		return walletapi.NewResponse(http.StatusConflict, bodyExists), nil
	}
	if res := verifyChecksum(payload, checksum); res != nil {
		return res, nil
	}

	s.wallets[guid] = &record{
		sharedKey: sharedKey,
		payload:   payload,
		checksum:  checksum,
		email:     email,
		device:    device,
	}
	return walletapi.NewResponse(http.StatusOK, "Wallet successfully synced"), nil
}

func (s *Store) UpdateWallet(
	_ context.Context,
	guid, sharedKey, payload, newChecksum, oldChecksum string,
	syncAddresses []string, device string,
) (ports.Response, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	r, ok := s.wallets[guid]
	if !ok || r.sharedKey != sharedKey {
		return walletapi.NewResponse(http.StatusInternalServerError, bodyUnknownWallet), nil
	}
	if r.locked {
		return walletapi.NewResponse(http.StatusForbidden, bodyLocked), nil
	}
	if r.checksum != oldChecksum {
		return walletapi.NewResponse(http.StatusConflict, bodyOldChecksum), nil
	}
	if res := verifyChecksum(payload, newChecksum); res != nil {
		return res, nil
	}

	r.payload = payload
	r.checksum = newChecksum
	r.device = device
	if syncAddresses != nil {
		r.syncAddresses = append([]string{}, syncAddresses...)
	}
	return walletapi.NewResponse(http.StatusOK, "Wallet successfully synced"), nil
}

func (s *Store) FetchPairingEncryptionPassword(
	_ context.Context, guid string,
) (ports.Response, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	r, ok := s.wallets[guid]
	if !ok {
		return walletapi.NewResponse(http.StatusInternalServerError, bodyUnknownWallet), nil
	}
	if r.pairingPassword == "" {
		return walletapi.NewResponse(http.StatusInternalServerError, bodyNoPairing), nil
	}
	return walletapi.NewResponse(http.StatusOK, r.pairingPassword), nil
}

// SetPairingEncryptionPassword sets the password returned to devices
// pairing with the given wallet
func (s *Store) SetPairingEncryptionPassword(guid, password string) {
	s.withRecord(guid, func(r *record) { r.pairingPassword = password })
}

// Lock suspends the access to the given wallet
func (s *Store) Lock(guid string) {
	s.withRecord(guid, func(r *record) { r.locked = true })
}

// Checksum returns the checksum of the stored payload
func (s *Store) Checksum(guid string) string {
	var checksum string
	s.readRecord(guid, func(r *record) { checksum = r.checksum })
	return checksum
}

// Payload returns the stored wrapper
func (s *Store) Payload(guid string) string {
	var payload string
	s.readRecord(guid, func(r *record) { payload = r.payload })
	return payload
}

// SyncAddresses returns the addresses received with the last update
func (s *Store) SyncAddresses(guid string) []string {
	var addresses []string
	s.readRecord(guid, func(r *record) {
		addresses = append(addresses, r.syncAddresses...)
	})
	return addresses
}

func (s *Store) withRecord(guid string, fn func(r *record)) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if r, ok := s.wallets[guid]; ok {
		fn(r)
	}
}

func (s *Store) readRecord(guid string, fn func(r *record)) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if r, ok := s.wallets[guid]; ok {
		fn(r)
	}
}

func verifyChecksum(payload, checksum string) ports.Response {
	wrapper, err := payloadcodec.ParseWrapper(payload)
	if err != nil {
		return walletapi.NewResponse(http.StatusBadRequest, bodyMalformedPayload)
	}
	if wrapper.Checksum() != checksum {
		return walletapi.NewResponse(http.StatusBadRequest, bodyChecksumMismatch)
	}
	return nil
}
