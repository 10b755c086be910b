package payload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/pkg/pairing"
	"github.com/vaultsync/payloadd/pkg/stats"
)

const (
	unknownWalletMarker = "Unknown Wallet Identifier"
	lockedMarker        = "locked"
)

// Create builds a new wallet with a single account named after label and
// inserts it into the remote store. The wallet is loaded only if the insert
// succeeds.
func (s *Service) Create(
	ctx context.Context, net *chaincfg.Params, label, email, password string,
) (*domain.Wallet, error) {
	if net == nil {
		return nil, ErrNullNetwork
	}
	if password == "" {
		return nil, ErrNullPassword
	}

	body, err := domain.NewWallet(domain.NewWalletOpts{
		Label:   label,
		Network: net,
	})
	if err != nil {
		return nil, err
	}
	return s.createWith(ctx, net, body, email, password, "create")
}

// RecoverFromMnemonic restores the HD wallet of the given recovery phrase
// into a new wallet document and inserts it into the remote store. Errors
// about the phrase are returned untouched.
func (s *Service) RecoverFromMnemonic(
	ctx context.Context, net *chaincfg.Params,
	mnemonic, label, email, password string,
) (*domain.Wallet, error) {
	if net == nil {
		return nil, ErrNullNetwork
	}
	if password == "" {
		return nil, ErrNullPassword
	}

	body, err := domain.NewWalletFromMnemonic(domain.NewWalletFromMnemonicOpts{
		Mnemonic: mnemonic,
		Label:    label,
		Network:  net,
	})
	if err != nil {
		return nil, err
	}
	return s.createWith(ctx, net, body, email, password, "recover")
}

func (s *Service) createWith(
	ctx context.Context, net *chaincfg.Params,
	body *domain.Wallet, email, password, source string,
) (*domain.Wallet, error) {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	base, err := s.insert(ctx, body, email, password)
	if err != nil {
		stats.LoadsTotal.WithLabelValues(source, "failure").Inc()
		return nil, err
	}
	s.adopt(base, password, net)
	stats.LoadsTotal.WithLabelValues(source, "success").Inc()

	s.cache(ctx, base)
	s.refreshBalances(ctx)
	return body.Clone(), nil
}

// InitializeAndDecrypt fetches the wallet identified by guid and shared key
// from the remote store and decrypts it with password. The loaded state is
// replaced only on success.
func (s *Service) InitializeAndDecrypt(
	ctx context.Context, net *chaincfg.Params, sharedKey, guid, password string,
) error {
	if net == nil {
		return ErrNullNetwork
	}

	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	res, err := s.walletAPI.FetchWalletData(ctx, guid, sharedKey)
	if err != nil {
		stats.LoadsTotal.WithLabelValues("remote", "failure").Inc()
		return err
	}
	if !res.IsSuccessful() {
		stats.LoadsTotal.WithLabelValues("remote", "failure").Inc()
		log.Warn("fetching wallet data failed with provided credentials")
		return classifyFetchError(res.GetBody())
	}

	base, err := s.decrypt(res.GetBody(), net, password)
	if err != nil {
		stats.LoadsTotal.WithLabelValues("remote", "failure").Inc()
		return err
	}
	s.adopt(base, password, net)
	stats.LoadsTotal.WithLabelValues("remote", "success").Inc()

	s.cache(ctx, base)
	s.refreshBalances(ctx)
	return nil
}

// InitializeAndDecryptFromQR pairs with a wallet from the content of a
// pairing QR code
func (s *Service) InitializeAndDecryptFromQR(
	ctx context.Context, net *chaincfg.Params, qr string,
) error {
	components, err := pairing.ParseQRComponents(qr)
	if err != nil {
		return err
	}

	res, err := s.walletAPI.FetchPairingEncryptionPassword(ctx, components.Guid)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrServerConnection, err)
	}
	if !res.IsSuccessful() {
		log.Errorf("pairing failed: %d - %s", res.GetStatusCode(), res.GetBody())
		return fmt.Errorf(
			"%w: %d - %s", ErrServerConnection, res.GetStatusCode(), res.GetBody(),
		)
	}

	creds, err := pairing.SharedKeyAndPassword(
		components.EncryptedPairingCode, strings.TrimSpace(res.GetBody()),
	)
	if err != nil {
		return err
	}
	return s.InitializeAndDecrypt(
		ctx, net, creds.SharedKey, components.Guid, creds.Password,
	)
}

// InitializeAndDecryptFromPayload loads a wallet from a raw envelope with no
// remote round trip. Decryption errors are returned as they are, any other
// failure is wrapped into ErrWallet.
func (s *Service) InitializeAndDecryptFromPayload(
	ctx context.Context, net *chaincfg.Params, payload, password string,
) error {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	return s.initializeFromPayload(ctx, net, payload, password, "payload")
}

// InitializeFromCache loads the last confirmed envelope of the given wallet
// from the local cache.
func (s *Service) InitializeFromCache(
	ctx context.Context, net *chaincfg.Params, guid, password string,
) error {
	if s.repository == nil {
		return ErrMissingCache
	}

	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	cached, err := s.repository.Get(ctx, guid)
	if err != nil {
		return err
	}
	raw, err := encodeWalletBase(cached)
	if err != nil {
		return err
	}
	return s.initializeFromPayload(ctx, net, raw, password, "cache")
}

// Logout drops the loaded wallet, if any, and removes the cached envelope of
// the given wallet.
func (s *Service) Logout(ctx context.Context, guid string) error {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	s.mu.Lock()
	s.base = nil
	s.password = ""
	s.net = nil
	s.state = stateUninitialized
	s.mu.Unlock()

	if s.repository == nil || guid == "" {
		return nil
	}
	return s.repository.Delete(ctx, guid)
}

func (s *Service) initializeFromPayload(
	ctx context.Context, net *chaincfg.Params, payload, password, source string,
) error {
	if net == nil {
		return fmt.Errorf("%w: %s", ErrWallet, ErrNullNetwork)
	}

	base, err := s.decrypt(payload, net, password)
	if err != nil {
		stats.LoadsTotal.WithLabelValues(source, "failure").Inc()
		if isDecryptionError(err) {
			log.WithError(err).Warn("failed to decrypt wallet payload")
			return err
		}
		log.WithError(err).Error("failed to initialize wallet from payload")
		return fmt.Errorf("%w: %s", ErrWallet, err)
	}
	s.adopt(base, password, net)
	stats.LoadsTotal.WithLabelValues(source, "success").Inc()

	s.refreshBalances(ctx)
	return nil
}

// UpgradeV2PayloadToV3 adds an HD wallet to a legacy wallet and saves it.
// The upgrade is reverted if the save is not accepted, in which case false
// is returned. Balances are refreshed in any case.
func (s *Service) UpgradeV2PayloadToV3(
	ctx context.Context, secondPassword, label string,
) (bool, error) {
	if _, _, err := s.loaded(); err != nil {
		return false, err
	}
	defer s.refreshBalances(ctx)

	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	body, net, err := s.snapshot()
	if err != nil {
		return false, err
	}
	if err := body.UpgradeToHD(net, secondPassword, label); err != nil {
		return false, err
	}
	return s.save(ctx, body, false)
}

func (s *Service) decrypt(
	raw string, net *chaincfg.Params, password string,
) (*domain.WalletBase, error) {
	base, err := s.codec.ParseWalletBase(raw)
	if err != nil {
		return nil, err
	}
	if err := s.codec.DecryptPayload(base, net, password); err != nil {
		return nil, err
	}
	return base, nil
}

func classifyFetchError(body string) error {
	switch {
	case strings.Contains(body, unknownWalletMarker):
		return ErrInvalidCredentials
	case strings.Contains(body, lockedMarker):
		return fmt.Errorf("%w: %s", ErrAccountLocked, body)
	default:
		return fmt.Errorf("%w: %s", ErrServerConnection, body)
	}
}

func isDecryptionError(err error) bool {
	return errors.Is(err, domain.ErrDecryption) ||
		errors.Is(err, domain.ErrUnsupportedVersion)
}

func encodeWalletBase(base *domain.WalletBase) (string, error) {
	buf, err := json.Marshal(base)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}
