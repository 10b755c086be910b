package payload

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/pkg/stats"
)

// Save encrypts the loaded wallet and pushes it to the remote store. It
// returns false, with no error, if the store rejected the update, for
// example because another device saved in the meantime. Errors are
// returned for transport failures and violated preconditions.
func (s *Service) Save(ctx context.Context) (bool, error) {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	body, _, err := s.snapshot()
	if err != nil {
		return false, err
	}
	return s.save(ctx, body, false)
}

// SaveAndSyncPubKeys is like Save but always sends the addresses to watch
// to the notification service.
func (s *Service) SaveAndSyncPubKeys(ctx context.Context) (bool, error) {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	body, _, err := s.snapshot()
	if err != nil {
		return false, err
	}
	return s.save(ctx, body, true)
}

// snapshot returns a deep copy of the loaded body to be mutated and
// eventually committed by save.
func (s *Service) snapshot() (*domain.Wallet, *chaincfg.Params, error) {
	body, net, err := s.loaded()
	if err != nil {
		return nil, nil, err
	}
	return body.Clone(), net, nil
}

// save pushes the given body to the remote store and, only if accepted,
// commits it as the loaded one together with the new checksum. The caller
// must hold saveMtx.
func (s *Service) save(
	ctx context.Context, body *domain.Wallet, forceSync bool,
) (bool, error) {
	s.mu.RLock()
	base, password, net := s.base, s.password, s.net
	s.mu.RUnlock()

	if err := s.validateSave(body); err != nil {
		return false, err
	}

	newChecksum, wrapper, err := s.codec.EncryptAndWrapPayload(body, password)
	if err != nil {
		return false, err
	}
	oldChecksum := base.PayloadChecksum

	var syncAddresses []string
	if base.SyncPubkeys || forceSync {
		if syncAddresses, err = s.syncAddresses(body, net); err != nil {
			return false, err
		}
	}

	// An issued update always runs to completion.
	res, err := s.walletAPI.UpdateWallet(
		context.WithoutCancel(ctx), body.Guid, body.SharedKey, wrapper,
		newChecksum, oldChecksum, syncAddresses, s.device.Name,
	)
	if err != nil {
		stats.SavesTotal.WithLabelValues("error").Inc()
		return false, err
	}
	if !res.IsSuccessful() {
		stats.SavesTotal.WithLabelValues("rejected").Inc()
		log.Errorf(
			"save unsuccessful: %d - %s", res.GetStatusCode(), res.GetBody(),
		)
		return false, nil
	}

	newBase := &domain.WalletBase{
		Guid:            body.Guid,
		Payload:         wrapper,
		PayloadChecksum: newChecksum,
		SyncPubkeys:     base.SyncPubkeys,
		Language:        base.Language,
		WarChecksum:     base.WarChecksum,
		Body:            body,
	}
	s.mu.Lock()
	s.base = newBase
	s.mu.Unlock()

	stats.SavesTotal.WithLabelValues("accepted").Inc()
	log.Debugf("wallet saved with checksum %s", newChecksum)

	s.cache(ctx, newBase)
	return true, nil
}

// insert pushes a brand new wallet to the remote store. The caller must
// hold saveMtx.
func (s *Service) insert(
	ctx context.Context, body *domain.Wallet, email, password string,
) (*domain.WalletBase, error) {
	if err := s.validateSave(body); err != nil {
		return nil, err
	}

	checksum, wrapper, err := s.codec.EncryptAndWrapPayload(body, password)
	if err != nil {
		return nil, err
	}

	res, err := s.walletAPI.InsertWallet(
		context.WithoutCancel(ctx), body.Guid, body.SharedKey, wrapper,
		checksum, email, s.device.Name,
	)
	if err != nil {
		return nil, err
	}
	if !res.IsSuccessful() {
		log.Errorf("insert unsuccessful: %d - %s", res.GetStatusCode(), res.GetBody())
		return nil, fmt.Errorf(
			"%w: %d - %s", ErrServerConnection, res.GetStatusCode(), res.GetBody(),
		)
	}

	return &domain.WalletBase{
		Guid:            body.Guid,
		Payload:         wrapper,
		PayloadChecksum: checksum,
		Body:            body,
	}, nil
}

func (s *Service) validateSave(body *domain.Wallet) error {
	if body == nil {
		return ErrWalletNotInitialized
	}
	if !body.IsEncryptionConsistent() {
		return ErrInconsistentEncryption
	}
	if s.device.Name == "" {
		return ErrMissingDevice
	}
	return nil
}

// syncAddresses returns, for every non archived account, the next
// not reserved receive addresses starting from the next unused index, plus
// every normal legacy address.
func (s *Service) syncAddresses(
	body *domain.Wallet, net *chaincfg.Params,
) ([]string, error) {
	addresses := make([]string, 0)

	if hd, err := body.HDWallet(); err == nil {
		for _, account := range hd.Accounts {
			if account.Archived {
				continue
			}
			next := s.tracker.NextReceiveAddressIndex(
				account.Xpub, account.ReservedIndexes(),
			)
			for i, n := next, 0; n < s.lookahead; i++ {
				if account.HasAddressLabel(i) {
					continue
				}
				addr, err := account.ReceiveAddressAt(net, i)
				if err != nil {
					return nil, err
				}
				addresses = append(addresses, addr)
				n++
			}
		}
	}

	addresses = append(addresses, body.LegacyAddressStrings(domain.TagNormal)...)
	return addresses, nil
}

// mutate applies fn to a snapshot of the loaded body and saves it. The
// loaded body is replaced only if the save is accepted, otherwise it is
// left untouched and ErrSaveFailed is returned.
func (s *Service) mutate(
	ctx context.Context, fn func(body *domain.Wallet, net *chaincfg.Params) error,
) error {
	return s.mutateIf(ctx, func(body *domain.Wallet, net *chaincfg.Params) (bool, error) {
		return true, fn(body, net)
	})
}

// mutateIf is like mutate but fn can opt out of the save by returning
// false, in which case the snapshot is discarded.
func (s *Service) mutateIf(
	ctx context.Context,
	fn func(body *domain.Wallet, net *chaincfg.Params) (bool, error),
) error {
	s.saveMtx.Lock()
	defer s.saveMtx.Unlock()

	body, net, err := s.snapshot()
	if err != nil {
		return err
	}
	changed, err := fn(body, net)
	if err != nil || !changed {
		return err
	}

	ok, err := s.save(ctx, body, false)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSaveFailed
	}
	return nil
}

// cache stores the confirmed envelope locally. Failures are only logged.
func (s *Service) cache(ctx context.Context, base *domain.WalletBase) {
	if s.repository == nil {
		return
	}
	if err := s.repository.Save(ctx, base); err != nil {
		log.WithError(err).Warn("failed to cache wallet payload")
	}
}
