package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
)

// PayloadRepositoryImpl represents an in memory storage
type PayloadRepositoryImpl struct {
	locker   *sync.RWMutex
	payloads map[string]domain.WalletBase
}

// NewPayloadRepositoryImpl returns a new empty PayloadRepositoryImpl
func NewPayloadRepositoryImpl() ports.PayloadRepository {
	return &PayloadRepositoryImpl{
		locker:   &sync.RWMutex{},
		payloads: map[string]domain.WalletBase{},
	}
}

func (r *PayloadRepositoryImpl) Save(
	_ context.Context, base *domain.WalletBase,
) error {
	if base == nil || base.Guid == "" {
		return ErrInvalidPayload
	}

	r.locker.Lock()
	defer r.locker.Unlock()

	stored := *base
	stored.Body = nil
	r.payloads[base.Guid] = stored
	return nil
}

func (r *PayloadRepositoryImpl) Get(
	_ context.Context, guid string,
) (*domain.WalletBase, error) {
	r.locker.RLock()
	defer r.locker.RUnlock()

	stored, ok := r.payloads[guid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPayloadNotCached, guid)
	}
	return &stored, nil
}

func (r *PayloadRepositoryImpl) Delete(_ context.Context, guid string) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	delete(r.payloads, guid)
	return nil
}
