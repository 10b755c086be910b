package ports

import (
	"context"

	"github.com/vaultsync/payloadd/internal/core/domain"
)

// PayloadRepository caches locally the last envelope confirmed by the
// remote wallet store. Only the encrypted payload is stored.
type PayloadRepository interface {
	Save(ctx context.Context, base *domain.WalletBase) error
	Get(ctx context.Context, guid string) (*domain.WalletBase, error)
	Delete(ctx context.Context, guid string) error
}
