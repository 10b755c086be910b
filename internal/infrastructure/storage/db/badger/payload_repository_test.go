package dbbadger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
	dbbadger "github.com/vaultsync/payloadd/internal/infrastructure/storage/db/badger"
)

func TestPayloadRepository(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{"in-memory", func(*testing.T) string { return "" }},
		{"on disk", func(t *testing.T) string { return t.TempDir() }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, closeFn, err := dbbadger.NewPayloadRepository(tt.dir(t), nil)
			require.NoError(t, err)
			defer closeFn()

			testPayloadRepository(t, repo)
		})
	}
}

func testPayloadRepository(t *testing.T, repo ports.PayloadRepository) {
	ctx := context.Background()

	_, err := repo.Get(ctx, "guid")
	require.ErrorIs(t, err, domain.ErrPayloadNotCached)

	err = repo.Save(ctx, &domain.WalletBase{})
	require.ErrorIs(t, err, dbbadger.ErrInvalidPayload)

	base := &domain.WalletBase{
		Guid:            "guid",
		Payload:         `{"version":4}`,
		PayloadChecksum: "abc",
		SyncPubkeys:     true,
		Body:            &domain.Wallet{SharedKey: "secret"},
	}
	require.NoError(t, repo.Save(ctx, base))

	base.PayloadChecksum = "def"
	require.NoError(t, repo.Save(ctx, base))

	cached, err := repo.Get(ctx, "guid")
	require.NoError(t, err)
	require.Equal(t, "def", cached.PayloadChecksum)
	require.Equal(t, base.Payload, cached.Payload)
	require.True(t, cached.SyncPubkeys)
	require.Nil(t, cached.Body)

	require.NoError(t, repo.Delete(ctx, "guid"))
	require.NoError(t, repo.Delete(ctx, "guid"))
	_, err = repo.Get(ctx, "guid")
	require.ErrorIs(t, err, domain.ErrPayloadNotCached)
}
