package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/vaultsync/payloadd/internal/core/domain"
	"github.com/vaultsync/payloadd/internal/core/ports"
)

const (
	payloadDir = "payloads"

	valueLogGCInterval = 30 * time.Minute
	valueLogGCRatio    = 0.5
)

// payloadRecord is the stored version of a domain.WalletBase, the decrypted
// body is never persisted.
type payloadRecord struct {
	Guid            string
	Payload         string
	PayloadChecksum string
	SyncPubkeys     bool
	Language        string
	WarChecksum     string
	UpdatedAt       int64
}

type payloadRepository struct {
	store *badgerhold.Store
}

// NewPayloadRepository opens (or creates if not exists) the badger store
// under the given datadir. An empty datadir makes the store in-memory.
func NewPayloadRepository(
	baseDbDir string, logger badger.Logger,
) (ports.PayloadRepository, func(), error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, payloadDir)
	}

	store, stopGC, err := createDb(dbDir, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening payload db: %w", err)
	}

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			stopGC()
			if err := store.Close(); err != nil {
				log.WithError(err).Warn("failed to close payload db")
			}
		})
	}
	return &payloadRepository{store}, closeFn, nil
}

func (r *payloadRepository) Save(
	_ context.Context, base *domain.WalletBase,
) error {
	if base == nil || base.Guid == "" {
		return ErrInvalidPayload
	}

	record := payloadRecord{
		Guid:            base.Guid,
		Payload:         base.Payload,
		PayloadChecksum: base.PayloadChecksum,
		SyncPubkeys:     base.SyncPubkeys,
		Language:        base.Language,
		WarChecksum:     base.WarChecksum,
		UpdatedAt:       time.Now().Unix(),
	}
	return r.store.Upsert(base.Guid, &record)
}

func (r *payloadRepository) Get(
	_ context.Context, guid string,
) (*domain.WalletBase, error) {
	var record payloadRecord
	if err := r.store.Get(guid, &record); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPayloadNotCached, guid)
		}
		return nil, err
	}

	return &domain.WalletBase{
		Guid:            record.Guid,
		Payload:         record.Payload,
		PayloadChecksum: record.PayloadChecksum,
		SyncPubkeys:     record.SyncPubkeys,
		Language:        record.Language,
		WarChecksum:     record.WarChecksum,
	}, nil
}

func (r *payloadRepository) Delete(_ context.Context, guid string) error {
	if err := r.store.Delete(guid, payloadRecord{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func createDb(
	dbDir string, logger badger.Logger,
) (*badgerhold.Store, func(), error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, nil, err
	}

	if isInMemory {
		return db, func() {}, nil
	}

	stopGC := startValueLogGC(valueLogGCInterval, func() {
		if err := db.Badger().RunValueLogGC(valueLogGCRatio); err != nil &&
			!errors.Is(err, badger.ErrNoRewrite) {
			log.WithError(err).Warn("payload db value log gc failed")
		}
	})
	return db, stopGC, nil
}

// startValueLogGC calls gc every interval until the returned func is
// called. The returned func waits for the loop to exit and is safe to call
// more than once.
func startValueLogGC(interval time.Duration, gc func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				gc()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			<-exited
		})
	}
}
