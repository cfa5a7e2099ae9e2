package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rzbill/stockroom/pkg/log"
	"github.com/rzbill/stockroom/pkg/types"
)

// Validate that BadgerStore implements the Store interface
var _ Store = &BadgerStore{}

// BadgerStore implements the Store interface using BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	path   string
	opts   StoreOptions
	logger log.Logger
}

// NewBadgerStore creates a new BadgerDB-backed store with default options.
func NewBadgerStore(logger log.Logger) *BadgerStore {
	return NewBadgerStoreWithOptions(logger, DefaultStoreOptions())
}

// NewBadgerStoreWithOptions creates a new BadgerDB-backed store.
func NewBadgerStoreWithOptions(logger log.Logger, opts StoreOptions) *BadgerStore {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &BadgerStore{
		opts:   opts,
		logger: logger.WithComponent("store"),
	}
}

// Open opens the BadgerDB database.
func (s *BadgerStore) Open(path string) error {
	s.path = path

	opts := badger.DefaultOptions(path).
		WithLogger(&badgerLogAdapter{logger: s.logger}).
		WithSyncWrites(s.opts.SyncWrites)
	if s.opts.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger db: %w", err)
	}
	s.db = db

	s.logger.Info("Store opened", log.Str("path", path), log.Bool("in_memory", s.opts.InMemory))
	return nil
}

// Close closes the BadgerDB database.
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info("Closing store", log.Str("path", s.path))
	err := s.db.Close()
	s.db = nil
	return err
}

// RunGC runs value-log garbage collection until nothing is left to rewrite.
// It returns the number of log files rewritten.
func (s *BadgerStore) RunGC() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store is not open")
	}
	if s.opts.InMemory {
		return 0, nil
	}
	ratio := s.opts.GCDiscardRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}

	rewritten := 0
	for {
		err := s.db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			return rewritten, fmt.Errorf("value log gc: %w", err)
		}
		rewritten++
	}
	s.logger.Debug("Value log GC finished", log.Int("rewritten", rewritten))
	return rewritten, nil
}

// Create creates a new resource.
func (s *BadgerStore) Create(ctx context.Context, resourceType types.ResourceType, namespace string, name string, resource interface{}) error {
	s.logger.Debug("Creating resource",
		log.Any("resourceType", resourceType),
		log.Str("namespace", namespace),
		log.Str("name", name))

	return s.db.Update(func(txn *badger.Txn) error {
		return s.txn(txn).Create(resourceType, namespace, name, resource)
	})
}

// Get retrieves a resource.
func (s *BadgerStore) Get(ctx context.Context, resourceType types.ResourceType, namespace string, name string, resource interface{}) error {
	return s.db.View(func(txn *badger.Txn) error {
		return s.txn(txn).Get(resourceType, namespace, name, resource)
	})
}

// Update updates an existing resource.
func (s *BadgerStore) Update(ctx context.Context, resourceType types.ResourceType, namespace string, name string, resource interface{}) error {
	s.logger.Debug("Updating resource",
		log.Any("resourceType", resourceType),
		log.Str("namespace", namespace),
		log.Str("name", name))

	return s.db.Update(func(txn *badger.Txn) error {
		return s.txn(txn).Update(resourceType, namespace, name, resource)
	})
}

// Delete deletes a resource. Versions are kept to maintain history.
func (s *BadgerStore) Delete(ctx context.Context, resourceType types.ResourceType, namespace string, name string) error {
	s.logger.Debug("Deleting resource",
		log.Any("resourceType", resourceType),
		log.Str("namespace", namespace),
		log.Str("name", name))

	return s.db.Update(func(txn *badger.Txn) error {
		return s.txn(txn).Delete(resourceType, namespace, name)
	})
}

// List retrieves all resources of a given type in a namespace.
func (s *BadgerStore) List(ctx context.Context, resourceType types.ResourceType, namespace string, resource interface{}) error {
	var items [][]byte
	prefix := MakePrefix(resourceType, namespace)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read resource: %w", err)
			}
			items = append(items, val)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Found resources", log.Any("resourceType", resourceType), log.Int("count", len(items)))
	return unmarshalList(items, resource)
}

// Transaction executes multiple operations in a single transaction.
func (s *BadgerStore) Transaction(ctx context.Context, fn func(tx Transaction) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(s.txn(txn))
	})
}

// GetHistory retrieves historical versions of a resource, newest first.
func (s *BadgerStore) GetHistory(ctx context.Context, resourceType types.ResourceType, namespace string, name string) ([]HistoricalVersion, error) {
	var versions []HistoricalVersion
	prefix := MakeVersionPrefix(resourceType, namespace, name)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec versionRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("failed to deserialize version: %w", err)
				}
				hv, err := rec.historical()
				if err != nil {
					return err
				}
				versions = append(versions, hv)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return versions, err
}

func (s *BadgerStore) txn(txn *badger.Txn) *BadgerTransaction {
	return &BadgerTransaction{txn: txn, keepHistory: s.opts.KeepHistory}
}

// BadgerTransaction implements the Transaction interface over a badger.Txn.
type BadgerTransaction struct {
	txn         *badger.Txn
	keepHistory bool
}

// Create creates a resource within the transaction.
func (t *BadgerTransaction) Create(resourceType types.ResourceType, namespace string, name string, resource interface{}) error {
	key := MakeKey(resourceType, namespace, name)

	_, err := t.txn.Get(key)
	if err == nil {
		return alreadyExists(resourceType, namespace, name)
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check existing resource: %w", err)
	}
	return t.put(resourceType, namespace, name, resource)
}

// Get retrieves a resource within the transaction.
func (t *BadgerTransaction) Get(resourceType types.ResourceType, namespace string, name string, resource interface{}) error {
	item, err := t.txn.Get(MakeKey(resourceType, namespace, name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound(resourceType, namespace, name)
	} else if err != nil {
		return fmt.Errorf("failed to get resource: %w", err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, resource)
	})
}

// Update updates a resource within the transaction.
func (t *BadgerTransaction) Update(resourceType types.ResourceType, namespace string, name string, resource interface{}) error {
	_, err := t.txn.Get(MakeKey(resourceType, namespace, name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound(resourceType, namespace, name)
	} else if err != nil {
		return fmt.Errorf("failed to check existing resource: %w", err)
	}
	return t.put(resourceType, namespace, name, resource)
}

// Delete deletes a resource within the transaction.
func (t *BadgerTransaction) Delete(resourceType types.ResourceType, namespace string, name string) error {
	key := MakeKey(resourceType, namespace, name)

	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound(resourceType, namespace, name)
	} else if err != nil {
		return fmt.Errorf("failed to check existing resource: %w", err)
	}
	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	return nil
}

// put writes the resource and, when history is on, a version record.
func (t *BadgerTransaction) put(resourceType types.ResourceType, namespace, name string, resource interface{}) error {
	data, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to serialize resource: %w", err)
	}
	if err := t.txn.Set(MakeKey(resourceType, namespace, name), data); err != nil {
		return fmt.Errorf("failed to store resource: %w", err)
	}
	if !t.keepHistory {
		return nil
	}

	now := time.Now()
	rec := versionRecord{ID: newVersionID(now), Timestamp: now, Resource: data}
	versionData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize version: %w", err)
	}
	if err := t.txn.Set(MakeVersionKey(resourceType, namespace, name, rec.ID), versionData); err != nil {
		return fmt.Errorf("failed to store version: %w", err)
	}
	return nil
}

// badgerLogAdapter adapts our logger to BadgerDB's logger interface.
type badgerLogAdapter struct {
	logger log.Logger
}

func (l *badgerLogAdapter) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("BadgerDB: "+trimNewline(format), args...)
}

func (l *badgerLogAdapter) Warningf(format string, args ...interface{}) {
	l.logger.Warnf("BadgerDB: "+trimNewline(format), args...)
}

// Infof is demoted to debug; badger is chatty at info.
func (l *badgerLogAdapter) Infof(format string, args ...interface{}) {
	l.logger.Debugf("BadgerDB: "+trimNewline(format), args...)
}

func (l *badgerLogAdapter) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("BadgerDB: "+trimNewline(format), args...)
}

func trimNewline(s string) string {
	for len(s) > 0 && s[len(s)-1] == '\n' {
		s = s[:len(s)-1]
	}
	return s
}
