package store

// StoreOptions configure the Badger store.
type StoreOptions struct {
	// InMemory keeps all data in memory; the path passed to Open is ignored.
	InMemory bool

	// SyncWrites fsyncs every write before commit returns.
	SyncWrites bool

	// GCDiscardRatio is the value-log GC threshold used by RunGC.
	GCDiscardRatio float64

	// KeepHistory stores a version record on every create and update.
	KeepHistory bool
}

// DefaultStoreOptions returns the options used by stockroomd.
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{
		GCDiscardRatio: 0.5,
		KeepHistory:    true,
	}
}
