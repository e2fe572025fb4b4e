package health

import "context"

// StorePinger checks the neighbor store.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// SnapshotChecker reports whether the facet snapshots are loaded.
type SnapshotChecker interface {
	Ready() error
}
