// Package beam ingests product data from heterogeneous sources (tabular
// catalogs, the Shopify Admin API) and reconciles it into a single canonical
// product record per merchant entity. Re-ingestion is idempotent: content
// hashing detects no-op syncs, source-aware identity matching prevents
// duplicates on the write path, and a corrective sweep merges any duplicates
// that slip through.
package beam

import (
	"context"
	"io"

	"github.com/noodle630/beam/pkg/reconcile"
	"github.com/noodle630/beam/pkg/upsert"
)

// Beam is the catalog ingestion and reconciliation engine.
type Beam interface {
	// IngestRows normalizes and upserts raw tabular rows for one
	// organization, using that organization's mapping rules.
	IngestRows(ctx context.Context, orgID string, rows []map[string]string) (*upsert.BatchSummary, error)

	// IngestCSV reads a CSV stream (first record is the header row) and
	// ingests it via IngestRows.
	IngestCSV(ctx context.Context, orgID string, r io.Reader) (*upsert.BatchSummary, error)

	// SyncShopify fetches the configured shop's full catalog page by page
	// and upserts every product.
	SyncShopify(ctx context.Context, orgID string) (*upsert.BatchSummary, error)

	// Reconcile sweeps the store for duplicate external-catalog records and
	// merges each group down to one survivor. An empty orgID sweeps every
	// organization.
	Reconcile(ctx context.Context, orgID string) (*reconcile.Summary, error)

	// Close releases held resources (event publisher connections).
	Close() error
}

// New creates a Beam instance with the given options. Without options it
// runs on an in-memory store with the built-in default mapping rules.
func New(opts ...Option) (Beam, error) {
	b := &beam{config: newConfig()}
	if err := b.options(opts...); err != nil {
		return nil, err
	}

	b.engine = upsert.New(b.config.store, b.engineOptions()...)
	b.reconciler = reconcile.New(b.config.store, b.reconcilerOptions()...)

	return b, nil
}

// beam is the internal implementation of the Beam interface.
type beam struct {
	config     *config
	engine     *upsert.Engine
	reconciler *reconcile.Reconciler
}

// Reconcile runs the duplicate sweep.
func (b *beam) Reconcile(ctx context.Context, orgID string) (*reconcile.Summary, error) {
	return b.reconciler.Reconcile(ctx, orgID)
}

// Close releases held resources.
func (b *beam) Close() error {
	if b.config.publisher != nil {
		return b.config.publisher.Close()
	}
	return nil
}
