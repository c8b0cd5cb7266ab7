// Package upsert classifies canonical products against the record store and
// applies the write: insert, update, or no-op, with content-hash change
// detection and source-aware identity matching.
package upsert

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/events"
	"github.com/noodle630/beam/pkg/logging"
	"github.com/noodle630/beam/pkg/metrics"
	"github.com/noodle630/beam/pkg/store"
)

// Action classifies the outcome of one upsert.
type Action string

// Actions.
const (
	ActionInserted  Action = "inserted"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
)

// Result describes the outcome of upserting one product.
type Result struct {
	Action    Action   `json:"action"`
	RecordID  string   `json:"record_id"`
	MatchedOn MatchKey `json:"matched_on"`
}

// MaxErrorDetails bounds the error sample surfaced to callers; failures
// beyond it are summarized by the Errors count alone.
const MaxErrorDetails = 10

// ErrorDetail pairs a failed product's best identifier with the failure.
type ErrorDetail struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchSummary is the stable contract reported verbatim by the ingestion
// surfaces.
type BatchSummary struct {
	Seen         int           `json:"seen"`
	Inserted     int           `json:"inserted"`
	Updated      int           `json:"updated"`
	Unchanged    int           `json:"unchanged"`
	Errors       int           `json:"errors"`
	ErrorDetails []ErrorDetail `json:"error_details,omitempty"`
}

// AddResult folds one outcome into the running counters.
func (s *BatchSummary) AddResult(r Result) {
	switch r.Action {
	case ActionInserted:
		s.Inserted++
	case ActionUpdated:
		s.Updated++
	case ActionUnchanged:
		s.Unchanged++
	}
}

// AddError counts one per-product failure, keeping a bounded detail sample.
func (s *BatchSummary) AddError(id string, err error) {
	s.Errors++
	if len(s.ErrorDetails) < MaxErrorDetails {
		s.ErrorDetails = append(s.ErrorDetails, ErrorDetail{ID: id, Error: err.Error()})
	}
}

// Merge folds another summary into s, keeping the detail sample bounded.
// Used when a batch is processed page by page.
func (s *BatchSummary) Merge(o *BatchSummary) {
	s.Seen += o.Seen
	s.Inserted += o.Inserted
	s.Updated += o.Updated
	s.Unchanged += o.Unchanged
	s.Errors += o.Errors
	for _, d := range o.ErrorDetails {
		if len(s.ErrorDetails) >= MaxErrorDetails {
			break
		}
		s.ErrorDetails = append(s.ErrorDetails, d)
	}
}

// Engine orchestrates identity resolution, content hashing, and the store to
// classify and apply each product write. No state is held between products
// in a batch beyond the running counters.
type Engine struct {
	store     store.Store
	publisher events.Publisher
	metrics   *metrics.Registry
	logger    *zerolog.Logger
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher enables change-event publishing.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics enables outcome counters.
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the engine's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine over the given store.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		logger: logging.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// UpsertBatch processes products sequentially. A failure on one product is
// counted and does not abort the batch; there is no transactional rollback,
// and partial batches are safely re-runnable because the hash check makes
// retries idempotent. The batch stops early only on context cancellation;
// writes already committed stay committed.
func (e *Engine) UpsertBatch(ctx context.Context, products []*catalog.Product) *BatchSummary {
	summary := &BatchSummary{}
	for _, p := range products {
		if ctx.Err() != nil {
			break
		}
		summary.Seen++

		res, err := e.UpsertOne(ctx, p)
		if err != nil {
			summary.AddError(p.BestIdentifier(), err)
			if e.metrics != nil {
				e.metrics.IngestErrors.Inc()
			}
			e.logger.Warn().
				Err(err).
				Str("org_id", p.OrgID).
				Str("product", p.BestIdentifier()).
				Msg("Upsert failed, continuing batch")
			continue
		}

		summary.AddResult(res)
		if e.metrics != nil {
			e.metrics.ProductsIngested.WithLabelValues(string(res.Action)).Inc()
		}
	}

	e.logger.Info().
		Int("seen", summary.Seen).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("errors", summary.Errors).
		Msg("Batch complete")

	return summary
}

// UpsertOne classifies one product and applies the write.
func (e *Engine) UpsertOne(ctx context.Context, p *catalog.Product) (Result, error) {
	hash := ContentHash(p)
	key, filter := ResolveIdentity(p)

	// No identity key: unconditionally insert as new. No lookup, no dedup
	// possible for this record.
	if key == MatchNone {
		return e.insert(ctx, p, hash, key)
	}

	candidates, err := e.store.Find(ctx, p.OrgID, filter)
	if err != nil {
		return Result{}, err
	}

	if len(candidates) == 0 {
		promoteTitle(p)
		return e.insert(ctx, p, hash, key)
	}

	// More than one candidate means the single-record invariant is already
	// violated; take the first and leave cleanup to the reconciler.
	existing := candidates[0]

	if existing.SyncHash() == hash {
		return Result{Action: ActionUnchanged, RecordID: existing.ID, MatchedOn: key}, nil
	}

	// Core fields are fully overwritten; attributes shallow-merge with new
	// keys winning so accumulated cross-source attributes survive.
	updated := *p
	merged := existing.Attributes.Merge(p.Attributes)
	merged[catalog.AttrSyncHash] = hash
	updated.Attributes = merged

	if err := e.store.Update(ctx, existing.ID, &updated); err != nil {
		return Result{}, err
	}
	res := Result{Action: ActionUpdated, RecordID: existing.ID, MatchedOn: key}
	e.publish(ctx, p, res, hash)
	return res, nil
}

func (e *Engine) insert(ctx context.Context, p *catalog.Product, hash string, key MatchKey) (Result, error) {
	cp := *p
	attrs := cp.Attributes.Clone()
	if attrs == nil {
		attrs = catalog.Attributes{}
	}
	attrs[catalog.AttrSyncHash] = hash
	cp.Attributes = attrs

	id, err := e.store.Insert(ctx, &cp)
	if err != nil {
		return Result{}, err
	}
	res := Result{Action: ActionInserted, RecordID: id, MatchedOn: key}
	e.publish(ctx, p, res, hash)
	return res, nil
}

func (e *Engine) publish(ctx context.Context, p *catalog.Product, res Result, hash string) {
	if e.publisher == nil {
		return
	}
	err := e.publisher.Publish(ctx, events.Change{
		OrgID:             p.OrgID,
		RecordID:          res.RecordID,
		MerchantProductID: p.MerchantProductID,
		SKU:               p.SKU,
		Action:            string(res.Action),
		Source:            string(p.Source),
		Hash:              hash,
		At:                e.now(),
	})
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("record_id", res.RecordID).
			Msg("Change event publish failed")
	}
}

// promoteTitle gives a titleless product a last-resort label: the first
// attribute value in sorted key order, when it is a string.
func promoteTitle(p *catalog.Product) {
	if p.Title != "" || len(p.Attributes) == 0 {
		return
	}
	keys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		if k == catalog.AttrSyncHash {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)
	if s, ok := p.Attributes[keys[0]].(string); ok && s != "" {
		p.Title = s
	}
}
