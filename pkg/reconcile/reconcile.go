// Package reconcile is the corrective sweep over the record store: it finds
// groups of records that violate the single-canonical-record invariant
// (more than one record sharing the same source identity) and merges each
// group down to one survivor.
package reconcile

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/logging"
	"github.com/noodle630/beam/pkg/metrics"
	"github.com/noodle630/beam/pkg/store"
)

// Summary reports one reconciliation sweep.
type Summary struct {
	Scanned         int           `json:"scanned"`
	DuplicateGroups int           `json:"duplicate_groups"`
	Merged          int           `json:"merged"`
	Deleted         int           `json:"deleted"`
	Errors          int           `json:"errors"`
	ErrorDetails    []ErrorDetail `json:"error_details,omitempty"`
}

// ErrorDetail pairs a failed group's shared product ID with the failure.
type ErrorDetail struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

// MaxErrorDetails bounds the error sample surfaced to callers.
const MaxErrorDetails = 10

// Reconciler merges duplicate external-catalog records.
type Reconciler struct {
	store   store.Store
	metrics *metrics.Registry
	logger  *zerolog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMetrics enables sweep counters.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// WithLogger sets the reconciler's logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// New creates a Reconciler over the given store.
func New(s store.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  s,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// groupKey identifies a duplicate group: one merchant product within one
// organization.
type groupKey struct {
	orgID     string
	productID string
}

// Reconcile sweeps external-catalog records scoped to orgID (empty orgID
// sweeps every organization). A failure merging one group does not block
// other groups. Within a group the survivor is updated before the losers are
// deleted, so a crash between the two steps leaves extra but never lost
// data, and the sweep is safely re-runnable.
func (r *Reconciler) Reconcile(ctx context.Context, orgID string) (*Summary, error) {
	records, err := r.store.Find(ctx, orgID, store.Filter{
		store.FieldSource: string(catalog.SourceExternalCatalog),
	})
	if err != nil {
		return nil, err
	}

	summary := &Summary{Scanned: len(records)}

	groups := make(map[groupKey][]*catalog.Product)
	for _, p := range records {
		if p.MerchantProductID == "" {
			continue
		}
		key := groupKey{orgID: p.OrgID, productID: p.MerchantProductID}
		groups[key] = append(groups[key], p)
	}

	// Deterministic sweep order.
	keys := make([]groupKey, 0, len(groups))
	for key, members := range groups {
		if len(members) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].orgID != keys[j].orgID {
			return keys[i].orgID < keys[j].orgID
		}
		return keys[i].productID < keys[j].productID
	})

	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		summary.DuplicateGroups++
		if r.metrics != nil {
			r.metrics.DuplicateGroups.Inc()
		}

		deleted, err := r.mergeGroup(ctx, groups[key])
		if err != nil {
			summary.Errors++
			if len(summary.ErrorDetails) < MaxErrorDetails {
				summary.ErrorDetails = append(summary.ErrorDetails, ErrorDetail{
					ProductID: key.productID,
					Error:     err.Error(),
				})
			}
			r.logger.Warn().
				Err(err).
				Str("org_id", key.orgID).
				Str("merchant_product_id", key.productID).
				Msg("Duplicate group merge failed, continuing sweep")
			continue
		}

		summary.Merged++
		summary.Deleted += deleted
		if r.metrics != nil {
			r.metrics.DuplicatesMerged.Add(float64(deleted))
		}
	}

	r.logger.Info().
		Int("scanned", summary.Scanned).
		Int("duplicate_groups", summary.DuplicateGroups).
		Int("merged", summary.Merged).
		Int("deleted", summary.Deleted).
		Int("errors", summary.Errors).
		Msg("Reconciliation sweep complete")

	return summary, nil
}

// mergeGroup merges one duplicate group into its most recently updated
// member and deletes the rest. Returns the number of deleted records.
func (r *Reconciler) mergeGroup(ctx context.Context, members []*catalog.Product) (int, error) {
	// Most recently updated first: the survivor.
	sort.Slice(members, func(i, j int) bool {
		return members[i].UpdatedAt.After(members[j].UpdatedAt)
	})
	survivor := members[0]
	losers := members[1:]

	merged := mergeMembers(survivor, members)

	if err := r.store.Update(ctx, survivor.ID, merged); err != nil {
		return 0, &errors.ReconcileError{OrgID: survivor.OrgID, ProductID: survivor.MerchantProductID, Err: err}
	}

	ids := make([]string, len(losers))
	for i, l := range losers {
		ids[i] = l.ID
	}
	if err := r.store.Delete(ctx, ids); err != nil {
		return 0, &errors.ReconcileError{OrgID: survivor.OrgID, ProductID: survivor.MerchantProductID, Err: err}
	}
	return len(ids), nil
}

// mergeMembers builds the merged record: the survivor's core fields, the
// union of all image URLs (deduplicated, sorted), the union of all variants
// by variant ID (walked oldest to newest so later observations win per ID),
// and attributes where the survivor wins overlapping keys but keys only the
// losers carry are preserved.
func mergeMembers(survivor *catalog.Product, members []*catalog.Product) *catalog.Product {
	merged := *survivor
	merged.Attributes = survivor.Attributes.Clone()
	if merged.Attributes == nil {
		merged.Attributes = catalog.Attributes{}
	}

	// Oldest to newest for variant and attribute accumulation.
	oldestFirst := make([]*catalog.Product, len(members))
	copy(oldestFirst, members)
	sort.Slice(oldestFirst, func(i, j int) bool {
		return oldestFirst[i].UpdatedAt.Before(oldestFirst[j].UpdatedAt)
	})

	// Image union, deduplicated and sorted.
	imageSet := make(map[string]bool)
	for _, m := range members {
		for _, u := range m.ImageURLs {
			if u != "" {
				imageSet[u] = true
			}
		}
	}
	images := make([]string, 0, len(imageSet))
	for u := range imageSet {
		images = append(images, u)
	}
	sort.Strings(images)
	merged.ImageURLs = images

	// Attribute keys only losers carry are carried over; overlaps keep the
	// survivor's value.
	for _, m := range oldestFirst {
		if m.ID == survivor.ID {
			continue
		}
		for k, v := range m.Attributes {
			if _, exists := merged.Attributes[k]; !exists {
				merged.Attributes[k] = v
			}
		}
	}

	merged.Attributes[catalog.AttrVariants] = unionVariants(oldestFirst)

	return &merged
}

// unionVariants merges the members' variant lists by variant ID. Members are
// walked oldest to newest, so the newest observation of each variant wins;
// list order is first-seen order.
func unionVariants(oldestFirst []*catalog.Product) []any {
	var order []string
	byID := make(map[string]any)

	for _, m := range oldestFirst {
		list, ok := m.Attributes[catalog.AttrVariants].([]any)
		if !ok {
			continue
		}
		for _, raw := range list {
			v, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			id, _ := v["id"].(string)
			if id == "" {
				continue
			}
			if _, seen := byID[id]; !seen {
				order = append(order, id)
			}
			byID[id] = raw
		}
	}

	out := make([]any, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}
