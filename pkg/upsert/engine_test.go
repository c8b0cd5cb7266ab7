package upsert

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/events"
	"github.com/noodle630/beam/pkg/store"
	"github.com/noodle630/beam/pkg/store/memory"
)

func product(sku string) *catalog.Product {
	return &catalog.Product{
		OrgID:      "org-1",
		Title:      "Widget",
		SKU:        sku,
		Price:      catalog.Float64(10),
		Source:     catalog.SourceCSV,
		Attributes: catalog.Attributes{"color": "red"},
	}
}

func TestUpsertOneInsert(t *testing.T) {
	s := memory.New()
	e := New(s)

	res, err := e.UpsertOne(context.Background(), product("W-1"))
	require.NoError(t, err)

	assert.Equal(t, ActionInserted, res.Action)
	assert.Equal(t, MatchSKU, res.MatchedOn)
	assert.NotEmpty(t, res.RecordID)

	stored, err := s.Find(context.Background(), "org-1", nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEmpty(t, stored[0].SyncHash(), "stored record carries the content hash")
}

func TestUpsertOneIdempotent(t *testing.T) {
	s := memory.New()
	e := New(s)
	ctx := context.Background()

	first, err := e.UpsertOne(ctx, product("W-1"))
	require.NoError(t, err)

	second, err := e.UpsertOne(ctx, product("W-1"))
	require.NoError(t, err)

	assert.Equal(t, ActionUnchanged, second.Action)
	assert.Equal(t, first.RecordID, second.RecordID)
	assert.Equal(t, 1, s.Len())
}

func TestUpsertOneUpdateOnChange(t *testing.T) {
	s := memory.New()
	e := New(s)
	ctx := context.Background()

	first, err := e.UpsertOne(ctx, product("W-1"))
	require.NoError(t, err)

	changed := product("W-1")
	changed.Price = catalog.Float64(12.5)

	res, err := e.UpsertOne(ctx, changed)
	require.NoError(t, err)

	assert.Equal(t, ActionUpdated, res.Action)
	assert.Equal(t, first.RecordID, res.RecordID)

	stored, err := s.Find(ctx, "org-1", nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].Price)
	assert.Equal(t, 12.5, *stored[0].Price)
}

func TestUpsertOneAttributeMerge(t *testing.T) {
	s := memory.New()
	e := New(s)
	ctx := context.Background()

	first := product("W-1")
	first.Attributes = catalog.Attributes{"a": 1.0, "b": 2.0}
	_, err := e.UpsertOne(ctx, first)
	require.NoError(t, err)

	second := product("W-1")
	second.Attributes = catalog.Attributes{"b": 3.0, "c": 4.0}
	res, err := e.UpsertOne(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, ActionUpdated, res.Action)

	stored, err := s.Find(ctx, "org-1", nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)

	attrs := stored[0].Attributes
	assert.Equal(t, 1.0, attrs["a"], "keys absent from the new payload survive")
	assert.Equal(t, 3.0, attrs["b"], "overlapping keys take the new value")
	assert.Equal(t, 4.0, attrs["c"])
}

func TestUpsertOneNoIdentityAlwaysInserts(t *testing.T) {
	s := memory.New()
	e := New(s)
	ctx := context.Background()

	anon := &catalog.Product{OrgID: "org-1", Title: "Mystery", Source: catalog.SourceCSV}

	res1, err := e.UpsertOne(ctx, anon)
	require.NoError(t, err)
	res2, err := e.UpsertOne(ctx, anon)
	require.NoError(t, err)

	assert.Equal(t, ActionInserted, res1.Action)
	assert.Equal(t, ActionInserted, res2.Action)
	assert.Equal(t, MatchNone, res1.MatchedOn)
	assert.Equal(t, 2, s.Len())
}

func TestUpsertOneTitlePromotion(t *testing.T) {
	s := memory.New()
	e := New(s)

	p := &catalog.Product{
		OrgID:  "org-1",
		SKU:    "T-1",
		Source: catalog.SourceCSV,
		Attributes: catalog.Attributes{
			"name_from_feed": "Promoted Name",
			"zzz":            "not this one",
		},
	}

	_, err := e.UpsertOne(context.Background(), p)
	require.NoError(t, err)

	stored, err := s.Find(context.Background(), "org-1", nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Promoted Name", stored[0].Title, "first string attribute in sorted key order")
}

func TestUpsertBatchContinuesOnError(t *testing.T) {
	s := &flakyStore{Store: memory.New(), failSKU: "BAD-1"}
	e := New(s)

	batch := []*catalog.Product{product("W-1"), product("BAD-1"), product("W-2")}
	summary := e.UpsertBatch(context.Background(), batch)

	assert.Equal(t, 3, summary.Seen)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 1, summary.Errors)
	require.Len(t, summary.ErrorDetails, 1)
	assert.Equal(t, "BAD-1", summary.ErrorDetails[0].ID)
}

func TestUpsertBatchErrorDetailCap(t *testing.T) {
	s := &flakyStore{Store: memory.New(), failAll: true}
	e := New(s)

	batch := make([]*catalog.Product, 15)
	for i := range batch {
		batch[i] = product(fmt.Sprintf("W-%d", i))
	}
	summary := e.UpsertBatch(context.Background(), batch)

	assert.Equal(t, 15, summary.Errors)
	assert.Len(t, summary.ErrorDetails, MaxErrorDetails)
}

func TestUpsertBatchCanceledContext(t *testing.T) {
	e := New(memory.New())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := e.UpsertBatch(ctx, []*catalog.Product{product("W-1")})
	assert.Equal(t, 0, summary.Seen, "canceled context stops before any work")
}

func TestUpsertPublishesChanges(t *testing.T) {
	pub := &capturePublisher{}
	e := New(memory.New(), WithPublisher(pub))
	ctx := context.Background()

	_, err := e.UpsertOne(ctx, product("W-1"))
	require.NoError(t, err)

	_, err = e.UpsertOne(ctx, product("W-1"))
	require.NoError(t, err)

	changed := product("W-1")
	changed.Title = "Widget v2"
	_, err = e.UpsertOne(ctx, changed)
	require.NoError(t, err)

	require.Len(t, pub.changes, 2, "unchanged upserts publish nothing")
	assert.Equal(t, "inserted", pub.changes[0].Action)
	assert.Equal(t, "updated", pub.changes[1].Action)
	assert.NotEmpty(t, pub.changes[0].Hash)
}

func TestBatchSummaryMerge(t *testing.T) {
	a := &BatchSummary{Seen: 2, Inserted: 1, Errors: 1, ErrorDetails: []ErrorDetail{{ID: "x", Error: "boom"}}}
	b := &BatchSummary{Seen: 3, Updated: 2, Unchanged: 1}

	a.Merge(b)

	assert.Equal(t, 5, a.Seen)
	assert.Equal(t, 1, a.Inserted)
	assert.Equal(t, 2, a.Updated)
	assert.Equal(t, 1, a.Unchanged)
	assert.Equal(t, 1, a.Errors)
}

// flakyStore wraps the memory store and fails inserts for chosen SKUs.
type flakyStore struct {
	*memory.Store
	failSKU string
	failAll bool
}

func (s *flakyStore) Insert(ctx context.Context, p *catalog.Product) (string, error) {
	if s.failAll || p.SKU == s.failSKU {
		return "", fmt.Errorf("simulated insert failure")
	}
	return s.Store.Insert(ctx, p)
}

var _ store.Store = (*flakyStore)(nil)

// capturePublisher records published changes.
type capturePublisher struct {
	changes []events.Change
}

func (p *capturePublisher) Publish(_ context.Context, c events.Change) error {
	p.changes = append(p.changes, c)
	return nil
}

func (p *capturePublisher) Close() error { return nil }
