package beam

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/mapping"
	"github.com/noodle630/beam/pkg/shopify"
	"github.com/noodle630/beam/pkg/upsert"
)

// IngestRows normalizes raw rows with the organization's mapping rules and
// upserts the results. A row that fails to map is counted as an error and
// the batch continues; missing core fields are not an error at this layer.
func (b *beam) IngestRows(ctx context.Context, orgID string, rows []map[string]string) (*upsert.BatchSummary, error) {
	if orgID == "" {
		return nil, errors.NewValidationError("org_id", orgID, "org scope is required")
	}

	rules, err := b.config.rules.Load(ctx, orgID)
	if err != nil {
		return nil, err
	}
	mapper := mapping.NewRowMapper(rules, mapping.WithLogger(b.config.logger))

	summary := &upsert.BatchSummary{}
	products := make([]*catalog.Product, 0, len(rows))
	for i, row := range rows {
		p, err := mapper.MapRow(ctx, orgID, row)
		if err != nil {
			summary.Seen++
			summary.AddError(fmt.Sprintf("row %d", i+1), err)
			continue
		}
		products = append(products, p)
	}

	summary.Merge(b.engine.UpsertBatch(ctx, products))
	return summary, nil
}

// IngestCSV reads a CSV stream whose first record is the header row and
// ingests the remaining records via IngestRows.
func (b *beam) IngestCSV(ctx context.Context, orgID string, r io.Reader) (*upsert.BatchSummary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.WrapMapping(orgID, "header", "reading CSV header", err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapMapping(orgID, fmt.Sprintf("record %d", len(rows)+2), "reading CSV record", err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return b.IngestRows(ctx, orgID, rows)
}

// SyncShopify fetches the configured shop's catalog page by page and upserts
// every product. A fetch error ends the sync with the partial summary; store
// errors within a page are counted and the sync continues.
func (b *beam) SyncShopify(ctx context.Context, orgID string) (*upsert.BatchSummary, error) {
	if orgID == "" {
		return nil, errors.NewValidationError("org_id", orgID, "org scope is required")
	}
	if b.config.shopify == nil {
		return nil, errors.NewValidationError("shopify", nil, "shopify client is not configured")
	}

	normalizer := shopify.NewNormalizer(b.config.shopify.Shop())
	summary := &upsert.BatchSummary{}

	for page, err := range b.config.shopify.Pages(ctx) {
		if err != nil {
			return summary, err
		}
		products := make([]*catalog.Product, 0, len(page))
		for i := range page {
			products = append(products, normalizer.Normalize(orgID, &page[i]))
		}
		summary.Merge(b.engine.UpsertBatch(ctx, products))
	}

	return summary, nil
}
