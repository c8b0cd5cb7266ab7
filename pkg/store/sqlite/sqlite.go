// Package sqlite provides an embedded store backend on modernc.org/sqlite,
// a pure-Go driver for database/sql. The full canonical record is kept as a
// JSON document; the identity fields are mirrored into indexed columns so
// lookups stay cheap.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id                  TEXT PRIMARY KEY,
	org_id              TEXT NOT NULL,
	source              TEXT NOT NULL DEFAULT '',
	sku                 TEXT NOT NULL DEFAULT '',
	merchant_product_id TEXT NOT NULL DEFAULT '',
	merchant_variant_id TEXT NOT NULL DEFAULT '',
	doc                 TEXT NOT NULL,
	created_at          TIMESTAMP NOT NULL,
	updated_at          TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_org_source ON products (org_id, source);
CREATE INDEX IF NOT EXISTS idx_products_org_sku ON products (org_id, sku);
CREATE INDEX IF NOT EXISTS idx_products_org_merchant ON products (org_id, merchant_product_id, merchant_variant_id);
`

// Store is a sqlite-backed implementation of store.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if necessary) a sqlite store at path. Use ":memory:"
// for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapStore("open", "sqlite", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.WrapStore("migrate", "sqlite", path, err)
	}
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Find returns records scoped to orgID matching the filter, ordered by id.
func (s *Store) Find(ctx context.Context, orgID string, filter store.Filter) ([]*catalog.Product, error) {
	query := "SELECT id, created_at, updated_at, doc FROM products"
	var (
		conds []string
		args  []any
	)
	if orgID != "" {
		conds = append(conds, "org_id = ?")
		args = append(args, orgID)
	}
	for _, field := range []string{store.FieldSource, store.FieldSKU, store.FieldMerchantProductID, store.FieldMerchantVariantID} {
		if want, ok := filter[field]; ok {
			conds = append(conds, field+" = ?")
			args = append(args, want)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapStore("find", "sqlite", "", err)
	}
	defer rows.Close()

	var out []*catalog.Product
	for rows.Next() {
		var (
			id                   string
			createdAt, updatedAt time.Time
			doc                  []byte
		)
		if err := rows.Scan(&id, &createdAt, &updatedAt, &doc); err != nil {
			return nil, errors.WrapStore("find", "sqlite", id, err)
		}
		var p catalog.Product
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, errors.WrapStore("decode", "sqlite", id, err)
		}
		p.ID = id
		p.CreatedAt = createdAt
		p.UpdatedAt = updatedAt
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapStore("find", "sqlite", "", err)
	}
	return out, nil
}

// Insert stores a new record and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, p *catalog.Product) (string, error) {
	if p.OrgID == "" {
		return "", errors.NewValidationError("org_id", p.OrgID, "org scope is required")
	}

	id := uuid.NewString()
	now := s.now()

	cp := *p
	cp.ID = id
	cp.CreatedAt = now
	cp.UpdatedAt = now
	doc, err := json.Marshal(&cp)
	if err != nil {
		return "", errors.WrapStore("encode", "sqlite", id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (id, org_id, source, sku, merchant_product_id, merchant_variant_id, doc, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, cp.OrgID, string(cp.Source), cp.SKU, cp.MerchantProductID, cp.MerchantVariantID, string(doc), now, now)
	if err != nil {
		return "", errors.WrapStore("insert", "sqlite", id, err)
	}
	return id, nil
}

// Update overwrites the record identified by id.
func (s *Store) Update(ctx context.Context, id string, p *catalog.Product) error {
	now := s.now()

	cp := *p
	cp.ID = id
	cp.UpdatedAt = now
	doc, err := json.Marshal(&cp)
	if err != nil {
		return errors.WrapStore("encode", "sqlite", id, err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE products
		 SET source = ?, sku = ?, merchant_product_id = ?, merchant_variant_id = ?, doc = ?, updated_at = ?
		 WHERE id = ?`,
		string(cp.Source), cp.SKU, cp.MerchantProductID, cp.MerchantVariantID, string(doc), now, id)
	if err != nil {
		return errors.WrapStore("update", "sqlite", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("product", id)
	}
	return nil
}

// Delete removes the records with the given IDs. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id IN ("+placeholders+")", args...); err != nil {
		return errors.WrapStore("delete", "sqlite", "", err)
	}
	return nil
}
