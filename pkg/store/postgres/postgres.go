// Package postgres provides the production store backend on gorm. The full
// canonical record is kept as a jsonb document; identity fields and price are
// mirrored into typed columns so lookups and reporting queries stay cheap.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/store"
)

// productRow is the relational projection of a canonical product.
type productRow struct {
	ID                string `gorm:"primaryKey;size:36"`
	OrgID             string `gorm:"not null;index:idx_products_org_source;index:idx_products_org_sku;index:idx_products_org_merchant"`
	Source            string `gorm:"index:idx_products_org_source"`
	SKU               string `gorm:"index:idx_products_org_sku"`
	MerchantProductID string `gorm:"index:idx_products_org_merchant"`
	MerchantVariantID string `gorm:"index:idx_products_org_merchant"`
	Price             *decimal.Decimal `gorm:"type:numeric(14,4)"`
	Doc               []byte           `gorm:"type:jsonb;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName returns the table name for productRow.
func (productRow) TableName() string { return "products" }

// Store is a gorm/postgres implementation of store.Store.
type Store struct {
	db *gorm.DB
}

// Open connects to postgres with the given DSN and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.WrapStore("open", "postgres", "", err)
	}
	if err := db.AutoMigrate(&productRow{}); err != nil {
		return nil, errors.WrapStore("migrate", "postgres", "", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing gorm connection. The caller owns migration.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Find returns records scoped to orgID matching the filter, ordered by id.
func (s *Store) Find(ctx context.Context, orgID string, filter store.Filter) ([]*catalog.Product, error) {
	query := s.db.WithContext(ctx).Model(&productRow{})
	if orgID != "" {
		query = query.Where("org_id = ?", orgID)
	}
	for _, field := range []string{store.FieldSource, store.FieldSKU, store.FieldMerchantProductID, store.FieldMerchantVariantID} {
		if want, ok := filter[field]; ok {
			query = query.Where(field+" = ?", want)
		}
	}

	var rows []productRow
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, errors.WrapStore("find", "postgres", "", err)
	}

	out := make([]*catalog.Product, 0, len(rows))
	for _, row := range rows {
		var p catalog.Product
		if err := json.Unmarshal(row.Doc, &p); err != nil {
			return nil, errors.WrapStore("decode", "postgres", row.ID, err)
		}
		p.ID = row.ID
		p.CreatedAt = row.CreatedAt
		p.UpdatedAt = row.UpdatedAt
		out = append(out, &p)
	}
	return out, nil
}

// Insert stores a new record and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, p *catalog.Product) (string, error) {
	if p.OrgID == "" {
		return "", errors.NewValidationError("org_id", p.OrgID, "org scope is required")
	}

	row, err := toRow(uuid.NewString(), p)
	if err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", errors.WrapStore("insert", "postgres", row.ID, err)
	}
	return row.ID, nil
}

// Update overwrites the record identified by id.
func (s *Store) Update(ctx context.Context, id string, p *catalog.Product) error {
	row, err := toRow(id, p)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&productRow{}).Where("id = ?", id).Updates(map[string]any{
		"source":              row.Source,
		"sku":                 row.SKU,
		"merchant_product_id": row.MerchantProductID,
		"merchant_variant_id": row.MerchantVariantID,
		"price":               row.Price,
		"doc":                 row.Doc,
	})
	if res.Error != nil {
		return errors.WrapStore("update", "postgres", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NewNotFoundError("product", id)
	}
	return nil
}

// Delete removes the records with the given IDs. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&productRow{}).Error; err != nil {
		return errors.WrapStore("delete", "postgres", "", err)
	}
	return nil
}

func toRow(id string, p *catalog.Product) (*productRow, error) {
	cp := *p
	cp.ID = id
	doc, err := json.Marshal(&cp)
	if err != nil {
		return nil, errors.WrapStore("encode", "postgres", id, err)
	}

	row := &productRow{
		ID:                id,
		OrgID:             cp.OrgID,
		Source:            string(cp.Source),
		SKU:               cp.SKU,
		MerchantProductID: cp.MerchantProductID,
		MerchantVariantID: cp.MerchantVariantID,
		Doc:               doc,
	}
	if cp.Price != nil {
		d := decimal.NewFromFloat(*cp.Price)
		row.Price = &d
	}
	return row, nil
}
