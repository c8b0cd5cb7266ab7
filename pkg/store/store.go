// Package store defines the record store consumed by the upsert engine and
// the duplicate reconciler. Backends live in subpackages (memory, sqlite,
// postgres) and are interchangeable behind the Store interface.
package store

import (
	"context"

	"github.com/noodle630/beam/pkg/catalog"
)

// Filter field keys understood by every backend.
const (
	FieldSource            = "source"
	FieldSKU               = "sku"
	FieldMerchantProductID = "merchant_product_id"
	FieldMerchantVariantID = "merchant_variant_id"
)

// Filter is an equality filter over the indexed identity fields.
type Filter map[string]string

// Store is the CRUD interface over canonical product records.
//
// Find returns records scoped to orgID matching every filter entry. An empty
// orgID scans all organizations (used by the reconciliation sweep). No result
// ordering is guaranteed unless the backend documents one.
type Store interface {
	Find(ctx context.Context, orgID string, filter Filter) ([]*catalog.Product, error)
	Insert(ctx context.Context, p *catalog.Product) (string, error)
	Update(ctx context.Context, id string, p *catalog.Product) error
	Delete(ctx context.Context, ids []string) error
}

// Matches reports whether p satisfies orgID scoping and every filter entry.
// Shared by backends that filter in process.
func Matches(p *catalog.Product, orgID string, filter Filter) bool {
	if orgID != "" && p.OrgID != orgID {
		return false
	}
	for field, want := range filter {
		if fieldValue(p, field) != want {
			return false
		}
	}
	return true
}

func fieldValue(p *catalog.Product, field string) string {
	switch field {
	case FieldSource:
		return string(p.Source)
	case FieldSKU:
		return p.SKU
	case FieldMerchantProductID:
		return p.MerchantProductID
	case FieldMerchantVariantID:
		return p.MerchantVariantID
	default:
		return ""
	}
}
