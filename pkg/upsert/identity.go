package upsert

import (
	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/store"
)

// MatchKey names which identity key was used to look up an existing record.
type MatchKey string

// Match keys, in resolution precedence order.
const (
	// MatchExternalProduct matches external-catalog products at the
	// parent-product granularity, never per-variant, because the external
	// normalizer already folds all variants into one record.
	MatchExternalProduct MatchKey = "external_product"

	// MatchProductVariant matches on the merchant product/variant ID pair.
	MatchProductVariant MatchKey = "product_variant"

	// MatchSKU matches on SKU alone.
	MatchSKU MatchKey = "sku"

	// MatchNone means no identity key exists: the product is unconditionally
	// inserted as new.
	MatchNone MatchKey = "none"
)

// ResolveIdentity decides which existing-record lookup applies to a canonical
// product. The precedence is load-bearing: it determines which records are
// candidates for in-place update versus always-new insertion, and the
// duplicate reconciler uses the same precedence to define what counts as a
// duplicate.
func ResolveIdentity(p *catalog.Product) (MatchKey, store.Filter) {
	switch {
	case p.Source == catalog.SourceExternalCatalog:
		return MatchExternalProduct, store.Filter{
			store.FieldMerchantProductID: p.MerchantProductID,
			store.FieldSource:            string(catalog.SourceExternalCatalog),
		}
	case p.MerchantProductID != "" && p.MerchantVariantID != "":
		return MatchProductVariant, store.Filter{
			store.FieldMerchantProductID: p.MerchantProductID,
			store.FieldMerchantVariantID: p.MerchantVariantID,
		}
	case p.SKU != "":
		return MatchSKU, store.Filter{
			store.FieldSKU: p.SKU,
		}
	default:
		return MatchNone, nil
	}
}
