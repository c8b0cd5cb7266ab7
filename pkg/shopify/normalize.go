// Package shopify normalizes Shopify Admin API products into canonical
// catalog records and provides the paginated fetch client the sync path
// consumes.
package shopify

import (
	"strconv"
	"strings"
	"time"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/mapping"
)

// Normalizer converts fetched Shopify products to the canonical shape. All
// variants of a product fold into one canonical record; per-variant detail
// survives in the attribute map.
type Normalizer struct {
	shopDomain string
	now        func() time.Time
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock overrides the clock used for source_updated_at stamps.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

// NewNormalizer creates a Normalizer for the given shop domain.
func NewNormalizer(shopDomain string, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		shopDomain: shopDomain,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts one fetched product into a canonical product scoped to
// orgID. Quantity is the sum of all variant quantities; a single-variant
// product promotes that variant's SKU and ID to the canonical record.
func (n *Normalizer) Normalize(orgID string, p *Product) *catalog.Product {
	out := &catalog.Product{
		OrgID:             orgID,
		Title:             p.Title,
		Category:          p.ProductType,
		Brand:             p.Vendor,
		MerchantProductID: strconv.FormatInt(p.ID, 10),
		Source:            catalog.SourceExternalCatalog,
		SourceUpdatedAt:   n.now(),
	}

	total := 0
	for _, v := range p.Variants {
		if v.InventoryQuantity != nil {
			total += *v.InventoryQuantity
		}
	}
	out.Quantity = catalog.Int(total)

	for _, img := range p.Images {
		if img.Src != "" {
			out.ImageURLs = append(out.ImageURLs, img.Src)
		}
	}

	if len(p.Variants) == 1 {
		v := p.Variants[0]
		out.SKU = v.SKU
		out.MerchantVariantID = strconv.FormatInt(v.ID, 10)
	}
	if len(p.Variants) > 0 {
		out.Price = catalog.Float64(mapping.ToNumber(p.Variants[0].Price))
	}

	variants := make([]any, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, normalizeVariant(p, v))
	}

	out.Attributes = catalog.Attributes{}
	out.Attributes.Set(catalog.AttrVariants, variants)
	out.Attributes.Set("description_html", p.BodyHTML)
	out.Attributes.Set("handle", p.Handle)
	out.Attributes.Set("shop_domain", n.shopDomain)
	out.Attributes.Set("product_url", productURL(n.shopDomain, p.Handle))
	out.Attributes.Set("tags", splitTags(p.Tags))
	out.Attributes.Set("status", p.Status)
	out.Attributes.Set("vendor", p.Vendor)

	return out
}

// normalizeVariant flattens one variant into the attribute-map shape:
// id, sku, title, numeric price, availability, quantity (or null), and a
// lower-cased option-name to value map.
func normalizeVariant(p *Product, v Variant) map[string]any {
	available := v.InventoryQuantity != nil && *v.InventoryQuantity > 0
	if v.Available != nil {
		available = *v.Available
	}

	var quantity any
	if v.InventoryQuantity != nil {
		quantity = *v.InventoryQuantity
	}

	options := make(map[string]any)
	slots := []string{v.Option1, v.Option2, v.Option3}
	for _, opt := range p.Options {
		idx := opt.Position - 1
		if idx < 0 || idx >= len(slots) || slots[idx] == "" {
			continue
		}
		options[strings.ToLower(opt.Name)] = slots[idx]
	}

	return map[string]any{
		"id":        strconv.FormatInt(v.ID, 10),
		"sku":       v.SKU,
		"title":     v.Title,
		"price":     mapping.ToNumber(v.Price),
		"available": available,
		"quantity":  quantity,
		"options":   options,
	}
}

func productURL(shopDomain, handle string) string {
	if shopDomain == "" || handle == "" {
		return ""
	}
	return "https://" + shopDomain + "/products/" + handle
}

func splitTags(tags string) []string {
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, t := range parts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
