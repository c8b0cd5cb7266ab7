package upsert

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/noodle630/beam/pkg/catalog"
)

// ContentHash computes a stable fingerprint over the fields that determine
// whether a product has materially changed: title, brand, category, price,
// currency, quantity, sku, image URLs (sorted, so the hash is
// order-independent), and attributes (reserved keys excluded). The digest is
// change detection, not security: a fast 64-bit hash over a deterministic
// JSON serialization.
func ContentHash(p *catalog.Product) string {
	images := append([]string(nil), p.ImageURLs...)
	sort.Strings(images)

	attrs := make(map[string]any, len(p.Attributes))
	for k, v := range p.Attributes {
		if k == catalog.AttrSyncHash {
			continue
		}
		attrs[k] = v
	}

	input := map[string]any{
		"title":      nullable(p.Title),
		"brand":      nullable(p.Brand),
		"category":   nullable(p.Category),
		"price":      nullableFloat(p.Price),
		"currency":   nullable(p.Currency),
		"quantity":   nullableInt(p.Quantity),
		"sku":        nullable(p.SKU),
		"image_urls": images,
		"attributes": attrs,
	}

	// encoding/json serializes map keys in sorted order, which makes the
	// digest independent of attribute key order.
	data, err := json.Marshal(input)
	if err != nil {
		// Attributes are restricted to the closed value set, which always
		// marshals. A failure here means a corrupted record; hash the error
		// text so the record reads as changed rather than silently unchanged.
		data = []byte(err.Error())
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableInt(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
