package shopify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noodle630/beam/pkg/catalog"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func multiVariantProduct() *Product {
	return &Product{
		ID:          632910392,
		Title:       "IPod Nano - 8GB",
		BodyHTML:    "<p>It's the small iPod</p>",
		Vendor:      "Apple",
		ProductType: "Cult Products",
		Handle:      "ipod-nano",
		Status:      "active",
		Tags:        "Emotive, Flash Memory, MP3",
		Options: []Option{
			{Name: "Color", Position: 1, Values: []string{"Pink", "Red"}},
			{Name: "Size", Position: 2, Values: []string{"8GB"}},
		},
		Variants: []Variant{
			{
				ID: 808950810, ProductID: 632910392, Title: "Pink / 8GB",
				SKU: "IPOD2008PINK", Price: "199.00",
				InventoryQuantity: intp(10), Option1: "Pink", Option2: "8GB",
			},
			{
				ID: 49148385, ProductID: 632910392, Title: "Red / 8GB",
				SKU: "IPOD2008RED", Price: "199.00",
				InventoryQuantity: intp(20), Option1: "Red", Option2: "8GB",
			},
		},
		Images: []Image{
			{ID: 850703190, Src: "https://cdn.shopify.com/1.png", Position: 1},
			{ID: 562641783, Src: "https://cdn.shopify.com/2.png", Position: 2},
		},
	}
}

func TestNormalizeMultiVariant(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := NewNormalizer("test-shop.myshopify.com", WithClock(func() time.Time { return ts }))

	p := n.Normalize("org-1", multiVariantProduct())

	assert.Equal(t, "org-1", p.OrgID)
	assert.Equal(t, catalog.SourceExternalCatalog, p.Source)
	assert.Equal(t, "IPod Nano - 8GB", p.Title)
	assert.Equal(t, "Apple", p.Brand)
	assert.Equal(t, "Cult Products", p.Category)
	assert.Equal(t, "632910392", p.MerchantProductID)
	assert.Equal(t, ts, p.SourceUpdatedAt)

	assert.Empty(t, p.SKU, "multi-variant products promote no SKU")
	assert.Empty(t, p.MerchantVariantID)

	require.NotNil(t, p.Quantity)
	assert.Equal(t, 30, *p.Quantity, "quantity sums all variants")

	require.NotNil(t, p.Price)
	assert.Equal(t, 199.0, *p.Price, "price comes from the first variant")

	assert.Equal(t, []string{"https://cdn.shopify.com/1.png", "https://cdn.shopify.com/2.png"}, p.ImageURLs)

	assert.Equal(t, "<p>It's the small iPod</p>", p.Attributes["description_html"])
	assert.Equal(t, "ipod-nano", p.Attributes["handle"])
	assert.Equal(t, "test-shop.myshopify.com", p.Attributes["shop_domain"])
	assert.Equal(t, "https://test-shop.myshopify.com/products/ipod-nano", p.Attributes["product_url"])
	assert.Equal(t, []any{"Emotive", "Flash Memory", "MP3"}, p.Attributes["tags"])
	assert.Equal(t, "active", p.Attributes["status"])
	assert.Equal(t, "Apple", p.Attributes["vendor"])

	variants, ok := p.Attributes[catalog.AttrVariants].([]any)
	require.True(t, ok)
	require.Len(t, variants, 2)

	first, ok := variants[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "808950810", first["id"])
	assert.Equal(t, "IPOD2008PINK", first["sku"])
	assert.Equal(t, "Pink / 8GB", first["title"])
	assert.Equal(t, 199.0, first["price"])
	assert.Equal(t, true, first["available"])
	assert.Equal(t, 10.0, first["quantity"])

	options, ok := first["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pink", options["color"], "option names lowercase, values zipped by position")
	assert.Equal(t, "8GB", options["size"])
}

func TestNormalizeSingleVariantPromotesSKU(t *testing.T) {
	n := NewNormalizer("test-shop.myshopify.com")

	src := &Product{
		ID:    100,
		Title: "Solo",
		Variants: []Variant{
			{ID: 200, SKU: "SOLO-1", Price: "10.00", InventoryQuantity: intp(5)},
		},
	}

	p := n.Normalize("org-1", src)

	assert.Equal(t, "SOLO-1", p.SKU)
	assert.Equal(t, "200", p.MerchantVariantID)
	require.NotNil(t, p.Quantity)
	assert.Equal(t, 5, *p.Quantity)
}

func TestNormalizeAvailability(t *testing.T) {
	n := NewNormalizer("s.myshopify.com")

	tests := []struct {
		name    string
		variant Variant
		want    bool
	}{
		{name: "positive quantity", variant: Variant{ID: 1, InventoryQuantity: intp(3)}, want: true},
		{name: "zero quantity", variant: Variant{ID: 1, InventoryQuantity: intp(0)}, want: false},
		{name: "nil quantity", variant: Variant{ID: 1}, want: false},
		{name: "explicit flag overrides quantity", variant: Variant{ID: 1, InventoryQuantity: intp(0), Available: boolp(true)}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := n.Normalize("org-1", &Product{ID: 1, Variants: []Variant{tt.variant}})
			variants := p.Attributes[catalog.AttrVariants].([]any)
			v := variants[0].(map[string]any)
			assert.Equal(t, tt.want, v["available"])
		})
	}
}

func TestNormalizeNilQuantityVariant(t *testing.T) {
	n := NewNormalizer("s.myshopify.com")

	p := n.Normalize("org-1", &Product{ID: 1, Variants: []Variant{{ID: 2}}})

	require.NotNil(t, p.Quantity)
	assert.Equal(t, 0, *p.Quantity, "unknown inventory counts as zero in the total")

	variants := p.Attributes[catalog.AttrVariants].([]any)
	v := variants[0].(map[string]any)
	assert.Nil(t, v["quantity"], "per-variant quantity stays null when unknown")
}

func TestNormalizeNoVariants(t *testing.T) {
	n := NewNormalizer("s.myshopify.com")

	p := n.Normalize("org-1", &Product{ID: 1, Title: "Empty"})

	assert.Nil(t, p.Price)
	assert.Empty(t, p.SKU)
	require.NotNil(t, p.Quantity)
	assert.Equal(t, 0, *p.Quantity)

	variants, ok := p.Attributes[catalog.AttrVariants].([]any)
	require.True(t, ok)
	assert.Empty(t, variants)
}
