// Package catalog defines the canonical product record that every ingestion
// path converges to, along with the open attribute map and the enums shared
// by the mapping, sync, and reconciliation packages.
package catalog

import (
	"strings"
	"time"
)

// Source identifies where a canonical product originated.
type Source string

// String returns the string representation of a source.
func (s Source) String() string {
	return string(s)
}

// Known sources.
const (
	SourceCSV             Source = "csv"
	SourceExternalCatalog Source = "external-catalog"
)

// Condition is the fixed product condition enum.
type Condition string

// Condition values.
const (
	ConditionNew         Condition = "new"
	ConditionUsed        Condition = "used"
	ConditionRefurbished Condition = "refurbished"
	ConditionOpenBox     Condition = "open_box"
	ConditionOther       Condition = "other"
)

// ParseCondition normalizes free-text condition values to the fixed enum via
// keyword matching. Anything unrecognized maps to ConditionOther.
func ParseCondition(s string) Condition {
	v := strings.ToLower(strings.TrimSpace(s))
	switch {
	case v == "":
		return ConditionOther
	case strings.Contains(v, "open-box"), strings.Contains(v, "openbox"), strings.Contains(v, "open box"):
		return ConditionOpenBox
	case strings.Contains(v, "refurb"), strings.Contains(v, "renewed"):
		return ConditionRefurbished
	case strings.Contains(v, "pre-owned"), strings.Contains(v, "preowned"), strings.Contains(v, "used"), strings.Contains(v, "second hand"), strings.Contains(v, "secondhand"):
		return ConditionUsed
	case strings.Contains(v, "new"):
		// "brand new", "new with tags", "like new" all land here.
		return ConditionNew
	default:
		return ConditionOther
	}
}

// Reserved attribute keys.
const (
	// AttrSyncHash holds the content hash of the last ingested payload so the
	// previous digest travels with the record for the next comparison.
	AttrSyncHash = "_sync_hash"

	// AttrVariants holds the normalized variant list for external-catalog
	// records.
	AttrVariants = "variants"
)

// Product is the canonical, source-agnostic unit of record. A product is
// always fully built before being handed to a store; partially constructed
// products never cross a package boundary.
type Product struct {
	// ID is assigned by the store on insert.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// OrgID scopes the record to a tenant. Required, immutable once set.
	OrgID string `json:"org_id" yaml:"org_id"`

	Title             string     `json:"title,omitempty" yaml:"title,omitempty"`
	Description       string     `json:"description,omitempty" yaml:"description,omitempty"`
	Brand             string     `json:"brand,omitempty" yaml:"brand,omitempty"`
	Category          string     `json:"category,omitempty" yaml:"category,omitempty"`
	Condition         Condition  `json:"condition,omitempty" yaml:"condition,omitempty"`
	Price             *float64   `json:"price,omitempty" yaml:"price,omitempty"`
	Currency          string     `json:"currency,omitempty" yaml:"currency,omitempty"`
	Quantity          *int       `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	ImageURLs         []string   `json:"image_urls,omitempty" yaml:"image_urls,omitempty"`
	SKU               string     `json:"sku,omitempty" yaml:"sku,omitempty"`
	GlobalIDType      string     `json:"global_id_type,omitempty" yaml:"global_id_type,omitempty"`
	GlobalIDValue     string     `json:"global_id_value,omitempty" yaml:"global_id_value,omitempty"`
	MerchantProductID string     `json:"merchant_product_id,omitempty" yaml:"merchant_product_id,omitempty"`
	MerchantVariantID string     `json:"merchant_variant_id,omitempty" yaml:"merchant_variant_id,omitempty"`

	// Attributes is the open catch-all for anything not promoted to a core
	// field. Values are restricted to the closed set handled by
	// CanonicalValue.
	Attributes Attributes `json:"attributes,omitempty" yaml:"attributes,omitempty"`

	Source          Source    `json:"source" yaml:"source"`
	SourceUpdatedAt time.Time `json:"source_updated_at" yaml:"source_updated_at"`

	// CreatedAt and UpdatedAt are store-managed.
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// SyncHash returns the stored content hash, if any.
func (p *Product) SyncHash() string {
	if p.Attributes == nil {
		return ""
	}
	if h, ok := p.Attributes[AttrSyncHash].(string); ok {
		return h
	}
	return ""
}

// BestIdentifier returns the most useful identifier for error reporting.
func (p *Product) BestIdentifier() string {
	switch {
	case p.MerchantProductID != "":
		return p.MerchantProductID
	case p.SKU != "":
		return p.SKU
	default:
		return "unknown"
	}
}

// Float64 returns a pointer to v. Convenience for optional numeric fields.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v. Convenience for optional numeric fields.
func Int(v int) *int { return &v }
