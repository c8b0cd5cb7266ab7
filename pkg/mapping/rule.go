package mapping

// Core-field targets a rule may map onto. Anything else routes into the
// attribute map.
const (
	FieldTitle             = "title"
	FieldDescription       = "description"
	FieldBrand             = "brand"
	FieldCategory          = "category"
	FieldCondition         = "condition"
	FieldPrice             = "price"
	FieldCurrency          = "currency"
	FieldQuantity          = "quantity"
	FieldImageURLs         = "image_urls"
	FieldSKU               = "sku"
	FieldGlobalIDType      = "global_id_type"
	FieldGlobalIDValue     = "global_id_value"
	FieldMerchantProductID = "merchant_product_id"
	FieldMerchantVariantID = "merchant_variant_id"
)

// AttributePrefix routes a rule target into the attribute map under the
// stripped key, e.g. "attributes.material" -> attributes["material"].
const AttributePrefix = "attributes."

// Rule associates a source column with an internal field, with an optional
// value transform. Rules are an ordered list, not a map: iteration order is
// the precedence contract. When several rules target the same internal
// field, the last one applied wins.
type Rule struct {
	SourceField   string         `yaml:"source_field" json:"source_field"`
	InternalField string         `yaml:"internal_field" json:"internal_field"`
	Transform     *TransformSpec `yaml:"transform,omitempty" json:"transform,omitempty"`
}

// DefaultRules returns the built-in rule set used when an organization has no
// rules of its own. Source fields match case/whitespace-insensitively.
func DefaultRules() []Rule {
	return []Rule{
		{SourceField: "title", InternalField: FieldTitle},
		{SourceField: "name", InternalField: FieldTitle},
		{SourceField: "product name", InternalField: FieldTitle},
		{SourceField: "description", InternalField: FieldDescription},
		{SourceField: "brand", InternalField: FieldBrand},
		{SourceField: "vendor", InternalField: FieldBrand},
		{SourceField: "category", InternalField: FieldCategory},
		{SourceField: "product type", InternalField: FieldCategory},
		{SourceField: "condition", InternalField: FieldCondition},
		{SourceField: "price", InternalField: FieldPrice, Transform: &TransformSpec{Op: OpToNumber}},
		{SourceField: "msrp", InternalField: FieldPrice, Transform: &TransformSpec{Op: OpToNumber}},
		{SourceField: "currency", InternalField: FieldCurrency, Transform: &TransformSpec{Op: OpUpper}},
		{SourceField: "quantity", InternalField: FieldQuantity, Transform: &TransformSpec{Op: OpToNumber}},
		{SourceField: "qty", InternalField: FieldQuantity, Transform: &TransformSpec{Op: OpToNumber}},
		{SourceField: "inventory", InternalField: FieldQuantity, Transform: &TransformSpec{Op: OpToNumber}},
		{SourceField: "images", InternalField: FieldImageURLs},
		{SourceField: "image urls", InternalField: FieldImageURLs},
		{SourceField: "image", InternalField: FieldImageURLs},
		{SourceField: "sku", InternalField: FieldSKU},
		{SourceField: "upc", InternalField: FieldGlobalIDValue},
		{SourceField: "gtin", InternalField: FieldGlobalIDValue},
		{SourceField: "global id type", InternalField: FieldGlobalIDType},
		{SourceField: "product id", InternalField: FieldMerchantProductID},
		{SourceField: "merchant product id", InternalField: FieldMerchantProductID},
		{SourceField: "variant id", InternalField: FieldMerchantVariantID},
		{SourceField: "merchant variant id", InternalField: FieldMerchantVariantID},
	}
}

// coreFields is the set of internal fields routed directly onto the canonical
// product rather than into attributes.
var coreFields = map[string]bool{
	FieldTitle:             true,
	FieldDescription:       true,
	FieldBrand:             true,
	FieldCategory:          true,
	FieldCondition:         true,
	FieldPrice:             true,
	FieldCurrency:          true,
	FieldQuantity:          true,
	FieldImageURLs:         true,
	FieldSKU:               true,
	FieldGlobalIDType:      true,
	FieldGlobalIDValue:     true,
	FieldMerchantProductID: true,
	FieldMerchantVariantID: true,
}
