// Package mapping converts arbitrary tabular rows into canonical products
// through an ordered, per-organization field-mapping and transform pipeline.
package mapping

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/currency"

	"github.com/noodle630/beam/pkg/catalog"
	"github.com/noodle630/beam/pkg/errors"
	"github.com/noodle630/beam/pkg/logging"
)

// RowMapper consumes one raw row at a time, applying mapping rules and
// transforms to produce canonical products. A mapper is built once per
// ingestion batch with that batch's rule list.
type RowMapper struct {
	rules  []Rule
	now    func() time.Time
	logger *zerolog.Logger
}

// RowMapperOption configures a RowMapper.
type RowMapperOption func(*RowMapper)

// WithClock overrides the clock used for source_updated_at stamps.
func WithClock(now func() time.Time) RowMapperOption {
	return func(m *RowMapper) { m.now = now }
}

// WithLogger sets the mapper's logger.
func WithLogger(logger *zerolog.Logger) RowMapperOption {
	return func(m *RowMapper) { m.logger = logger }
}

// NewRowMapper creates a RowMapper over the given ordered rules. An empty
// rule list falls back to the built-in defaults.
func NewRowMapper(rules []Rule, opts ...RowMapperOption) *RowMapper {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	m := &RowMapper{
		rules:  rules,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MapRow normalizes one raw row into a canonical product scoped to orgID.
//
// Rules are applied in order against a case/whitespace-insensitive header
// index; raw headers not claimed by any rule land in the attribute map under
// a normalized key, with pure numeric strings coerced to numbers. Missing
// core fields are not an error here; per-row validation is the caller's
// responsibility.
func (m *RowMapper) MapRow(ctx context.Context, orgID string, row map[string]string) (*catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(row) == 0 {
		return nil, errors.WrapMapping(orgID, "", "empty row", errors.ErrInvalidInput)
	}

	// Case/whitespace-insensitive header index. First raw header wins when
	// two normalize identically.
	index := make(map[string]string, len(row))
	for rawHeader := range row {
		norm := NormalizeHeader(rawHeader)
		if _, exists := index[norm]; !exists {
			index[norm] = rawHeader
		}
	}

	p := &catalog.Product{
		OrgID:           orgID,
		Source:          catalog.SourceCSV,
		SourceUpdatedAt: m.now(),
	}
	consumed := make(map[string]bool, len(row))

	for _, rule := range m.rules {
		rawHeader, ok := index[NormalizeHeader(rule.SourceField)]
		if !ok {
			continue
		}
		// A matched header is claimed by its rule even when the value is
		// empty, so it never leaks into the attribute map as leftovers.
		consumed[rawHeader] = true

		raw := strings.TrimSpace(row[rawHeader])
		if raw == "" {
			continue
		}

		var value any = raw
		if rule.Transform != nil {
			value = rule.Transform.Apply(value)
		}
		m.route(p, rule.InternalField, value)
	}

	// Every raw header not consumed above is preserved as an attribute.
	for rawHeader, raw := range row {
		if consumed[rawHeader] {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		key := NormalizeAttributeKey(rawHeader)
		if key == "" {
			continue
		}
		p.Attributes.Set(key, coerceScalar(raw))
	}

	m.logger.Debug().
		Str("org_id", orgID).
		Str("sku", p.SKU).
		Int("attributes", len(p.Attributes)).
		Msg("Mapped row")

	return p, nil
}

// route applies field-specific post-processing and places the value on the
// product: known core fields directly, "attributes."-prefixed targets under
// the stripped key, everything else under the raw internal field name.
func (m *RowMapper) route(p *catalog.Product, internalField string, value any) {
	switch {
	case coreFields[internalField]:
		m.setCoreField(p, internalField, value)
	case strings.HasPrefix(internalField, AttributePrefix):
		key := strings.TrimPrefix(internalField, AttributePrefix)
		if key != "" {
			p.Attributes.Set(key, value)
		}
	default:
		p.Attributes.Set(internalField, value)
	}
}

func (m *RowMapper) setCoreField(p *catalog.Product, field string, value any) {
	switch field {
	case FieldTitle:
		p.Title = stringify(value)
	case FieldDescription:
		p.Description = stringify(value)
	case FieldBrand:
		p.Brand = stringify(value)
	case FieldCategory:
		p.Category = stringify(value)
	case FieldCondition:
		p.Condition = catalog.ParseCondition(stringify(value))
	case FieldPrice:
		p.Price = catalog.Float64(ToNumber(value))
	case FieldCurrency:
		p.Currency = normalizeCurrency(stringify(value))
	case FieldQuantity:
		p.Quantity = catalog.Int(int(ToNumber(value)))
	case FieldImageURLs:
		p.ImageURLs = imageList(value)
	case FieldSKU:
		p.SKU = stringify(value)
	case FieldGlobalIDType:
		p.GlobalIDType = stringify(value)
	case FieldGlobalIDValue:
		p.GlobalIDValue = stringify(value)
	case FieldMerchantProductID:
		p.MerchantProductID = stringify(value)
	case FieldMerchantVariantID:
		p.MerchantVariantID = stringify(value)
	}
}

// imageList normalizes an image_urls value. Lists are filtered of empty
// entries; strings auto-split on "|" if present, else on "," if present,
// else become a single-element list.
func imageList(value any) []string {
	switch v := value.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s := strings.TrimSpace(stringify(e)); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		s := stringify(value)
		switch {
		case strings.Contains(s, "|"):
			return splitAndTrim(s, "|")
		case strings.Contains(s, ","):
			return splitAndTrim(s, ",")
		case strings.TrimSpace(s) == "":
			return nil
		default:
			return []string{strings.TrimSpace(s)}
		}
	}
}

// normalizeCurrency uppercases valid ISO 4217 codes and leaves anything else
// untouched.
func normalizeCurrency(s string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return unit.String()
}

var (
	currencySymbols = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "")
	numericString   = regexp.MustCompile(`^-?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?$`)
)

// coerceScalar turns a pure numeric string into a float64 and keeps
// everything else as the original string. Currency symbols are stripped
// before the numeric check; thousands separators are allowed.
func coerceScalar(raw string) any {
	candidate := strings.TrimSpace(currencySymbols.Replace(raw))
	if !numericString.MatchString(candidate) {
		return raw
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(candidate, ",", ""), 64)
	if err != nil {
		return raw
	}
	return n
}
