package mapping

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	unsafeAttrChar = regexp.MustCompile(`[^a-z0-9_ ]`)
	underscoreRun  = regexp.MustCompile(`_+`)
)

// NormalizeHeader canonicalizes a source-file column header for
// case/whitespace-insensitive matching against mapping-rule source fields:
// strip a leading byte-order-mark, trim outer whitespace, collapse internal
// whitespace runs to one space, lowercase.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\uFEFF")
	h = strings.TrimSpace(h)
	h = whitespaceRun.ReplaceAllString(h, " ")
	return strings.ToLower(h)
}

// NormalizeAttributeKey turns an arbitrary unmapped column header into a safe
// attribute-map key: lowercase, whitespace collapsed, anything outside
// [a-z0-9_ ] replaced with underscores, spaces to underscores, underscore
// runs collapsed, leading/trailing underscores stripped.
//
//	"Custom-Field!" -> "custom_field"
//	"PDP URL"       -> "pdp_url"
func NormalizeAttributeKey(k string) string {
	k = NormalizeHeader(k)
	k = unsafeAttrChar.ReplaceAllString(k, "_")
	k = strings.ReplaceAll(k, " ", "_")
	k = underscoreRun.ReplaceAllString(k, "_")
	return strings.Trim(k, "_")
}
