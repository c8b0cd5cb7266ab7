package mapping

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Transform operation names.
const (
	OpTrim     = "trim"
	OpLower    = "lower"
	OpUpper    = "upper"
	OpRegex    = "regex"
	OpSplit    = "split"
	OpJoin     = "join"
	OpToNumber = "to_number"
)

// TransformSpec is a declarative value transform: a pure function of
// (value, spec) -> value, dispatched on Op. Unknown ops and malformed
// arguments degrade to passthrough rather than aborting a row.
type TransformSpec struct {
	Op string `yaml:"op" json:"op"`

	// Pattern, Flags, and Group configure the regex op. Group 0 (or unset)
	// selects the whole match.
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Flags   string `yaml:"flags,omitempty" json:"flags,omitempty"`
	Group   int    `yaml:"group,omitempty" json:"group,omitempty"`

	// Delimiter configures split and join. Defaults to ",".
	Delimiter string `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
}

// Apply runs the transform against v. A nil input short-circuits: the
// transform is skipped and the value stays absent.
func (t *TransformSpec) Apply(v any) any {
	if v == nil {
		return nil
	}

	switch t.Op {
	case OpTrim:
		return strings.TrimSpace(stringify(v))
	case OpLower:
		return strings.ToLower(stringify(v))
	case OpUpper:
		return strings.ToUpper(stringify(v))
	case OpRegex:
		return t.applyRegex(v)
	case OpSplit:
		return splitAndTrim(stringify(v), t.delimiter())
	case OpJoin:
		return t.applyJoin(v)
	case OpToNumber:
		return ToNumber(v)
	default:
		// Unknown op is a no-op passthrough, not an error.
		return v
	}
}

func (t *TransformSpec) delimiter() string {
	if t.Delimiter == "" {
		return ","
	}
	return t.Delimiter
}

func (t *TransformSpec) applyRegex(v any) any {
	pattern := t.Pattern
	if flags := regexFlags(t.Flags); flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// Malformed regex degrades to passthrough.
		return v
	}

	s := stringify(v)
	groups := re.FindStringSubmatch(s)
	if groups == nil {
		// No match: value passes through unchanged.
		return v
	}
	if t.Group > 0 && t.Group < len(groups) {
		return groups[t.Group]
	}
	return groups[0]
}

func (t *TransformSpec) applyJoin(v any) any {
	delim := t.delimiter()
	switch list := v.(type) {
	case []string:
		return strings.Join(list, delim)
	case []any:
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, delim)
	default:
		return stringify(v)
	}
}

// ToNumber strips everything except digits, '.', and '-', then parses. On
// parse failure the result is 0, a lossy but intentional fallback.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}

	var b strings.Builder
	for _, r := range stringify(v) {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// splitAndTrim splits s on delim, trims each piece, and drops empty pieces.
func splitAndTrim(s, delim string) []string {
	parts := strings.Split(s, delim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// regexFlags keeps only the flag characters Go's regexp understands.
func regexFlags(flags string) string {
	var b strings.Builder
	for _, r := range flags {
		switch r {
		case 'i', 'm', 's', 'U':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	case []string:
		return strings.Join(s, ",")
	default:
		return fmt.Sprint(v)
	}
}
