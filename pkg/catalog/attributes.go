package catalog

// Attributes is an open mapping from string key to a closed value variant:
// nil, string, bool, float64, []any, or map[string]any (recursively of the
// same set). CanonicalValue is applied at every ingestion boundary so merge
// and hash logic can stay exhaustive over this set.
type Attributes map[string]any

// CanonicalValue coerces an arbitrary decoded value into the closed variant
// set. Numeric types collapse to float64 (the JSON number model), slices to
// []any, and maps to map[string]any. Unrepresentable values become nil.
func CanonicalValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case bool:
		return t
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CanonicalValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CanonicalValue(e)
		}
		return out
	case Attributes:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CanonicalValue(e)
		}
		return out
	default:
		return nil
	}
}

// Set canonicalizes v and stores it under key, allocating the map if needed.
func (a *Attributes) Set(key string, v any) {
	if *a == nil {
		*a = make(Attributes)
	}
	(*a)[key] = CanonicalValue(v)
}

// Clone returns a shallow copy of the attribute map. Values are shared;
// callers that mutate nested values must canonicalize fresh input instead.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge shallow-merges overlay into a copy of a: overlay keys overwrite
// same-named keys, keys absent from overlay are preserved. This is the
// update-path merge that lets accumulated cross-source attributes survive
// repeated syncs.
func (a Attributes) Merge(overlay Attributes) Attributes {
	out := a.Clone()
	if out == nil {
		out = make(Attributes, len(overlay))
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
