package output

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

type fieldSpec struct {
	Key    string
	Tokens []pathToken
}

type pathToken struct {
	Key   *string
	Index *int
}

// ValidateFields validates --fields syntax.
func ValidateFields(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	_, err := parseFieldSpecs(raw)
	return err
}

// applyOutputTransforms applies --data-only, --sort-by, --limit, --fields
// and --jsonpath. Data is only converted to plain maps when one is set.
func applyOutputTransforms(ctx context.Context, data interface{}, format Format) (interface{}, error) {
	dataOnly := DataOnlyFromContext(ctx) || (format == FormatTable && isMarshaler(data))
	limit := LimitFromContext(ctx)
	sortBy, desc := SortFromContext(ctx)
	fieldsRaw := strings.TrimSpace(FieldsFromContext(ctx))
	jsonPathRaw := strings.TrimSpace(JSONPathFromContext(ctx))
	if !dataOnly && limit <= 0 && sortBy == "" && fieldsRaw == "" && jsonPathRaw == "" {
		return data, nil
	}

	if format == FormatTable && (fieldsRaw != "" || jsonPathRaw != "") {
		return nil, clierrors.NewUserError(
			"--fields/--jsonpath are not supported with table output",
			"Use --output json|ndjson|yaml|text instead",
		)
	}

	normalized, err := normalizeToInterface(data)
	if err != nil {
		return nil, err
	}
	if dataOnly {
		normalized = unwrapData(normalized)
	}
	if limit > 0 || sortBy != "" {
		normalized = applyListOptions(normalized, limit, sortBy, desc)
	}
	if fieldsRaw != "" {
		if normalized, err = projectFields(normalized, fieldsRaw); err != nil {
			return nil, err
		}
	}
	if jsonPathRaw != "" {
		if normalized, err = applyJSONPath(normalized, jsonPathRaw); err != nil {
			return nil, err
		}
	}
	return normalized, nil
}

// unwrapData returns the data member of an API envelope, or data unchanged.
func unwrapData(data interface{}) interface{} {
	m, ok := data.(map[string]interface{})
	if !ok {
		return data
	}
	inner, ok := m["data"]
	if !ok {
		return data
	}
	if _, hasMeta := m["meta"]; !hasMeta && len(m) > 1 {
		return data
	}
	return inner
}

// applyListOptions sorts and truncates a list, or the data list of an
// envelope. The input is never modified.
func applyListOptions(data interface{}, limit int, sortBy string, desc bool) interface{} {
	switch v := data.(type) {
	case []interface{}:
		return sortAndLimit(v, limit, sortBy, desc)
	case map[string]interface{}:
		items, ok := v["data"].([]interface{})
		if !ok {
			return data
		}
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = val
		}
		out["data"] = sortAndLimit(items, limit, sortBy, desc)
		return out
	default:
		return data
	}
}

func sortAndLimit(items []interface{}, limit int, sortBy string, desc bool) []interface{} {
	out := make([]interface{}, len(items))
	copy(out, items)

	if sortBy != "" {
		tokens, err := parsePathTokens(sortBy)
		if err == nil {
			sort.SliceStable(out, func(i, j int) bool {
				a, aok := extractValue(out[i], tokens)
				b, bok := extractValue(out[j], tokens)
				switch {
				case !aok:
					return false
				case !bok:
					return true
				}
				cmp := compareValues(a, b)
				if desc {
					return cmp > 0
				}
				return cmp < 0
			})
		}
	}

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// compareValues orders numbers numerically and everything else by its
// string form. Numeric strings such as counts and timestamps compare as
// numbers.
func compareValues(a, b interface{}) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func projectFields(data interface{}, raw string) (interface{}, error) {
	specs, err := parseFieldSpecs(raw)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --fields value", "Example: --fields id,username,followers=counts.followed_by")
	}

	switch v := data.(type) {
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			out = append(out, projectOne(item, specs))
		}
		return out, nil
	default:
		return projectOne(v, specs), nil
	}
}

func projectOne(item interface{}, specs []fieldSpec) map[string]interface{} {
	out := make(map[string]interface{}, len(specs))
	for _, spec := range specs {
		val, _ := extractValue(item, spec.Tokens)
		out[spec.Key] = val
	}
	return out
}

func parseFieldSpecs(raw string) ([]fieldSpec, error) {
	var specs []fieldSpec
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, path := part, part
		if k, p, ok := strings.Cut(part, "="); ok {
			key, path = strings.TrimSpace(k), strings.TrimSpace(p)
		}
		if key == "" || path == "" {
			return nil, fmt.Errorf("invalid field spec %q", part)
		}

		tokens, err := parsePathTokens(path)
		if err != nil {
			return nil, fmt.Errorf("invalid field path %q: %w", path, err)
		}
		specs = append(specs, fieldSpec{Key: key, Tokens: tokens})
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("no fields provided")
	}
	return specs, nil
}

// parsePathTokens splits a dot path such as images.thumbnail.url or
// data[0].id. Integer segments index arrays.
func parsePathTokens(path string) ([]pathToken, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty path")
	}

	var tokens []pathToken
	for i := 0; i < len(path); {
		switch path[i] {
		case '.':
			i++
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("missing closing ]")
			}
			end += i
			content := strings.Trim(strings.TrimSpace(path[i+1:end]), `"'`)
			if content == "" {
				return nil, fmt.Errorf("empty bracket")
			}
			tokens = append(tokens, segmentToken(content))
			i = end + 1
		default:
			start := i
			for i < len(path) && path[i] != '.' && path[i] != '[' {
				i++
			}
			segment := strings.TrimSpace(path[start:i])
			if segment == "" {
				return nil, fmt.Errorf("empty segment")
			}
			tokens = append(tokens, segmentToken(segment))
		}
	}
	return tokens, nil
}

func segmentToken(segment string) pathToken {
	if idx, err := strconv.Atoi(segment); err == nil {
		return pathToken{Index: &idx}
	}
	return pathToken{Key: &segment}
}

func extractValue(data interface{}, tokens []pathToken) (interface{}, bool) {
	cur := data
	for _, tok := range tokens {
		switch {
		case tok.Key != nil:
			m, ok := cur.(map[string]interface{})
			if !ok {
				return nil, false
			}
			if cur, ok = m[*tok.Key]; !ok {
				return nil, false
			}
		case tok.Index != nil:
			arr, ok := cur.([]interface{})
			if !ok {
				return nil, false
			}
			idx := *tok.Index
			if idx < 0 {
				idx += len(arr)
			}
			if idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
		}
	}
	return cur, true
}

// normalizeToInterface converts data to plain maps, slices and scalars by
// way of its JSON form.
func normalizeToInterface(data interface{}) (interface{}, error) {
	switch data.(type) {
	case map[string]interface{}, []interface{}:
		return data, nil
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(buf, &out); err != nil {
		return nil, fmt.Errorf("failed to decode data: %w", err)
	}
	return out, nil
}

func applyJSONPath(data interface{}, raw string) (interface{}, error) {
	path := normalizeJSONPath(raw)
	if path == "" {
		return nil, clierrors.NewUserError("invalid --jsonpath value", "Example: --jsonpath '$.data[0].id'")
	}
	value, err := jsonpath.Get(path, data)
	if err != nil {
		return nil, clierrors.WrapUserError(err, "invalid --jsonpath value", "Example: --jsonpath '$.data[0].id'")
	}
	return value, nil
}

// normalizeJSONPath accepts data.id, .data.id and $.data.id alike.
func normalizeJSONPath(path string) string {
	trimmed := strings.TrimSpace(path)
	switch {
	case trimmed == "":
		return ""
	case strings.HasPrefix(trimmed, "$"), strings.HasPrefix(trimmed, "@"):
		return trimmed
	case strings.HasPrefix(trimmed, "."), strings.HasPrefix(trimmed, "["):
		return "$" + trimmed
	default:
		return "$." + trimmed
	}
}

// isEmptyResult reports whether data is nil, an empty list or map, or an
// envelope whose data is null or an empty list.
func isEmptyResult(data interface{}) bool {
	if data == nil {
		return true
	}
	switch v := data.(type) {
	case Table:
		return len(v.Rows) == 0
	case map[string]interface{}:
		if len(v) == 0 {
			return true
		}
		if inner, ok := v["data"]; ok {
			if _, hasMeta := v["meta"]; hasMeta {
				return isEmptyResult(inner)
			}
		}
		return false
	case json.Marshaler:
		normalized, err := normalizeToInterface(v)
		return err == nil && isEmptyResult(normalized)
	}

	rv := derefValue(reflect.ValueOf(data))
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
