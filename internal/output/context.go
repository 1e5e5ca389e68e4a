package output

import "context"

// contextKey is a private type for storing values in context
// to avoid collisions with other packages.
type contextKey struct{}

// queryKey is a private type for storing jq query in context.
type queryKey struct{}

type (
	jsonPathKey    struct{}
	fieldsKey      struct{}
	limitKey       struct{}
	sortFieldKey   struct{}
	sortDescKey    struct{}
	failEmptyKey   struct{}
	dataOnlyKey    struct{}
	compactJSONKey struct{}
)

// WithFormat returns a new context with the output format attached.
// This allows the format to be passed down through the command chain
// without needing to pass it as a parameter to every function.
func WithFormat(ctx context.Context, format Format) context.Context {
	return context.WithValue(ctx, contextKey{}, format)
}

// FormatFromContext retrieves the output format from the context.
// If no format is set in the context, it returns FormatText as the default.
func FormatFromContext(ctx context.Context) Format {
	if v, ok := ctx.Value(contextKey{}).(Format); ok {
		return v
	}
	return FormatText
}

// WithQuery adds a jq query string to context.
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// QueryFromContext retrieves the jq query from context.
func QueryFromContext(ctx context.Context) string {
	if q, ok := ctx.Value(queryKey{}).(string); ok {
		return q
	}
	return ""
}

// WithJSONPath stores a JSONPath expression in context.
func WithJSONPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, jsonPathKey{}, path)
}

// JSONPathFromContext returns the JSONPath expression.
func JSONPathFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(jsonPathKey{}).(string); ok {
		return p
	}
	return ""
}

// WithFields stores raw --fields input in context.
func WithFields(ctx context.Context, fields string) context.Context {
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// FieldsFromContext returns raw --fields input.
func FieldsFromContext(ctx context.Context) string {
	if f, ok := ctx.Value(fieldsKey{}).(string); ok {
		return f
	}
	return ""
}

// WithLimit sets the --limit value in context.
func WithLimit(ctx context.Context, limit int) context.Context {
	return context.WithValue(ctx, limitKey{}, limit)
}

// LimitFromContext returns the --limit value (0 = unlimited).
func LimitFromContext(ctx context.Context) int {
	if l, ok := ctx.Value(limitKey{}).(int); ok {
		return l
	}
	return 0
}

// WithSort sets sort field and direction in context.
func WithSort(ctx context.Context, field string, desc bool) context.Context {
	ctx = context.WithValue(ctx, sortFieldKey{}, field)
	return context.WithValue(ctx, sortDescKey{}, desc)
}

// SortFromContext returns sort field and direction.
func SortFromContext(ctx context.Context) (field string, desc bool) {
	if f, ok := ctx.Value(sortFieldKey{}).(string); ok {
		field = f
	}
	if d, ok := ctx.Value(sortDescKey{}).(bool); ok {
		desc = d
	}
	return
}

// WithFailEmpty stores the --fail-empty flag in context.
func WithFailEmpty(ctx context.Context, fail bool) context.Context {
	return context.WithValue(ctx, failEmptyKey{}, fail)
}

// FailEmptyFromContext returns true if --fail-empty is set.
func FailEmptyFromContext(ctx context.Context) bool {
	if v, ok := ctx.Value(failEmptyKey{}).(bool); ok {
		return v
	}
	return false
}

// WithDataOnly sets the --data-only flag in context.
func WithDataOnly(ctx context.Context, dataOnly bool) context.Context {
	return context.WithValue(ctx, dataOnlyKey{}, dataOnly)
}

// DataOnlyFromContext returns true if envelopes should be unwrapped to data.
func DataOnlyFromContext(ctx context.Context) bool {
	if v, ok := ctx.Value(dataOnlyKey{}).(bool); ok {
		return v
	}
	return false
}

// WithCompactJSON stores whether JSON output should be compact.
func WithCompactJSON(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactJSONKey{}, compact)
}

// CompactJSONFromContext returns true when JSON output should be compact.
func CompactJSONFromContext(ctx context.Context) bool {
	if v, ok := ctx.Value(compactJSONKey{}).(bool); ok {
		return v
	}
	return false
}
