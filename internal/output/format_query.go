package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/itchyny/gojq"
)

// printJSON outputs data as pretty-printed JSON.
// If a jq query is present in the context, it filters the output.
func (p *Printer) printJSON(ctx context.Context, data interface{}) error {
	compact := CompactJSONFromContext(ctx)
	if query := QueryFromContext(ctx); query != "" {
		return p.runQuery(query, data, !compact)
	}

	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

// printNDJSON outputs data as newline-delimited JSON, one line per list
// item. If a jq query is present in the context, it filters the output.
func (p *Printer) printNDJSON(ctx context.Context, data interface{}) error {
	if query := QueryFromContext(ctx); query != "" {
		return p.runQuery(query, data, false)
	}

	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)

	if isMarshaler(data) {
		return encodeMarshalerLines(enc, data)
	}

	v := derefValue(reflect.ValueOf(data))
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			if err := enc.Encode(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(data)
}

// encodeMarshalerLines splits a marshaled JSON array into lines without
// decoding its elements, so object key order is kept.
func encodeMarshalerLines(enc *json.Encoder, data interface{}) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if trimmed := bytes.TrimSpace(buf); len(trimmed) == 0 || trimmed[0] != '[' {
		return enc.Encode(json.RawMessage(buf))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(buf, &items); err != nil {
		return err
	}
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

// runQuery runs a gojq query over data and writes each result as JSON.
// When prettyPrint is true, output is indented.
func (p *Printer) runQuery(query string, data interface{}, prettyPrint bool) error {
	results, err := runQueryRaw(query, data)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(p.w)
	enc.SetEscapeHTML(false)
	if prettyPrint {
		enc.SetIndent("", "  ")
	}
	for _, v := range results {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

// runQueryRaw normalizes data, runs a gojq query, and returns the results.
func runQueryRaw(query string, data interface{}) ([]interface{}, error) {
	code, err := compileQuery(query)
	if err != nil {
		return nil, err
	}

	normalized, err := normalizeToInterface(data)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	var results []interface{}
	iter := code.Run(normalized)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if queryErr, isErr := v.(error); isErr {
			return nil, fmt.Errorf("query error: %s", safeErrorMessage(queryErr))
		}
		results = append(results, v)
	}
	return results, nil
}

// ValidateQuery reports whether query parses and compiles.
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	_, err := compileQuery(query)
	return err
}

func compileQuery(query string) (*gojq.Code, error) {
	query, _ = NormalizeQuery(query)
	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, formatInvalidQueryErr(err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, formatInvalidQueryErr(err)
	}
	return code, nil
}

// NormalizeQuery drops the backslash shells such as zsh leave before "!"
// outside string literals. The bool reports whether anything changed.
func NormalizeQuery(query string) (string, bool) {
	if !strings.Contains(query, `\!`) {
		return query, false
	}

	var b strings.Builder
	b.Grow(len(query))
	inString, escaped, changed := false, false, false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case inString && escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case inString && ch == '"':
			inString = false
		case ch == '"':
			inString = true
		case ch == '\\' && i+1 < len(query) && query[i+1] == '!':
			changed = true
			continue
		}
		b.WriteByte(ch)
	}
	return b.String(), changed
}

func formatInvalidQueryErr(err error) error {
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "unexpected eof") {
		return fmt.Errorf("invalid --query: %w\nHint: query looks incomplete; quote it fully", err)
	}
	return fmt.Errorf("invalid --query: %w", err)
}

// safeErrorMessage returns a best-effort string representation for errors whose
// Error method may panic (seen with some gojq runtime errors on typed values).
func safeErrorMessage(err error) (msg string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			msg = fmt.Sprintf("%T", err)
			if s, ok := recovered.(string); ok {
				// gojq panic payloads often append the offending value in parentheses.
				if idx := strings.Index(s, " ("); idx > 0 {
					s = s[:idx]
				}
				if s = strings.TrimSpace(s); s != "" {
					msg = s
				}
			}
		}
	}()

	msg = strings.TrimSpace(err.Error())
	if msg == "" {
		return fmt.Sprintf("%T", err)
	}
	return msg
}
