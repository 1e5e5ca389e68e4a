package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

// Format represents the output format type.
type Format string

const (
	// FormatText is human-readable key-value format (default).
	FormatText Format = "text"
	// FormatJSON is pretty-printed JSON format.
	FormatJSON Format = "json"
	// FormatNDJSON is newline-delimited JSON format.
	FormatNDJSON Format = "ndjson"
	// FormatTable is tabular format for lists.
	FormatTable Format = "table"
	// FormatYAML is YAML format.
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format type.
// Empty string defaults to FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatNDJSON, "jsonl":
		return FormatNDJSON, nil
	case FormatTable:
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", errors.New("invalid --output format (expected text|json|ndjson|jsonl|table|yaml)")
	}
}

// Table is a pre-rendered table.
type Table struct {
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Printer handles output formatting across different formats.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a new Printer that writes to w in the given format.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{
		w:      w,
		format: format,
	}
}

// Print outputs data in the configured format after applying the output
// flags found in ctx.
func (p *Printer) Print(ctx context.Context, data interface{}) error {
	if data == nil {
		return nil
	}

	updated, err := applyOutputTransforms(ctx, data, p.format)
	if err != nil {
		return err
	}
	data = updated
	if FailEmptyFromContext(ctx) && isEmptyResult(data) {
		return clierrors.NewUserError("no results", "Remove --fail-empty to allow empty output")
	}

	switch p.format {
	case FormatJSON:
		return p.printJSON(ctx, data)
	case FormatNDJSON:
		return p.printNDJSON(ctx, data)
	}

	// The remaining formats walk the value, so ordered JSON types are
	// flattened to plain maps first.
	if isMarshaler(data) {
		if data, err = normalizeToInterface(data); err != nil {
			return err
		}
	}

	switch p.format {
	case FormatYAML:
		return p.printYAML(data)
	case FormatTable:
		return p.printTable(data)
	case FormatText:
		return p.printText(ctx, data)
	default:
		return fmt.Errorf("unsupported format: %s", p.format)
	}
}

func isMarshaler(data interface{}) bool {
	_, ok := data.(json.Marshaler)
	return ok
}

// printYAML outputs data as YAML.
func (p *Printer) printYAML(data interface{}) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

// printText outputs data as human-readable text.
// A --query filter is applied first. Envelopes (maps with a data list)
// render their items as a table, as do bare slices of structs or maps.
// Single objects print as key-value pairs with nested values indented.
func (p *Printer) printText(ctx context.Context, data interface{}) error {
	if query := QueryFromContext(ctx); query != "" {
		results, err := runQueryRaw(query, data)
		if err != nil {
			return err
		}
		switch len(results) {
		case 0:
			return nil
		case 1:
			data = results[0]
		default:
			data = results
		}
	}

	switch t := data.(type) {
	case Table:
		return p.writeTable(t)
	case *Table:
		if t != nil {
			return p.writeTable(*t)
		}
		return nil
	}

	v := derefValue(reflect.ValueOf(data))
	if !v.IsValid() || ((v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil()) {
		return nil
	}

	switch v.Kind() {
	case reflect.Map:
		if items, meta, ok := extractEnvelope(v); ok {
			return p.printTextEnvelope(items, meta)
		}
		return p.printTextMap(v, "")
	case reflect.Struct:
		return p.printTextStruct(v, "")
	case reflect.Slice, reflect.Array:
		return p.printTextSlice(v)
	default:
		_, err := fmt.Fprintf(p.w, "%v\n", v)
		return err
	}
}

type keyValue struct {
	key string
	val string
}

// extractEnvelope reports whether a map looks like an API envelope with a
// list under "data". The other top-level keys are returned as metadata.
func extractEnvelope(v reflect.Value) (reflect.Value, []keyValue, bool) {
	var items reflect.Value
	var meta []keyValue

	iter := v.MapRange()
	for iter.Next() {
		key := fmt.Sprintf("%v", iter.Key())
		val := derefValue(iter.Value())
		if key == "data" && (val.Kind() == reflect.Slice || val.Kind() == reflect.Array) {
			items = val
			continue
		}
		meta = append(meta, keyValue{key: key, val: formatCompact(val)})
	}
	if !items.IsValid() {
		return reflect.Value{}, nil, false
	}
	sort.Slice(meta, func(i, j int) bool { return meta[i].key < meta[j].key })
	return items, meta, true
}

// printTextEnvelope renders the data list, or the metadata when it is empty.
func (p *Printer) printTextEnvelope(items reflect.Value, meta []keyValue) error {
	if items.Len() > 0 {
		return p.printTextSlice(items)
	}
	for _, kv := range meta {
		if _, err := fmt.Fprintf(p.w, "%s: %s\n", kv.key, kv.val); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(p.w, "data: (none)")
	return err
}

// printTextMap outputs a map as key-value pairs sorted by key.
func (p *Printer) printTextMap(v reflect.Value, indent string) error {
	keys := sortedMapKeys(v)
	for _, key := range keys {
		if err := p.printTextField(fmt.Sprintf("%v", key.Interface()), v.MapIndex(key), indent); err != nil {
			return err
		}
	}
	return nil
}

// printTextStruct outputs a struct as key-value pairs in field order.
func (p *Printer) printTextStruct(v reflect.Value, indent string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := fieldJSONName(field)
		if name == "-" {
			continue
		}
		if err := p.printTextField(name, v.Field(i), indent); err != nil {
			return err
		}
	}
	return nil
}

// printTextField prints one named value, recursing into nested objects.
func (p *Printer) printTextField(name string, value reflect.Value, indent string) error {
	value = derefValue(value)
	if !value.IsValid() || ((value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface) && value.IsNil()) {
		_, err := fmt.Fprintf(p.w, "%s%s: <nil>\n", indent, name)
		return err
	}

	switch value.Kind() {
	case reflect.Struct:
		if _, err := fmt.Fprintf(p.w, "%s%s:\n", indent, name); err != nil {
			return err
		}
		return p.printTextStruct(value, indent+"  ")
	case reflect.Map:
		if value.Len() == 0 {
			_, err := fmt.Fprintf(p.w, "%s%s: {}\n", indent, name)
			return err
		}
		if _, err := fmt.Fprintf(p.w, "%s%s:\n", indent, name); err != nil {
			return err
		}
		return p.printTextMap(value, indent+"  ")
	case reflect.Slice, reflect.Array:
		if value.Len() == 0 {
			_, err := fmt.Fprintf(p.w, "%s%s: []\n", indent, name)
			return err
		}
		if isScalarSlice(value) {
			_, err := fmt.Fprintf(p.w, "%s%s: %s\n", indent, name, formatCompact(value))
			return err
		}
		if _, err := fmt.Fprintf(p.w, "%s%s:\n", indent, name); err != nil {
			return err
		}
		for j := 0; j < value.Len(); j++ {
			if _, err := fmt.Fprintf(p.w, "%s  - %s\n", indent, formatCompact(value.Index(j))); err != nil {
				return err
			}
		}
		return nil
	default:
		_, err := fmt.Fprintf(p.w, "%s%s: %v\n", indent, name, value)
		return err
	}
}

// printTextSlice outputs a slice as a table when items are structs/maps,
// or one item per line for scalars.
func (p *Printer) printTextSlice(v reflect.Value) error {
	if v.Len() == 0 {
		return nil
	}

	switch derefValue(v.Index(0)).Kind() {
	case reflect.Struct:
		return p.writeTable(structTable(v, true))
	case reflect.Map:
		return p.writeTable(mapTable(v, true))
	}

	for i := 0; i < v.Len(); i++ {
		if _, err := fmt.Fprintln(p.w, formatCompact(v.Index(i))); err != nil {
			return err
		}
	}
	return nil
}

// printTable outputs data in tabular format. Only slices of maps or
// structs, envelopes holding one, and pre-built Tables are accepted.
func (p *Printer) printTable(data interface{}) error {
	switch t := data.(type) {
	case Table:
		return p.writeTable(t)
	case *Table:
		if t == nil {
			return nil
		}
		return p.writeTable(*t)
	}

	v := derefValue(reflect.ValueOf(data))
	if v.Kind() == reflect.Map {
		if items, _, ok := extractEnvelope(v); ok {
			v = items
		}
	}
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return errors.New("table format requires a slice or array")
	}
	if v.Len() == 0 {
		return nil
	}

	switch derefValue(v.Index(0)).Kind() {
	case reflect.Map:
		return p.writeTable(mapTable(v, false))
	case reflect.Struct:
		return p.writeTable(structTable(v, false))
	default:
		return errors.New("table format requires slice of maps or structs")
	}
}

// writeTable renders t with aligned columns.
func (p *Printer) writeTable(t Table) error {
	if len(t.Headers) == 0 && len(t.Rows) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	if len(t.Headers) > 0 {
		_, _ = fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// structTable builds a table from a slice of structs. With scalarOnly set,
// nested slices and maps are left out so rows stay on one line.
func structTable(v reflect.Value, scalarOnly bool) Table {
	first := derefValue(v.Index(0))
	t := first.Type()

	var fields []int
	var table Table
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := fieldJSONName(f)
		if name == "-" {
			continue
		}
		if scalarOnly {
			ft := f.Type
			for ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Slice || ft.Kind() == reflect.Map || ft.Kind() == reflect.Array {
				continue
			}
		}
		fields = append(fields, i)
		table.Headers = append(table.Headers, strings.ToUpper(name))
	}

	for i := 0; i < v.Len(); i++ {
		item := derefValue(v.Index(i))
		if item.Kind() != reflect.Struct || item.Type() != t {
			continue
		}
		row := make([]string, len(fields))
		for j, idx := range fields {
			row[j] = formatCompact(item.Field(idx))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// mapTable builds a table from a slice of maps. Columns are the union of
// keys, sorted. With scalarOnly set, keys holding non-empty nested values
// are left out unless nothing else remains.
func mapTable(v reflect.Value, scalarOnly bool) Table {
	seen := make(map[string]bool)
	nested := make(map[string]bool)
	for i := 0; i < v.Len(); i++ {
		m := derefValue(v.Index(i))
		if m.Kind() != reflect.Map {
			continue
		}
		iter := m.MapRange()
		for iter.Next() {
			key := fmt.Sprintf("%v", iter.Key())
			seen[key] = true
			val := derefValue(iter.Value())
			switch val.Kind() {
			case reflect.Map, reflect.Slice, reflect.Array:
				if val.Len() > 0 {
					nested[key] = true
				}
			case reflect.Struct:
				nested[key] = true
			}
		}
	}

	var keys []string
	for k := range seen {
		if !scalarOnly || !nested[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		for k := range seen {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	table := Table{Headers: make([]string, len(keys))}
	for i, k := range keys {
		table.Headers[i] = strings.ToUpper(k)
	}
	for i := 0; i < v.Len(); i++ {
		m := derefValue(v.Index(i))
		if m.Kind() != reflect.Map {
			continue
		}
		row := make([]string, len(keys))
		for j, key := range keys {
			val := m.MapIndex(reflect.ValueOf(key))
			if val.IsValid() {
				row[j] = formatCompact(val)
			} else {
				row[j] = "-"
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// derefValue dereferences pointers and interfaces to the underlying value.
func derefValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

// fieldJSONName returns the json tag name for a struct field, or the field name.
func fieldJSONName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name
		}
	}
	return f.Name
}

func sortedMapKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprintf("%v", keys[i].Interface()) < fmt.Sprintf("%v", keys[j].Interface())
	})
	return keys
}

// isScalarSlice returns true if all elements are simple types (string, number, bool).
func isScalarSlice(v reflect.Value) bool {
	for i := 0; i < v.Len(); i++ {
		switch derefValue(v.Index(i)).Kind() {
		case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
			return false
		}
	}
	return true
}

// formatCompact formats a value for a table cell or list line.
// Small structs are flattened and media renditions collapse to their URL.
func formatCompact(v reflect.Value) string {
	v = derefValue(v)
	if !v.IsValid() || ((v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) && v.IsNil()) {
		return "<nil>"
	}

	switch v.Kind() {
	case reflect.Struct:
		var parts []string
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if s := formatCompact(v.Field(i)); s != "" && s != "<nil>" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		if keyType := v.Type().Key(); keyType.Kind() == reflect.String {
			for _, short := range []string{"url", "username", "count", "text"} {
				if val := v.MapIndex(reflect.ValueOf(short).Convert(keyType)); val.IsValid() {
					return formatCompact(val)
				}
			}
		}
		keys := sortedMapKeys(v)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%v:%s", k.Interface(), formatCompact(v.MapIndex(k)))
		}
		return "{" + strings.Join(parts, " ") + "}"
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatCompact(v.Index(i))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}
