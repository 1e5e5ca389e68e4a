// Package output renders command results for the ig CLI.
//
// Supported formats:
//   - text: key-value pairs for objects, aligned columns for lists (default)
//   - json: pretty-printed JSON
//   - ndjson: one JSON document per list item
//   - table: aligned columns, lists only
//   - yaml: YAML
//
// Flags that shape output travel in the context. root.go sets them once in
// PersistentPreRunE:
//
//	ctx := output.WithFormat(cmd.Context(), format)
//	ctx = output.WithQuery(ctx, queryFlag)
//	cmd.SetContext(ctx)
//
// and commands print with:
//
//	printer := output.NewPrinter(os.Stdout, output.FormatFromContext(ctx))
//	return printer.Print(ctx, user)
//
// Before rendering, Print applies in order: --data-only, --sort-by and
// --limit, --fields, --jsonpath, then --fail-empty. A --query jq filter runs
// last, on the JSON form of whatever remains.
//
// Values that implement json.Marshaler, such as ordered API responses, are
// rendered through their JSON form so their key order survives json output.
package output
