package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/instagram-cli/internal/cmdutil"
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
	"github.com/salmonumbrella/instagram-cli/internal/instagram"
)

const defaultMaxPages = 10

func newAPICmd() *cobra.Command {
	var (
		method   string
		params   []string
		raw      bool
		all      bool
		maxPages int
	)

	cmd := &cobra.Command{
		Use:   "api <endpoint>",
		Short: "Make an authenticated request to any endpoint",
		Long: `Send a request to an Instagram API endpoint and print the response.

The endpoint is relative to the API base URL. The access token is added
automatically. Parameters go in the query string for GET and DELETE and in
a form body for POST.

By default the response envelope is checked and an API error message is
returned as an error. --raw prints the body exactly as received. --all
follows pagination.next_url and merges the data arrays.

Example:
  ig api /users/self
  ig api /users/self/media/recent -p count=5 --all --max-pages 3
  ig api /media/123_456/comments -X POST -p text="nice shot"
  ig api /tags/sunset --raw`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			m, err := instagram.ParseMethod(method)
			if err != nil {
				return &clierrors.ValidationError{Field: "method", Message: err.Error()}
			}
			values, err := cmdutil.ParseParams(params)
			if err != nil {
				return &clierrors.ValidationError{Field: "param", Message: err.Error()}
			}
			if raw && all {
				return clierrors.NewUserError("--raw and --all cannot be combined", "Drop --raw to merge pages")
			}
			if maxPages < 1 {
				return &clierrors.ValidationError{Field: "max-pages", Message: "must be at least 1"}
			}

			spec := instagram.RequestSpec{
				Endpoint:   args[0],
				Method:     m,
				Parameters: make(map[string]string, len(values)),
			}
			for k := range values {
				spec.Parameters[k] = values.Get(k)
			}

			client, err := clientFromContext(ctx)
			if err != nil {
				return err
			}

			if raw {
				body, err := instagram.RawJSON(ctx, client, spec)
				if err != nil {
					return err
				}
				return printerForContext(ctx).Print(ctx, body)
			}

			env, err := instagram.RawRequest(ctx, client, spec)
			if err != nil {
				return err
			}
			if err := env.Meta.Err(); err != nil {
				return err
			}
			if !all {
				return printerForContext(ctx).Print(ctx, envelopeValue(env))
			}

			merged, err := collectPages(ctx, client, spec, env, maxPages)
			if err != nil {
				return err
			}
			return printerForContext(ctx).Print(ctx, merged)
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method (GET, POST or DELETE)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Request parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the response body without checking the envelope")
	cmd.Flags().BoolVar(&all, "all", false, "Follow pagination and merge every page")
	cmd.Flags().IntVar(&maxPages, "max-pages", defaultMaxPages, "Maximum pages to fetch with --all")

	return cmd
}

// collectPages follows next_url from first until the pages run out or max
// pages have been read. The result is an envelope whose data is the
// concatenation of every page's data array.
func collectPages(ctx context.Context, client *instagram.Client, spec instagram.RequestSpec, first *instagram.RawEnvelope, max int) (instagram.Value, error) {
	items, ok := first.Data.Array()
	if !ok {
		return instagram.Value{}, clierrors.NewUserError(
			fmt.Sprintf("%s does not return a list", spec.Endpoint),
			"Use --all only with list endpoints",
		)
	}
	items = append([]instagram.Value(nil), items...)

	env := first
	pages := 1
	for env.HasNextPage() && pages < max {
		next := instagram.RequestSpec{Endpoint: *env.Pagination.NextURL, Method: instagram.MethodGet}
		page, err := instagram.RawRequest(ctx, client, next)
		if err != nil {
			return instagram.Value{}, fmt.Errorf("failed to fetch page %d: %w", pages+1, err)
		}
		if err := page.Meta.Err(); err != nil {
			return instagram.Value{}, fmt.Errorf("failed to fetch page %d: %w", pages+1, err)
		}
		pageItems, _ := page.Data.Array()
		items = append(items, pageItems...)
		env = page
		pages++
	}

	out := instagram.NewObject()
	out.Set("data", instagram.Array(items...))
	out.Set("has_more", instagram.Bool(env.HasNextPage()))
	out.Set("pages", instagram.Int(int64(pages)))
	return out, nil
}

// envelopeValue rebuilds env as an ordered tree: meta, data, then
// pagination when present.
func envelopeValue(env *instagram.RawEnvelope) instagram.Value {
	meta := instagram.NewObject()
	meta.Set("code", instagram.Int(int64(env.Meta.Code)))

	out := instagram.NewObject()
	out.Set("meta", meta)
	out.Set("data", env.Data)
	if p := env.Pagination; p != nil {
		pagination := instagram.NewObject()
		if p.NextURL != nil {
			pagination.Set("next_url", instagram.String(*p.NextURL))
		}
		if p.NextMaxID != nil {
			pagination.Set("next_max_id", instagram.String(*p.NextMaxID))
		}
		out.Set("pagination", pagination)
	}
	return out
}
