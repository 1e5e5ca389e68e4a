package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/instagram-cli/internal/cmdutil"
	"github.com/salmonumbrella/instagram-cli/internal/dispatch"
	"github.com/salmonumbrella/instagram-cli/internal/instagram"
	"github.com/salmonumbrella/instagram-cli/internal/ui"
)

func newMediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "media",
		Aliases: []string{"m"},
		Short:   "Work with posts",
	}

	cmd.AddCommand(newMediaGetCmd())
	cmd.AddCommand(newMediaCommentsCmd())
	cmd.AddCommand(newMediaLikeCmd(true))
	cmd.AddCommand(newMediaLikeCmd(false))

	return cmd
}

func newMediaGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <media-id>...",
		Aliases: []string{"g"},
		Short:   "Get posts by ID",
		Long: `Retrieve one or more posts. Several IDs are fetched concurrently and
printed as a list in argument order.

Example:
  ig media get 1234567890_987654
  ig media get 1_1 2_2 3_3 -o table`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ids := make([]string, len(args))
			for i, arg := range args {
				id, err := cmdutil.NormalizeID(arg)
				if err != nil {
					return err
				}
				ids[i] = id
			}

			client, err := clientFromContext(ctx)
			if err != nil {
				return err
			}

			if len(ids) == 1 {
				media, err := client.Media(ctx, ids[0])
				if err != nil {
					return fmt.Errorf("failed to get media: %w", err)
				}
				return printerForContext(ctx).Print(ctx, media)
			}

			items, err := fetchMedia(ctx, client, ids)
			if err != nil {
				return err
			}
			return printerForContext(ctx).Print(ctx, items)
		},
	}
}

// fetchMedia issues one request per id and collects the results on a
// dispatch queue, keeping the order of ids. The first failure in id order
// is returned. client itself is left untouched.
func fetchMedia(ctx context.Context, client *instagram.Client, ids []string) ([]*instagram.Media, error) {
	queue := dispatch.NewQueue()
	defer queue.Close()
	client = client.Clone().WithDispatcher(queue)

	results := make([]*instagram.Media, len(ids))
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	wg.Add(len(ids))
	for i, id := range ids {
		client.MediaAsync(ctx, id,
			func(m *instagram.Media) {
				results[i] = m
				wg.Done()
			},
			func(err error) {
				errs[i] = fmt.Errorf("failed to get media %s: %w", id, err)
				wg.Done()
			},
		)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func newMediaCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <media-id>",
		Short: "List the comments on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mediaID, err := cmdutil.NormalizeID(args[0])
			if err != nil {
				return err
			}

			client, err := clientFromContext(ctx)
			if err != nil {
				return err
			}
			comments, err := client.Comments(ctx, mediaID)
			if err != nil {
				return fmt.Errorf("failed to list comments: %w", err)
			}
			return printerForContext(ctx).Print(ctx, comments)
		},
	}
}

// newMediaLikeCmd builds "like" or, with like false, "unlike".
func newMediaLikeCmd(like bool) *cobra.Command {
	use, short, verb := "unlike <media-id>", "Remove your like from a post", "Unliked"
	if like {
		use, short, verb = "like <media-id>", "Like a post", "Liked"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mediaID, err := cmdutil.NormalizeID(args[0])
			if err != nil {
				return err
			}

			client, err := clientFromContext(ctx)
			if err != nil {
				return err
			}
			if like {
				err = client.Like(ctx, mediaID)
			} else {
				err = client.Unlike(ctx, mediaID)
			}
			if err != nil {
				return fmt.Errorf("failed to %s media: %w", cmd.Name(), err)
			}

			ui.FromContext(ctx).Success("%s %s", verb, mediaID)
			return printerForContext(ctx).Print(ctx, map[string]interface{}{
				"status":   "success",
				"media_id": mediaID,
				"liked":    like,
			})
		},
	}
}
