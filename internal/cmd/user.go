package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/instagram-cli/internal/cmdutil"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users", "u"},
		Short:   "Look up Instagram users",
	}

	cmd.AddCommand(newUserSelfCmd())
	cmd.AddCommand(newUserGetCmd())
	cmd.AddCommand(newUserMediaCmd())

	return cmd
}

func newUserSelfCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "self",
		Aliases: []string{"me"},
		Short:   "Show the authenticated user",
		Args:    cobra.NoArgs,
		RunE:    runWhoami,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user (alias for 'user self')",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, err := clientFromContext(ctx)
	if err != nil {
		return err
	}
	user, err := client.Self(ctx)
	if err != nil {
		return fmt.Errorf("failed to get user info: %w", err)
	}
	return printerForContext(ctx).Print(ctx, user)
}

func newUserGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <user-id>",
		Aliases: []string{"g"},
		Short:   "Get a user by ID",
		Long: `Retrieve an Instagram user by ID. "self" is the authenticated user.

Example:
  ig user get 1574083`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID, err := cmdutil.NormalizeID(args[0])
			if err != nil {
				return err
			}

			client, err := clientFromContext(ctx)
			if err != nil {
				return err
			}
			user, err := client.User(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}
			return printerForContext(ctx).Print(ctx, user)
		},
	}
}

func newUserMediaCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "media [user-id]",
		Short: "List a user's recent media",
		Long: `List the most recent media of a user, the authenticated user by default.

Example:
  ig user media
  ig user media 1574083 --count 5 -o table`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			userID := "self"
			if len(args) == 1 {
				id, err := cmdutil.NormalizeID(args[0])
				if err != nil {
					return err
				}
				userID = id
			}

			client, err := clientFromContext(ctx)
			if err != nil {
				return err
			}
			media, err := client.RecentMedia(ctx, userID, count)
			if err != nil {
				return fmt.Errorf("failed to list media: %w", err)
			}
			return printerForContext(ctx).Print(ctx, media)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of items to request (0 = API default)")
	return cmd
}
