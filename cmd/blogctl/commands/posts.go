package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/robalobadob/goblog/internal/api"
	"github.com/robalobadob/goblog/internal/session"
)

// newPostsCommand groups the post subcommands.
func newPostsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"p"},
		Short:   "List, read and manage posts",
	}

	cmd.AddCommand(
		newPostsListCommand(a),
		newPostsMineCommand(a),
		newPostsShowCommand(a),
		newPostsCreateCommand(a),
		newPostsEditCommand(a),
		newPostsDeleteCommand(a),
	)
	return cmd
}

func newPostsListCommand(a *app) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all posts, one page at a time",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.gw.ListPosts(cmd.Context(), page)
			if err != nil {
				return err
			}
			printPosts(cmd.OutOrStdout(), res.Items, a.userID())
			fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d\n", res.PageNumber, res.TotalPages)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	return cmd
}

func newPostsMineCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your own posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.gw.ListOwnPosts(cmd.Context())
			if err != nil {
				return err
			}
			printPosts(cmd.OutOrStdout(), items, a.userID())
			return nil
		},
	}
}

func newPostsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.gw.GetPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", p.Title)
			if p.Owner != nil {
				fmt.Fprintf(out, "by %s\n", p.Owner.DisplayName())
			}
			if p.ImageURL != "" {
				fmt.Fprintf(out, "image: %s\n", p.ImageURL)
			}
			fmt.Fprintf(out, "\n%s\n", p.Description)
			if session.IsOwner(p, a.userID()) {
				fmt.Fprintf(out, "\n(yours: blogctl posts edit %s | blogctl posts delete %s)\n", p.ID, p.ID)
			}
			return nil
		},
	}
}

func newPostsCreateCommand(a *app) *cobra.Command {
	var in api.PostInput
	var imagePath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			img, err := loadImage(imagePath)
			if err != nil {
				return err
			}
			p, err := a.gw.CreatePostWithImage(cmd.Context(), in, img)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created post %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "post title")
	cmd.Flags().StringVarP(&in.Description, "desc", "d", "", "post body")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "image file to attach (jpg, png, gif)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("desc")
	return cmd
}

func newPostsEditCommand(a *app) *cobra.Command {
	var in api.PostInput
	var imagePath string

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := a.requireOwner(cmd, id); err != nil {
				return err
			}
			img, err := loadImage(imagePath)
			if err != nil {
				return err
			}
			if _, err := a.gw.UpdatePostWithImage(cmd.Context(), id, in, img); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated post %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "post title")
	cmd.Flags().StringVarP(&in.Description, "desc", "d", "", "post body")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "replacement image (jpg, png, gif)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("desc")
	return cmd
}

func newPostsDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := a.requireOwner(cmd, id); err != nil {
				return err
			}
			if err := a.gw.DeletePost(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %s\n", id)
			return nil
		},
	}
}

// requireOwner refuses edits of posts the session does not own.
func (a *app) requireOwner(cmd *cobra.Command, id string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	p, err := a.gw.GetPost(cmd.Context(), id)
	if err != nil {
		return err
	}
	if !session.IsOwner(p, a.userID()) {
		return fmt.Errorf("post %s belongs to someone else", id)
	}
	return nil
}

func (a *app) userID() string {
	uid, _ := a.resolver.CurrentUserID()
	return uid
}

func printPosts(w io.Writer, posts []api.Post, uid string) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "no posts")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\t")
	for i := range posts {
		p := &posts[i]
		mine := ""
		if session.IsOwner(p, uid) {
			mine = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Owner.DisplayName(), mine)
	}
	_ = tw.Flush()
}
