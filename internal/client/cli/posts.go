package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/postbox/internal/api"
	"github.com/dmitrijs2005/postbox/internal/client/client"
)

// removeImageAnswer clears the image when given to edit.
const removeImageAnswer = "-"

var errUsage = errors.New("usage")

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

func (a *App) printPost(p *api.Post) {
	fmt.Fprintf(a.out, "%s\n", p.Title)
	fmt.Fprintf(a.out, "  id:      %s\n", p.ID)
	fmt.Fprintf(a.out, "  by:      %s\n", p.Creator.Name)
	fmt.Fprintf(a.out, "  created: %s\n", p.CreatedAt.Local().Format(time.DateTime))
	if !p.UpdatedAt.Equal(p.CreatedAt) {
		fmt.Fprintf(a.out, "  updated: %s\n", p.UpdatedAt.Local().Format(time.DateTime))
	}
	if p.ImageURL != "" {
		fmt.Fprintf(a.out, "  image:   %s\n", p.ImageURL)
	}
	fmt.Fprintf(a.out, "\n%s\n", p.Content)
}

// List prints one page of posts. The page defaults to 1.
func (a *App) List(ctx context.Context, args []string) error {
	page := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return usage("list [page]")
		}
		page = n
	}

	v, err := a.posts.List(ctx, page)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Page %d of %d (%d posts)\n", v.Page, v.Pages, v.TotalPosts)
	if v.Offline {
		fmt.Fprintf(a.out, "(offline copy from %s)\n", v.FetchedAt.Local().Format(time.DateTime))
	}
	for _, p := range v.Posts {
		fmt.Fprintf(a.out, "%s  %-30s  %s  %s\n", p.ID, p.Title, p.Creator.Name, p.CreatedAt.Local().Format(time.DateOnly))
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("show <id>")
	}

	p, offline, err := a.posts.Get(ctx, args[0])
	if err != nil {
		return err
	}

	if offline {
		fmt.Fprintln(a.out, "(offline copy)")
	}
	a.printPost(p)

	if !offline && p.ImageURL != "" {
		link, err := a.posts.ImageDownloadURL(ctx, p.ID)
		if err != nil {
			fmt.Fprintf(a.out, "  (image link unavailable: %v)\n", err)
		} else {
			fmt.Fprintf(a.out, "  download: %s\n", link)
		}
	}
	return nil
}

// Create prompts for a new post. The image key is optional and usually
// comes from upload-url.
func (a *App) Create(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}

	content, err := getMultiline(a.reader, "Enter content", a.out)
	if err != nil {
		return err
	}

	image, err := getSimpleText(a.reader, "Enter image key (empty for none)", a.out)
	if err != nil {
		return err
	}

	p, err := a.posts.Create(ctx, api.CreatePostRequest{Title: title, Content: content, ImageURL: image})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created post %s\n", p.ID)
	return nil
}

// Edit loads the post, then prompts for replacements. Empty answers keep
// the current title, content and image; "-" removes the image.
func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("edit <id>")
	}

	current, offline, err := a.posts.Get(ctx, args[0])
	if err != nil {
		return err
	}
	if offline {
		return client.ErrUnavailable
	}

	title, err := getSimpleText(a.reader, fmt.Sprintf("Enter title [%s]", current.Title), a.out)
	if err != nil {
		return err
	}
	if title == "" {
		title = current.Title
	}

	content, err := getMultiline(a.reader, "Enter content (empty keeps current)", a.out)
	if err != nil {
		return err
	}
	if content == "" {
		content = current.Content
	}

	answer, err := getSimpleText(a.reader, fmt.Sprintf("Enter image key [%s] ('%s' removes)", current.ImageURL, removeImageAnswer), a.out)
	if err != nil {
		return err
	}

	req := api.UpdatePostRequest{ID: current.ID, Title: title, Content: content}
	switch answer {
	case "":
	case removeImageAnswer:
		empty := ""
		req.ImageURL = &empty
	default:
		req.ImageURL = &answer
	}

	p, err := a.posts.Update(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Updated post %s\n", p.ID)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <id>")
	}

	deleted, err := a.posts.Delete(ctx, args[0])
	if err != nil {
		return err
	}

	if deleted {
		fmt.Fprintf(a.out, "Deleted post %s\n", args[0])
	}
	return nil
}

// UploadURL asks the server for a presigned PUT URL. The printed key is
// what create and edit expect as the image.
func (a *App) UploadURL(ctx context.Context) error {
	res, err := a.posts.ImageUploadURL(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "key: %s\n", res.Key)
	fmt.Fprintf(a.out, "url: %s\n", res.URL)
	fmt.Fprintln(a.out, "Upload the image with an HTTP PUT to the url, then use the key as the image.")
	return nil
}

// Upload sends a local image to storage and prints the key to use with
// create or edit.
func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("upload <file>")
	}

	key, err := a.posts.UploadImage(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Uploaded %s\nkey: %s\n", args[0], key)
	return nil
}
