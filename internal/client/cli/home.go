package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophstash/internal/client/models"
	"github.com/dmitrijs2005/gophstash/internal/client/services"
	"github.com/dmitrijs2005/gophstash/internal/client/theme"
	"github.com/dmitrijs2005/gophstash/internal/common"
)

const dateLayout = "2006-01-02"

// showHome renders the greeting and the file list.
func (a *App) showHome(ctx context.Context) error {
	st := a.styles()
	a.println(st.Title.Render(fmt.Sprintf("Hello, %s!", services.DisplayName(a.auth.User()))))
	a.println(st.Subtitle.Render("Welcome to your personal storage space"))
	return a.listFiles(ctx, nil)
}

func (a *App) listFiles(ctx context.Context, _ []string) error {
	items, err := a.files.List(ctx)
	a.setItems(items)
	if err != nil {
		return err
	}

	st := a.styles()
	a.println(st.Subtitle.Render("Your Files"))
	if len(items) == 0 {
		a.println(st.Muted.Render("No files yet. Upload your first photo or document to get started!"))
		return nil
	}
	for _, it := range items {
		a.println(fileLine(st, it))
	}
	return nil
}

// fileLine renders one list row: marker, name, size and upload date.
func fileLine(st theme.Styles, it models.FileItem) string {
	marker := "[doc]"
	if services.IsImage(it.Name) {
		marker = "[img]"
	}
	details := fmt.Sprintf("%s • %s", services.FormatFileSize(it.Size), it.CreatedAt.Local().Format(dateLayout))
	return fmt.Sprintf("%s %s  %s", st.Primary.Render(marker), st.Text.Render(it.Name), st.Muted.Render(details))
}

func (a *App) upload(ctx context.Context, args []string) error {
	name := ""
	if len(args) > 1 {
		name = args[1]
	}
	if err := a.files.Upload(ctx, args[0], name); err != nil {
		return err
	}
	a.success("File uploaded successfully")
	return a.listFiles(ctx, nil)
}

func (a *App) removeFile(ctx context.Context, args []string) error {
	ok, err := confirm(a.reader, "Delete File: Are you sure you want to delete this file?", a.out)
	if err != nil || !ok {
		return err
	}
	if err := a.files.Remove(ctx, args[0]); err != nil {
		return err
	}
	return a.listFiles(ctx, nil)
}

func (a *App) download(ctx context.Context, args []string) error {
	item, err := a.findItem(ctx, args[0])
	if err != nil {
		return err
	}

	dir := ""
	if len(args) > 1 {
		dir = args[1]
	}
	path, err := a.files.Download(ctx, item, dir)
	if err != nil {
		return err
	}
	a.success("Saved to " + path)
	return nil
}

func (a *App) publicURL(ctx context.Context, args []string) error {
	item, err := a.findItem(ctx, args[0])
	if err != nil {
		return err
	}
	a.println(item.PublicURL)
	return nil
}

// findItem looks name up in the last listing, fetching one if none is
// loaded yet.
func (a *App) findItem(ctx context.Context, name string) (models.FileItem, error) {
	a.itemsMu.Lock()
	items := a.items
	a.itemsMu.Unlock()

	if items == nil {
		var err error
		if items, err = a.files.List(ctx); err != nil {
			return models.FileItem{}, err
		}
		a.setItems(items)
	}

	for _, it := range items {
		if it.Name == name {
			return it, nil
		}
	}
	return models.FileItem{}, fmt.Errorf("file %s: %w", name, common.ErrNotFound)
}
