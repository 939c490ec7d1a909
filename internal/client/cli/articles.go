package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophblog/internal/client/client"
	"github.com/dmitrijs2005/gophblog/internal/client/models"
	"github.com/dmitrijs2005/gophblog/internal/filex"
)

const (
	dateLayout    = "2006-01-02 15:04"
	unknownAuthor = "Unknown"
)

// Articles prints the article feed as a table, newest first.
func (a *App) Articles(ctx context.Context) error {
	list, err := a.articles.List(ctx)
	if err != nil {
		a.println("Error loading articles:", userMessage(err))
		return err
	}
	if len(list) == 0 {
		a.println("No articles yet.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tPUBLISHED\tLIKES")
	for _, art := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n",
			art.ID, truncate(art.Title, 40), authorName(&art),
			art.PublishedAt.Local().Format(dateLayout), art.Likes)
	}
	return tw.Flush()
}

// Show prints a single article. The id comes from args or is prompted for.
func (a *App) Show(ctx context.Context, args []string) error {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else {
		var err error
		raw, err = getSimpleText(a.reader, "Enter article ID", a.out)
		if err != nil {
			return err
		}
	}

	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		a.println("Invalid article ID:", raw)
		return fmt.Errorf("parse article id: %w", err)
	}

	art, err := a.articles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			a.printf("Article %d not found.\n", id)
		} else {
			a.println("Error loading article:", userMessage(err))
		}
		return err
	}

	a.printArticle(art)
	return nil
}

func (a *App) printArticle(art *models.Article) {
	a.printf("#%d %s\n", art.ID, art.Title)
	a.printf("by %s, %s\n", authorName(art), art.PublishedAt.Local().Format(dateLayout))
	if art.UpdatedAt != nil {
		a.printf("updated %s\n", art.UpdatedAt.Local().Format(dateLayout))
	}
	if img := art.ImageURL(a.config.AssetsBaseURL); img != "" {
		a.printf("image: %s\n", img)
	}
	a.println()
	a.println(art.Content)
}

// Publish prompts for a new article and sends it.
func (a *App) Publish(ctx context.Context) error {
	if err := a.waitSession(ctx); err != nil {
		return err
	}
	if !a.isLoggedIn() {
		a.println("You need to log in first.")
		return nil
	}

	title, err := getSimpleText(a.reader, "Enter title", a.out)
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Enter content", a.out)
	if err != nil {
		return err
	}
	path, err := getSimpleText(a.reader, "Enter image path (optional)", a.out)
	if err != nil {
		return err
	}

	na := models.NewArticle{Title: title, Content: content}
	if path != "" {
		name, data, err := filex.ReadUpload(path)
		if err != nil {
			a.println("Error reading image:", err)
			return err
		}
		na.Image = &models.Upload{FileName: name, Content: data}
	}

	res, err := a.articles.Publish(ctx, na)
	if err != nil {
		a.println("Publishing failed:", userMessage(err))
		return err
	}
	a.printf("%s (id %d)\n", orDefault(res.Message, "Article published"), res.ArticleID)
	return nil
}

func authorName(art *models.Article) string {
	return orDefault(strings.TrimSpace(art.AuthorName), unknownAuthor)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
