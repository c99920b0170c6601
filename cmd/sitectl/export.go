package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/dgallion1/weddingsite/internal/page"
	"github.com/dgallion1/weddingsite/web"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render every page to static HTML",
	Long: `export renders each page document with the same templates the server
uses and writes <out>/<slug>/index.html (the home page to <out>/index.html),
plus a 404.html and the static assets.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := content.LoadDir(cfg.ContentDir)
		if err != nil {
			return err
		}
		tmpl, registry, err := newRegistry()
		if err != nil {
			return err
		}
		composer := page.NewComposer(tmpl, registry, page.Site{Name: cfg.SiteName, URL: cfg.SiteURL}, log)
		nav := store.NavPages()

		for _, doc := range store.Pages() {
			var buf bytes.Buffer
			if err := composer.Render(&buf, doc, nav); err != nil {
				return fmt.Errorf("render %s: %w", doc.Slug, err)
			}
			if title := pageTitle(buf.Bytes()); title == "" {
				log.Warn("page has no title", "slug", doc.Slug)
			}
			if err := writeFile(filepath.Join(exportOut, exportPath(doc)), buf.Bytes()); err != nil {
				return err
			}
		}

		var buf bytes.Buffer
		if err := composer.RenderNotFound(&buf, nav); err != nil {
			return fmt.Errorf("render 404: %w", err)
		}
		if err := writeFile(filepath.Join(exportOut, "404.html"), buf.Bytes()); err != nil {
			return err
		}
		if err := copyFS(filepath.Join(exportOut, "static"), web.Static()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d page(s) to %s\n", store.Len(), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "public", "output directory")
}

func exportPath(doc content.PageDocument) string {
	if doc.Slug == content.DefaultSlug {
		return "index.html"
	}
	return filepath.Join(filepath.FromSlash(doc.Slug), "index.html")
}

// pageTitle returns the text of the first <title> element.
func pageTitle(b []byte) string {
	z := html.NewTokenizer(bytes.NewReader(b))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			if name, _ := z.TagName(); string(name) == "title" {
				if z.Next() == html.TextToken {
					return string(bytes.TrimSpace(z.Text()))
				}
				return ""
			}
		}
	}
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func copyFS(dst string, src fs.FS) error {
	return fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(src, path)
		if err != nil {
			return err
		}
		return writeFile(filepath.Join(dst, filepath.FromSlash(path)), data)
	})
}
