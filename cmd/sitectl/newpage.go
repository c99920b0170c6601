package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var newPageNav bool

var newPageCmd = &cobra.Command{
	Use:   "new-page <title>",
	Short: "Scaffold a page document",
	Long: `new-page writes a page document named after the title's slug with a
hero and a rich text section. Existing files are never overwritten.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := scaffold(strings.Join(args, " "), newPageNav)
		if err != nil {
			return err
		}
		path := filepath.Join(cfg.ContentDir, doc.Slug+".json")
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists", path)
		}
		if err != nil {
			return err
		}
		if _, err := f.Write(append(b, '\n')); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (served at %s)\n", path, doc.Path())
		return nil
	},
}

func init() {
	newPageCmd.Flags().BoolVar(&newPageNav, "nav", false, "link the page from the header")
}

func scaffold(title string, nav bool) (content.PageDocument, error) {
	title = cases.Title(language.English).String(strings.TrimSpace(title))
	slug := content.Slugify(title)
	if slug == "" {
		return content.PageDocument{}, fmt.Errorf("title %q has no usable characters for a slug", title)
	}
	hero, _ := json.Marshal(map[string]string{"heading": title})
	body, _ := json.Marshal(map[string]string{"body": "Write something about " + title + " here."})
	return content.PageDocument{
		Slug:  slug,
		Title: title,
		Nav:   nav,
		SEO:   content.SEO{MetaTitle: title},
		Sections: []content.SectionRecord{
			{Type: "hero", Content: hero},
			{Type: "richText", Content: body},
		},
	}, nil
}
