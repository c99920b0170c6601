package main

import (
	"fmt"
	"html/template"

	"github.com/dgallion1/weddingsite/internal/cmsconfig"
	"github.com/dgallion1/weddingsite/internal/content"
	"github.com/dgallion1/weddingsite/internal/section"
	"github.com/dgallion1/weddingsite/web"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check page documents and the CMS configuration",
	Long: `validate loads every page document, checks each section against its
registered type and checks the CMS configuration against the repository.
It exits non-zero when any problem is found.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		store, err := content.LoadDir(cfg.ContentDir)
		if err != nil {
			return err
		}
		_, registry, err := newRegistry()
		if err != nil {
			return err
		}

		problems := 0
		for _, f := range registry.Audit(store.Pages()) {
			fmt.Fprintln(out, f)
			problems++
		}
		if _, err := store.Resolve(content.DefaultSlug); err != nil {
			fmt.Fprintf(out, "no %q page: the site root will be a 404\n", content.DefaultSlug)
			problems++
		}

		cms, err := cmsconfig.Load(cfg.CMSConfigPath)
		if err != nil {
			fmt.Fprintln(out, err)
			problems++
		} else {
			for _, p := range cms.Check(".", cfg.GitHubRepo) {
				fmt.Fprintf(out, "%s: %s\n", cfg.CMSConfigPath, p)
				problems++
			}
		}

		if problems > 0 {
			return fmt.Errorf("%d problem(s) found in %d page(s)", problems, store.Len())
		}
		fmt.Fprintf(out, "%d page(s) OK\n", store.Len())
		return nil
	},
}

func newRegistry() (*template.Template, *section.Registry, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, nil, err
	}
	registry, err := section.NewRegistry(tmpl, log)
	if err != nil {
		return nil, nil, err
	}
	return tmpl, registry, nil
}
