package cmsconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `backend:
  name: github
  repo: ana/wedding
  branch: main
media_folder: site/static/uploads
public_folder: /uploads
collections:
  - name: pages
    label: Pages
    folder: site/content/pages
    extension: json
    format: json
  - name: settings
    label: Settings
    files:
      - name: site
        file: site/content/site.json
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.Name != "github" || cfg.Backend.Repo != "ana/wedding" {
		t.Errorf("unexpected backend %+v", cfg.Backend)
	}
	if len(cfg.Collections) != 2 || cfg.Collections[0].Folder != "site/content/pages" {
		t.Errorf("unexpected collections %+v", cfg.Collections)
	}
	if string(cfg.Raw) != sample {
		t.Error("expected raw bytes kept verbatim")
	}
	if _, err := Parse([]byte("backend: [unclosed")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestCheck(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "site/content/pages"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}

	problems := cfg.Check(root, "ana/wedding")
	if len(problems) != 1 || !strings.Contains(problems[0], "site/content/site.json") {
		t.Fatalf("expected only the missing settings file, got %v", problems)
	}

	if err := os.WriteFile(filepath.Join(root, "site/content/site.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if problems := cfg.Check(root, "ana/wedding"); len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
	if problems := cfg.Check(root, "sam/other"); len(problems) != 1 {
		t.Errorf("expected repo mismatch, got %v", problems)
	}

	cfg.Backend.Name = "git-gateway"
	if problems := cfg.Check(root, ""); len(problems) != 1 || !strings.Contains(problems[0], "backend.name") {
		t.Errorf("expected backend problem, got %v", problems)
	}
}
