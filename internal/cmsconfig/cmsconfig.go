// Package cmsconfig reads the editor's YAML configuration. The file is served
// to the browser as is; parsing here only checks it against the site.
package cmsconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Backend struct {
	Name         string `yaml:"name"`
	Repo         string `yaml:"repo"`
	Branch       string `yaml:"branch"`
	BaseURL      string `yaml:"base_url"`
	AuthEndpoint string `yaml:"auth_endpoint"`
}

type File struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

type Collection struct {
	Name      string `yaml:"name"`
	Label     string `yaml:"label"`
	Folder    string `yaml:"folder"`
	Extension string `yaml:"extension"`
	Format    string `yaml:"format"`
	Files     []File `yaml:"files"`
}

type Config struct {
	Backend      Backend      `yaml:"backend"`
	MediaFolder  string       `yaml:"media_folder"`
	PublicFolder string       `yaml:"public_folder"`
	Collections  []Collection `yaml:"collections"`

	// Raw is the file exactly as read.
	Raw []byte `yaml:"-"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cms config: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse cms config: %w", err)
	}
	cfg.Raw = raw
	return &cfg, nil
}

// Check reports problems relative to the repository root: the backend must be
// github, bound to repo when one is configured, and every folder or file a
// collection names must exist.
func (c *Config) Check(root, repo string) []string {
	var problems []string
	if c.Backend.Name != "github" {
		problems = append(problems, fmt.Sprintf("backend.name is %q, want \"github\"", c.Backend.Name))
	}
	if repo != "" && c.Backend.Repo != "" && c.Backend.Repo != repo {
		problems = append(problems, fmt.Sprintf("backend.repo %q does not match GITHUB_REPO %q", c.Backend.Repo, repo))
	}
	if len(c.Collections) == 0 {
		problems = append(problems, "no collections defined")
	}
	seen := make(map[string]bool)
	for i, col := range c.Collections {
		label := col.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			problems = append(problems, fmt.Sprintf("collection %s has no name", label))
		}
		if seen[col.Name] && col.Name != "" {
			problems = append(problems, fmt.Sprintf("collection %s defined twice", label))
		}
		seen[col.Name] = true

		switch {
		case col.Folder != "":
			if fi, err := os.Stat(filepath.Join(root, col.Folder)); err != nil || !fi.IsDir() {
				problems = append(problems, fmt.Sprintf("collection %s: folder %s not found", label, col.Folder))
			}
		case len(col.Files) > 0:
			for _, f := range col.Files {
				if _, err := os.Stat(filepath.Join(root, f.File)); err != nil {
					problems = append(problems, fmt.Sprintf("collection %s: file %s not found", label, f.File))
				}
			}
		default:
			problems = append(problems, fmt.Sprintf("collection %s has neither folder nor files", label))
		}
	}
	return problems
}
