package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadConfigFile verifies YAML config loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid YAML returns an error", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".wikimirror")
		if err := os.WriteFile(path, []byte("wikis: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected an error for invalid YAML")
		}
	})

	t.Run("empty file yields initialized Wikis map", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".wikimirror")
		if err := os.WriteFile(path, []byte(""), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Wikis == nil {
			t.Error("expected Wikis map to be initialized")
		}
	})

	t.Run("loads wiki sections and defaults", func(t *testing.T) {
		t.Parallel()
		content := `
defaults:
  ignorePatterns:
    - "/images/thumb/*"
wikis:
  wiki.contextgarden.net:
    entryPage: "Main Page"
    maxPages: 5000
    headers:
      X-Mirror: "wikimirror"
`
		path := filepath.Join(t.TempDir(), ".wikimirror")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wc, ok := cf.Wikis["wiki.contextgarden.net"]
		if !ok {
			t.Fatal("expected wiki section for wiki.contextgarden.net")
		}
		if wc.EntryPage != "Main Page" {
			t.Errorf("unexpected entry page: %q", wc.EntryPage)
		}
		if wc.MaxPages != 5000 {
			t.Errorf("unexpected max pages: %d", wc.MaxPages)
		}
		if wc.Headers["X-Mirror"] != "wikimirror" {
			t.Errorf("unexpected headers: %v", wc.Headers)
		}
		if len(cf.Defaults.IgnorePatterns) != 1 {
			t.Errorf("unexpected defaults: %v", cf.Defaults)
		}
	})
}

// TestFindConfigFile verifies config file discovery precedence.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte(""), 0600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

// TestGetWikiConfig verifies merging of defaults with per-wiki overrides.
func TestGetWikiConfig(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: WikiConfig{
			EntryPage:      "Main Page",
			IgnorePatterns: []string{"/images/thumb/*"},
		},
		Wikis: map[string]WikiConfig{
			"wiki.contextgarden.net": {
				MaxPages: 5000,
				Headers:  map[string]string{"X-Mirror": "wikimirror"},
			},
		},
	}

	t.Run("known host merges defaults and overrides", func(t *testing.T) {
		t.Parallel()
		wc := cf.GetWikiConfig("wiki.contextgarden.net")
		if wc.EntryPage != "Main Page" {
			t.Errorf("expected default entry page, got %q", wc.EntryPage)
		}
		if wc.MaxPages != 5000 {
			t.Errorf("expected override max pages, got %d", wc.MaxPages)
		}
		if len(wc.IgnorePatterns) != 1 {
			t.Errorf("expected default ignore patterns, got %v", wc.IgnorePatterns)
		}
	})

	t.Run("unknown host returns defaults", func(t *testing.T) {
		t.Parallel()
		wc := cf.GetWikiConfig("wiki.example.org")
		if wc.EntryPage != "Main Page" || wc.MaxPages != 0 {
			t.Errorf("expected bare defaults, got %+v", wc)
		}
	})
}
