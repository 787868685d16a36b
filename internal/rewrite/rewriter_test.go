package rewrite

import (
	"strings"
	"testing"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

const wikiBase = "https://wiki.test/"

func testPages() []*model.WikiPage {
	return []*model.WikiPage{
		{PageID: 1, Title: "Main Page", Path: "Main_Page.html"},
		{PageID: 42, Title: "Command/framed", Path: "Command/framed.html"},
		{PageID: 99, Title: "Commands", Path: "Commands.html"},
	}
}

func testResources() []*model.Resource {
	return []*model.Resource{
		{URL: "https://wiki.test/images/cow.png", Path: "resources/abcd1234-cow.png"},
	}
}

func rewriteOne(t *testing.T, page *model.WikiPage) string {
	t.Helper()

	rewriter, err := NewRewriter(wikiBase, testPages(), testResources())
	if err != nil {
		t.Fatalf("NewRewriter() error = %v", err)
	}
	if err := rewriter.RewritePage(page); err != nil {
		t.Fatalf("RewritePage() error = %v", err)
	}
	return string(page.HTML)
}

func TestRewriterPageLinks(t *testing.T) {
	t.Parallel()

	t.Run("rewrites pretty URLs to relative paths", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID:   1,
			Title:    "Main Page",
			Path:     "Main_Page.html",
			Rendered: []byte(`<p><a href="/Commands">commands</a></p>`),
		}

		got := rewriteOne(t, page)
		if !strings.Contains(got, `href="Commands.html"`) {
			t.Errorf("missing rewritten link:\n%s", got)
		}
	})

	t.Run("links from subpages climb out of their directory", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID:   42,
			Title:    "Command/framed",
			Path:     "Command/framed.html",
			Rendered: []byte(`<p><a href="/Main_Page">home</a></p>`),
		}

		got := rewriteOne(t, page)
		if !strings.Contains(got, `href="../Main_Page.html"`) {
			t.Errorf("missing ../ link:\n%s", got)
		}
	})

	t.Run("underscore and space titles resolve identically", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID: 1,
			Title:  "Main Page",
			Path:   "Main_Page.html",
			Rendered: []byte(`<p>
				<a href="/Command/framed">one</a>
				<a href="https://wiki.test/index.php?title=Command/framed">two</a>
				<a href="https://wiki.test/index.php?curid=42">three</a>
			</p>`),
		}

		got := rewriteOne(t, page)
		if strings.Count(got, `href="Command/framed.html"`) != 3 {
			t.Errorf("expected 3 identical rewritten links:\n%s", got)
		}
	})

	t.Run("preserves fragments", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID:   1,
			Title:    "Main Page",
			Path:     "Main_Page.html",
			Rendered: []byte(`<p><a href="/Commands#Setup">setup</a></p>`),
		}

		got := rewriteOne(t, page)
		if !strings.Contains(got, `href="Commands.html#Setup"`) {
			t.Errorf("fragment lost:\n%s", got)
		}
	})

	t.Run("leaves external links untouched", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID:   1,
			Title:    "Main Page",
			Path:     "Main_Page.html",
			Rendered: []byte(`<p><a href="https://www.pragma-ade.com/">pragma</a></p>`),
		}

		got := rewriteOne(t, page)
		if !strings.Contains(got, `href="https://www.pragma-ade.com/"`) {
			t.Errorf("external link mangled:\n%s", got)
		}
	})

	t.Run("strips the host from unresolvable internal links", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID:   1,
			Title:    "Main Page",
			Path:     "Main_Page.html",
			Rendered: []byte(`<p><a href="https://wiki.test/Special:RecentChanges">recent</a></p>`),
		}

		got := rewriteOne(t, page)
		if strings.Contains(got, "wiki.test") {
			t.Errorf("output still references the wiki host:\n%s", got)
		}
	})
}

func TestRewriterResources(t *testing.T) {
	t.Parallel()

	t.Run("rewrites mirrored images", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID:   1,
			Title:    "Main Page",
			Path:     "Main_Page.html",
			Rendered: []byte(`<img src="/images/cow.png">`),
		}

		got := rewriteOne(t, page)
		if !strings.Contains(got, `src="resources/abcd1234-cow.png"`) {
			t.Errorf("image not rewritten:\n%s", got)
		}
	})

	t.Run("rewrites srcset candidates", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID:   1,
			Title:    "Main Page",
			Path:     "Main_Page.html",
			Rendered: []byte(`<img src="/images/cow.png" srcset="/images/cow.png 1x, /images/far.png 2x">`),
		}

		got := rewriteOne(t, page)
		if !strings.Contains(got, "resources/abcd1234-cow.png 1x") {
			t.Errorf("srcset candidate not rewritten:\n%s", got)
		}
		// far.png was not mirrored, so its candidate stays as-is
		if !strings.Contains(got, "/images/far.png 2x") {
			t.Errorf("unmirrored srcset candidate mangled:\n%s", got)
		}
	})

	t.Run("resources from subpages use relative paths", func(t *testing.T) {
		t.Parallel()

		page := &model.WikiPage{
			PageID:   42,
			Title:    "Command/framed",
			Path:     "Command/framed.html",
			Rendered: []byte(`<img src="/images/cow.png">`),
		}

		got := rewriteOne(t, page)
		if !strings.Contains(got, `src="../resources/abcd1234-cow.png"`) {
			t.Errorf("subpage resource path wrong:\n%s", got)
		}
	})
}

func TestRewriterDocument(t *testing.T) {
	t.Parallel()

	page := &model.WikiPage{
		PageID:   1,
		Title:    "What is <ConTeXt>?",
		Path:     "What_is_%3CConTeXt%3E%3F.html",
		Rendered: []byte(`<p>body text</p>`),
	}

	got := rewriteOne(t, page)

	for _, want := range []string{
		"<!DOCTYPE html>",
		`<meta charset="utf-8">`,
		"<title>What is &lt;ConTeXt&gt;?</title>",
		"<p>body text</p>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("document missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "<title>What is <ConTeXt>") {
		t.Errorf("title not escaped:\n%s", got)
	}
}

func TestRelativePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fromDir string
		target  string
		want    string
	}{
		{name: "root to root", fromDir: "", target: "Commands.html", want: "Commands.html"},
		{name: "root to subdir", fromDir: "", target: "Command/framed.html", want: "Command/framed.html"},
		{name: "subdir to root", fromDir: "Command", target: "Main_Page.html", want: "../Main_Page.html"},
		{name: "sibling in same dir", fromDir: "Command", target: "Command/other.html", want: "other.html"},
		{
			name:    "deep to other branch",
			fromDir: "Reference/Luatex",
			target:  "Command/framed.html",
			want:    "../../Command/framed.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := relativePath(tt.fromDir, tt.target); got != tt.want {
				t.Errorf("relativePath(%q, %q) = %q, want %q", tt.fromDir, tt.target, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    string
		b    string
	}{
		{name: "underscores equal spaces", a: "Main_Page", b: "Main Page"},
		{name: "first letter case folds", a: "commands", b: "Commands"},
		{name: "surrounding space trimmed", a: " Commands ", b: "Commands"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if normalizeTitle(tt.a) != normalizeTitle(tt.b) {
				t.Errorf("normalizeTitle(%q) = %q, normalizeTitle(%q) = %q; want equal",
					tt.a, normalizeTitle(tt.a), tt.b, normalizeTitle(tt.b))
			}
		})
	}
}
