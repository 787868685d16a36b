// Package rewrite turns rendered wiki fragments into self-contained
// static pages. Every link that pointed at the wiki host is rewritten to
// a relative path inside the mirror tree, so the output works from a git
// checkout, a file:// URL, or any static server.
package rewrite

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

// Rewriter rewrites rendered page HTML against a fixed set of mirrored
// pages and resources. Build one per run, after fetching, so every lookup
// table reflects what the mirror actually contains.
type Rewriter struct {
	// base is the wiki base URL; links on any other host are external
	// and left untouched.
	base *url.URL

	// titleToPath maps normalized titles to local page paths.
	titleToPath map[string]string

	// idToPath maps page IDs to local page paths, for curid links.
	idToPath map[int64]string

	// resourceToPath maps resource URLs to local resources/ paths.
	resourceToPath map[string]string
}

// NewRewriter creates a Rewriter for the given page and resource sets.
func NewRewriter(baseURL string, pages []*model.WikiPage, resources []*model.Resource) (*Rewriter, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid wiki base URL %q", baseURL)
	}

	r := &Rewriter{
		base:           base,
		titleToPath:    make(map[string]string, len(pages)),
		idToPath:       make(map[int64]string, len(pages)),
		resourceToPath: make(map[string]string, len(resources)),
	}

	for _, page := range pages {
		if page.Path == "" {
			continue
		}
		r.titleToPath[normalizeTitle(page.Title)] = page.Path
		r.idToPath[page.PageID] = page.Path
	}
	for _, resource := range resources {
		if resource.Path == "" {
			continue
		}
		r.resourceToPath[resource.URL] = resource.Path
	}

	return r, nil
}

// RewritePage rewrites page.Rendered into a standalone document and
// stores the result in page.HTML.
func (r *Rewriter) RewritePage(page *model.WikiPage) error {
	doc, err := html.Parse(bytes.NewReader(page.Rendered))
	if err != nil {
		return fmt.Errorf("failed to parse rendered HTML of %q: %w", page.Title, err)
	}

	fromDir := path.Dir(page.Path)
	if fromDir == "." {
		fromDir = ""
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			r.rewriteElement(n, fromDir)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	body := findBody(doc)
	if body == nil {
		return fmt.Errorf("no body in rendered HTML of %q", page.Title)
	}

	var content bytes.Buffer
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&content, c); err != nil {
			return fmt.Errorf("failed to render HTML of %q: %w", page.Title, err)
		}
	}

	page.HTML = wrapDocument(page.Title, content.Bytes())

	return nil
}

// rewriteElement rewrites the URL-bearing attributes of one element.
func (r *Rewriter) rewriteElement(n *html.Node, fromDir string) {
	switch n.Data {
	case "a":
		rewriteAttr(n, "href", func(val string) string {
			return r.rewriteLink(val, fromDir)
		})
	case "img", "source":
		rewriteAttr(n, "src", func(val string) string {
			return r.rewriteResource(val, fromDir)
		})
		rewriteAttr(n, "srcset", func(val string) string {
			return r.rewriteSrcset(val, fromDir)
		})
	case "link":
		rewriteAttr(n, "href", func(val string) string {
			return r.rewriteResource(val, fromDir)
		})
	}
}

// rewriteLink rewrites a single anchor href.
// External links pass through unchanged. Wiki-host links become relative
// paths into the mirror; links the mirror cannot resolve keep their path
// and query but lose the host, so nothing in the output names the
// upstream server.
func (r *Rewriter) rewriteLink(href, fromDir string) string {
	resolved := r.resolve(href)
	if resolved == nil {
		return href
	}
	if !strings.EqualFold(resolved.Host, r.base.Host) {
		return href
	}

	if target, ok := r.lookupPage(resolved); ok {
		return withFragment(relativePath(fromDir, target), resolved.Fragment)
	}

	// Unresolvable internal link (special page, redirect, missing page).
	// Keep it host-less rather than pointing back at the wiki.
	stripped := *resolved
	stripped.Scheme = ""
	stripped.Host = ""
	stripped.User = nil
	return stripped.String()
}

// lookupPage maps a wiki URL to a local page path.
// Handles both pretty URLs ("/Command/framed") and index.php links with
// title or curid query parameters.
func (r *Rewriter) lookupPage(u *url.URL) (string, bool) {
	if strings.HasSuffix(u.Path, "/index.php") {
		q := u.Query()
		if title := q.Get("title"); title != "" {
			p, ok := r.titleToPath[normalizeTitle(title)]
			return p, ok
		}
		if curid := q.Get("curid"); curid != "" {
			id, err := strconv.ParseInt(curid, 10, 64)
			if err != nil {
				return "", false
			}
			p, ok := r.idToPath[id]
			return p, ok
		}
		return "", false
	}

	title := strings.TrimPrefix(u.Path, "/")
	if title == "" {
		return "", false
	}
	p, ok := r.titleToPath[normalizeTitle(title)]
	return p, ok
}

// rewriteResource rewrites a resource reference to its local path, when
// the resource was actually mirrored.
func (r *Rewriter) rewriteResource(src, fromDir string) string {
	resolved := r.resolve(src)
	if resolved == nil {
		return src
	}

	if target, ok := r.resourceToPath[resolved.String()]; ok {
		return relativePath(fromDir, target)
	}

	return src
}

// rewriteSrcset rewrites every candidate URL in a srcset value.
func (r *Rewriter) rewriteSrcset(srcset, fromDir string) string {
	parts := strings.Split(srcset, ",")
	for i, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		fields[0] = r.rewriteResource(fields[0], fromDir)
		parts[i] = strings.Join(fields, " ")
	}
	return strings.Join(parts, ", ")
}

// resolve parses a reference and resolves it against the wiki base URL.
// Non-navigational schemes return nil.
func (r *Rewriter) resolve(ref string) *url.URL {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "#" ||
		strings.HasPrefix(ref, "javascript:") ||
		strings.HasPrefix(ref, "mailto:") ||
		strings.HasPrefix(ref, "tel:") ||
		strings.HasPrefix(ref, "data:") {
		return nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return nil
	}

	return r.base.ResolveReference(u)
}

// rewriteAttr applies fn to the named attribute if present and non-empty.
func rewriteAttr(n *html.Node, key string, fn func(string) string) {
	for i, attr := range n.Attr {
		if attr.Key == key && attr.Val != "" {
			n.Attr[i].Val = fn(attr.Val)
			return
		}
	}
}

// normalizeTitle produces a stable lookup key for a page title.
// MediaWiki treats spaces and underscores as equivalent, and the first
// letter of a title is case-insensitive.
func normalizeTitle(title string) string {
	title = norm.NFC.String(title)
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	runes := []rune(title)
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}

// relativePath computes the relative path from the directory fromDir to
// the file target, both slash-separated and relative to the tree root.
func relativePath(fromDir, target string) string {
	if fromDir == "" || fromDir == "." {
		return target
	}

	fromParts := strings.Split(fromDir, "/")
	targetParts := strings.Split(target, "/")

	common := 0
	for common < len(fromParts) && common < len(targetParts)-1 &&
		fromParts[common] == targetParts[common] {
		common++
	}

	var b strings.Builder
	for i := common; i < len(fromParts); i++ {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(targetParts[common:], "/"))

	return b.String()
}

// withFragment appends a URL fragment to a path, when present.
func withFragment(p, fragment string) string {
	if fragment == "" {
		return p
	}
	return p + "#" + fragment
}

// findBody locates the body element of a parsed document.
func findBody(doc *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return body
}

// wrapDocument wraps rewritten page content in a minimal standalone
// HTML document.
func wrapDocument(title string, content []byte) []byte {
	var b bytes.Buffer
	escaped := html.EscapeString(title)

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	b.WriteString("<title>" + escaped + "</title>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString("<h1>" + escaped + "</h1>\n")
	b.Write(content)
	b.WriteString("\n</body>\n</html>\n")

	return b.Bytes()
}
