package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts links and resource references from rendered wiki HTML.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles the malformed HTML wikis accumulate over decades
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative URLs.
	baseURL *url.URL

	// wikiHost is the host of the wiki being mirrored. Links to any other
	// host are external, and resources on other hosts are never collected.
	wikiHost string
}

// ParseResult contains everything extracted from a rendered page.
//
// Design decision: We return a comprehensive result struct rather than
// multiple methods because:
//  1. Single parsing pass is more efficient
//  2. Related data can be collected together
//  3. Caller can choose what to use
type ParseResult struct {
	// PageLinks are links to other pages on the wiki host, resolved to
	// absolute URLs.
	PageLinks []string

	// ExternalLinks are links leaving the wiki host. The mirror keeps
	// these as-is; they are reported but never fetched.
	ExternalLinks []string

	// Resources are images, stylesheets, and media on the wiki host.
	// Off-host resources are deliberately dropped so the mirror never
	// requests anything outside the wiki.
	Resources []string
}

// NewParser creates a parser for a page at pageURL.
// Relative links are resolved against pageURL; the wiki host is taken
// from it.
func NewParser(pageURL string) (*Parser, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u, wikiHost: u.Host}, nil
}

// Parse parses HTML content and extracts links and resource references.
// The input may be a full document or a body fragment, as produced by the
// MediaWiki render action.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		PageLinks:     make([]string, 0),
		ExternalLinks: make([]string, 0),
		Resources:     make([]string, 0),
	}
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result, seen)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement handles a single HTML element node.
func (p *Parser) processElement(n *html.Node, result *ParseResult, seen map[string]bool) {
	switch n.Data {
	case "a":
		if href := getAttr(n, "href"); href != "" {
			p.classifyLink(p.resolveURL(href), result, seen)
		}

	case "img":
		p.addResource(p.resolveURL(getAttr(n, "src")), result, seen)
		for _, candidate := range parseSrcset(getAttr(n, "srcset")) {
			p.addResource(p.resolveURL(candidate), result, seen)
		}

	case "source":
		// <picture>/<video> sources
		p.addResource(p.resolveURL(getAttr(n, "src")), result, seen)
		for _, candidate := range parseSrcset(getAttr(n, "srcset")) {
			p.addResource(p.resolveURL(candidate), result, seen)
		}

	case "link":
		rel := strings.ToLower(getAttr(n, "rel"))
		if rel == "stylesheet" || rel == "icon" || rel == "shortcut icon" {
			p.addResource(p.resolveURL(getAttr(n, "href")), result, seen)
		}
	}
}

// resolveURL resolves a relative URL against the page URL.
//
// Design decision: We resolve URLs rather than storing them as-is because:
//  1. Makes deduplication easier
//  2. Allows proper host classification
//  3. Reduces ambiguity in results
func (p *Parser) resolveURL(href string) string {
	if href == "" {
		return ""
	}

	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	return p.baseURL.ResolveReference(u).String()
}

// classifyLink categorizes an anchor link as a wiki page link or external.
// Fragment-only links within the current page are skipped.
func (p *Parser) classifyLink(link string, result *ParseResult, seen map[string]bool) {
	if link == "" || seen["a:"+link] {
		return
	}
	seen["a:"+link] = true

	u, err := url.Parse(link)
	if err != nil {
		return
	}

	if strings.EqualFold(u.Host, p.wikiHost) {
		result.PageLinks = append(result.PageLinks, link)
	} else if u.Host != "" {
		result.ExternalLinks = append(result.ExternalLinks, link)
	}
}

// addResource records a resource URL if it lives on the wiki host.
// Off-host resources are dropped: the mirror must be buildable without
// talking to any third-party server.
func (p *Parser) addResource(link string, result *ParseResult, seen map[string]bool) {
	if link == "" || seen["r:"+link] {
		return
	}
	seen["r:"+link] = true

	u, err := url.Parse(link)
	if err != nil {
		return
	}

	if strings.EqualFold(u.Host, p.wikiHost) {
		result.Resources = append(result.Resources, link)
	}
}

// parseSrcset extracts candidate URLs from a srcset attribute value.
// Each comma-separated candidate is "URL [descriptor]".
func parseSrcset(srcset string) []string {
	if srcset == "" {
		return nil
	}

	candidates := make([]string, 0)
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 {
			candidates = append(candidates, fields[0])
		}
	}

	return candidates
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
