package site

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

// Writer writes the mirror tree under a single output directory.
// It is safe for concurrent use; the pipeline writes pages and resources
// from multiple workers.
type Writer struct {
	// outputDir is the root of the generated tree.
	outputDir string

	// logger for structured logging.
	logger *slog.Logger

	// mu protects the counters.
	mu           sync.Mutex
	filesWritten int
	bytesWritten int64
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithWriterLogger sets a custom logger.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer rooted at outputDir.
func NewWriter(outputDir string, opts ...WriterOption) *Writer {
	w := &Writer{
		outputDir: outputDir,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WritePage writes a page's rewritten HTML to its mapped path.
func (w *Writer) WritePage(page *model.WikiPage) error {
	if page.Path == "" {
		return fmt.Errorf("page %q has no path", page.Title)
	}
	return w.writeFile(page.Path, page.HTML)
}

// WriteResource writes a downloaded resource to its mapped path.
func (w *Writer) WriteResource(resource *model.Resource) error {
	if resource.Path == "" {
		return fmt.Errorf("resource %q has no path", resource.URL)
	}
	return w.writeFile(resource.Path, resource.Data)
}

// WriteIndex writes an index.html that redirects to the entry page.
// The redirect is a plain meta refresh with a fallback link, so it works
// from a git checkout opened in a browser with no server at all.
func (w *Writer) WriteIndex(entryTitle string) error {
	target := PagePath(entryTitle)
	html := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0; url=%s">
<title>%s</title>
</head>
<body>
<p><a href="%s">%s</a></p>
</body>
</html>
`, target, entryTitle, target, entryTitle)

	return w.writeFile("index.html", []byte(html))
}

// sitemapURLSet is the XML shape of sitemap.xml.
type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

// WriteSitemap writes a sitemap.xml listing every page path.
// Locations are root-relative: the mirror does not know where it will be
// served from, and absolute upstream URLs would defeat self-containment.
func (w *Writer) WriteSitemap(pages []*model.WikiPage) error {
	urls := make([]sitemapURL, 0, len(pages))
	for _, page := range pages {
		if page.Path == "" {
			continue
		}
		urls = append(urls, sitemapURL{Loc: "/" + page.Path})
	}
	sort.Slice(urls, func(i, j int) bool { return urls[i].Loc < urls[j].Loc })

	set := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sitemap: %w", err)
	}

	return w.writeFile("sitemap.xml", append([]byte(xml.Header), append(data, '\n')...))
}

// Stats returns the number of files and bytes written so far.
func (w *Writer) Stats() (files int, bytes int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filesWritten, w.bytesWritten
}

// writeFile writes data to relPath under the output directory.
// Writes are atomic per file: a temp file in the target directory is
// renamed into place, so readers (and an interrupted run) never observe
// a half-written file.
func (w *Writer) writeFile(relPath string, data []byte) error {
	target := filepath.Join(w.outputDir, filepath.FromSlash(relPath))

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".wikimirror-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", relPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", relPath, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename into %s: %w", relPath, err)
	}

	w.mu.Lock()
	w.filesWritten++
	w.bytesWritten += int64(len(data))
	w.mu.Unlock()

	w.logger.Debug("wrote file", "path", relPath, "bytes", len(data))

	return nil
}
