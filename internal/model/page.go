package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxPageSize is the maximum size of rendered page content to keep in memory.
// Larger pages are truncated to this size before hashing and writing.
const MaxPageSize = 10 * 1024 * 1024 // 10 MB

// WikiPage represents a single wiki page as it moves through a mirror run:
// enumerated from the MediaWiki API, fetched as rendered HTML, rewritten for
// static serving, and finally written into the mirror tree.
//
// Design decision: We keep both the rendered upstream HTML and the rewritten
// HTML because:
// 1. The rendered bytes are what the content hash is computed over, so
//    change detection is independent of rewriter behavior
// 2. The rewritten bytes are what the site writer persists
// 3. Holding both lets the rewrite step be retried without refetching
type WikiPage struct {
	// PageID is the MediaWiki page identifier (curid).
	PageID int64 `json:"page_id"`

	// Namespace is the MediaWiki namespace number. The main namespace is 0.
	Namespace int `json:"namespace"`

	// Title is the canonical page title as reported by the API,
	// e.g. "Main Page" or "Command/framed".
	Title string `json:"title"`

	// Path is the relative path of the page inside the mirror tree,
	// e.g. "Command/framed.html". Set by the site path mapper.
	Path string `json:"path,omitempty"`

	// URL is the upstream URL the rendered HTML was fetched from.
	URL string `json:"url,omitempty"`

	// Rendered contains the rendered HTML fragment returned by the
	// MediaWiki render action. Excluded from JSON to keep reports small.
	Rendered []byte `json:"-"`

	// HTML contains the rewritten, self-contained document written to the
	// mirror tree. Excluded from JSON to keep reports small.
	HTML []byte `json:"-"`

	// Hash is the SHA-256 hash of the rendered content.
	// Used for incremental change detection between runs.
	Hash string `json:"hash,omitempty"`

	// Changed reports whether the rendered content differs from the hash
	// recorded in the state database during the previous run.
	Changed bool `json:"changed"`

	// FetchedAt is when the rendered HTML was retrieved.
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// ComputeHash calculates and sets the SHA-256 hash of the rendered content.
// This should be called after setting the Rendered field.
func (p *WikiPage) ComputeHash() {
	if len(p.Rendered) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Rendered)
	p.Hash = hex.EncodeToString(hash[:])
}

// TruncateRendered ensures the rendered content doesn't exceed MaxPageSize.
// Call this after setting Rendered to enforce the size limit.
func (p *WikiPage) TruncateRendered() {
	if len(p.Rendered) > MaxPageSize {
		p.Rendered = p.Rendered[:MaxPageSize]
	}
}

// Resource represents a downloaded page resource such as an image,
// stylesheet, or favicon referenced by one or more mirrored pages.
type Resource struct {
	// URL is the absolute upstream URL the resource was fetched from.
	URL string `json:"url"`

	// Path is the relative path of the resource inside the mirror tree,
	// e.g. "resources/3f2a9c1b-logo.png".
	Path string `json:"path"`

	// ContentType is the MIME type reported by the upstream server.
	ContentType string `json:"content_type,omitempty"`

	// Data contains the raw resource bytes. Excluded from JSON.
	Data []byte `json:"-"`

	// Hash is the SHA-256 hash of the resource bytes.
	Hash string `json:"hash,omitempty"`

	// Size is the resource size in bytes.
	Size int64 `json:"size"`
}

// ComputeHash calculates and sets the SHA-256 hash and size of the resource.
func (r *Resource) ComputeHash() {
	if len(r.Data) == 0 {
		r.Hash = ""
		r.Size = 0
		return
	}

	hash := sha256.Sum256(r.Data)
	r.Hash = hex.EncodeToString(hash[:])
	r.Size = int64(len(r.Data))
}
