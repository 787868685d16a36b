// Package site maps wiki pages onto a static file tree and writes it.
//
// The mapping is deliberately boring: one HTML file per page, named after
// the title, with subpages as directories and resources under resources/.
// A served mirror and a checked-out mirror must look identical, so every
// path decision lives here and nowhere else.
package site
