// Package model defines the core data structures used throughout wikimirror.
//
// This package contains the following main types:
//   - WikiPage: Represents a wiki page fetched from the upstream MediaWiki
//   - Resource: Represents a downloaded page resource (image, stylesheet, ...)
//   - MirrorReport: The result of a full mirror run
//   - Summary: A condensed, human-readable view of a mirror run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (mediawiki, crawler, site, report) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
