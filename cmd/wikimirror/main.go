// Package main provides the entry point for the wikimirror CLI.
//
// wikimirror maintains a static mirror of a MediaWiki installation.
// It enumerates every page through the MediaWiki API, downloads the
// rendered HTML, rewrites it into a self-contained static tree, and
// commits the result to a dedicated git branch.
//
// Usage:
//
//	wikimirror mirror
//	wikimirror mirror https://wiki.example.org/ --push
//
// See --help for all available options.
package main

// main is the entry point for wikimirror.
func main() {
	Execute()
}
