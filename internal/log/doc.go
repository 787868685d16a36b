// Package log provides structured logging with credential sanitization.
//
// wikimirror logs request parameters and HTTP headers at debug level, and
// authenticated runs carry a wiki password and a MediaWiki session cookie
// through both. The SecureHandler wraps any slog.Handler and masks
// attribute values that look like credentials before they reach the
// underlying handler, so enabling --verbose never leaks the bot password
// into terminal scrollback or CI logs.
//
// Design decision: We sanitize at the handler level rather than at each
// call site because:
//  1. Call-site discipline fails exactly once and that once is enough
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Third-party code using the default logger is covered too
package log
