package mediawiki

import "errors"

// Client errors.
// These errors are returned by Client methods and can be tested with
// errors.Is(). Errors wrapping them carry the dynamic detail (HTTP status,
// login result string).
var (
	// ErrInvalidBaseURL is returned when the wiki base URL does not parse
	// or is not absolute.
	ErrInvalidBaseURL = errors.New("invalid wiki base URL")

	// ErrNoCredentials is returned by Login when the client was created
	// without credentials.
	ErrNoCredentials = errors.New("no credentials configured")

	// ErrEmptyLoginToken is returned when the token query succeeds but
	// yields an empty login token.
	ErrEmptyLoginToken = errors.New("wiki returned an empty login token")

	// ErrLoginFailed is returned when the login action reports any result
	// other than Success.
	ErrLoginFailed = errors.New("wiki login failed")

	// ErrNoSessionCookie is returned when login reports Success but no
	// session cookie was set. This indicates a broken or hostile upstream;
	// continuing would silently mirror as an anonymous user.
	ErrNoSessionCookie = errors.New("login succeeded but no session cookie was set")

	// ErrBadStatus is returned when the upstream responds with a non-2xx
	// HTTP status.
	ErrBadStatus = errors.New("unexpected HTTP status from wiki")
)
