package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Credentials holds the wiki account used for authenticated mirroring.
// Anonymous mirroring works for public wikis; logging in raises API limits
// (aplimit=max returns 5000 rows instead of 500 for bot accounts) and is
// required for wikis that restrict the render action.
type Credentials struct {
	// Username is the MediaWiki username, typically a bot password name
	// in "User@botname" form.
	Username string `toml:"username"`

	// Password is the account or bot password.
	Password string `toml:"password"`
}

// Credential loading errors.
var (
	// ErrCredentialsNotFound is returned when the credentials file does
	// not exist.
	ErrCredentialsNotFound = errors.New("credentials file not found")

	// ErrIncompleteCredentials is returned when the credentials file is
	// missing a username or password.
	ErrIncompleteCredentials = errors.New("credentials file is missing a username or password")
)

// LoadCredentials reads wiki credentials from a TOML file.
//
// The file format matches the original mirror tooling:
//
//	username = "User@botname"
//	password = "secret"
//
// Design decision: Credentials live in their own TOML file rather than the
// YAML config because the config file is meant to be committed while the
// credentials file never is. Keeping them in separate files makes the safe
// thing the easy thing.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided credentials path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}

	var creds Credentials
	if err := toml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	if creds.Username == "" || creds.Password == "" {
		return nil, ErrIncompleteCredentials
	}

	return &creds, nil
}

// AssertUser returns the username portion used for the MediaWiki
// assertuser API parameter. Bot passwords use "User@botname" form; the
// API asserts on the bare user name before the "@".
func (c *Credentials) AssertUser() string {
	user, _, _ := strings.Cut(c.Username, "@")
	return user
}
