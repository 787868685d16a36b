package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestLoadCredentials verifies TOML credential parsing and validation.
func TestLoadCredentials(t *testing.T) {
	t.Parallel()

	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "credentials.toml")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("missing file returns ErrCredentialsNotFound", func(t *testing.T) {
		t.Parallel()
		_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrCredentialsNotFound) {
			t.Errorf("expected ErrCredentialsNotFound, got %v", err)
		}
	})

	t.Run("valid file loads both fields", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "username = \"Mirror@bot\"\npassword = \"hunter2\"\n")

		creds, err := LoadCredentials(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if creds.Username != "Mirror@bot" || creds.Password != "hunter2" {
			t.Errorf("unexpected credentials: %+v", creds)
		}
	})

	t.Run("missing password returns ErrIncompleteCredentials", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "username = \"Mirror@bot\"\n")

		if _, err := LoadCredentials(path); !errors.Is(err, ErrIncompleteCredentials) {
			t.Errorf("expected ErrIncompleteCredentials, got %v", err)
		}
	})

	t.Run("missing username returns ErrIncompleteCredentials", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "password = \"hunter2\"\n")

		if _, err := LoadCredentials(path); !errors.Is(err, ErrIncompleteCredentials) {
			t.Errorf("expected ErrIncompleteCredentials, got %v", err)
		}
	})

	t.Run("invalid TOML returns an error", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "username = not quoted")

		if _, err := LoadCredentials(path); err == nil {
			t.Error("expected an error for invalid TOML")
		}
	})
}

// TestCredentialsAssertUser verifies bot-password username splitting.
func TestCredentialsAssertUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		want     string
	}{
		{name: "bot password form", username: "Mirror@bot", want: "Mirror"},
		{name: "plain username", username: "Mirror", want: "Mirror"},
		{name: "multiple at signs split on first", username: "a@b@c", want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			creds := &Credentials{Username: tt.username, Password: "x"}
			if got := creds.AssertUser(); got != tt.want {
				t.Errorf("AssertUser() = %q, want %q", got, tt.want)
			}
		})
	}
}
