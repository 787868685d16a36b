package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandlerMasksSensitiveKeys verifies that attributes with
// credential-bearing key names never reach the output.
func TestSecureHandlerMasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "lgpassword", key: "lgpassword", value: "hunter2"},
		{name: "lgtoken", key: "lgtoken", value: "abc123+\\"},
		{name: "login token", key: "logintoken", value: "deadbeef"},
		{name: "cookie header", key: "cookie", value: "ctxwiki_session=0123456789abcdef"},
		{name: "set-cookie header", key: "set-cookie", value: "ctxwiki_session=fedcba"},
		{name: "authorization header", key: "authorization", value: "Basic dXNlcjpwYXNz"},
		{name: "password", key: "password", value: "hunter2"},
		{name: "mixed case key", key: "LgPassword", value: "hunter2"},
		{name: "keyword substring", key: "wiki_password", value: "hunter2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("login", tt.key, tt.value)

			output := buf.String()
			if strings.Contains(output, tt.value) {
				t.Errorf("output contains sensitive value %q: %s", tt.value, output)
			}
			if !strings.Contains(output, MaskValue) {
				t.Errorf("output missing mask value: %s", output)
			}
		})
	}
}

// TestSecureHandlerMasksSensitiveValues verifies value-pattern matching
// for keys that are themselves harmless.
func TestSecureHandlerMasksSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "bearer token", value: "Bearer eyJzb21l.dG9rZW4"},
		{name: "basic auth", value: "Basic dXNlcjpwYXNz"},
		{name: "session cookie value", value: "contextgarden_session=0a1b2c3d4e5f"},
		{name: "bot password paste", value: "Mirror@bot:abcdef0123456789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

			logger.Info("request", "header", tt.value)

			output := buf.String()
			if strings.Contains(output, tt.value) {
				t.Errorf("output contains sensitive value %q: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandlerPassesBenignAttributes verifies that ordinary mirror
// attributes are not mangled.
func TestSecureHandlerPassesBenignAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("fetched page",
		"title", "Main Page",
		"url", "https://wiki.contextgarden.net/index.php?curid=1",
		"pages", 4021,
	)

	output := buf.String()
	for _, want := range []string{"Main Page", "curid=1", "4021"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing benign attribute %q: %s", want, output)
		}
	}
	if strings.Contains(output, MaskValue) {
		t.Errorf("benign attributes were masked: %s", output)
	}
}

// TestSecureHandlerSanitizesGroups verifies recursive sanitization of
// grouped attributes.
func TestSecureHandlerSanitizesGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("login",
		slog.Group("request",
			slog.String("lgname", "Mirror"),
			slog.String("lgpassword", "hunter2"),
		),
	)

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("grouped sensitive value leaked: %s", output)
	}
	if !strings.Contains(output, "Mirror") {
		t.Errorf("grouped benign value missing: %s", output)
	}
}

// TestSecureHandlerWithAttrs verifies sanitization of handler-level attributes.
func TestSecureHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(NewSecureHandler(slog.NewTextHandler(&buf, nil)))
	logger := base.With("password", "hunter2", "wiki", "wiki.contextgarden.net")

	logger.Info("run started")

	output := buf.String()
	if strings.Contains(output, "hunter2") {
		t.Errorf("WithAttrs leaked sensitive value: %s", output)
	}
	if !strings.Contains(output, "wiki.contextgarden.net") {
		t.Errorf("WithAttrs dropped benign value: %s", output)
	}
}

// TestNewSecureLogger verifies level selection by verbosity.
func TestNewSecureLogger(t *testing.T) {
	t.Parallel()

	t.Run("verbose logger emits debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)

		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Error("expected debug output in verbose mode")
		}
	})

	t.Run("quiet logger suppresses info", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)

		logger.Info("info message")
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %s", buf.String())
		}
	})

	t.Run("JSON logger masks values", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := NewSecureJSONLogger(&buf, true)

		logger.Info("login", "lgpassword", "hunter2")
		if strings.Contains(buf.String(), "hunter2") {
			t.Errorf("JSON logger leaked sensitive value: %s", buf.String())
		}
	})
}
