package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.MirrorReport {
	report := model.NewMirrorReport("https://wiki.test/", "Main Page")
	report.Branch = "mirror"
	report.DateStarted = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	report.Duration = 95 * time.Second

	report.Pages = append(report.Pages,
		&model.WikiPage{PageID: 1, Title: "Main Page", Path: "Main_Page.html"},
		&model.WikiPage{PageID: 42, Title: "Commands", Path: "Commands.html"},
		&model.WikiPage{PageID: 7, Title: "Broken", Path: "Broken.html"},
	)
	report.PagesFetched = 2
	report.PagesUnchanged = 1
	report.AddFailure("fetch_pages", "https://wiki.test/index.php?curid=7", errors.New("404 Not Found"))

	report.ResourcesFetched = 3
	report.FilesWritten = 6
	report.BytesWritten = 4096

	report.Published = true
	report.CommitHash = "deadbeef"
	report.Pushed = true

	return report
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes report header", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "WIKI MIRROR REPORT") {
			t.Error("expected output to contain header")
		}
		if !strings.Contains(output, "https://wiki.test/") {
			t.Error("expected output to contain wiki URL")
		}
		if !strings.Contains(output, "Status:     Complete") {
			t.Errorf("expected complete status:\n%s", output)
		}
	})

	t.Run("writes counters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Pages listed:       3") {
			t.Errorf("expected listed count:\n%s", output)
		}
		if !strings.Contains(output, "Pages changed:      1") {
			t.Errorf("expected changed count:\n%s", output)
		}
		if !strings.Contains(output, "Pages failed:       1") {
			t.Errorf("expected failed count:\n%s", output)
		}
	})

	t.Run("writes failures with verbose detail", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[fetch_pages] https://wiki.test/index.php?curid=7") {
			t.Errorf("expected failure record:\n%s", output)
		}
		if !strings.Contains(output, "404 Not Found") {
			t.Errorf("expected verbose failure message:\n%s", output)
		}
	})

	t.Run("hides empty failure section by default", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Failures = nil
		report.PagesFailed = 0

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "FAILURES") {
			t.Error("empty failure section should be hidden")
		}
	})

	t.Run("writes publish status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, `Committed deadbeef on branch "mirror"`) {
			t.Errorf("expected commit line:\n%s", output)
		}
		if !strings.Contains(output, "Pushed to remote") {
			t.Errorf("expected push line:\n%s", output)
		}
	})

	t.Run("reports timeout status", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.TimedOut = true

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "TIMED OUT") {
			t.Error("expected timeout status")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid summary JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		n, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		var summary model.Summary
		if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if summary.WikiURL != "https://wiki.test/" {
			t.Errorf("WikiURL = %q", summary.WikiURL)
		}
		if summary.PagesChanged != 1 {
			t.Errorf("PagesChanged = %d, want 1", summary.PagesChanged)
		}
		if summary.CommitHash != "deadbeef" {
			t.Errorf("CommitHash = %q", summary.CommitHash)
		}
	})

	t.Run("pretty print indents output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf, WithPrettyPrint())

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"wiki_url\"") {
			t.Errorf("expected indented output:\n%s", buf.String())
		}
	})

	t.Run("compact output is a single line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewJSONWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.Count(buf.String(), "\n"); got != 1 {
			t.Errorf("compact output has %d newlines, want 1", got)
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		_, err := w.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "# Wiki Mirror Report") {
			t.Error("expected markdown header")
		}
		if !strings.Contains(output, "| Pages fetched") {
			t.Errorf("expected counter table:\n%s", output)
		}
		if !strings.Contains(output, "`https://wiki.test/`") {
			t.Error("expected wiki URL in info table")
		}
	})

	t.Run("includes mermaid pie chart of page outcomes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "```mermaid") {
			t.Error("expected mermaid code block")
		}
		if !strings.Contains(output, "Unchanged") {
			t.Errorf("expected unchanged slice:\n%s", output)
		}
	})

	t.Run("warns when failures occurred", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!WARNING]") {
			t.Error("expected warning alert for failed fetches")
		}
	})

	t.Run("clean run gets a tip", func(t *testing.T) {
		t.Parallel()

		report := createTestReport()
		report.Failures = nil
		report.PagesFailed = 0

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Error("expected tip alert for clean run")
		}
	})

	t.Run("publish section lists commit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewMarkdownWriter(&buf)

		if _, err := w.Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "`deadbeef`") {
			t.Errorf("expected commit hash:\n%s", output)
		}
		if !strings.Contains(output, "`mirror`") {
			t.Errorf("expected branch name:\n%s", output)
		}
	})
}

// TestMultiWriter tests writing to multiple destinations.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, jsonBuf bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&jsonBuf))

		n, err := mw.Write(createTestReport())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != text.Len()+jsonBuf.Len() {
			t.Errorf("total bytes = %d, want %d", n, text.Len()+jsonBuf.Len())
		}
		if text.Len() == 0 || jsonBuf.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		failing := NewJSONWriter(failWriter{})
		var buf bytes.Buffer
		mw := NewMultiWriter(failing, NewSimpleWriter(&buf))

		if _, err := mw.Write(createTestReport()); err == nil {
			t.Fatal("expected error from failing writer")
		}
		if buf.Len() != 0 {
			t.Error("writers after a failure must not run")
		}
	})
}

// failWriter always fails.
type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", input: "abc", maxLen: 10, want: "abc"},
		{name: "long string truncated", input: "abcdefghij", maxLen: 6, want: "abc..."},
		{name: "tiny limit", input: "abcdef", maxLen: 2, want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
