package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables per-failure detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.MirrorReport) (int, error) {
	return w.WriteSummary(model.NewSummary(report))
}

// WriteSummary outputs the run summary in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounters(&sb, summary)
	w.writeFailures(&sb, summary)
	w.writePublish(&sb, summary)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       WIKI MIRROR REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Wiki:       %s\n", summary.WikiURL))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", summary.DateStarted.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:   %s\n", summary.Duration.Round(time.Second)))

	switch {
	case summary.TimedOut:
		sb.WriteString("Status:     TIMED OUT (partial results)\n")
	case summary.Error != "":
		sb.WriteString(fmt.Sprintf("Status:     ERROR - %s\n", summary.Error))
	default:
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writeCounters writes the page and resource counter section.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES AND RESOURCES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages listed:       %d\n", summary.PagesListed))
	sb.WriteString(fmt.Sprintf("  Pages fetched:      %d\n", summary.PagesFetched))
	sb.WriteString(fmt.Sprintf("  Pages changed:      %d\n", summary.PagesChanged))
	sb.WriteString(fmt.Sprintf("  Pages unchanged:    %d\n", summary.PagesUnchanged))
	sb.WriteString(fmt.Sprintf("  Pages failed:       %d\n", summary.PagesFailed))
	sb.WriteString(fmt.Sprintf("  Resources fetched:  %d\n", summary.ResourcesFetched))
	sb.WriteString(fmt.Sprintf("  Resources failed:   %d\n", summary.ResourcesFailed))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Files written:      %d (%d bytes)\n", summary.FilesWritten, summary.BytesWritten))
	sb.WriteString("\n")
}

// writeFailures writes the individual failure records.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, summary *model.Summary) {
	if !summary.HasFailures() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(summary.Failures) == 0 {
		sb.WriteString("  No failures\n")
	} else {
		for _, failure := range summary.Failures {
			sb.WriteString(fmt.Sprintf("  [%s] %s\n", failure.Stage, failure.URL))
			if w.verbose && failure.Message != "" {
				sb.WriteString(fmt.Sprintf("    %s\n", failure.Message))
			}
		}
	}
	sb.WriteString("\n")
}

// writePublish writes the publish status section.
func (w *SimpleWriter) writePublish(sb *strings.Builder, summary *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PUBLISH\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	switch {
	case summary.Published:
		sb.WriteString(fmt.Sprintf("  Committed %s on branch %q\n", summary.CommitHash, summary.Branch))
		if summary.Pushed {
			sb.WriteString("  Pushed to remote\n")
		} else {
			sb.WriteString("  Not pushed\n")
		}
	default:
		sb.WriteString("  Nothing committed\n")
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by context-wiki-mirror\n")
	sb.WriteString("https://github.com/gucci-on-fleek/context-wiki-mirror\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
