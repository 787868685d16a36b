package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/gucci-on-fleek/context-wiki-mirror/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for run logs committed alongside the mirror
// and for sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary derived from the full report.
func (w *MarkdownWriter) Write(report *model.MirrorReport) (int, error) {
	return w.WriteSummary(model.NewSummary(report))
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounters(md, summary)
	w.writeFailures(md, summary)
	w.writePublish(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Wiki Mirror Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Wiki", "`" + summary.WikiURL + "`"},
			{"Started", summary.DateStarted.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration.Round(time.Second).String()},
			{"Status", w.getStatusText(summary)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on run state.
func (w *MarkdownWriter) getStatusText(summary *model.Summary) string {
	if summary.TimedOut {
		return "⚠️ Timed Out (partial results)"
	}
	if summary.Error != "" {
		return "❌ Error - " + summary.Error
	}
	return "✅ Complete"
}

// writeCounters writes the page and resource counter section.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Pages and Resources")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Pages listed", strconv.Itoa(summary.PagesListed)},
			{"Pages fetched", strconv.Itoa(summary.PagesFetched)},
			{"Pages changed", strconv.Itoa(summary.PagesChanged)},
			{"Pages unchanged", strconv.Itoa(summary.PagesUnchanged)},
			{"Pages failed", strconv.Itoa(summary.PagesFailed)},
			{"Resources fetched", strconv.Itoa(summary.ResourcesFetched)},
			{"Resources failed", strconv.Itoa(summary.ResourcesFailed)},
			{"Files written", strconv.Itoa(summary.FilesWritten)},
			{"Bytes written", strconv.FormatInt(summary.BytesWritten, 10)},
		},
	})
	md.PlainText("")

	if summary.PagesFetched > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart of the page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)

	if summary.PagesChanged > 0 {
		chart.LabelAndIntValue("Changed", uint64(summary.PagesChanged))
	}
	if summary.PagesUnchanged > 0 {
		chart.LabelAndIntValue("Unchanged", uint64(summary.PagesUnchanged))
	}
	if summary.PagesFailed > 0 {
		chart.LabelAndIntValue("Failed", uint64(summary.PagesFailed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case !summary.Complete():
		md.Cautionf(
			"The run did not complete. The mirror tree may be partial; rerun with --full to rebuild it.",
		)
	case summary.HasFailures():
		md.Warningf(
			"%d page(s) and %d resource(s) could not be fetched. They keep their previous mirrored content.",
			summary.PagesFailed,
			summary.ResourcesFailed,
		)
	default:
		md.Tip("All pages and resources mirrored successfully.")
	}
	md.PlainText("")
}

// writeFailures writes a table of individual failures.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Failures")
	md.PlainText("")

	if len(summary.Failures) == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Failures))
	for i, f := range summary.Failures {
		rows[i] = []string{
			f.Stage,
			"`" + truncateString(f.URL, 60) + "`",
			truncateString(f.Message, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "URL", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePublish writes the publish status section.
func (w *MarkdownWriter) writePublish(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Publish")
	md.PlainText("")

	if !summary.Published {
		md.PlainText("Nothing committed.")
		md.PlainText("")
		return
	}

	pushed := "no"
	if summary.Pushed {
		pushed = "yes"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Branch", "`" + summary.Branch + "`"},
			{"Commit", "`" + summary.CommitHash + "`"},
			{"Pushed", pushed},
		},
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [context-wiki-mirror](https://github.com/gucci-on-fleek/context-wiki-mirror)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
