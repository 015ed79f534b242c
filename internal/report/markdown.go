package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/couponcheck/internal/model"
)

// MarkdownWriter outputs reports in Markdown format, ready to paste into an
// issue or a wiki page.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeStatus(md, report)
	w.writeSources(md, report)
	w.writeList(md, "Not found on "+databaseLabel(report), report.Unmatched)
	w.writeList(md, "Failed to download", report.FailedURLs)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the run overview.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1(liveLabel(report) + " coupons on " + databaseLabel(report))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration.Round(time.Millisecond).String()},
			{"Live Coupons", strconv.Itoa(report.TotalLive)},
			{"Database Coupons", strconv.Itoa(report.TotalDatabase)},
			{"Found", strconv.Itoa(report.Found())},
			{"Missing", strconv.Itoa(report.Missing())},
		},
	})
	md.PlainText("")

	if report.TotalLive > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Live coupons"),
			piechart.WithShowData(true),
		)
		chart.LabelAndIntValue("Found", uint64(report.Found()))
		chart.LabelAndIntValue("Missing", uint64(report.Missing()))
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writeStatus writes an alert summarizing what to do next.
func (w *MarkdownWriter) writeStatus(md *markdown.Markdown, report *model.RunReport) {
	switch {
	case report.UpToDate() && len(report.FailedURLs) == 0:
		md.Tip(databaseLabel(report) + " is up to date.")
	case report.UpToDate():
		md.Warningf("No missing coupons, but %d download(s) failed.", len(report.FailedURLs))
	case report.SubmitURL != "":
		md.Importantf("Consider uploading the %d missing coupon(s) to %s. Saved in `%s`.",
			report.Missing(), report.SubmitURL, report.OutputDir)
	default:
		md.Importantf("%d coupon(s) missing. Saved in `%s`.", report.Missing(), report.OutputDir)
	}
	md.PlainText("")

	if len(report.SaveFailures) > 0 {
		md.Cautionf("%d missing coupon(s) could not be saved.", len(report.SaveFailures))
		md.PlainText("")
	}
}

// writeSources writes per-source statistics.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Sources) == 0 {
		return
	}

	md.H2("Sources")
	md.PlainText("")

	rows := make([][]string, len(report.Sources))
	for i, s := range report.Sources {
		rows[i] = []string{
			s.Name,
			s.Role.String(),
			pageStatus(s),
			strconv.Itoa(s.URLsFound),
			strconv.Itoa(s.Fetched),
			strconv.Itoa(s.Failed),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Source", "Role", "Page", "URLs", "Fetched", "Failed"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeList writes a titled bullet list, skipped when items is empty.
func (w *MarkdownWriter) writeList(md *markdown.Markdown, title string, items []string) {
	if len(items) == 0 {
		return
	}
	md.H2(title)
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [couponcheck](https://github.com/nao1215/couponcheck)*")
}
