package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/couponcheck/internal/model"
)

// SimpleWriter outputs the plain text summary shown at the end of a run.
//
//	FAILED TO DOWNLOAD:
//	https://...
//
//	Not found on HFQPDB:
//	12345.png
//
//	2/3 Harbor Freight coupons found on HFQPDB (DB coupon count=812)
//	Consider uploading the 1 missing coupon(s) to https://www.hfqpdb.com/mass_coupon_submit
//	Coupon save location: /home/user/coupons
type SimpleWriter struct {
	baseWriter

	// verbose adds a per-source table after the summary.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables the per-source statistics table.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder

	w.writeFailed(&sb, report)
	w.writeUnmatched(&sb, report)
	w.writeSummary(&sb, report)

	if w.verbose {
		w.writeSources(&sb, report)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeFailed(sb *strings.Builder, report *model.RunReport) {
	if len(report.FailedURLs) == 0 {
		return
	}
	sb.WriteString("\nFAILED TO DOWNLOAD:\n")
	for _, u := range report.FailedURLs {
		sb.WriteString(u)
		sb.WriteString("\n")
	}
}

func (w *SimpleWriter) writeUnmatched(sb *strings.Builder, report *model.RunReport) {
	if len(report.Unmatched) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nNot found on %s:\n", databaseLabel(report))
	for _, name := range report.Unmatched {
		sb.WriteString(name)
		sb.WriteString("\n")
	}
}

// writeSummary writes the found ratio and the closing status line.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.RunReport) {
	db := databaseLabel(report)

	fmt.Fprintf(sb, "\n%d/%d %s coupons found on %s (DB coupon count=%d)\n",
		report.Found(), report.TotalLive, liveLabel(report), db, report.TotalDatabase)

	if report.UpToDate() {
		fmt.Fprintf(sb, "%s IS UP TO DATE\n", cases.Upper(language.Und).String(db))
		return
	}

	fmt.Fprintf(sb, "Consider uploading the %d missing coupon(s)", report.Missing())
	if report.SubmitURL != "" {
		fmt.Fprintf(sb, " to %s", report.SubmitURL)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Coupon save location: %s\n", report.OutputDir)

	if len(report.SaveFailures) > 0 {
		fmt.Fprintf(sb, "Could not save: %s\n", strings.Join(report.SaveFailures, ", "))
	}
}

// writeSources renders per-source statistics as a table.
func (w *SimpleWriter) writeSources(sb *strings.Builder, report *model.RunReport) {
	if len(report.Sources) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Source", "Role", "Page", "URLs", "Fetched", "Failed"})
	for _, s := range report.Sources {
		tw.AppendRow(table.Row{s.Name, s.Role.String(), pageStatus(s), s.URLsFound, s.Fetched, s.Failed})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	sb.WriteString("\n")
	sb.WriteString(tw.Render())
	sb.WriteString("\n")
}

// pageStatus describes the state of a source page.
func pageStatus(s model.SourceStats) string {
	switch {
	case s.PageFailed:
		return "unreachable"
	case s.URLsFound == 0:
		return "no coupons found"
	default:
		return "ok"
	}
}
