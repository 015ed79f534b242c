// Package report renders a model.RunReport.
//
// Three writers share the Writer interface:
//   - SimpleWriter: the plain text summary printed at the end of a run
//   - JSONWriter: the full report for scripts
//   - MarkdownWriter: a document suitable for issue trackers and wikis
//
// Writers only format. They never change the report.
package report
