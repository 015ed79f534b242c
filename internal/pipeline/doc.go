// Package pipeline drives a reconciliation run.
//
// A run is a fixed sequence of steps sharing one Run value:
//
//	ResetStep     delete the output directory (fatal on failure)
//	DatabaseStep  scrape and download the database, prepare the match index
//	LiveStep      scrape and download the live site, match every image
//
// Phases are sequential; work inside a phase is concurrent. Per-item failures
// are recorded in the run report and never stop a step. Only errors that make
// the run meaningless (a failed reset, cancellation) are returned.
package pipeline
