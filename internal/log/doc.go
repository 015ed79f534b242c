// Package log builds the slog loggers used by couponcheck.
//
// Source configuration may carry cookies, authorization headers and proxy
// credentials. RedactingHandler masks them before any record reaches the
// output, in both text and JSON form.
//
//	logger := log.NewLogger(os.Stderr, verbose, false)
//	slog.SetDefault(logger)
package log
