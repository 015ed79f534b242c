// Package progress draws progress bars for the download and match phases on
// a terminal. When the output is not a terminal nothing is drawn.
package progress
