// Package outdir manages the directory unmatched coupons are written to.
//
// The directory is removed at the start of every run and repopulated with one
// file per unmatched coupon. Save may be called from many goroutines.
package outdir
