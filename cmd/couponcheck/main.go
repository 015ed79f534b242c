// Package main provides the entry point for the couponcheck CLI.
//
// couponcheck downloads the coupons currently shown on Harbor Freight, looks
// each one up in the HFQPDB community database and saves the ones that are
// missing so they can be submitted.
//
// Usage:
//
//	couponcheck
//	couponcheck check --output-dir missing --json
//	couponcheck init
//
// See --help for all available options.
package main

import (
	"go.uber.org/automaxprocs/maxprocs"
)

// main is the entry point for couponcheck.
func main() {
	// Match workers default to GOMAXPROCS, so it must follow the container
	// CPU quota before any config is built.
	undo, err := maxprocs.Set()
	if err == nil {
		defer undo()
	}
	Execute()
}
