// Package model defines the data structures shared by the couponcheck stages.
//
// This package contains the following main types:
//   - ImageRecord: one downloaded coupon image with its content hash
//   - Collection: the ordered set of records fetched from one side of the run
//   - RunReport: the aggregated outcome of a reconciliation run
//
// Records and collections are immutable once the fetch stage has produced
// them. The report is built by the reconciliation driver and rendered by the
// report package.
package model
