// Package fetch downloads coupon images over HTTP.
//
// A Fetcher turns the image URLs of one source into model.ImageRecord values.
// Downloads run concurrently on a bounded number of goroutines. A failed
// download never stops the others: it is reported as a failed URL with an
// error that wraps either ErrTransportUnreachable or ErrMalformedResourcePath.
//
// NewHTTPClient builds the shared client with a per-request timeout, an
// optional SOCKS5 proxy and header injection for every request.
package fetch
