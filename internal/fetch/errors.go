package fetch

import "errors"

var (
	// ErrTransportUnreachable is returned when a request could not be
	// completed: DNS failure, refused connection, timeout, a 5xx response or
	// a body that could not be read.
	ErrTransportUnreachable = errors.New("resource unreachable")

	// ErrMalformedResourcePath is returned when the URL is rejected, either
	// before sending or by the server with a 4xx status.
	ErrMalformedResourcePath = errors.New("malformed resource path")

	// ErrResponseTooLarge is returned when a body exceeds the size limit.
	// It is always wrapped together with ErrTransportUnreachable.
	ErrResponseTooLarge = errors.New("response body too large")

	// ErrInvalidProxyAddress is returned for a proxy that is not "host:port"
	// or "socks5://host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port or socks5://host:port")
)
