package match

import "errors"

var (
	// ErrGeometryMismatch is returned when the template is larger than the
	// input image in at least one dimension.
	ErrGeometryMismatch = errors.New("template larger than input image")

	// ErrDecode is returned when image bytes cannot be decoded.
	ErrDecode = errors.New("cannot decode image")

	// ErrEmptyImage is returned for images with no pixels.
	ErrEmptyImage = errors.New("image has no pixels")
)
