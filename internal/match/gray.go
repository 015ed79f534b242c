package match

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
)

// Fixed-point BT.601 luma weights (R, G, B), scaled by 1<<14.
// These are the coefficients OpenCV uses for its 8-bit RGB to gray conversion.
const (
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaShift = 14
)

// decodeGray decodes raw image bytes into an 8-bit grayscale image.
// Alpha is ignored: colour channels are taken un-premultiplied.
func decodeGray(data []byte) (*image.Gray, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return toGray(img)
}

// toGray converts any image to *image.Gray with origin (0, 0).
func toGray(img image.Image) (*image.Gray, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}

	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			srcRow := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X):]
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], srcRow[:b.Dx()])
		}
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				i := src.PixOffset(x+b.Min.X, y+b.Min.Y)
				out.Pix[y*out.Stride+x] = luma(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			}
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c, _ := color.NRGBAModel.Convert(img.At(x+b.Min.X, y+b.Min.Y)).(color.NRGBA)
				out.Pix[y*out.Stride+x] = luma(c.R, c.G, c.B)
			}
		}
	}

	return out, nil
}

func luma(r, g, b uint8) uint8 {
	v := (uint32(r)*lumaR + uint32(g)*lumaG + uint32(b)*lumaB + 1<<(lumaShift-1)) >> lumaShift
	if v > 255 {
		v = 255
	}
	return uint8(v)
}
