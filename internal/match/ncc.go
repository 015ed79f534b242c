package match

import (
	"errors"
	"image"
	"math"
)

// integral holds summed-area tables of pixel values and squared values.
// Entry (x, y) covers the rectangle [0, x) x [0, y).
type integral struct {
	w, h  int
	sum   []float64
	sqsum []float64
}

func newIntegral(img *image.Gray) *integral {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	stride := w + 1
	in := &integral{
		w:     w,
		h:     h,
		sum:   make([]float64, stride*(h+1)),
		sqsum: make([]float64, stride*(h+1)),
	}
	for y := 0; y < h; y++ {
		var rowSum, rowSq float64
		for x := 0; x < w; x++ {
			v := float64(img.Pix[y*img.Stride+x])
			rowSum += v
			rowSq += v * v
			in.sum[(y+1)*stride+x+1] = in.sum[y*stride+x+1] + rowSum
			in.sqsum[(y+1)*stride+x+1] = in.sqsum[y*stride+x+1] + rowSq
		}
	}
	return in
}

// window returns the sum and squared sum of the w x h window at (x, y).
func (in *integral) window(x, y, w, h int) (float64, float64) {
	stride := in.w + 1
	a := y*stride + x
	b := y*stride + x + w
	c := (y+h)*stride + x
	d := (y+h)*stride + x + w
	return in.sum[d] - in.sum[b] - in.sum[c] + in.sum[a],
		in.sqsum[d] - in.sqsum[b] - in.sqsum[c] + in.sqsum[a]
}

// matchTemplate slides tmpl over input and returns the best normalized
// correlation coefficient found. The scan stops early once a score reaches
// stopAt. It returns ErrGeometryMismatch when tmpl does not fit in input.
// in is the summed-area table of input; nil builds it on the fly.
//
// Scores follow OpenCV's TM_CCOEFF_NORMED, including its handling of
// zero-variance windows: a flat window or flat template scores 0.
func matchTemplate(input *image.Gray, in *integral, tmpl *image.Gray, stopAt float64) (float64, error) {
	iw, ih := input.Rect.Dx(), input.Rect.Dy()
	tw, th := tmpl.Rect.Dx(), tmpl.Rect.Dy()
	if tw == 0 || th == 0 || iw == 0 || ih == 0 {
		return 0, ErrEmptyImage
	}
	if tw > iw || th > ih {
		return 0, ErrGeometryMismatch
	}

	n := float64(tw * th)

	// Zero-mean template.
	centered := make([]float64, tw*th)
	var tsum float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			tsum += float64(tmpl.Pix[y*tmpl.Stride+x])
		}
	}
	tmean := tsum / n
	var tnorm2 float64
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			v := float64(tmpl.Pix[y*tmpl.Stride+x]) - tmean
			centered[y*tw+x] = v
			tnorm2 += v * v
		}
	}
	tnorm := math.Sqrt(tnorm2)

	if in == nil {
		in = newIntegral(input)
	}
	best := math.Inf(-1)

	for y := 0; y <= ih-th; y++ {
		for x := 0; x <= iw-tw; x++ {
			// The template is zero-mean, so correlating it with the raw window
			// equals correlating it with the zero-mean window.
			var num float64
			for ty := 0; ty < th; ty++ {
				row := input.Pix[(y+ty)*input.Stride+x:]
				trow := centered[ty*tw : ty*tw+tw]
				for tx, tv := range trow {
					num += tv * float64(row[tx])
				}
			}

			wsum, wsq := in.window(x, y, tw, th)
			variance := wsq - wsum*wsum/n
			if variance < 0 {
				variance = 0
			}
			score := normalize(num, math.Sqrt(variance)*tnorm)

			if score > best {
				best = score
				if best >= stopAt {
					return best, nil
				}
			}
		}
	}

	return best, nil
}

// normalize divides num by denom the way OpenCV does, tolerating rounding
// that pushes |num| slightly past denom.
func normalize(num, denom float64) float64 {
	abs := math.Abs(num)
	switch {
	case abs < denom:
		return num / denom
	case abs < denom*1.125:
		if num > 0 {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// bestScore compares a and b with a as the input and b as the template,
// swapping the roles when b does not fit inside a. It returns
// ErrGeometryMismatch only when neither orientation is valid.
func bestScore(a, b *image.Gray, stopAt float64) (float64, error) {
	return bestScoreWith(a, nil, b, stopAt)
}

// bestScoreWith is bestScore with a's summed-area table already built.
func bestScoreWith(a *image.Gray, ia *integral, b *image.Gray, stopAt float64) (float64, error) {
	score, err := matchTemplate(a, ia, b, stopAt)
	if err == nil {
		return score, nil
	}
	if !errors.Is(err, ErrGeometryMismatch) {
		return 0, err
	}
	return matchTemplate(b, nil, a, stopAt)
}
