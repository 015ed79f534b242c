package hash

import (
	"image"
	"image/color"
	"testing"
)

func createGradientImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := uint8((x + y) * 255 / (width + height))
			img.Set(x, y, color.RGBA{gray, gray, gray, 255})
		}
	}
	return img
}

func createCheckerImage(width, height, cell int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

// TestContent verifies determinism and sensitivity of the identity hash.
func TestContent(t *testing.T) {
	t.Parallel()

	t.Run("same bytes give same hash", func(t *testing.T) {
		t.Parallel()

		a := []byte("coupon-12345.png contents")
		b := append([]byte(nil), a...)
		if Content(a) != Content(b) {
			t.Error("expected identical hashes for identical bytes")
		}
	})

	t.Run("different bytes give different hash", func(t *testing.T) {
		t.Parallel()

		if Content([]byte("coupon-a")) == Content([]byte("coupon-b")) {
			t.Error("expected different hashes for different bytes")
		}
	})

	t.Run("single bit flip changes hash", func(t *testing.T) {
		t.Parallel()

		a := make([]byte, 1024)
		b := make([]byte, 1024)
		b[512] = 1
		if Content(a) == Content(b) {
			t.Error("expected bit flip to change the hash")
		}
	})

	t.Run("stable known value", func(t *testing.T) {
		t.Parallel()

		// murmur3 of the empty input with seed 0 is 0
		if Content(nil) != 0 {
			t.Errorf("expected 0 for empty input, got %x", Content(nil))
		}
	})
}

// TestPerceptual tests pHash computation.
func TestPerceptual(t *testing.T) {
	t.Parallel()

	t.Run("same image same hash", func(t *testing.T) {
		t.Parallel()

		img := createGradientImage(64, 64)
		h1, err := Perceptual(img)
		if err != nil {
			t.Fatalf("Perceptual failed: %v", err)
		}
		h2, err := Perceptual(img)
		if err != nil {
			t.Fatalf("Perceptual failed: %v", err)
		}
		if h1 != h2 {
			t.Error("expected identical pHash for the same image")
		}
	})

	t.Run("different images differ", func(t *testing.T) {
		t.Parallel()

		h1, err := Perceptual(createGradientImage(64, 64))
		if err != nil {
			t.Fatalf("Perceptual failed: %v", err)
		}
		h2, err := Perceptual(createCheckerImage(64, 64, 8))
		if err != nil {
			t.Fatalf("Perceptual failed: %v", err)
		}
		if HammingDistance(h1, h2) == 0 {
			t.Error("expected different pHashes for different images")
		}
	})
}

func TestHammingDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a, b     uint64
		expected int
	}{
		{name: "identical", a: 0xFFFFFFFFFFFFFFFF, b: 0xFFFFFFFFFFFFFFFF, expected: 0},
		{name: "one bit", a: 0xFFFFFFFFFFFFFFFE, b: 0xFFFFFFFFFFFFFFFF, expected: 1},
		{name: "all bits", a: 0, b: 0xFFFFFFFFFFFFFFFF, expected: 64},
		{name: "halves swapped", a: 0x00000000FFFFFFFF, b: 0xFFFFFFFF00000000, expected: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HammingDistance(tt.a, tt.b); got != tt.expected {
				t.Errorf("HammingDistance(%x, %x) = %d; want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func BenchmarkContent(b *testing.B) {
	data := make([]byte, 256*1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Content(data)
	}
}
