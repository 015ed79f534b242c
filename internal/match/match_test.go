package match

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/nao1215/couponcheck/internal/hash"
	"github.com/nao1215/couponcheck/internal/model"
)

// blockImage returns an image made of 8x8 blocks of random gray levels.
// The same seed always yields the same image.
func blockImage(width, height int, seed uint64) *image.NRGBA {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for by := 0; by < height; by += 8 {
		for bx := 0; bx < width; bx += 8 {
			v := uint8(rng.IntN(256))
			c := color.NRGBA{R: v, G: 255 - v, B: v / 2, A: 255}
			draw.Draw(img, image.Rect(bx, by, bx+8, by+8), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}
	return img
}

func flatImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func crop(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
		t.Fatalf("jpeg.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func record(name string, data []byte) model.ImageRecord {
	return model.ImageRecord{
		Raw:         data,
		ContentHash: hash.Content(data),
		Name:        name,
		SourceURL:   "https://example.com/" + name,
	}
}

// TestIsDuplicateHash tests the exact content hash path.
func TestIsDuplicateHash(t *testing.T) {
	t.Parallel()

	t.Run("identical bytes match even when undecodable", func(t *testing.T) {
		t.Parallel()

		data := []byte("definitely not an image")
		collection := model.Collection{
			record("other.png", []byte("something else")),
			record("same.png", data),
		}
		if !IsDuplicate(record("candidate.png", data), collection) {
			t.Error("expected byte-identical candidate to be a duplicate")
		}
	})

	t.Run("empty collection never matches", func(t *testing.T) {
		t.Parallel()

		if IsDuplicate(record("a.png", encodePNG(t, blockImage(32, 32, 1))), nil) {
			t.Error("expected no duplicate in an empty collection")
		}
	})

	t.Run("hash match is found after unrelated records", func(t *testing.T) {
		t.Parallel()

		target := encodePNG(t, blockImage(48, 48, 7))
		collection := model.Collection{
			record("noise-1.png", encodePNG(t, blockImage(48, 48, 100))),
			record("broken.png", []byte{0x89, 'P', 'N', 'G'}),
			record("noise-2.png", encodePNG(t, blockImage(48, 48, 101))),
			record("target.png", target),
		}
		if !IsDuplicate(record("live.png", target), collection) {
			t.Error("expected the last record to match by hash")
		}
	})
}

// TestIsDuplicateVisual tests template matching.
func TestIsDuplicateVisual(t *testing.T) {
	t.Parallel()

	base := blockImage(96, 64, 42)

	t.Run("re-encoded image matches", func(t *testing.T) {
		t.Parallel()

		db := record("db.png", encodePNG(t, base))
		live := record("live.jpg", encodeJPEG(t, base))
		if db.ContentHash == live.ContentHash {
			t.Fatal("fixture error: encodings should differ byte-wise")
		}
		if !IsDuplicate(live, model.Collection{db}) {
			t.Error("expected JPEG re-encoding to match the PNG original")
		}
	})

	t.Run("candidate cropped from database image matches", func(t *testing.T) {
		t.Parallel()

		db := record("db.png", encodePNG(t, base))
		live := record("live.png", encodePNG(t, crop(base, image.Rect(16, 8, 64, 48))))
		if !IsDuplicate(live, model.Collection{db}) {
			t.Error("expected crop to match the larger image")
		}
	})

	t.Run("database image cropped from candidate matches after swap", func(t *testing.T) {
		t.Parallel()

		db := record("db.png", encodePNG(t, crop(base, image.Rect(8, 8, 56, 56))))
		live := record("live.png", encodePNG(t, base))
		if !IsDuplicate(live, model.Collection{db}) {
			t.Error("expected larger candidate to match after role swap")
		}
	})

	t.Run("unrelated image does not match", func(t *testing.T) {
		t.Parallel()

		db := record("db.png", encodePNG(t, base))
		live := record("live.png", encodePNG(t, blockImage(96, 64, 43)))
		if IsDuplicate(live, model.Collection{db}) {
			t.Error("expected unrelated images not to match")
		}
	})

	t.Run("incompatible shapes are not similar", func(t *testing.T) {
		t.Parallel()

		db := record("wide.png", encodePNG(t, blockImage(96, 16, 5)))
		live := record("tall.png", encodePNG(t, blockImage(16, 96, 5)))
		if IsDuplicate(live, model.Collection{db}) {
			t.Error("expected shapes that fit neither way to be not similar")
		}
	})

	t.Run("undecodable candidate is not a duplicate", func(t *testing.T) {
		t.Parallel()

		db := record("db.png", encodePNG(t, base))
		live := record("live.png", []byte("<html>404</html>"))
		if IsDuplicate(live, model.Collection{db}) {
			t.Error("expected undecodable candidate to be unmatched")
		}
	})

	t.Run("flat images do not match", func(t *testing.T) {
		t.Parallel()

		db := record("white.png", encodePNG(t, flatImage(32, 32, color.White)))
		live := record("white.jpg", encodeJPEG(t, flatImage(32, 32, color.White)))
		if IsDuplicate(live, model.Collection{db}) {
			t.Error("expected zero-variance images to score 0")
		}
	})
}

// TestIsDuplicateSymmetry checks that same-shape comparisons do not depend on
// which image is the candidate.
func TestIsDuplicateSymmetry(t *testing.T) {
	t.Parallel()

	base := blockImage(64, 64, 9)
	pairs := []struct {
		name string
		a, b []byte
	}{
		{name: "png and jpeg of the same image", a: encodePNG(t, base), b: encodeJPEG(t, base)},
		{name: "different images", a: encodePNG(t, base), b: encodePNG(t, blockImage(64, 64, 10))},
		{name: "undecodable and image", a: []byte("junk"), b: encodePNG(t, base)},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ab := IsDuplicate(record("a", tt.a), model.Collection{record("b", tt.b)})
			ba := IsDuplicate(record("b", tt.b), model.Collection{record("a", tt.a)})
			if ab != ba {
				t.Errorf("asymmetric result: a in [b] = %v, b in [a] = %v", ab, ba)
			}
		})
	}
}

// TestEngineScore tests the error-reporting score API.
func TestEngineScore(t *testing.T) {
	t.Parallel()

	e := New()

	t.Run("exact sub-image scores one", func(t *testing.T) {
		t.Parallel()

		base := blockImage(64, 48, 3)
		score, err := e.Score(encodePNG(t, base), encodePNG(t, crop(base, image.Rect(8, 16, 40, 40))))
		if err != nil {
			t.Fatalf("Score failed: %v", err)
		}
		if score < 0.999 {
			t.Errorf("expected score close to 1, got %f", score)
		}
	})

	t.Run("geometry mismatch is reported", func(t *testing.T) {
		t.Parallel()

		_, err := e.Score(encodePNG(t, blockImage(64, 8, 1)), encodePNG(t, blockImage(8, 64, 1)))
		if !errors.Is(err, ErrGeometryMismatch) {
			t.Errorf("expected ErrGeometryMismatch, got %v", err)
		}
	})

	t.Run("decode failure is reported", func(t *testing.T) {
		t.Parallel()

		_, err := e.Score([]byte("nope"), encodePNG(t, blockImage(8, 8, 1)))
		if !errors.Is(err, ErrDecode) {
			t.Errorf("expected ErrDecode, got %v", err)
		}
	})

	t.Run("similar agrees with threshold", func(t *testing.T) {
		t.Parallel()

		base := blockImage(40, 40, 4)
		if !e.Similar(encodePNG(t, base), encodeJPEG(t, base)) {
			t.Error("expected re-encoded image to be similar")
		}
		if e.Similar(encodePNG(t, base), encodePNG(t, blockImage(40, 40, 5))) {
			t.Error("expected different images not to be similar")
		}
	})
}

// TestIndex tests the prepared reference collection.
func TestIndex(t *testing.T) {
	t.Parallel()

	base := blockImage(80, 56, 77)
	collection := model.Collection{
		record("a.png", encodePNG(t, blockImage(80, 56, 1))),
		record("b.png", encodePNG(t, blockImage(80, 56, 2))),
		record("broken.png", []byte("xx")),
		record("target.png", encodePNG(t, base)),
	}

	ix, err := New(WithWorkers(2)).NewIndex(context.Background(), collection)
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}

	t.Run("len counts every record", func(t *testing.T) {
		t.Parallel()

		if ix.Len() != 4 {
			t.Errorf("expected 4 entries, got %d", ix.Len())
		}
	})

	t.Run("hash lookup", func(t *testing.T) {
		t.Parallel()

		res := ix.Lookup(record("live.png", []byte("xx")))
		if !res.Duplicate || res.Method != MethodHash || res.Against != "broken.png" {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("visual lookup names the matching record", func(t *testing.T) {
		t.Parallel()

		res := ix.Lookup(record("live.jpg", encodeJPEG(t, base)))
		if !res.Duplicate || res.Method != MethodVisual {
			t.Fatalf("expected visual match, got %+v", res)
		}
		if res.Against != "target.png" {
			t.Errorf("expected match against target.png, got %s", res.Against)
		}
		if res.Score < Threshold {
			t.Errorf("expected score >= %f, got %f", Threshold, res.Score)
		}
	})

	t.Run("summed-area tables are built with the index", func(t *testing.T) {
		t.Parallel()

		for _, entry := range ix.entries {
			if (entry.gray != nil) != (entry.integral != nil) {
				t.Errorf("%s: decoded=%v integral=%v", entry.record.Name, entry.gray != nil, entry.integral != nil)
			}
		}
	})

	t.Run("prepared tables score like fresh ones", func(t *testing.T) {
		t.Parallel()

		target := ix.entries[3]
		for _, cand := range []*image.NRGBA{
			crop(base, image.Rect(8, 8, 72, 48)),
			blockImage(72, 40, 9),
			blockImage(96, 64, 10),
		} {
			g, err := decodeGray(encodePNG(t, cand))
			if err != nil {
				t.Fatal(err)
			}
			want, wantErr := bestScore(target.gray, g, math.Inf(1))
			got, gotErr := bestScoreWith(target.gray, target.integral, g, math.Inf(1))
			if got != want || !errors.Is(gotErr, wantErr) {
				t.Errorf("%v: got (%f, %v), want (%f, %v)", cand.Bounds(), got, gotErr, want, wantErr)
			}
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()

		if ix.Contains(record("live.png", encodePNG(t, blockImage(80, 56, 3)))) {
			t.Error("expected unrelated image to be absent")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := New().NewIndex(ctx, collection); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		num, denom float64
		want       float64
	}{
		{name: "regular", num: 0.5, denom: 1, want: 0.5},
		{name: "negative", num: -0.25, denom: 1, want: -0.25},
		{name: "rounding overshoot", num: 1.05, denom: 1, want: 1},
		{name: "negative overshoot", num: -1.05, denom: 1, want: -1},
		{name: "zero variance", num: 0, denom: 0, want: 0},
		{name: "far out of range", num: 3, denom: 1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := normalize(tt.num, tt.denom); got != tt.want {
				t.Errorf("normalize(%f, %f) = %f; want %f", tt.num, tt.denom, got, tt.want)
			}
		})
	}
}

func TestLuma(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		r, g, b uint8
		want    uint8
	}{
		{name: "black", want: 0},
		{name: "white", r: 255, g: 255, b: 255, want: 255},
		{name: "red", r: 255, want: 76},
		{name: "green", g: 255, want: 150},
		{name: "blue", b: 255, want: 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := luma(tt.r, tt.g, tt.b); got != tt.want {
				t.Errorf("luma(%d, %d, %d) = %d; want %d", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}
