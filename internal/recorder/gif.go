package recorder

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"

	"github.com/nfnt/resize"
)

// ErrNoFrames is returned when there is nothing to encode
var ErrNoFrames = errors.New("no frames recorded")

// WriteGIF renders the recording to path and returns the file size
func (r *Recorder) WriteGIF(path string) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := r.Encode(f); err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Encode writes the recording as a looping GIF
func (r *Recorder) Encode(w io.Writer) error {
	captured := r.Frames()
	if len(captured) == 0 {
		return ErrNoFrames
	}
	frames := tween(captured, r.opts.FPS/2, r.opts.Hold)

	// delay is in 100ths of a second
	delay := max(100/r.opts.FPS, 1)

	bounds := captured[0].Image.Bounds()
	width := r.opts.MaxWidth
	height := uint(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()))

	g := &gif.GIF{
		Image: make([]*image.Paletted, len(frames)),
		Delay: make([]int, len(frames)),
	}

	palette := buildPalette(render(frames[0]))
	for i, f := range frames {
		scaled := resize.Resize(width, height, render(f), resize.Lanczos3)
		paletted := image.NewPaletted(scaled.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, scaled.Bounds(), scaled, image.Point{})
		g.Image[i] = paletted
		g.Delay[i] = delay
	}

	if err := gif.EncodeAll(w, g); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

// buildPalette keeps the most frequent colors of a sampled image, padded
// with grays, plus the pointer colors
func buildPalette(img image.Image) color.Palette {
	bounds := img.Bounds()
	counts := make(map[color.RGBA]int)

	const step = 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			counts[color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 255}]++
		}
	}

	colors := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		return rgbKey(colors[i]) < rgbKey(colors[j])
	})

	palette := color.Palette{outlineColor, fillColor, rippleColor}
	seen := map[color.RGBA]bool{outlineColor: true, fillColor: true, rippleColor: true}
	for _, c := range colors {
		if len(palette) == 256 {
			break
		}
		if !seen[c] {
			seen[c] = true
			palette = append(palette, c)
		}
	}
	for i := 0; len(palette) < 256; i++ {
		gray := uint8(i)
		palette = append(palette, color.RGBA{gray, gray, gray, 255})
	}
	return palette
}

func rgbKey(c color.RGBA) uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}
