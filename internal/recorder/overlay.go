package recorder

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

var (
	outlineColor = color.RGBA{0, 0, 0, 255}
	fillColor    = color.RGBA{255, 255, 255, 255}
	rippleColor  = color.RGBA{66, 133, 244, 255}
)

// arrow outline, relative to the hotspot
var arrow = []image.Point{
	{0, 0}, {0, 16}, {4, 12}, {7, 18}, {10, 17}, {7, 11}, {12, 11},
}

// tween expands captured frames into the displayed sequence: every capture
// is held for hold frames, and the pointer glides from its previous spot
// over the previous screenshot before each new one appears
func tween(frames []Frame, steps, hold int) []Frame {
	var out []Frame
	for i, f := range frames {
		if i > 0 {
			prev := frames[i-1]
			if prev.Cursor.Visible && f.Cursor.Visible && prev.Cursor != f.Cursor {
				for s := 1; s < steps; s++ {
					t := easeInOut(float64(s) / float64(steps))
					out = append(out, Frame{Image: prev.Image, Cursor: Cursor{
						X:       lerp(prev.Cursor.X, f.Cursor.X, t),
						Y:       lerp(prev.Cursor.Y, f.Cursor.Y, t),
						Visible: true,
					}})
				}
			}
		}
		for h := 0; h < hold; h++ {
			c := f.Cursor
			// the ripple shows for the first half of the hold
			c.Click = c.Click && h < (hold+1)/2
			out = append(out, Frame{Image: f.Image, Cursor: c})
		}
	}
	return out
}

func lerp(a, b int, t float64) int {
	return int(math.Round(float64(a) + t*float64(b-a)))
}

func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// render draws the pointer over a copy of the frame
func render(f Frame) image.Image {
	bounds := f.Image.Bounds()
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, f.Image, bounds.Min, draw.Src)

	if !f.Cursor.Visible {
		return img
	}
	x, y := bounds.Min.X+f.Cursor.X, bounds.Min.Y+f.Cursor.Y
	if f.Cursor.Click {
		drawRipple(img, x, y, 15)
	}
	drawArrow(img, x, y)
	return img
}

func drawArrow(img *image.RGBA, x, y int) {
	for dy := 0; dy <= 16; dy++ {
		for dx := 0; dx < 13; dx++ {
			if insideArrow(dx, dy) {
				setPixel(img, x+dx, y+dy, fillColor)
			}
		}
	}
	for i := range arrow {
		p1, p2 := arrow[i], arrow[(i+1)%len(arrow)]
		drawLine(img, x+p1.X, y+p1.Y, x+p2.X, y+p2.Y, outlineColor)
	}
}

func insideArrow(dx, dy int) bool {
	switch {
	case dx < 0 || dy < 0 || dy > 16:
		return false
	case dy <= 11:
		return dx <= dy*12/16
	default:
		return dx <= 4
	}
}

// drawLine is Bresenham's line
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		setPixel(img, x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func drawRipple(img *image.RGBA, x, y, radius int) {
	for angle := 0.0; angle < 360; angle++ {
		rad := angle * math.Pi / 180
		px := x + int(float64(radius)*math.Cos(rad))
		py := y + int(float64(radius)*math.Sin(rad))
		setPixel(img, px, py, rippleColor)
		setPixel(img, px+1, py, rippleColor)
		setPixel(img, px, py+1, rippleColor)
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{x, y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
