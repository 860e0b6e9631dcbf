package recorder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/webagent/internal/action"
)

// fakeDriver records nothing itself; only the Camera and Pointer methods
// are ever called by the recorder
type fakeDriver struct {
	action.Driver
	shots   int
	centers map[string]image.Point
	failCam bool
}

func (d *fakeDriver) Snapshot(context.Context) (image.Image, error) {
	if d.failCam {
		return nil, errors.New("page crashed")
	}
	d.shots++
	img := image.NewRGBA(image.Rect(0, 0, 160, 90))
	shade := uint8(40 * d.shots)
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{shade, 200, 255 - shade, 255}}, image.Point{}, draw.Src)
	return img, nil
}

func (d *fakeDriver) ElementCenter(_ context.Context, selector string) (int, int, error) {
	p, ok := d.centers[selector]
	if !ok {
		return 0, 0, errors.New("not found")
	}
	return p.X, p.Y, nil
}

// blindDriver cannot take screenshots
type blindDriver struct{ action.Driver }

func TestRecorderFollowsActions(t *testing.T) {
	sel := action.ByAttribute("id", "buy")
	loc, err := sel.Locator()
	require.NoError(t, err)

	d := &fakeDriver{centers: map[string]image.Point{loc: {50, 40}}}
	r := New(Options{FPS: 10}, nil)
	ctx := context.Background()

	x, y := 10, 20
	r.Start(ctx, d)
	r.AfterStep(ctx, d, action.Step{Index: 0, Action: action.Click{X: &x, Y: &y}})
	r.AfterStep(ctx, d, action.Step{Index: 1, Action: action.Wait{}})
	r.AfterStep(ctx, d, action.Step{Index: 2, Action: action.Hover{Selector: sel}})
	r.AfterStep(ctx, d, action.Step{Index: 3, Action: action.Hover{Selector: action.ByAttribute("id", "gone")}})

	frames := r.Frames()
	require.Len(t, frames, 5)
	assert.False(t, frames[0].Cursor.Visible)
	assert.Equal(t, Cursor{X: 10, Y: 20, Click: true, Visible: true}, frames[1].Cursor)
	assert.Equal(t, Cursor{X: 10, Y: 20, Visible: true}, frames[2].Cursor, "a wait keeps the pointer but drops the click")
	assert.Equal(t, Cursor{X: 50, Y: 40, Visible: true}, frames[3].Cursor)
	assert.Equal(t, frames[3].Cursor, frames[4].Cursor, "unresolved targets leave the pointer in place")
}

func TestRecorderSkipsDriversWithoutCamera(t *testing.T) {
	r := New(Options{}, nil)
	r.Start(context.Background(), blindDriver{})
	assert.Empty(t, r.Frames())

	r.AfterStep(context.Background(), &fakeDriver{failCam: true}, action.Step{Action: action.Wait{}})
	assert.Empty(t, r.Frames())

	assert.ErrorIs(t, r.Encode(&bytes.Buffer{}), ErrNoFrames)
}

func TestTween(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	frames := []Frame{
		{Image: img, Cursor: Cursor{X: 0, Y: 0, Visible: true}},
		{Image: img, Cursor: Cursor{X: 100, Y: 0, Click: true, Visible: true}},
	}

	out := tween(frames, 5, 2)
	// 2 held + 4 glide + 2 held
	require.Len(t, out, 8)
	for i := 3; i < 6; i++ {
		assert.Greater(t, out[i].Cursor.X, out[i-1].Cursor.X, "glide moves monotonically")
	}
	assert.True(t, out[6].Cursor.Click)
	assert.False(t, out[7].Cursor.Click)
}

func TestEaseInOut(t *testing.T) {
	assert.InDelta(t, 0, easeInOut(0), 1e-9)
	assert.InDelta(t, 0.5, easeInOut(0.5), 1e-9)
	assert.InDelta(t, 1, easeInOut(1), 1e-9)
}

func TestRenderDrawsPointer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 60, 60))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{200, 0, 0, 255}}, image.Point{}, draw.Src)

	out := render(Frame{Image: img, Cursor: Cursor{X: 20, Y: 20, Click: true, Visible: true}}).(*image.RGBA)
	assert.Equal(t, outlineColor, out.RGBAAt(20, 20), "hotspot is outlined")
	assert.Equal(t, fillColor, out.RGBAAt(22, 26))
	assert.Equal(t, rippleColor, out.RGBAAt(35, 20))
	assert.Equal(t, color.RGBA{200, 0, 0, 255}, img.RGBAAt(20, 20), "source frame is untouched")

	hidden := render(Frame{Image: img}).(*image.RGBA)
	assert.Equal(t, color.RGBA{200, 0, 0, 255}, hidden.RGBAAt(20, 20))
}

func TestWriteGIF(t *testing.T) {
	d := &fakeDriver{}
	r := New(Options{FPS: 4, MaxWidth: 80, Hold: 2}, nil)
	x, y := 30, 30
	r.Start(context.Background(), d)
	r.AfterStep(context.Background(), d, action.Step{Action: action.Click{X: &x, Y: &y}})

	path := filepath.Join(t.TempDir(), "replay.gif")
	size, err := r.WriteGIF(path)
	require.NoError(t, err)
	assert.Positive(t, size)

	var buf bytes.Buffer
	require.NoError(t, r.Encode(&buf))
	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	// 2 held, 2 held; the pointer appears with no glide
	assert.Len(t, g.Image, 4)
	assert.Equal(t, 80, g.Config.Width)
	assert.Equal(t, 45, g.Config.Height)
	assert.Equal(t, 25, g.Delay[0])
}

func TestBuildPaletteLimits(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 0, 255})
		}
	}
	p := buildPalette(img)
	assert.Len(t, p, 256)
	assert.Equal(t, color.Color(outlineColor), p[0])
}
