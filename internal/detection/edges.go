package detection

import (
	"image"
	"math"
)

// edgeMap holds summed-area tables of edge pixels split by orientation so the
// edge count of any window can be read in constant time.
//
// vert counts pixels whose gradient is mostly horizontal (vertical strokes,
// typical of plate characters); horiz counts the remaining edge pixels.
type edgeMap struct {
	width, height int
	vert          []int
	horiz         []int
}

// buildEdgeMap converts img to luminance, smooths it with a 5-tap binomial,
// computes Sobel gradients and thresholds the magnitude.
//
// threshold is on the 0..1 luminance scale of the Sobel magnitude.
func buildEdgeMap(img image.Image, threshold float64) *edgeMap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	gray := make([][]float64, height)
	for y := 0; y < height; y++ {
		gray[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// ITU-R BT.601 luma on 8-bit values
			rf := float64(r>>8) / 255.0
			gf := float64(g>>8) / 255.0
			bf := float64(b>>8) / 255.0
			gray[y][x] = 0.299*rf + 0.587*gf + 0.114*bf
		}
	}

	blurred := gaussianBlur(gray, width, height)

	stride := width + 1
	m := &edgeMap{
		width:  width,
		height: height,
		vert:   make([]int, stride*(height+1)),
		horiz:  make([]int, stride*(height+1)),
	}

	for y := 0; y < height; y++ {
		rowV, rowH := 0, 0
		for x := 0; x < width; x++ {
			gx, gy := sobel(blurred, x, y, width, height)
			if math.Sqrt(gx*gx+gy*gy) >= threshold {
				if math.Abs(gx) >= math.Abs(gy) {
					rowV++
				} else {
					rowH++
				}
			}
			i := (y+1)*stride + x + 1
			m.vert[i] = m.vert[i-stride] + rowV
			m.horiz[i] = m.horiz[i-stride] + rowH
		}
	}

	return m
}

// window returns the vertical-stroke and other edge counts inside the
// w x h window whose top-left corner is (x, y).
func (m *edgeMap) window(x, y, w, h int) (vert, horiz int) {
	return m.sum(m.vert, x, y, w, h), m.sum(m.horiz, x, y, w, h)
}

// plateLike reports whether the window has a plate's edge density and is
// dominated by vertical strokes.
func (m *edgeMap) plateLike(x, y, w, h int) bool {
	vert, horiz := m.window(x, y, w, h)
	total := vert + horiz
	density := float64(total) / float64(w*h)
	if density < minEdgeDensity || density > maxEdgeDensity {
		return false
	}
	return float64(vert)/float64(total) >= minVerticalFrac
}

// textured reports whether the window is part of a repeating texture rather
// than a plate: its same-size neighbours directly above and below, clipped
// to the frame, are plateLike too. A plate is a single strip of characters
// with plain bodywork above and below it. Neighbours clipped below a quarter
// of the window height are ignored; a window with no usable neighbour is not
// textured.
func (m *edgeMap) textured(x, y, w, h int) bool {
	frame := image.Rect(0, 0, m.width, m.height)
	checked := 0
	for _, n := range [2]image.Rectangle{
		image.Rect(x, y-h, x+w, y),
		image.Rect(x, y+h, x+w, y+2*h),
	} {
		n = n.Intersect(frame)
		if n.Empty() || n.Dy()*4 < h {
			continue
		}
		if !m.plateLike(n.Min.X, n.Min.Y, n.Dx(), n.Dy()) {
			return false
		}
		checked++
	}
	return checked > 0
}

func (m *edgeMap) sum(tbl []int, x, y, w, h int) int {
	stride := m.width + 1
	a := y*stride + x
	b := y*stride + x + w
	c := (y+h)*stride + x
	d := (y+h)*stride + x + w
	return tbl[d] - tbl[b] - tbl[c] + tbl[a]
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

func sobel(img [][]float64, x, y, width, height int) (gx, gy float64) {
	for ky := -1; ky <= 1; ky++ {
		for kx := -1; kx <= 1; kx++ {
			py := clamp(y+ky, 0, height-1)
			px := clamp(x+kx, 0, width-1)
			gx += img[py][px] * sobelX[ky+1][kx+1]
			gy += img[py][px] * sobelY[ky+1][kx+1]
		}
	}
	return gx, gy
}

// binomial5 approximates a gaussian with sigma 1. Applied along both axes it
// is enough smoothing for strokes a few pixels wide.
var binomial5 = [5]float64{1 / 16.0, 4 / 16.0, 6 / 16.0, 4 / 16.0, 1 / 16.0}

// gaussianBlur smooths sensor noise before the Sobel pass so that only
// character strokes, not speckle, reach the edge threshold. Borders are
// replicated.
func gaussianBlur(img [][]float64, width, height int) [][]float64 {
	rows := make([][]float64, height)
	for y := 0; y < height; y++ {
		rows[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for k, wt := range binomial5 {
				sum += img[y][clamp(x+k-2, 0, width-1)] * wt
			}
			rows[y][x] = sum
		}
	}

	result := make([][]float64, height)
	for y := 0; y < height; y++ {
		result[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for k, wt := range binomial5 {
				sum += rows[clamp(y+k-2, 0, height-1)][x] * wt
			}
			result[y][x] = sum
		}
	}
	return result
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
