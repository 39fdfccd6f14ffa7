package plot

import (
	"math"
	"strings"
)

// Braille cells hold 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a braille dot grid of Width x Height cells, i.e.
// (2·Width) x (4·Height) addressable dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
	return c
}

// Set turns on the dot at sub-pixel (x, y); out-of-range dots are dropped.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Marker draws a small cross centred on (x, y).
func (c *Canvas) Marker(x, y int) {
	c.Set(x, y)
	c.Set(x-1, y)
	c.Set(x+1, y)
	c.Set(x, y-1)
	c.Set(x, y+1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Terminal draws the figure on a braille canvas of cols x rows cells. Error
// bars become vertical lines; the curve is drawn solid.
func Terminal(f *Figure, cols, rows int) *Canvas {
	c := NewCanvas(cols, rows)
	b := f.bounds()
	w, h := float64(cols*2-1), float64(rows*4-1)

	sx := func(x float64) int { return int(math.Round((x - b.minX) / (b.maxX - b.minX) * w)) }
	sy := func(y float64) int { return int(math.Round(h - (y-b.minY)/(b.maxY-b.minY)*h)) }

	prevOK := false
	var px, py int
	for i, x := range f.CurveX {
		y := f.CurveY[i]
		if math.IsNaN(y) || math.IsInf(y, 0) {
			prevOK = false
			continue
		}
		cx, cy := sx(x), sy(y)
		if prevOK {
			c.DrawLine(px, py, cx, cy)
		} else {
			c.Set(cx, cy)
		}
		px, py, prevOK = cx, cy, true
	}

	for i, t := range f.Times {
		x, y := sx(t), sy(f.Ratios[i])
		if e := f.Errors[i]; e > 0 {
			c.DrawLine(x, sy(f.Ratios[i]-e), x, sy(f.Ratios[i]+e))
		}
		c.Marker(x, y)
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
