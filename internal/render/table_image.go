package render

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/KaramelBytes/bpreport/internal/stats"
)

var (
	tableFace   = basicfont.Face7x13
	colorText   = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	colorBorder = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	colorPanel  = color.RGBA{R: 240, G: 240, B: 240, A: 255}
)

const (
	tableTitleH = 22
	tableRowH   = 22
)

// drawSummaryTable draws a titled grid: a header row of statistic names, then
// one row per series. Header cells use the partition colour with white text.
func drawSummaryTable(dst *image.RGBA, r image.Rectangle, s stats.Summary) {
	title := s.Partition.Title()
	tw := font.MeasureString(tableFace, title).Ceil()
	drawBoldText(dst, r.Min.X+(r.Dx()-tw)/2, r.Min.Y+tableFace.Metrics().Ascent.Ceil(), title, colorText)

	head := hexColor(s.Partition.HeaderColor())
	ncol := len(stats.Columns) + 1
	colW := r.Dx() / ncol
	y := r.Min.Y + tableTitleH

	cell := func(col, row int) image.Rectangle {
		x0 := r.Min.X + col*colW
		y0 := y + row*tableRowH
		return image.Rect(x0, y0, x0+colW, y0+tableRowH)
	}

	fillCell(dst, cell(0, 0), head)
	for i, name := range stats.Columns {
		c := cell(i+1, 0)
		fillCell(dst, c, head)
		drawCentered(dst, c, name, color.White, true)
	}
	for row, ss := range s.Series {
		c := cell(0, row+1)
		fillCell(dst, c, head)
		drawCentered(dst, c, ss.Name, color.White, true)
		for i, v := range ss.Cells() {
			c := cell(i+1, row+1)
			fillCell(dst, c, color.White)
			drawCentered(dst, c, v, colorText, false)
		}
	}
}

func fillCell(dst *image.RGBA, r image.Rectangle, bg color.Color) {
	draw.Draw(dst, r, image.NewUniform(colorBorder), image.Point{}, draw.Src)
	draw.Draw(dst, r.Inset(1), image.NewUniform(bg), image.Point{}, draw.Src)
}

func drawCentered(dst *image.RGBA, r image.Rectangle, text string, col color.Color, bold bool) {
	w := font.MeasureString(tableFace, text).Ceil()
	m := tableFace.Metrics()
	x := r.Min.X + (r.Dx()-w)/2
	y := r.Min.Y + (r.Dy()+m.Ascent.Ceil()-m.Descent.Ceil())/2
	if bold {
		drawBoldText(dst, x, y, text, col)
		return
	}
	drawText(dst, x, y, text, col)
}

func drawText(dst *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: tableFace,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// drawBoldText fakes a bold weight by overstriking one pixel to the right.
func drawBoldText(dst *image.RGBA, x, y int, text string, col color.Color) {
	drawText(dst, x, y, text, col)
	drawText(dst, x+1, y, text, col)
}

func drawPlaceholder(dst *image.RGBA, r image.Rectangle, text string) {
	draw.Draw(dst, r, image.NewUniform(colorPanel), image.Point{}, draw.Src)
	w := font.MeasureString(tableFace, text).Ceil()
	drawBoldText(dst, r.Min.X+(r.Dx()-w)/2, r.Min.Y+r.Dy()/2, text, colorText)
}

// hexColor parses "rrggbb"; malformed input yields black.
func hexColor(s string) color.RGBA {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}
