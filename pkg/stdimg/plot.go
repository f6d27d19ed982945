package stdimg

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	plotBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	plotAxis       = color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	plotGrid       = color.NRGBA{R: 225, G: 225, B: 225, A: 255}
	plotText       = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

	// CurveColor, OriginalHistColor and ProcessedHistColor follow the
	// dashboard palette: red transfer curve, blue/green histograms.
	CurveColor         = color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	OriginalHistColor  = color.NRGBA{R: 30, G: 60, B: 220, A: 255}
	ProcessedHistColor = color.NRGBA{R: 20, G: 160, B: 40, A: 255}
)

const (
	plotMarginLeft   = 34
	plotMarginRight  = 12
	plotMarginTop    = 22
	plotMarginBottom = 30
	reportPanel      = 384
	reportPad        = 12
	reportCaption    = 20
)

// plotArea is the rectangle inside the axes of a chart of size w x h.
func plotArea(w, h int) image.Rectangle {
	return image.Rect(plotMarginLeft, plotMarginTop, w-plotMarginRight, h-plotMarginBottom)
}

func newCanvas(w, h int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(plotBackground), image.Point{}, draw.Src)
	return out
}

// drawLabel writes text with the built-in 7x13 face; (x, y) is the baseline origin.
func drawLabel(dst draw.Image, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

func labelWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

// drawLine rasterizes a segment with Bresenham's algorithm.
func drawLine(dst *image.NRGBA, x0, y0, x1, y1 int, col color.NRGBA) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if (image.Point{X: x0, Y: y0}).In(dst.Rect) {
			dst.SetNRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// drawAxes draws the frame, quarter grid lines and 0/255 tick labels of a chart.
func drawAxes(dst *image.NRGBA, area image.Rectangle, title, xLabel string) {
	for q := 1; q < 4; q++ {
		gx := area.Min.X + q*area.Dx()/4
		gy := area.Min.Y + q*area.Dy()/4
		drawLine(dst, gx, area.Min.Y, gx, area.Max.Y, plotGrid)
		drawLine(dst, area.Min.X, gy, area.Max.X, gy, plotGrid)
	}
	drawLine(dst, area.Min.X, area.Max.Y, area.Max.X, area.Max.Y, plotAxis)
	drawLine(dst, area.Min.X, area.Min.Y, area.Min.X, area.Max.Y, plotAxis)

	drawLabel(dst, title, (dst.Rect.Dx()-labelWidth(title))/2, 15, plotText)
	drawLabel(dst, "0", area.Min.X-3, area.Max.Y+13, plotText)
	drawLabel(dst, "255", area.Max.X-labelWidth("255")/2, area.Max.Y+13, plotText)
	drawLabel(dst, xLabel, (dst.Rect.Dx()-labelWidth(xLabel))/2, dst.Rect.Dy()-4, plotText)
}

// RenderCurveImage plots a transformation table s = T(r) with the input
// intensity on the x axis and the output intensity on the y axis.
func RenderCurveImage(lut LUT, width, height int) *image.NRGBA {
	if width <= 0 {
		width = 320
	}
	if height <= 0 {
		height = 240
	}
	out := newCanvas(width, height)
	area := plotArea(width, height)
	drawAxes(out, area, "Transformation Function s = T(r)", "Input Intensity (r)")
	drawLabel(out, "255", 2, area.Min.Y+5, plotText)

	px := func(i int) int { return area.Min.X + int(math.Round(float64(i)*float64(area.Dx())/255.0)) }
	py := func(v uint8) int { return area.Max.Y - int(math.Round(float64(v)*float64(area.Dy())/255.0)) }
	for i := 1; i < len(lut); i++ {
		drawLine(out, px(i-1), py(lut[i-1]), px(i), py(lut[i]), CurveColor)
	}
	return out
}

// RenderHistogramImage draws a 256-bin histogram as vertical bars scaled to the tallest bin.
func RenderHistogramImage(hist [256]int, width, height int, col color.NRGBA, title string) *image.NRGBA {
	if width <= 0 {
		width = 512
	}
	if height <= 0 {
		height = 160
	}
	out := newCanvas(width, height)
	area := plotArea(width, height)
	drawAxes(out, area, title, "Intensity")

	maxv := 1
	for _, v := range hist {
		if v > maxv {
			maxv = v
		}
	}
	for x := area.Min.X + 1; x < area.Max.X; x++ {
		bin := (x - area.Min.X) * 256 / area.Dx()
		bin = clampInt(bin, 0, 255)
		bh := int(math.Round(float64(hist[bin]) / float64(maxv) * float64(area.Dy()-1)))
		for y := 0; y < bh; y++ {
			out.SetNRGBA(x, area.Max.Y-1-y, col)
		}
	}
	return out
}

// fitGray scales src to fit inside a box x box square, preserving aspect ratio.
func fitGray(src *image.Gray, box int) *image.Gray {
	b := src.Bounds()
	scale := math.Min(float64(box)/float64(b.Dx()), float64(box)/float64(b.Dy()))
	if scale >= 1 {
		return CloneGray(src)
	}
	w := int(math.Max(1, math.Round(float64(b.Dx())*scale)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*scale)))
	out := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), src, b, xdraw.Src, nil)
	return out
}

// place copies src onto dst with src's top-left corner at pt.
func place(dst draw.Image, src image.Image, pt image.Point) {
	r := image.Rectangle{Min: pt, Max: pt.Add(src.Bounds().Size())}
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Src)
}

// RenderReport composes the comparison view: original and processed side by
// side, the transformation curve when lut is non-nil, and the before/after
// histograms.
func RenderReport(original, processed *image.Gray, lut *LUT, title string) *image.NRGBA {
	if original == nil || processed == nil {
		return nil
	}
	left := fitGray(original, reportPanel)
	right := fitGray(processed, reportPanel)
	imgH := left.Bounds().Dy()
	if h := right.Bounds().Dy(); h > imgH {
		imgH = h
	}

	width := 2*reportPanel + 3*reportPad
	chartW := reportPanel
	curveH := 0
	if lut != nil {
		curveH = 260 + reportPad
	}
	histH := 180
	height := reportPad + reportCaption + imgH + reportPad + curveH + histH + reportPad
	out := newCanvas(width, height)

	y := reportPad
	drawLabel(out, "Original Image", reportPad, y+13, plotText)
	drawLabel(out, title, 2*reportPad+reportPanel, y+13, plotText)
	y += reportCaption
	place(out, left, image.Pt(reportPad, y))
	place(out, right, image.Pt(2*reportPad+reportPanel, y))
	y += imgH + reportPad

	if lut != nil {
		curve := RenderCurveImage(*lut, 320, 260)
		x := (width - curve.Bounds().Dx()) / 2
		place(out, curve, image.Pt(x, y))
		y += curveH
	}

	before := RenderHistogramImage(ComputeHistogram(original), chartW, histH, OriginalHistColor, "Original Histogram")
	after := RenderHistogramImage(ComputeHistogram(processed), chartW, histH, ProcessedHistColor, "Processed Histogram")
	place(out, before, image.Pt(reportPad, y))
	place(out, after, image.Pt(2*reportPad+reportPanel, y))
	return out
}
