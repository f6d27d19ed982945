package stdimg

import (
	"image"
	"image/color"
	"image/draw"
)

// ToGray converts any image.Image to a new *image.Gray using the standard
// luminance weights of color.GrayModel. A *image.Gray input is copied.
// Alpha is discarded: the luminance of the un-premultiplied colour is kept,
// so a transparent white pixel becomes 255.
func ToGray(src image.Image) *image.Gray {
	if src == nil {
		return nil
	}
	if g, ok := src.(*image.Gray); ok {
		return CloneGray(g)
	}
	b := src.Bounds()
	out := image.NewGray(b)
	w := b.Dx()

	if s, ok := src.(*image.NRGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			si := s.PixOffset(b.Min.X, y)
			di := out.PixOffset(b.Min.X, y)
			for x := 0; x < w; x++ {
				p := s.Pix[si+4*x : si+4*x+3 : si+4*x+3]
				out.Pix[di+x] = luma(uint32(p[0])*0x101, uint32(p[1])*0x101, uint32(p[2])*0x101)
			}
		}
		return out
	}
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		draw.Draw(out, b, src, b.Min, draw.Src)
		return out
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		di := out.PixOffset(b.Min.X, y)
		for x := 0; x < w; x++ {
			out.Pix[di+x] = lumaOf(src.At(b.Min.X+x, y))
		}
	}
	return out
}

// lumaOf keeps the colour of non-premultiplied values (paletted PNG entries
// with tRNS are color.NRGBA) even at zero alpha.
func lumaOf(c color.Color) uint8 {
	switch c := c.(type) {
	case color.NRGBA:
		return luma(uint32(c.R)*0x101, uint32(c.G)*0x101, uint32(c.B)*0x101)
	case color.NRGBA64:
		return luma(uint32(c.R), uint32(c.G), uint32(c.B))
	}
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return luma(uint32(n.R), uint32(n.G), uint32(n.B))
}

// luma matches color.GrayModel for 16-bit channels.
func luma(r, g, b uint32) uint8 {
	return uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
}

// CloneGray returns a tightly packed copy of the provided image.Gray.
func CloneGray(src *image.Gray) *image.Gray {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	out := image.NewGray(b)
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := src.PixOffset(b.Min.X, y)
		di := out.PixOffset(b.Min.X, y)
		copy(out.Pix[di:di+w], src.Pix[si:si+w])
	}
	return out
}

// EqualGray reports whether two gray images have the same bounds and samples.
func EqualGray(a, b *image.Gray) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Bounds() != b.Bounds() {
		return false
	}
	r := a.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.GrayAt(x, y).Y != b.GrayAt(x, y).Y {
				return false
			}
		}
	}
	return true
}

// clampInt clamps v to [lo,hi]
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloatToUint8(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
