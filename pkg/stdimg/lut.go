package stdimg

import (
	"image"
	"math"
	"strconv"
)

// LUT maps every 8-bit input intensity to an output intensity.
type LUT [256]uint8

// IdentityLUT returns the table that maps every level to itself.
func IdentityLUT() LUT {
	var lut LUT
	for i := range lut {
		lut[i] = uint8(i)
	}
	return lut
}

// GammaLUT builds the power-law table out = round(255 * (i/255)^gamma).
// gamma must be positive and finite; callers validate it.
func GammaLUT(gamma float64) LUT {
	var lut LUT
	for i := range lut {
		v := math.Pow(float64(i)/255.0, gamma) * 255.0
		lut[i] = uint8(clampFloatToUint8(math.Round(v)))
	}
	return lut
}

// ContrastStretchLUT maps [low, high) linearly onto [0, 255], clipping
// inputs below low to 0 and inputs at or above high to 255. The ramp samples
// n = high-low evenly spaced values from 0 to 255 and truncates them, so a
// one-wide ramp is 0.
func ContrastStretchLUT(low, high int) (LUT, error) {
	var lut LUT
	if err := validateStretchBounds(low, high); err != nil {
		return lut, err
	}
	n := high - low
	for i := low; i < high; i++ {
		if n > 1 {
			lut[i] = uint8(255 * (i - low) / (n - 1))
		}
	}
	for i := high; i < len(lut); i++ {
		lut[i] = 255
	}
	return lut, nil
}

func validateStretchBounds(low, high int) error {
	const name = "contrast_stretch"
	if low < 0 || low > 255 {
		return &ParamError{Technique: name, Param: "low", Value: strconv.Itoa(low), Reason: "must be within [0,255]"}
	}
	if high < 0 || high > 255 {
		return &ParamError{Technique: name, Param: "high", Value: strconv.Itoa(high), Reason: "must be within [0,255]"}
	}
	if low >= high {
		return &ParamError{Technique: name, Param: "low", Value: strconv.Itoa(low), Reason: "must be less than high=" + strconv.Itoa(high)}
	}
	return nil
}

// IsMonotonic reports whether the table never decreases.
func (l LUT) IsMonotonic() bool {
	for i := 1; i < len(l); i++ {
		if l[i] < l[i-1] {
			return false
		}
	}
	return true
}

// Ints returns the table as plain ints, convenient for JSON and plotting.
func (l LUT) Ints() []int {
	out := make([]int, len(l))
	for i, v := range l {
		out[i] = int(v)
	}
	return out
}

// ApplyLUT maps every pixel of src through lut into a new image with the
// same bounds. src is never modified.
func ApplyLUT(src *image.Gray, lut LUT) *image.Gray {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	out := image.NewGray(b)
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := src.PixOffset(b.Min.X, y)
		di := out.PixOffset(b.Min.X, y)
		row := src.Pix[si : si+w]
		dst := out.Pix[di : di+w]
		for x, v := range row {
			dst[x] = lut[v]
		}
	}
	return out
}
