package stdimg

import (
	"image"
	"math"
)

// ComputeHistogram counts the pixels at each of the 256 intensity levels.
func ComputeHistogram(src *image.Gray) [256]int {
	var hist [256]int
	if src == nil {
		return hist
	}
	b := src.Bounds()
	w := b.Dx()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := src.PixOffset(b.Min.X, y)
		for _, v := range src.Pix[i : i+w] {
			hist[v]++
		}
	}
	return hist
}

// EqualizeLUT derives the equalization table from a histogram using the
// CDF-min normalization:
//
//	out[i] = round((cdf[i] - cdfMin) * 255 / (total - cdfMin))
//
// where cdfMin is the first non-zero cumulative count. Levels below the first
// populated bin map to 0. A histogram with a single populated level (or no
// pixels at all) yields the identity table so the image is returned as is.
func EqualizeLUT(hist [256]int) LUT {
	total := 0
	first := -1
	for i, c := range hist {
		total += c
		if first < 0 && c > 0 {
			first = i
		}
	}
	if first < 0 || hist[first] == total {
		return IdentityLUT()
	}

	var lut LUT
	cdfMin := hist[first]
	scale := 255.0 / float64(total-cdfMin)
	cdf := 0
	for i := 0; i < 256; i++ {
		cdf += hist[i]
		if i < first {
			continue
		}
		v := math.Round(float64(cdf-cdfMin) * scale)
		lut[i] = uint8(clampFloatToUint8(v))
	}
	return lut
}

// Equalize performs histogram equalization and returns a new image.
func Equalize(src *image.Gray) *image.Gray {
	if src == nil {
		return nil
	}
	return ApplyLUT(src, EqualizeLUT(ComputeHistogram(src)))
}
