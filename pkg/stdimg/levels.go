package stdimg

import (
	"image"
)

// Gamma applies power-law gamma correction (gamma>0). gamma==1 -> identical copy
func Gamma(src *image.Gray, gamma float64) *image.Gray {
	if src == nil {
		return nil
	}
	return ApplyLUT(src, GammaLUT(gamma))
}

// ContrastStretch remaps [low, high) onto the full output range.
func ContrastStretch(src *image.Gray, low, high int) (*image.Gray, error) {
	if src == nil {
		return nil, ErrNilImage
	}
	lut, err := ContrastStretchLUT(low, high)
	if err != nil {
		return nil, err
	}
	return ApplyLUT(src, lut), nil
}

// GammaThenEqualize gamma-corrects src and equalizes the result. Equalization
// always runs last and the intermediate image is not retained; callers that
// want the gamma curve for display should build it with GammaLUT.
func GammaThenEqualize(src *image.Gray, gamma float64) *image.Gray {
	if src == nil {
		return nil
	}
	return Equalize(ApplyLUT(src, GammaLUT(gamma)))
}
