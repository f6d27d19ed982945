package stdimg

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Canonical technique identifiers.
const (
	NameGamma                 = "gamma"
	NameHistogramEqualization = "histogram_equalization"
	NameContrastStretch       = "contrast_stretch"
	NameGammaThenEqualize     = "gamma_then_histogram_equalization"
)

// Technique is one of the four enhancement techniques together with its
// parameters. The set is closed: only the types in this package implement it.
type Technique interface {
	Name() string
	Validate() error
	isTechnique()
}

// GammaCorrection is power-law remapping with exponent Gamma.
type GammaCorrection struct {
	Gamma float64
}

// HistogramEqualization flattens the intensity distribution of the image.
type HistogramEqualization struct{}

// ContrastStretching maps [Low, High) onto the full range.
type ContrastStretching struct {
	Low  int
	High int
}

// GammaThenEqualization applies gamma correction followed by equalization.
type GammaThenEqualization struct {
	Gamma float64
}

func (GammaCorrection) Name() string       { return NameGamma }
func (HistogramEqualization) Name() string { return NameHistogramEqualization }
func (ContrastStretching) Name() string    { return NameContrastStretch }
func (GammaThenEqualization) Name() string { return NameGammaThenEqualize }

func (t GammaCorrection) Validate() error       { return validateGamma(t.Name(), t.Gamma) }
func (HistogramEqualization) Validate() error   { return nil }
func (t ContrastStretching) Validate() error    { return validateStretchBounds(t.Low, t.High) }
func (t GammaThenEqualization) Validate() error { return validateGamma(t.Name(), t.Gamma) }

func (GammaCorrection) isTechnique()       {}
func (HistogramEqualization) isTechnique() {}
func (ContrastStretching) isTechnique()    {}
func (GammaThenEqualization) isTechnique() {}

func validateGamma(technique string, gamma float64) error {
	if math.IsNaN(gamma) || math.IsInf(gamma, 0) || gamma <= 0 {
		return &ParamError{
			Technique: technique,
			Param:     "gamma",
			Value:     strconv.FormatFloat(gamma, 'g', -1, 64),
			Reason:    "must be a positive finite number",
		}
	}
	return nil
}

// Result is the output of Enhance. LUT is nil when the technique is not a
// single table lookup exposed to callers (gamma then equalization).
type Result struct {
	Technique Technique
	Image     *image.Gray
	LUT       *LUT
}

// Title returns a human readable caption for the processed image.
func (r Result) Title() string {
	return Title(r.Technique)
}

// Title returns the caption used for a technique's processed image.
func Title(t Technique) string {
	switch t := t.(type) {
	case GammaCorrection:
		return fmt.Sprintf("Gamma (γ=%.2f)", t.Gamma)
	case HistogramEqualization:
		return "Histogram Equalization"
	case ContrastStretching:
		return fmt.Sprintf("Contrast Stretching (%d-%d)", t.Low, t.High)
	case GammaThenEqualization:
		return fmt.Sprintf("Gamma (γ=%.2f) + Histogram Equalization", t.Gamma)
	default:
		return "Processed Image"
	}
}

// Enhance runs technique t on src. Parameters are validated before any table
// is built; no output is produced on error.
func Enhance(src *image.Gray, t Technique) (Result, error) {
	if t == nil {
		return Result{}, invalidTechnique("<nil>")
	}
	if err := t.Validate(); err != nil {
		return Result{}, err
	}
	if src == nil {
		return Result{}, ErrNilImage
	}

	switch t := t.(type) {
	case GammaCorrection:
		lut := GammaLUT(t.Gamma)
		return Result{Technique: t, Image: ApplyLUT(src, lut), LUT: &lut}, nil
	case HistogramEqualization:
		lut := EqualizeLUT(ComputeHistogram(src))
		return Result{Technique: t, Image: ApplyLUT(src, lut), LUT: &lut}, nil
	case ContrastStretching:
		lut, err := ContrastStretchLUT(t.Low, t.High)
		if err != nil {
			return Result{}, err
		}
		return Result{Technique: t, Image: ApplyLUT(src, lut), LUT: &lut}, nil
	case GammaThenEqualization:
		return Result{Technique: t, Image: GammaThenEqualize(src, t.Gamma)}, nil
	default:
		return Result{}, invalidTechnique(t.Name())
	}
}

// ParseTechnique resolves a technique name and its textual parameters.
// Missing parameters take the defaults advertised in Commands. Names are
// matched case-insensitively and a few short aliases are accepted.
func ParseTechnique(name string, params map[string]string) (Technique, error) {
	canonical, ok := canonicalName(name)
	if !ok {
		return nil, invalidTechnique(name)
	}
	spec, _ := LookupCommand(canonical)
	get := func(key string) string {
		if v, ok := params[key]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if a, ok := spec.Arg(key); ok {
			return a.Default
		}
		return ""
	}

	var t Technique
	switch canonical {
	case NameGamma, NameGammaThenEqualize:
		g, err := parseFloatParam(canonical, "gamma", get("gamma"))
		if err != nil {
			return nil, err
		}
		if canonical == NameGamma {
			t = GammaCorrection{Gamma: g}
		} else {
			t = GammaThenEqualization{Gamma: g}
		}
	case NameHistogramEqualization:
		t = HistogramEqualization{}
	case NameContrastStretch:
		low, err := parseIntParam(canonical, "low", get("low"))
		if err != nil {
			return nil, err
		}
		high, err := parseIntParam(canonical, "high", get("high"))
		if err != nil {
			return nil, err
		}
		t = ContrastStretching{Low: low, High: high}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ApplyCommand converts img to grayscale and applies the named technique
// with positional args ordered as in the technique's CommandSpec.
func ApplyCommand(img image.Image, commandName string, args []string) (Result, error) {
	if img == nil {
		return Result{}, ErrNilImage
	}
	canonical, ok := canonicalName(commandName)
	if !ok {
		return Result{}, invalidTechnique(commandName)
	}
	spec, _ := LookupCommand(canonical)
	if len(args) > len(spec.Args) {
		return Result{}, fmt.Errorf("%s takes at most %d args, got %d", canonical, len(spec.Args), len(args))
	}
	params := make(map[string]string, len(args))
	for i, a := range args {
		params[spec.Args[i].Name] = a
	}
	t, err := ParseTechnique(canonical, params)
	if err != nil {
		return Result{}, err
	}
	return Enhance(ToGray(img), t)
}

func canonicalName(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameGamma, "gamma transformation":
		return NameGamma, true
	case NameHistogramEqualization, "histeq", "equalize", "histogram equalization":
		return NameHistogramEqualization, true
	case NameContrastStretch, "contrast", "stretch", "contrast stretching":
		return NameContrastStretch, true
	case NameGammaThenEqualize, "gamma+histeq", "gamma_histeq", "gamma + histeq":
		return NameGammaThenEqualize, true
	}
	return "", false
}

func parseFloatParam(technique, param, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ParamError{Technique: technique, Param: param, Value: raw, Reason: "expected a number"}
	}
	return v, nil
}

func parseIntParam(technique, param, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ParamError{Technique: technique, Param: param, Value: raw, Reason: "expected an integer"}
	}
	return v, nil
}
