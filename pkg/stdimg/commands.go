// Package stdimg: authoritative registry of enhancement techniques.
//
// This file mirrors the techniques dispatched by Enhance and ParseTechnique
// in pkg/stdimg/engine.go. Hosts (terminal editor, HTTP dashboard, help text)
// read argument names, ranges and defaults from here.

package stdimg

// ArgSpec describes a single argument for a command. Min, Max and Step
// describe the slider range offered by interactive hosts; only the limits
// enforced by Technique.Validate are hard errors.
type ArgSpec struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"` // "int" or "float"
	Required    bool    `json:"required"`
	Default     string  `json:"default"`
	Description string  `json:"description"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Step        float64 `json:"step"`
}

// CommandSpec defines a single technique and its expected arguments.
type CommandSpec struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Args        []ArgSpec `json:"args"`
	Usage       string    `json:"usage"`
	Description string    `json:"description"`
	HasCurve    bool      `json:"has_curve"`
}

// Arg returns the argument spec with the given name.
func (c CommandSpec) Arg(name string) (ArgSpec, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgSpec{}, false
}

var gammaArg = ArgSpec{
	Name:        "gamma",
	Type:        "float",
	Default:     "1.0",
	Description: "power-law exponent; <1 brightens shadows, >1 darkens them",
	Min:         0.1,
	Max:         5.0,
	Step:        0.1,
}

// Commands is the authoritative list of techniques, in menu order.
var Commands = []CommandSpec{
	{
		Name:        NameGamma,
		Label:       "Gamma Transformation",
		Args:        []ArgSpec{gammaArg},
		Usage:       "gamma [gamma]",
		Description: "Power-law intensity remapping s = 255*(r/255)^gamma.",
		HasCurve:    true,
	},
	{
		Name:        NameHistogramEqualization,
		Label:       "Histogram Equalization",
		Args:        []ArgSpec{},
		Usage:       NameHistogramEqualization,
		Description: "Flatten the intensity distribution using the cumulative histogram.",
		HasCurve:    true,
	},
	{
		Name:  NameContrastStretch,
		Label: "Contrast Stretching",
		Args: []ArgSpec{
			{Name: "low", Type: "int", Default: "50", Description: "inputs below map to 0", Min: 0, Max: 255, Step: 1},
			{Name: "high", Type: "int", Default: "200", Description: "inputs at or above map to 255", Min: 0, Max: 255, Step: 1},
		},
		Usage:       "contrast_stretch [low] [high]",
		Description: "Linearly stretch [low, high) to the full [0,255] range, clipping outside it.",
		HasCurve:    true,
	},
	{
		Name:        NameGammaThenEqualize,
		Label:       "Gamma + HistEq",
		Args:        []ArgSpec{gammaArg},
		Usage:       "gamma_then_histogram_equalization [gamma]",
		Description: "Gamma correction followed by histogram equalization.",
	},
}

// LookupCommand finds a technique by canonical name or alias.
func LookupCommand(name string) (CommandSpec, bool) {
	canonical, ok := canonicalName(name)
	if !ok {
		return CommandSpec{}, false
	}
	for _, c := range Commands {
		if c.Name == canonical {
			return c, true
		}
	}
	return CommandSpec{}, false
}
