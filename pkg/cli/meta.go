package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Fepozopo/xray/pkg/stdimg"
)

// ParamType is a small enum for parameter types used in metadata.
type ParamType string

const (
	ParamTypeInt   ParamType = "int"
	ParamTypeFloat ParamType = "float"
)

// ValidationRule is a machine-friendly representation of the constraints
// that a UI or client can use to validate input before invoking a command.
type ValidationRule struct {
	Type     ParamType `json:"type"`
	Required bool      `json:"required"`
	Min      *float64  `json:"min,omitempty"`
	Max      *float64  `json:"max,omitempty"`
	Step     float64   `json:"step,omitempty"`
	Example  string    `json:"example,omitempty"`
	Hint     string    `json:"hint,omitempty"`
}

// --- stdimg integration helpers ---

// GenerateTooltipFromStdSpec produces a tooltip string from a stdimg.CommandSpec.
func GenerateTooltipFromStdSpec(c stdimg.CommandSpec) string {
	var sb strings.Builder
	sb.WriteString(c.Label)
	if c.Description != "" {
		sb.WriteString(": " + c.Description)
	}
	if len(c.Args) == 0 {
		sb.WriteString(" (no parameters)")
		return sb.String()
	}
	sb.WriteString("\nparameters:\n")
	for _, a := range c.Args {
		fmt.Fprintf(&sb, "- %s (%s, %v..%v)", a.Name, a.Type, a.Min, a.Max)
		if a.Description != "" {
			sb.WriteString(": " + a.Description)
		}
		if a.Default != "" {
			sb.WriteString(" [default " + a.Default + "]")
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// GenerateValidationRulesFromStdSpec creates ValidationRule entries from a stdimg.CommandSpec.
func GenerateValidationRulesFromStdSpec(c stdimg.CommandSpec) map[string]ValidationRule {
	rules := make(map[string]ValidationRule, len(c.Args))
	for _, a := range c.Args {
		t := ParamTypeFloat
		if strings.EqualFold(a.Type, "int") {
			t = ParamTypeInt
		}
		r := ValidationRule{Type: t, Required: a.Required, Step: a.Step, Hint: a.Description, Example: a.Default}
		if a.Max > a.Min {
			lo, hi := a.Min, a.Max
			r.Min, r.Max = &lo, &hi
		}
		rules[a.Name] = r
	}
	return rules
}

// StdMetaStore indexes stdimg.CommandSpec entries by canonical name.
type StdMetaStore struct {
	Commands []stdimg.CommandSpec
	byName   map[string]stdimg.CommandSpec
}

// NewMetaStoreFromStdimg creates a StdMetaStore from stdimg.CommandSpec list.
func NewMetaStoreFromStdimg(cmds []stdimg.CommandSpec) *StdMetaStore {
	m := &StdMetaStore{Commands: cmds, byName: make(map[string]stdimg.CommandSpec, len(cmds))}
	for _, c := range cmds {
		m.byName[c.Name] = c
	}
	return m
}

// lookup resolves aliases ("histeq", "contrast") before the map lookup.
func (m *StdMetaStore) lookup(name string) (stdimg.CommandSpec, error) {
	if c, ok := m.byName[name]; ok {
		return c, nil
	}
	if c, ok := stdimg.LookupCommand(name); ok {
		if c, ok := m.byName[c.Name]; ok {
			return c, nil
		}
	}
	return stdimg.CommandSpec{}, fmt.Errorf("unknown command: %s", name)
}

// GetCommandHelp returns both tooltip and validation rules for a stdimg command.
func (m *StdMetaStore) GetCommandHelp(name string) (string, map[string]ValidationRule, error) {
	c, err := m.lookup(name)
	if err != nil {
		return "", nil, err
	}
	return GenerateTooltipFromStdSpec(c), GenerateValidationRulesFromStdSpec(c), nil
}

// NormalizeArgsFromStd checks raw positional args against the slider ranges
// of the command and fills blanks with defaults. The returned slice always
// has one entry per declared argument.
func NormalizeArgsFromStd(store *StdMetaStore, cmdName string, args []string) ([]string, error) {
	if store == nil {
		return nil, fmt.Errorf("metadata store is nil")
	}
	c, err := store.lookup(cmdName)
	if err != nil {
		return nil, err
	}
	if len(args) > len(c.Args) {
		return nil, fmt.Errorf("%s takes %d parameters, got %d", c.Name, len(c.Args), len(args))
	}
	rules := GenerateValidationRulesFromStdSpec(c)
	out := make([]string, len(c.Args))
	for i, a := range c.Args {
		var raw string
		if i < len(args) {
			raw = strings.TrimSpace(args[i])
		}
		if raw == "" {
			if a.Required {
				return nil, fmt.Errorf("missing required parameter: %s", a.Name)
			}
			out[i] = a.Default
			continue
		}
		vr := rules[a.Name]
		var f float64
		switch vr.Type {
		case ParamTypeInt:
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: expected integer, got %q", a.Name, raw)
			}
			f = float64(v)
			out[i] = strconv.FormatInt(v, 10)
		default:
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: expected float, got %q", a.Name, raw)
			}
			f = v
			out[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if vr.Min != nil && f < *vr.Min {
			return nil, fmt.Errorf("parameter %s: %s < min %v", a.Name, out[i], *vr.Min)
		}
		if vr.Max != nil && f > *vr.Max {
			return nil, fmt.Errorf("parameter %s: %s > max %v", a.Name, out[i], *vr.Max)
		}
	}
	return out, nil
}
