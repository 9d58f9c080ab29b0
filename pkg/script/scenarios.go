package script

import (
	"fmt"
	"slices"
	"strings"

	"menuscript/pkg/variant"
)

type scenario struct {
	description string
	steps       func() []Operation
}

var scenarios = map[string]scenario{
	"model": {
		description: "every attribute type on one item, then a section and a submenu with two children each",
		steps:       modelSteps,
	},
	"menuchanges": {
		description: "append two items, then remove them one by one",
		steps: func() []Operation {
			return []Operation{
				Append("Menu0", "Menu0"),
				Append("Menu1", "Menu1"),
				Remove("0", ""),
				Remove("0", ""),
			}
		},
	},
	"actiongroup": {
		description: "two items with stateful string actions, then the second removed with its action",
		steps: func() []Operation {
			return []Operation{
				Append("Menu0", "Menu0Act", WithState(variant.NewString(""))),
				Append("Menu1", "Menu1Act", WithState(variant.NewString(""))),
				Remove("1", "Menu1Act"),
			}
		},
	},
}

// Scenarios lists the built-in scenario names.
func Scenarios() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Scenario returns a built-in script by name.
func Scenario(name string) (*Script, error) {
	sc, ok := scenarios[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (available: %s)", name, strings.Join(Scenarios(), ", "))
	}
	return &Script{Name: name, Description: sc.description, Steps: sc.steps()}, nil
}

func modelSteps() []Operation {
	nested := variant.NewDict(map[string]variant.Value{
		"int64":  variant.NewInt64(-42),
		"string": variant.NewString("42"),
		"double": variant.NewDouble(42.42),
	})

	return []Operation{
		Append("Menu0", "Menu0Act",
			WithAttribute("x-boolean", variant.NewBool(true)),
			WithAttribute("x-byte", variant.NewByte(42)),
			WithAttribute("x-int16", variant.NewInt16(-42)),
			WithAttribute("x-uint16", variant.NewUint16(42)),
			WithAttribute("x-int32", variant.NewInt32(-42)),
			WithAttribute("x-uint32", variant.NewUint32(42)),
			WithAttribute("x-int64", variant.NewInt64(-42)),
			WithAttribute("x-uint64", variant.NewUint64(42)),
			WithAttribute("x-double", variant.NewDouble(42.42)),
			WithAttribute("x-string", variant.NewString("42")),
			WithAttribute("x-utf8", variant.NewString("dança")),
			WithAttribute("x-map", nested),
		),
		Append("Menu1", "Menu1Act"),
		Append("Menu2", "Menu2Act", AsSection()),
		Append("Menu2.1", "Menu2.1Act", WithParent("2")),
		Append("Menu2.2", "Menu2.2Act", WithParent("2")),
		Append("Menu3", "Menu3Act", AsSubmenu()),
		Append("Menu3.1", "Menu3.1Act", WithParent("3")),
		Append("Menu3.2", "Menu3.2Act", WithParent("3")),
	}
}
