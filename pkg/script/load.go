package script

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"menuscript/pkg/menu"
	"menuscript/pkg/variant"
)

// Script is a named list of operations read from a file or a built-in
// scenario.
type Script struct {
	Name        string
	Description string
	Steps       []Operation
}

// Queue returns a fresh queue holding the script's steps.
func (s *Script) Queue() *Queue {
	return NewQueue(s.Steps...)
}

type fileSpec struct {
	Name        string     `mapstructure:"name"`
	Description string     `mapstructure:"description"`
	Steps       []stepSpec `mapstructure:"steps"`
}

type stepSpec struct {
	Append *appendSpec `mapstructure:"append"`
	Remove *removeSpec `mapstructure:"remove"`
}

type appendSpec struct {
	Label      string         `mapstructure:"label"`
	Action     string         `mapstructure:"action"`
	Parent     string         `mapstructure:"parent"`
	Link       string         `mapstructure:"link"`
	Attributes map[string]any `mapstructure:"attributes"`
	State      any            `mapstructure:"state"`
}

type removeSpec struct {
	Path   string `mapstructure:"path"`
	Action string `mapstructure:"action"`
}

// LoadFile reads a YAML or JSON script.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Parse decodes a script document. JSON documents are valid YAML, so one
// decoder reads both.
func Parse(data []byte) (*Script, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	var spec fileSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.DecodeHookFuncType(rejectFloatText),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}

	s := &Script{Name: spec.Name, Description: spec.Description}
	for i, step := range spec.Steps {
		op, err := step.operation()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		s.Steps = append(s.Steps, op)
	}
	return s, nil
}

// rejectFloatText refuses floating-point numbers where text is expected. An
// unquoted 1.0 or 2.10 would otherwise turn into the path "1" or "2.1".
func rejectFloatText(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
		return nil, fmt.Errorf("got the number %v where text is expected; quote dotted paths and labels", data)
	}
	return data, nil
}

func (s stepSpec) operation() (Operation, error) {
	switch {
	case s.Append != nil && s.Remove != nil:
		return Operation{}, fmt.Errorf("step has both append and remove")
	case s.Remove != nil:
		if strings.TrimSpace(s.Remove.Path) == "" {
			return Operation{}, fmt.Errorf("remove needs a path")
		}
		if _, err := menu.ParsePath(s.Remove.Path); err != nil {
			return Operation{}, err
		}
		return Remove(s.Remove.Path, s.Remove.Action), nil
	case s.Append != nil:
		return s.Append.operation()
	default:
		return Operation{}, fmt.Errorf("step is neither append nor remove")
	}
}

func (a appendSpec) operation() (Operation, error) {
	link, err := menu.ParseLink(a.Link)
	if err != nil {
		return Operation{}, err
	}
	if _, err := menu.ParsePath(a.Parent); err != nil {
		return Operation{}, err
	}

	opts := []AppendOption{WithParent(a.Parent)}
	switch link {
	case menu.LinkSection:
		opts = append(opts, AsSection())
	case menu.LinkSubmenu:
		opts = append(opts, AsSubmenu())
	}

	for name, raw := range a.Attributes {
		value, err := variant.Infer(raw)
		if err != nil {
			return Operation{}, fmt.Errorf("attribute %q: %w", name, err)
		}
		opts = append(opts, WithAttribute(name, value))
	}

	if a.State != nil {
		if link != menu.LinkNone {
			return Operation{}, fmt.Errorf("%s %q cannot carry action state", link, a.Label)
		}
		state, err := variant.Infer(a.State)
		if err != nil {
			return Operation{}, fmt.Errorf("state: %w", err)
		}
		opts = append(opts, WithState(state))
	}

	return Append(a.Label, a.Action, opts...), nil
}
