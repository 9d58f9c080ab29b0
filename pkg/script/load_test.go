package script

import (
	"os"
	"path/filepath"
	"testing"

	"menuscript/pkg/menu"
	"menuscript/pkg/variant"
)

const sampleYAML = `
name: sample
steps:
  - append: {label: Menu0, action: Menu0Act, attributes: {x-int16: {type: n, value: -42}, x-flag: true}}
  - append: {label: Menu2, link: section}
  - append: {label: Menu2.1, action: Menu2.1Act, parent: 1}
  - append: {label: Toggle, action: toggle, state: {type: b, value: false}}
  - remove: {path: "1", action: Menu1Act}
`

func TestParseYAMLScript(t *testing.T) {
	t.Parallel()

	s, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if s.Name != "sample" || len(s.Steps) != 5 {
		t.Fatalf("script = %q with %d steps", s.Name, len(s.Steps))
	}

	first := s.Steps[0]
	if first.Kind != OpAppend || first.Label != "Menu0" || first.Action != "Menu0Act" {
		t.Fatalf("step 0 = %+v", first)
	}
	if got := first.Attributes["x-int16"]; !got.Equal(variant.NewInt16(-42)) {
		t.Fatalf("x-int16 = %v, want int16 -42", got)
	}
	if got := first.Attributes["x-flag"]; !got.Equal(variant.NewBool(true)) {
		t.Fatalf("x-flag = %v, want true", got)
	}

	if s.Steps[1].Link != menu.LinkSection {
		t.Fatalf("step 1 link = %v, want section", s.Steps[1].Link)
	}
	if s.Steps[2].Parent != "1" {
		t.Fatalf("step 2 parent = %q, want \"1\"", s.Steps[2].Parent)
	}
	if state := s.Steps[3].State; state == nil || state.Signature() != "b" {
		t.Fatalf("step 3 state = %v", state)
	}

	last := s.Steps[4]
	if last.Kind != OpRemove || last.Path != "1" || last.Action != "Menu1Act" {
		t.Fatalf("step 4 = %+v", last)
	}
}

func TestParseJSONScript(t *testing.T) {
	t.Parallel()

	doc := `{"steps": [{"append": {"label": "A", "action": "a", "attributes": {"x-count": 3}}}, {"remove": {"path": "0"}}]}`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(s.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(s.Steps))
	}
	if got := s.Steps[0].Attributes["x-count"]; got.Kind() != variant.Int64 || got.Int() != 3 {
		t.Fatalf("x-count = %v, want int64 3", got)
	}
}

func TestParseRejectsBadSteps(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty step":     "steps:\n  - {}\n",
		"both kinds":     "steps:\n  - {append: {label: a}, remove: {path: '0'}}\n",
		"remove no path": "steps:\n  - remove: {action: a}\n",
		"bad path":       "steps:\n  - remove: {path: 'x.1'}\n",
		"bad link":       "steps:\n  - append: {label: a, link: folder}\n",
		"unknown key":    "steps:\n  - append: {label: a, colour: red}\n",
		"section state":  "steps:\n  - append: {label: a, link: section, state: true}\n",
		"overflow":       "steps:\n  - append: {label: a, attributes: {x: {type: y, value: 300}}}\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParseKeepsDottedPathsExact(t *testing.T) {
	t.Parallel()

	for name, doc := range map[string]string{
		"remove path":   "steps:\n  - remove: {path: 1.0}\n",
		"append parent": "steps:\n  - append: {label: a, parent: 2.10}\n",
		"json path":     `{"steps": [{"remove": {"path": 1.0}}]}`,
	} {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error for an unquoted dotted path", name)
		}
	}

	s, err := Parse([]byte("steps:\n  - remove: {path: \"1.0\"}\n  - append: {label: a, parent: '2.10'}\n  - remove: {path: 3}\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := s.Steps[0].Path; got != "1.0" {
		t.Fatalf("path = %q, want \"1.0\"", got)
	}
	if got := s.Steps[1].Parent; got != "2.10" {
		t.Fatalf("parent = %q, want \"2.10\"", got)
	}
	if got := s.Steps[2].Path; got != "3" {
		t.Fatalf("path = %q, want \"3\"", got)
	}
}

func TestLoadFileDefaultsNameToPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte("steps:\n  - append: {label: a, action: a}\n"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if s.Name != path || s.Queue().Len() != 1 {
		t.Fatalf("script = %q with %d steps", s.Name, s.Queue().Len())
	}
}

func TestScenariosApplyCleanly(t *testing.T) {
	t.Parallel()

	for _, name := range Scenarios() {
		s, err := Scenario(name)
		if err != nil {
			t.Fatalf("Scenario(%q) error: %v", name, err)
		}
		if _, err := s.Queue().StepN(newTarget(), -1); err != nil {
			t.Fatalf("scenario %s: %v", name, err)
		}
	}

	if _, err := Scenario("nope"); err == nil {
		t.Fatal("expected unknown scenario error")
	}
}

func TestModelScenarioShape(t *testing.T) {
	t.Parallel()

	s, err := Scenario("model")
	if err != nil {
		t.Fatalf("Scenario error: %v", err)
	}
	target := newTarget()
	if _, err := s.Queue().StepN(target, -1); err != nil {
		t.Fatalf("StepN error: %v", err)
	}

	snap := target.Tree.Snapshot()
	if got := len(snap.Children); got != 4 {
		t.Fatalf("root children = %d, want 4", got)
	}
	if got := len(snap.Children[0].Attributes); got != 12 {
		t.Fatalf("Menu0 attributes = %d, want 12", got)
	}
	submenu, _ := snap.Find(3)
	if submenu.Kind != menu.KindSubmenu || len(submenu.Children) != 2 {
		t.Fatalf("Menu3 = %+v", submenu)
	}
}
