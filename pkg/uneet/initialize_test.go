// SPDX-License-Identifier: MPL-2.0

package uneet

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

// chain builds a registry of descriptors linked root first.
func chain(autos ...bool) (*Registry, []*Descriptor) {
	reg := NewRegistry()
	var ds []*Descriptor
	var parent *html.Node
	for i, auto := range autos {
		d := &Descriptor{
			Name:       string(rune('A' + i)),
			Node:       &html.Node{},
			Enablement: Enablement{AutoInitialize: auto},
			Parent:     parent,
		}
		reg.Add(d)
		ds = append(ds, d)
		parent = d.Node
	}
	return reg, ds
}

func TestShouldInitialize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		autos []bool
		force bool
		want  []bool
	}{
		{"all enabled", []bool{true, true, true}, false, []bool{true, true, true}},
		{"root opted out gates descendants", []bool{false, true, true}, false, []bool{false, false, false}},
		{"middle opted out", []bool{true, false, true}, false, []bool{true, false, false}},
		{"force bypasses chain", []bool{false, false, true}, true, []bool{true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg, ds := chain(tt.autos...)
			var got []bool
			for _, d := range ds {
				got = append(got, ShouldInitialize(d, reg, tt.force))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ShouldInitialize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestShouldInitialize_UnresolvedParent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	d := &Descriptor{Name: "X", Node: &html.Node{}, Enablement: DefaultEnablement(), Parent: &html.Node{}}
	reg.Add(d)
	if ShouldInitialize(d, reg, false) {
		t.Error("an unresolved parent must block initialization")
	}
	if !ShouldInitialize(d, reg, true) {
		t.Error("force must admit regardless of the parent")
	}
}

func TestShouldInitialize_Cycle(t *testing.T) {
	t.Parallel()

	reg, ds := chain(true, true)
	ds[0].Parent = ds[1].Node
	if ShouldInitialize(ds[1], reg, false) {
		t.Error("a parent cycle must not be admitted")
	}
}

func TestInitialize_Outcomes(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	rec := newRecorder()
	factories := rec.factories("A", "Fine")
	factories["Broken"] = FactoryFunc(func(Component, *Shared) error { return boom })
	factories["Panics"] = FactoryFunc(func(Component, *Shared) error { panic("nope") })

	reg := NewRegistry()
	add := func(name string, auto bool) {
		reg.Add(&Descriptor{Name: name, Node: &html.Node{}, Enablement: Enablement{AutoInitialize: auto}})
	}
	add("A", true)
	add("Fine", false)
	add("Broken", true)
	add("Panics", true)
	add("Fne", true)
	add("", true)

	log := &recordingLogger{}
	report := Initialize(reg, factories, false, &Shared{Log: log})

	var states []State
	for _, o := range report.Outcomes {
		states = append(states, o.State)
	}
	want := []State{StateInitialized, StateSkipped, StateFailed, StateFailed, StateMissing, StateUnnamed}
	if diff := cmp.Diff(want, states); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}

	if !errors.Is(report.Outcomes[2].Err, boom) || !errors.Is(report.Outcomes[2].Err, ErrFactoryFailed) {
		t.Errorf("failed outcome error = %v, want wrapping boom and ErrFactoryFailed", report.Outcomes[2].Err)
	}
	if !errors.Is(report.Err(), ErrFactoryFailed) {
		t.Errorf("Report.Err() = %v, want ErrFactoryFailed", report.Err())
	}
	if got := report.Outcomes[4].Suggestion; got != "Fine" {
		t.Errorf("Suggestion = %q, want Fine", got)
	}
	if len(log.find("warn", "Fne")) != 1 {
		t.Errorf("expected one warning naming Fne, got %+v", log.entries)
	}
	if len(log.find("error", "Broken")) != 1 {
		t.Errorf("expected one error log naming Broken, got %+v", log.entries)
	}
	if rec.calls["A"] != 1 || rec.calls["Fine"] != 0 {
		t.Errorf("calls = %v, want A once and Fine never", rec.calls)
	}
	if report.Count(StateFailed) != 2 {
		t.Errorf("Count(failed) = %d, want 2", report.Count(StateFailed))
	}
}

func TestInitialize_ComponentContext(t *testing.T) {
	t.Parallel()

	reg, node := buildLinked(t, `
<div id="p" data-gf-uneet="P" data-gf-x="1">
  <div id="c" data-gf-uneet="C" data-gf-y="true"></div>
</div>`, gf)

	rec := newRecorder()
	shared := &Shared{Log: Discard(), Values: map[string]any{"k": "v"}}
	var seen []*Shared
	factories := rec.factories("P", "C")
	inner := factories["C"]
	factories["C"] = FactoryFunc(func(c Component, s *Shared) error {
		seen = append(seen, s)
		return inner.Init(c, s)
	})

	Initialize(reg, factories, false, shared)

	if len(rec.components) != 2 {
		t.Fatalf("got %d factory calls, want 2", len(rec.components))
	}
	p, c := rec.components[0], rec.components[1]
	if p.Parent != nil {
		t.Errorf("root component Parent = %+v, want nil", p.Parent)
	}
	if len(p.Children) != 1 {
		t.Errorf("root component Children = %v, want one", p.Children)
	}
	if c.Parent == nil || c.Parent.Node != node("p") {
		t.Fatalf("child component Parent = %+v, want #p", c.Parent)
	}
	if diff := cmp.Diff(Props{"x": float64(1)}, c.Parent.Props); diff != "" {
		t.Errorf("child Parent.Props mismatch (-want +got):\n%s", diff)
	}
	if c.Children != nil {
		t.Errorf("leaf component Children = %v, want nil", c.Children)
	}
	if c.Name != "C" || c.Node != node("c") {
		t.Errorf("child component = %+v", c)
	}
	if len(seen) != 1 || seen[0] != shared {
		t.Error("shared context must be passed through unchanged")
	}
}

func TestInitialize_NilShared(t *testing.T) {
	t.Parallel()

	reg, _ := chain(true)
	report := Initialize(reg, nil, false, nil)
	if report.Count(StateMissing) != 1 {
		t.Errorf("Count(missing) = %d, want 1", report.Count(StateMissing))
	}
	if report.Outcomes[0].Suggestion != "" {
		t.Errorf("Suggestion = %q, want none without factories", report.Outcomes[0].Suggestion)
	}
}
