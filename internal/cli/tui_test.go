package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/olsclient/pkg/ols"
)

func testHits() []ols.Entity {
	return []ols.Entity{
		&ols.Ontology{OntologyID: "duo", Config: ols.OntologyConfig{Title: "Data Use Ontology"}},
		&ols.Term{IRI: "http://purl.obolibrary.org/obo/DUO_0000001", Label: "no restriction", OntologyName: "duo"},
		&ols.Property{IRI: "http://purl.obolibrary.org/obo/duo#p", Label: "has purpose", OntologyName: "duo"},
		&ols.Individual{IRI: "http://purl.obolibrary.org/obo/duo#i", Label: "an individual", OntologyName: "efo"},
	}
}

func press(m SearchPickerModel, key string) (SearchPickerModel, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(SearchPickerModel), cmd
}

func TestSearchPickerNavigation(t *testing.T) {
	m := NewSearchPickerModel(testHits(), 10)

	m, _ = press(m, "up")
	if m.Cursor != 0 {
		t.Errorf("cursor moved above the first hit: %d", m.Cursor)
	}
	for range 10 {
		m, _ = press(m, "j")
	}
	if m.Cursor != 3 {
		t.Errorf("cursor = %d, want 3 (last hit)", m.Cursor)
	}
	m, _ = press(m, "k")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}
}

func TestSearchPickerSelect(t *testing.T) {
	m := NewSearchPickerModel(testHits(), 4)
	m, _ = press(m, "down")
	m, cmd := press(m, "enter")

	if cmd == nil {
		t.Fatal("enter should quit")
	}
	term, ok := m.Selected.(*ols.Term)
	if !ok || term.Label != "no restriction" {
		t.Errorf("Selected = %#v", m.Selected)
	}
}

func TestSearchPickerQuit(t *testing.T) {
	m := NewSearchPickerModel(testHits(), 4)
	m, cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if m.Selected != nil {
		t.Errorf("Selected = %#v, want nil", m.Selected)
	}
}

func TestSearchPickerEmpty(t *testing.T) {
	m := NewSearchPickerModel(nil, 0)
	m, cmd := press(m, "enter")
	if cmd != nil || m.Selected != nil {
		t.Error("enter on an empty picker should do nothing")
	}
}

func TestSearchPickerScrolls(t *testing.T) {
	m := NewSearchPickerModel(testHits(), 4)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 2})
	m = next.(SearchPickerModel)
	if m.Height != 5 {
		t.Fatalf("Height = %d, want the minimum of 5", m.Height)
	}

	m.Height = 2
	for range 3 {
		m, _ = press(m, "down")
	}
	if m.Offset != 2 {
		t.Errorf("Offset = %d, want 2", m.Offset)
	}
	if strings.Contains(m.View(), "Data Use Ontology") {
		t.Error("scrolled-out hit still rendered")
	}
}

func TestSearchPickerView(t *testing.T) {
	view := NewSearchPickerModel(testHits(), 12).View()
	for _, want := range []string{"Select a Result", "Data Use Ontology", "no restriction", "has purpose", "individuals", "[1/4 of 12]"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestHitAccession(t *testing.T) {
	tests := []struct {
		hit  ols.Entity
		want string
	}{
		{&ols.Ontology{OntologyID: "efo"}, "efo"},
		{&ols.Property{IRI: "http://x/p", OboID: "RO:0000001"}, "RO:0000001"},
		{&ols.Individual{IRI: "http://x/i"}, "http://x/i"},
		{&ols.Term{IRI: "http://x/t"}, "http://x/t"},
	}
	for _, tt := range tests {
		if got := hitAccession(tt.hit); got != tt.want {
			t.Errorf("hitAccession(%T) = %q, want %q", tt.hit, got, tt.want)
		}
	}
}
