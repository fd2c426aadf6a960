package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func submit(t *testing.T, p Palette, line string) Palette {
	t.Helper()
	p.Open()
	p.input.SetValue(line)
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter should emit a message")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != line {
		t.Fatalf("unexpected submit message: %#v", msg)
	}
	return p
}

func TestPaletteOpenSubmitAndRecall(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	if p.Visible() {
		t.Fatalf("new palette should be hidden")
	}
	p = submit(t, p, "start ann s1")
	p = submit(t, p, "reset")
	if p.Visible() {
		t.Fatalf("submit should hide the palette")
	}

	p.Open()
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := p.input.Value(); got != "reset" {
		t.Fatalf("first up should recall the latest line, got %q", got)
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := p.input.Value(); got != "start ann s1" {
		t.Fatalf("second up should recall the older line, got %q", got)
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := p.input.Value(); got != "" {
		t.Fatalf("walking past the newest line should clear the input, got %q", got)
	}
}

func TestPaletteEscCancels(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	p.Open()
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Visible() {
		t.Fatalf("esc should hide the palette")
	}
	if _, ok := cmd().(PaletteCancelMsg); !ok {
		t.Fatalf("esc should emit a cancel message")
	}
	if len(p.history) != 0 {
		t.Fatalf("cancelled input must not enter history")
	}
}
