package ui

import "testing"

func TestConfigureTheme(t *testing.T) {
	orig := AccentColor()
	defer ConfigureTheme(orig)

	ConfigureTheme("")
	if AccentColor() != orig {
		t.Error("empty accent must keep the current color")
	}

	ConfigureTheme("#FF0000")
	if AccentColor() != "#FF0000" {
		t.Errorf("accent = %q", AccentColor())
	}
}

func TestOutputSymbols(t *testing.T) {
	if got := Success("done"); got != SymbolSuccess+" done" {
		t.Errorf("Success = %q", got)
	}
	if got := Errorf("%d broken", 3); got != SymbolError+" 3 broken" {
		t.Errorf("Errorf = %q", got)
	}
	if got := Warning("careful"); got != SymbolWarning+" careful" {
		t.Errorf("Warning = %q", got)
	}
}
