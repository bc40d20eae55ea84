package key

import "testing"

func TestModifierHas(t *testing.T) {
	tests := []struct {
		mod    Modifier
		check  Modifier
		expect bool
	}{
		{ModNone, ModCtrl, false},
		{ModCtrl, ModCtrl, true},
		{ModCtrl | ModAlt, ModAlt, true},
		{ModCtrl | ModAlt, ModShift, false},
		{ModMask, ModMeta, true},
	}

	for _, tt := range tests {
		if got := tt.mod.Has(tt.check); got != tt.expect {
			t.Errorf("Modifier(%d).Has(%d) = %v, want %v", tt.mod, tt.check, got, tt.expect)
		}
	}
}

func TestModifierWith(t *testing.T) {
	mod := ModNone.With(ModCtrl).With(ModShift)
	if !mod.Has(ModCtrl) || !mod.HasShift() {
		t.Fatalf("With should accumulate, got %v", mod)
	}
	if mod.IsEmpty() {
		t.Error("Ctrl+Shift should not be empty")
	}
	if !ModNone.IsEmpty() {
		t.Error("ModNone should be empty")
	}
	if !mod.IsModified() || ModShift.IsModified() {
		t.Error("only Ctrl, Alt and Meta count as modified")
	}
}

func TestModifierTags(t *testing.T) {
	tests := []struct {
		mod  Modifier
		want string
	}{
		{ModNone, ""},
		{ModCtrl, "<Control>"},
		{ModShift | ModCtrl, "<Control><Shift>"},
		{ModMeta | ModAlt | ModCtrl | ModShift, "<Control><Alt><Shift><Meta>"},
	}

	for _, tt := range tests {
		if got := tt.mod.Tags(); got != tt.want {
			t.Errorf("Modifier(%d).Tags() = %q, want %q", tt.mod, got, tt.want)
		}
	}
}

func TestModifierFromName(t *testing.T) {
	tests := []struct {
		name string
		want Modifier
	}{
		{"Control", ModCtrl},
		{"primary", ModCtrl},
		{"Mod1", ModAlt},
		{" shift ", ModShift},
		{"Super", ModMeta},
		{"hyper", ModNone},
	}

	for _, tt := range tests {
		if got := ModifierFromName(tt.name); got != tt.want {
			t.Errorf("ModifierFromName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
