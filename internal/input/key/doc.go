// Package key provides key event types and chord parsing for accelerators.
//
// This package defines the types the command bar uses to describe keyboard
// input:
//
//   - Key: Identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Meta)
//   - Event: A single key press with modifiers (one chord)
//   - Chords: An ordered list of events forming a multi-chord accelerator
//
// # Chord Specifications
//
// Chords can be written in several notations, all of which normalize to the
// same canonical name:
//
//   - GTK-style: "<Control>k", "<Control><Shift>F4", "<Alt>Return"
//   - Plus-style: "Ctrl+K", "Alt+F4", "Ctrl+Shift+P"
//   - Vim-style: "<C-k>", "<A-F4>", "<C-S-p>"
//   - Plain keys: "a", "F5", "Escape"
//
// Normalize returns the canonical name ("<Control>k") which accelerator
// groups use as their map key.
package key
