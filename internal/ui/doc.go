// Package ui renders zkgit's terminal output.
//
// Formatters color their text with fatih/color. When NO_COLOR is set or the
// terminal has no color support they fall back to plain decorations, so
// output stays readable in hooks and logs:
//
//	ui.Code.Sprint("zkgit hook PUSH app")  // `zkgit hook PUSH app`
//	ui.Highlight.Sprint("alice")           // 'alice'
//	ui.Muted.Sprint("SIGNATURE")           // (SIGNATURE)
//
// Result prefixes a command outcome with a check or a cross. BridgeStatus
// describes the loopback listener the shell and hooks share.
package ui
