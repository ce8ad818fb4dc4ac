// Package ui holds the styling shared by relaystat's command-line output:
// the color palette, status symbols and a text rendition of the
// accounting usage bar.
//
// Colors are ANSI codes so that output stays readable over SSH sessions
// and in the journal of a headless relay. Lip Gloss drops them
// automatically when stdout is not a terminal.
package ui
