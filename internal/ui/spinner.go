package ui

import (
	"github.com/charmbracelet/huh/spinner"
)

// WithSpinner runs action behind an animated spinner.
func WithSpinner(title string, action func()) {
	_ = spinner.New().
		Title(title).
		Type(spinner.Dots).
		Action(action).
		Run()
}
