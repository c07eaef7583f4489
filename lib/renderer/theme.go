// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package renderer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the renderer's color palette. Colors are ANSI
// 256-color codes; lipgloss degrades them for smaller profiles.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Focused control.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	SplitterColor    lipgloss.Color
	ButtonBackground lipgloss.Color
	HelpText         lipgloss.Color

	// Dropdown overlay.
	OverlayBackground lipgloss.Color

	// Status line log records.
	WarnText  lipgloss.Color
	ErrorText lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("25"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	SplitterColor:    lipgloss.Color("238"),
	ButtonBackground: lipgloss.Color("237"),
	HelpText:         lipgloss.Color("241"),

	OverlayBackground: lipgloss.Color("236"),

	WarnText:  lipgloss.Color("220"),
	ErrorText: lipgloss.Color("196"),
}

// styles are the theme's colors bound to one lipgloss renderer.
type styles struct {
	normal   lipgloss.Style
	faint    lipgloss.Style
	header   lipgloss.Style
	border   lipgloss.Style
	splitter lipgloss.Style
	button   lipgloss.Style
	focused  lipgloss.Style
	overlay  lipgloss.Style
	help     lipgloss.Style
	warn     lipgloss.Style
	error    lipgloss.Style
}

func newStyles(renderer *lipgloss.Renderer, theme Theme) styles {
	return styles{
		normal:   renderer.NewStyle().Foreground(theme.NormalText),
		faint:    renderer.NewStyle().Foreground(theme.FaintText),
		header:   renderer.NewStyle().Foreground(theme.HeaderForeground).Bold(true),
		border:   renderer.NewStyle().Foreground(theme.BorderColor),
		splitter: renderer.NewStyle().Foreground(theme.SplitterColor),
		button:   renderer.NewStyle().Foreground(theme.NormalText).Background(theme.ButtonBackground),
		focused:  renderer.NewStyle().Foreground(theme.SelectedForeground).Background(theme.SelectedBackground).Bold(true),
		overlay:  renderer.NewStyle().Foreground(theme.NormalText).Background(theme.OverlayBackground),
		help:     renderer.NewStyle().Foreground(theme.HelpText),
		warn:     renderer.NewStyle().Foreground(theme.WarnText),
		error:    renderer.NewStyle().Foreground(theme.ErrorText).Bold(true),
	}
}

// ColorProfile resolves a configured profile name: auto, truecolor,
// ansi256, ansi, or none. Auto inspects the environment.
func ColorProfile(name string) (termenv.Profile, error) {
	switch name {
	case "auto", "":
		return termenv.EnvColorProfile(), nil
	case "truecolor":
		return termenv.TrueColor, nil
	case "ansi256":
		return termenv.ANSI256, nil
	case "ansi":
		return termenv.ANSI, nil
	case "none":
		return termenv.Ascii, nil
	default:
		return termenv.Ascii, fmt.Errorf("unknown color profile %q", name)
	}
}

// NewLipglossRenderer returns a lipgloss renderer writing to output
// with a fixed color profile. SetColorProfile is required because the
// renderer otherwise re-detects the profile from the environment.
func NewLipglossRenderer(output io.Writer, profile termenv.Profile) *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)
	return renderer
}
