package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/corddisc/corddisc/model"
)

// palette is the terminal rendition of one of the ten color themes.
type palette struct {
	accent lipgloss.Color // headers, active room, own name
	muted  lipgloss.Color // timestamps, codes, hints
	border lipgloss.Color
}

var palettes = map[model.Theme]palette{
	model.ThemeWhite:  {accent: "#3B82F6", muted: "#9CA3AF", border: "#D1D5DB"},
	model.ThemeRed:    {accent: "#EF4444", muted: "#FCA5A5", border: "#B91C1C"},
	model.ThemeOrange: {accent: "#F97316", muted: "#FDBA74", border: "#C2410C"},
	model.ThemeYellow: {accent: "#EAB308", muted: "#FDE047", border: "#A16207"},
	model.ThemeGreen:  {accent: "#22C55E", muted: "#86EFAC", border: "#15803D"},
	model.ThemeBlue:   {accent: "#3B82F6", muted: "#93C5FD", border: "#1D4ED8"},
	model.ThemeIndigo: {accent: "#6366F1", muted: "#A5B4FC", border: "#4338CA"},
	model.ThemeViolet: {accent: "#8B5CF6", muted: "#C4B5FD", border: "#6D28D9"},
	model.ThemeGray:   {accent: "#9CA3AF", muted: "#6B7280", border: "#4B5563"},
	model.ThemeBlack:  {accent: "#E5E7EB", muted: "#52525B", border: "#27272A"},
}

func paletteFor(theme model.Theme) palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[model.DefaultTheme]
}

func (p palette) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.accent).Bold(true)
}

func (p palette) mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.muted)
}

func (p palette) borderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.border)
}
