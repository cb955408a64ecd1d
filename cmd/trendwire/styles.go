package main

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarning   = lipgloss.Color("214") // Orange
	colorError     = lipgloss.Color("196") // Red
)

var headingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

var subtleStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

var badgeStyle = lipgloss.NewStyle().
	Foreground(colorPrimary).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginRight(1)

var scoreStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Width(6).
	Align(lipgloss.Right)

var staleStyle = lipgloss.NewStyle().
	Foreground(colorWarning)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorError)

var indexStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Width(4).
	Align(lipgloss.Right).
	MarginRight(1)
