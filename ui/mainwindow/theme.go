package mainwindow

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// RoomStagerTheme provides a custom theme for the application.
type RoomStagerTheme struct{}

var _ fyne.Theme = (*RoomStagerTheme)(nil)

func (t *RoomStagerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xC6, G: 0x5D, B: 0x3B, A: 0xFF} // Terracotta
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xFF, G: 0x28, B: 0x50, A: 0x60} // Matches the brush tint
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *RoomStagerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *RoomStagerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *RoomStagerTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 14
	default:
		return theme.DefaultTheme().Size(name)
	}
}
