package recon

import (
	"strings"

	"github.com/fatih/color"
)

// ColorAttr classifies written tokens for highlighting.
type ColorAttr int

const (
	PunctColor ColorAttr = iota
	AttrColor
	KeyColor
	TextColor
	StringColor
	NumColor
	BoolColor
	DataColor
	OpColor
	SelectorColor
)

// Colors maps token classes to ANSI color functions.
type Colors struct {
	Default func(string, ...any) string
	Map     map[ColorAttr]func(string, ...any) string
}

// NewColors returns the default terminal palette.
func NewColors() *Colors {
	colors := &Colors{
		Default: colorDefault,
		Map: map[ColorAttr]func(string, ...any) string{
			PunctColor:    color.RGB(196, 128, 128).SprintfFunc(),
			AttrColor:     color.RGB(74, 92, 138).SprintfFunc(),
			KeyColor:      color.RGB(128, 168, 196).SprintfFunc(),
			TextColor:     color.RGB(88, 158, 86).SprintfFunc(),
			StringColor:   color.RGB(8, 196, 16).SprintfFunc(),
			NumColor:      color.RGB(128, 216, 236).SprintfFunc(),
			BoolColor:     color.CyanString,
			DataColor:     color.RGB(198, 198, 46).SprintfFunc(),
			OpColor:       color.RGB(255, 0, 196).SprintfFunc(),
			SelectorColor: color.RGB(196, 96, 16).SprintfFunc(),
		},
	}
	for k, f := range colors.Map {
		colors.Map[k] = func(v string, _ ...any) string {
			return f(strings.ReplaceAll(v, "%", "%%"))
		}
	}
	return colors
}

func colorDefault(v string, _ ...any) string { return v }

// Color renders s in the color of a.
func (c *Colors) Color(a ColorAttr, s string) string {
	return c.Get(a)(s)
}

func (c *Colors) Get(a ColorAttr) func(string, ...any) string {
	f := c.Map[a]
	if f == nil {
		return c.Default
	}
	return f
}
