package tree

import (
	"strings"

	"github.com/fatih/color"
)

const (
	indentUnit = "    "

	dirIcon     = "📁 "
	otherIcon   = "📄 "
	warningIcon = "⚠️ "
)

//nolint:gochecknoglobals
var separator = strings.Repeat("-", 40)

type style struct {
	dir     *color.Color
	matched *color.Color
	other   *color.Color
	warning *color.Color
	rule    *color.Color
}

func newStyle(noColor bool) *style {
	s := &style{
		dir:     color.New(color.FgBlue, color.Bold),
		matched: color.New(color.FgGreen),
		other:   color.New(color.Faint),
		warning: color.New(color.FgYellow),
		rule:    color.RGB(120, 120, 120),
	}

	if noColor {
		for _, c := range []*color.Color{s.dir, s.matched, s.other, s.warning, s.rule} {
			c.DisableColor()
		}
	}

	return s
}

func indentFor(depth int) string {
	return strings.Repeat(indentUnit, depth)
}
