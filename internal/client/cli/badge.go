package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/dmitrijs2005/reconkeeper/internal/client/models"
)

// isTerminal is a test seam for TTY detection on w.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type palette struct {
	ok, fail, busy, idle, bold *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		ok:   mk(color.FgGreen),
		fail: mk(color.FgRed),
		busy: mk(color.FgCyan),
		idle: mk(color.FgHiBlack),
		bold: mk(color.Bold),
	}
}

// badge renders a fixed-width status label for an upload state.
func (p palette) badge(s models.UploadStatus) string {
	label := fmt.Sprintf("[%-10s]", s)
	switch s {
	case models.StateSuccess:
		return p.ok.Sprint(label)
	case models.StateError:
		return p.fail.Sprint(label)
	case models.StatePending:
		return p.idle.Sprint(label)
	default:
		return p.busy.Sprint(label)
	}
}
