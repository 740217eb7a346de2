// Package display hands rendered text to the LED matrix.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sweeney/matrix-clock/internal/logic"
)

// Renderer draws a frame. Rendering never fails from the caller's point of
// view: implementations log their own errors.
type Renderer interface {
	Render(text string, mode logic.Mode)
}

// EncodeFrame builds one line of the matrix controller protocol:
// "<D|N>|<line>|<line>...\r\n".
func EncodeFrame(text string, mode logic.Mode) []byte {
	period := "D"
	if mode.Period == logic.PeriodNight {
		period = "N"
	}
	lines := strings.ReplaceAll(text, "\n", "|")
	return []byte(fmt.Sprintf("%s|%s\r\n", period, lines))
}

// Console writes frames to w, e.g. stdout when no matrix is attached.
type Console struct {
	w io.Writer
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Render writes the encoded frame.
func (c *Console) Render(text string, mode logic.Mode) {
	if _, err := c.w.Write(EncodeFrame(text, mode)); err != nil {
		log.Warn().Err(err).Msg("console render failed")
	}
}
